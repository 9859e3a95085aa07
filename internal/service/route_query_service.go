package service

import (
	"context"
	"encoding/json"
	"fmt"

	"routeplanner/internal/cache"
	"routeplanner/internal/model"
	"routeplanner/internal/repository"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Sort whitelist; anything else falls back to created_at DESC.
var validSortFields = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"name":        true,
	"day_of_week": true,
}

// ListRoutesQuery holds filter, sort and pagination parameters for a route
// listing.
type ListRoutesQuery struct {
	Page      int
	Limit     int
	DayOfWeek *int
	IsActive  *bool
	Search    string
	Sort      string
	Order     string
}

// Pagination is the page metadata returned alongside a listing.
type Pagination struct {
	CurrentPage  int   `json:"current_page"`
	TotalPages   int   `json:"total_pages"`
	TotalItems   int64 `json:"total_items"`
	ItemsPerPage int   `json:"items_per_page"`
	HasNext      bool  `json:"has_next"`
	HasPrev      bool  `json:"has_prev"`
}

// RouteList is a page of routes with its pagination metadata.
type RouteList struct {
	Routes     []model.Route `json:"routes"`
	Pagination Pagination    `json:"pagination"`
}

// RouteQueryService serves filtered, paginated route listings, composing the
// response cache with repository reads.
type RouteQueryService interface {
	List(ctx context.Context, userID uint, query ListRoutesQuery) (*RouteList, error)
}

type routeQueryService struct {
	repo  repository.RouteRepository
	cache *cache.ResponseCache
}

// NewRouteQueryService creates a new route query service.
func NewRouteQueryService(repo repository.RouteRepository, responseCache *cache.ResponseCache) RouteQueryService {
	return &routeQueryService{
		repo:  repo,
		cache: responseCache,
	}
}

// List returns one page of the user's routes. Results are cached per exact
// parameter combination; free-text searches bypass the cache because their
// key space is unbounded.
func (s *routeQueryService) List(ctx context.Context, userID uint, query ListRoutesQuery) (*RouteList, error) {
	normalize(&query)

	cacheable := query.Search == ""
	signature := listSignature(query)

	if cacheable {
		if data := s.cache.Get(ctx, userID, cache.ScopeRoutes, signature); data != nil {
			var cached RouteList
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	filter := repository.RouteFilter{
		DayOfWeek: query.DayOfWeek,
		IsActive:  query.IsActive,
		Search:    query.Search,
		Sort:      query.Sort,
		Order:     query.Order,
		Limit:     query.Limit,
		Offset:    (query.Page - 1) * query.Limit,
	}

	routes, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}

	totalPages := int((total + int64(query.Limit) - 1) / int64(query.Limit))
	result := &RouteList{
		Routes: routes,
		Pagination: Pagination{
			CurrentPage:  query.Page,
			TotalPages:   totalPages,
			TotalItems:   total,
			ItemsPerPage: query.Limit,
			HasNext:      query.Page < totalPages,
			HasPrev:      query.Page > 1,
		},
	}

	if cacheable {
		if payload, err := json.Marshal(result); err == nil {
			s.cache.Put(ctx, userID, cache.ScopeRoutes, signature, payload, cache.RoutesTTL)
		}
	}
	return result, nil
}

func normalize(q *ListRoutesQuery) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
	if !validSortFields[q.Sort] {
		q.Sort = "created_at"
	}
	if q.Order != "ASC" && q.Order != "DESC" {
		q.Order = "DESC"
	}
}

// listSignature canonicalizes the parameter combination into a cache key
// suffix. Search is excluded because searches are never cached.
func listSignature(q ListRoutesQuery) string {
	day := "any"
	if q.DayOfWeek != nil {
		day = fmt.Sprintf("%d", *q.DayOfWeek)
	}
	active := "any"
	if q.IsActive != nil {
		active = fmt.Sprintf("%t", *q.IsActive)
	}
	return fmt.Sprintf("list:p%d:l%d:d%s:a%s:%s:%s", q.Page, q.Limit, day, active, q.Sort, q.Order)
}
