package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"routeplanner/internal/cache"
	apperrors "routeplanner/internal/errors"
	"routeplanner/internal/geo"
	"routeplanner/internal/model"
	"routeplanner/internal/repository"
)

// WaypointInput is one stop in a route payload. OrderIndex and WaypointType
// default from the slice position: first is the start, last the end,
// everything between a stop.
type WaypointInput struct {
	Name          string
	Description   *string
	Address       *string
	Latitude      float64
	Longitude     float64
	OrderIndex    *int
	EstimatedMins int
	WaypointType  string
}

// CreateRouteInput is the payload for creating a route. TotalDistance, when
// supplied, is a client-side figure trusted over recomputation.
type CreateRouteInput struct {
	Name          string
	Description   *string
	DayOfWeek     int
	StartTime     *string
	EstimatedMins *int
	Waypoints     []WaypointInput
	TotalDistance *float64
}

// UpdateRouteInput carries a partial update. Nil fields are left untouched;
// a non-nil Waypoints slice replaces the whole existing set.
type UpdateRouteInput struct {
	Name          *string
	Description   *string
	DayOfWeek     *int
	StartTime     *string
	EstimatedMins *int
	IsActive      *bool
	Waypoints     []WaypointInput
	TotalDistance *float64
}

// RouteService owns the Route+Waypoint aggregate: every mutation is a single
// transaction followed by cache invalidation, so the cache can serve stale
// data only within its TTL, never past it.
type RouteService interface {
	Create(ctx context.Context, userID uint, input CreateRouteInput) (*model.Route, error)
	Update(ctx context.Context, userID uint, routeID uuid.UUID, input UpdateRouteInput) (*model.Route, error)
	SoftDelete(ctx context.Context, userID uint, routeID uuid.UUID) error
	Duplicate(ctx context.Context, userID uint, routeID uuid.UUID, newName *string, newDay *int) (*model.Route, error)
	GetByID(ctx context.Context, userID uint, routeID uuid.UUID) (*model.Route, error)
	ListByDay(ctx context.Context, userID uint, day int) ([]model.Route, error)
}

type routeService struct {
	repo  repository.RouteRepository
	cache *cache.ResponseCache
}

// NewRouteService creates a new route service.
func NewRouteService(repo repository.RouteRepository, responseCache *cache.ResponseCache) RouteService {
	return &routeService{
		repo:  repo,
		cache: responseCache,
	}
}

// Create persists a route and its waypoints atomically. Fewer than two
// waypoints is not a complete route.
func (s *routeService) Create(ctx context.Context, userID uint, input CreateRouteInput) (*model.Route, error) {
	if len(input.Waypoints) < 2 {
		return nil, apperrors.ErrInvalidRoute
	}
	if input.DayOfWeek < 0 || input.DayOfWeek > 6 {
		return nil, apperrors.ErrInvalidDay
	}

	route := &model.Route{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          input.Name,
		Description:   input.Description,
		DayOfWeek:     input.DayOfWeek,
		StartTime:     input.StartTime,
		EstimatedMins: input.EstimatedMins,
		IsActive:      true,
		TotalDistance: resolveDistance(input.TotalDistance, input.Waypoints),
	}
	waypoints := buildWaypoints(route.ID, input.Waypoints)

	err := s.repo.WithTransaction(ctx, func(ctx context.Context, repo repository.RouteRepository) error {
		if err := repo.Create(ctx, route); err != nil {
			return fmt.Errorf("create route: %w", err)
		}
		if err := repo.CreateWaypoints(ctx, waypoints); err != nil {
			return fmt.Errorf("create waypoints: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, userID, cache.ScopeRoutes, cache.ScopeStats)

	route.Waypoints = waypoints
	return route, nil
}

// Update applies a partial update. When waypoints are supplied the existing
// set is wholly replaced inside the same transaction; clients always resend
// the full ordered list, never a diff.
func (s *routeService) Update(ctx context.Context, userID uint, routeID uuid.UUID, input UpdateRouteInput) (*model.Route, error) {
	if input.Waypoints != nil && len(input.Waypoints) < 2 {
		return nil, apperrors.ErrInvalidRoute
	}
	if input.DayOfWeek != nil && (*input.DayOfWeek < 0 || *input.DayOfWeek > 6) {
		return nil, apperrors.ErrInvalidDay
	}

	err := s.repo.WithTransaction(ctx, func(ctx context.Context, repo repository.RouteRepository) error {
		if _, err := repo.FindByID(ctx, routeID, userID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.ErrRouteNotFound
			}
			return fmt.Errorf("find route: %w", err)
		}

		fields := map[string]interface{}{}
		if input.Name != nil {
			fields["name"] = *input.Name
		}
		if input.Description != nil {
			fields["description"] = *input.Description
		}
		if input.DayOfWeek != nil {
			fields["day_of_week"] = *input.DayOfWeek
		}
		if input.StartTime != nil {
			fields["start_time"] = *input.StartTime
		}
		if input.EstimatedMins != nil {
			fields["estimated_mins"] = *input.EstimatedMins
		}
		if input.IsActive != nil {
			fields["is_active"] = *input.IsActive
		}

		if input.Waypoints != nil {
			fields["total_distance"] = resolveDistance(input.TotalDistance, input.Waypoints)
			if err := repo.DeleteWaypoints(ctx, routeID); err != nil {
				return fmt.Errorf("delete waypoints: %w", err)
			}
			if err := repo.CreateWaypoints(ctx, buildWaypoints(routeID, input.Waypoints)); err != nil {
				return fmt.Errorf("create waypoints: %w", err)
			}
		} else if input.TotalDistance != nil {
			fields["total_distance"] = geo.Round(*input.TotalDistance)
		}

		if len(fields) == 0 {
			return nil
		}
		if err := repo.Update(ctx, routeID, fields); err != nil {
			return fmt.Errorf("update route: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, userID, cache.ScopeRoutes, cache.ScopeStats)

	route, err := s.repo.FindByID(ctx, routeID, userID)
	if err != nil {
		return nil, fmt.Errorf("reload route: %w", err)
	}
	return route, nil
}

// SoftDelete marks the route deleted. Deleting an already-deleted or
// foreign route reports not-found, not success.
func (s *routeService) SoftDelete(ctx context.Context, userID uint, routeID uuid.UUID) error {
	affected, err := s.repo.SoftDelete(ctx, routeID, userID)
	if err != nil {
		return fmt.Errorf("delete route: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrRouteNotFound
	}
	s.cache.Invalidate(ctx, userID, cache.ScopeRoutes, cache.ScopeStats)
	return nil
}

// Duplicate copies a route and its waypoints. The distance is copied
// verbatim since the waypoint set is unchanged.
func (s *routeService) Duplicate(ctx context.Context, userID uint, routeID uuid.UUID, newName *string, newDay *int) (*model.Route, error) {
	if newDay != nil && (*newDay < 0 || *newDay > 6) {
		return nil, apperrors.ErrInvalidDay
	}

	var copied *model.Route
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, repo repository.RouteRepository) error {
		source, err := repo.FindByID(ctx, routeID, userID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.ErrRouteNotFound
			}
			return fmt.Errorf("find route: %w", err)
		}

		name := source.Name + " (Copy)"
		if newName != nil {
			name = *newName
		}
		day := source.DayOfWeek
		if newDay != nil {
			day = *newDay
		}

		copied = &model.Route{
			ID:            uuid.New(),
			UserID:        userID,
			Name:          name,
			Description:   source.Description,
			DayOfWeek:     day,
			StartTime:     source.StartTime,
			EstimatedMins: source.EstimatedMins,
			IsActive:      true,
			TotalDistance: source.TotalDistance,
		}
		if err := repo.Create(ctx, copied); err != nil {
			return fmt.Errorf("create route copy: %w", err)
		}

		waypoints := make([]model.Waypoint, len(source.Waypoints))
		for i, wp := range source.Waypoints {
			waypoints[i] = model.Waypoint{
				ID:            uuid.New(),
				RouteID:       copied.ID,
				Name:          wp.Name,
				Description:   wp.Description,
				Address:       wp.Address,
				Latitude:      wp.Latitude,
				Longitude:     wp.Longitude,
				OrderIndex:    wp.OrderIndex,
				EstimatedMins: wp.EstimatedMins,
				WaypointType:  wp.WaypointType,
			}
		}
		if err := repo.CreateWaypoints(ctx, waypoints); err != nil {
			return fmt.Errorf("copy waypoints: %w", err)
		}
		copied.Waypoints = waypoints
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, userID, cache.ScopeRoutes, cache.ScopeStats)
	return copied, nil
}

// GetByID retrieves one route with caching.
func (s *routeService) GetByID(ctx context.Context, userID uint, routeID uuid.UUID) (*model.Route, error) {
	signature := "detail:" + routeID.String()
	if data := s.cache.Get(ctx, userID, cache.ScopeRoutes, signature); data != nil {
		var cached model.Route
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	route, err := s.repo.FindByID(ctx, routeID, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrRouteNotFound
		}
		return nil, fmt.Errorf("find route: %w", err)
	}

	if payload, err := json.Marshal(route); err == nil {
		s.cache.Put(ctx, userID, cache.ScopeRoutes, signature, payload, cache.RoutesTTL)
	}
	return route, nil
}

// ListByDay lists the user's active routes for one weekday, with caching.
func (s *routeService) ListByDay(ctx context.Context, userID uint, day int) ([]model.Route, error) {
	if day < 0 || day > 6 {
		return nil, apperrors.ErrInvalidDay
	}

	signature := fmt.Sprintf("day:%d", day)
	if data := s.cache.Get(ctx, userID, cache.ScopeRoutes, signature); data != nil {
		var cached []model.Route
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	routes, err := s.repo.ListByDay(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("list routes by day: %w", err)
	}

	if payload, err := json.Marshal(routes); err == nil {
		s.cache.Put(ctx, userID, cache.ScopeRoutes, signature, payload, cache.RoutesTTL)
	}
	return routes, nil
}

// resolveDistance prefers the caller-supplied figure and falls back to a
// haversine walk over the waypoint list.
func resolveDistance(supplied *float64, waypoints []WaypointInput) float64 {
	if supplied != nil {
		return geo.Round(*supplied)
	}
	points := make([]geo.Coordinate, len(waypoints))
	for i, wp := range waypoints {
		points[i] = geo.Coordinate{Latitude: wp.Latitude, Longitude: wp.Longitude}
	}
	return geo.TotalDistance(points)
}

// buildWaypoints materializes inputs into rows, deriving order index and
// role from position where the caller left them unset.
func buildWaypoints(routeID uuid.UUID, inputs []WaypointInput) []model.Waypoint {
	waypoints := make([]model.Waypoint, len(inputs))
	for i, in := range inputs {
		order := i
		if in.OrderIndex != nil {
			order = *in.OrderIndex
		}
		wpType := in.WaypointType
		if wpType == "" {
			switch i {
			case 0:
				wpType = model.WaypointTypeStart
			case len(inputs) - 1:
				wpType = model.WaypointTypeEnd
			default:
				wpType = model.WaypointTypeStop
			}
		}
		waypoints[i] = model.Waypoint{
			ID:            uuid.New(),
			RouteID:       routeID,
			Name:          in.Name,
			Description:   in.Description,
			Address:       in.Address,
			Latitude:      in.Latitude,
			Longitude:     in.Longitude,
			OrderIndex:    order,
			EstimatedMins: in.EstimatedMins,
			WaypointType:  wpType,
		}
	}
	return waypoints
}
