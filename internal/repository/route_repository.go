package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"routeplanner/internal/model"
)

// RouteFilter narrows and orders a route listing. Sort and Order are assumed
// to be whitelisted by the caller before they reach SQL.
type RouteFilter struct {
	DayOfWeek *int
	IsActive  *bool
	Search    string
	Sort      string
	Order     string
	Limit     int
	Offset    int
}

// RouteStats are per-user aggregates over non-deleted routes.
type RouteStats struct {
	TotalRoutes   int64
	ActiveRoutes  int64
	TotalDistance float64
	RoutesByDay   map[int]int64
}

// RouteRepository defines route and waypoint persistence operations.
// WithTransaction lets the service layer compose multi-row writes into a
// single atomic unit.
type RouteRepository interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo RouteRepository) error) error
	Create(ctx context.Context, route *model.Route) error
	CreateWaypoints(ctx context.Context, waypoints []model.Waypoint) error
	DeleteWaypoints(ctx context.Context, routeID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID, userID uint) (*model.Route, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	SoftDelete(ctx context.Context, id uuid.UUID, userID uint) (int64, error)
	List(ctx context.Context, userID uint, filter RouteFilter) ([]model.Route, int64, error)
	ListByDay(ctx context.Context, userID uint, day int) ([]model.Route, error)
	Stats(ctx context.Context, userID uint) (*RouteStats, error)
}

type routeRepository struct {
	db *gorm.DB
}

// NewRouteRepository builds a GORM-backed repository.
func NewRouteRepository(db *gorm.DB) RouteRepository {
	return &routeRepository{db: db}
}

// WithTransaction executes a function within a database transaction. Any
// error returned by fn, including a context cancellation surfacing through
// a query, rolls the whole transaction back.
func (r *routeRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo RouteRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &routeRepository{db: tx}
		return fn(ctx, txRepo)
	})
}

func (r *routeRepository) Create(ctx context.Context, route *model.Route) error {
	return r.db.WithContext(ctx).Omit("Waypoints").Create(route).Error
}

func (r *routeRepository) CreateWaypoints(ctx context.Context, waypoints []model.Waypoint) error {
	if len(waypoints) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&waypoints).Error
}

func (r *routeRepository) DeleteWaypoints(ctx context.Context, routeID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("route_id = ?", routeID).
		Delete(&model.Waypoint{}).Error
}

// FindByID loads an owned, non-deleted route with its waypoints in walk
// order.
func (r *routeRepository) FindByID(ctx context.Context, id uuid.UUID, userID uint) (*model.Route, error) {
	var route model.Route
	err := r.db.WithContext(ctx).
		Preload("Waypoints", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&route).Error
	if err != nil {
		return nil, err
	}
	return &route, nil
}

func (r *routeRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Route{}).
		Where("id = ?", id).Updates(fields).Error
}

// SoftDelete stamps deleted_at and reports how many rows matched, so the
// caller can distinguish "gone already" from "deleted now".
func (r *routeRepository) SoftDelete(ctx context.Context, id uuid.UUID, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.Route{})
	return res.RowsAffected, res.Error
}

func (r *routeRepository) List(ctx context.Context, userID uint, filter RouteFilter) ([]model.Route, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Route{}).Where("user_id = ?", userID)

	if filter.DayOfWeek != nil {
		query = query.Where("day_of_week = ?", *filter.DayOfWeek)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var routes []model.Route
	err := query.
		Preload("Waypoints", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Order(filter.Sort + " " + filter.Order).
		Limit(filter.Limit).Offset(filter.Offset).
		Find(&routes).Error
	if err != nil {
		return nil, 0, err
	}
	return routes, total, nil
}

// ListByDay returns active routes for a weekday, earliest start first with
// unscheduled routes last.
func (r *routeRepository) ListByDay(ctx context.Context, userID uint, day int) ([]model.Route, error) {
	var routes []model.Route
	err := r.db.WithContext(ctx).
		Preload("Waypoints", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Where("user_id = ? AND day_of_week = ? AND is_active = ?", userID, day, true).
		Order("start_time IS NULL, start_time ASC").
		Order("created_at DESC").
		Find(&routes).Error
	if err != nil {
		return nil, err
	}
	return routes, nil
}

func (r *routeRepository) Stats(ctx context.Context, userID uint) (*RouteStats, error) {
	stats := &RouteStats{RoutesByDay: make(map[int]int64)}

	base := r.db.WithContext(ctx).Model(&model.Route{}).Where("user_id = ?", userID)
	if err := base.Session(&gorm.Session{}).Count(&stats.TotalRoutes).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("is_active = ?", true).
		Count(&stats.ActiveRoutes).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).
		Select("COALESCE(SUM(total_distance), 0)").
		Scan(&stats.TotalDistance).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		DayOfWeek int
		Count     int64
	}
	if err := base.Session(&gorm.Session{}).
		Select("day_of_week, COUNT(*) as count").
		Group("day_of_week").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.RoutesByDay[row.DayOfWeek] = row.Count
	}
	return stats, nil
}
