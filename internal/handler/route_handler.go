package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"routeplanner/internal/errors"
	"routeplanner/internal/middleware"
	"routeplanner/internal/service"
)

// RouteHandler handles route endpoints.
type RouteHandler struct {
	routeService service.RouteService
	queryService service.RouteQueryService
}

// NewRouteHandler creates a new route handler.
func NewRouteHandler(routeService service.RouteService, queryService service.RouteQueryService) *RouteHandler {
	return &RouteHandler{
		routeService: routeService,
		queryService: queryService,
	}
}

// WaypointRequest is one stop in a route payload.
type WaypointRequest struct {
	Name          string  `json:"name" validate:"required"`
	Description   *string `json:"description,omitempty"`
	Address       *string `json:"address,omitempty"`
	Latitude      float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude     float64 `json:"longitude" validate:"min=-180,max=180"`
	OrderIndex    *int    `json:"order_index,omitempty" validate:"omitempty,min=0"`
	EstimatedMins int     `json:"estimated_duration" validate:"min=0"`
	WaypointType  string  `json:"waypoint_type,omitempty" validate:"omitempty,oneof=start stop end"`
}

// CreateRouteRequest represents a route creation request.
type CreateRouteRequest struct {
	Name          string            `json:"name" validate:"required"`
	Description   *string           `json:"description,omitempty"`
	DayOfWeek     int               `json:"day_of_week" validate:"min=0,max=6"`
	StartTime     *string           `json:"start_time,omitempty"`
	EstimatedMins *int              `json:"estimated_duration,omitempty"`
	Waypoints     []WaypointRequest `json:"waypoints" validate:"required,min=2,dive"`
	TotalDistance *float64          `json:"total_distance,omitempty" validate:"omitempty,min=0"`
}

// UpdateRouteRequest represents a partial route update. A nil waypoint list
// leaves the existing set untouched.
type UpdateRouteRequest struct {
	Name          *string           `json:"name,omitempty"`
	Description   *string           `json:"description,omitempty"`
	DayOfWeek     *int              `json:"day_of_week,omitempty" validate:"omitempty,min=0,max=6"`
	StartTime     *string           `json:"start_time,omitempty"`
	EstimatedMins *int              `json:"estimated_duration,omitempty"`
	IsActive      *bool             `json:"is_active,omitempty"`
	Waypoints     []WaypointRequest `json:"waypoints,omitempty" validate:"omitempty,min=2,dive"`
	TotalDistance *float64          `json:"total_distance,omitempty" validate:"omitempty,min=0"`
}

// DuplicateRouteRequest overrides name and day on a route copy.
type DuplicateRouteRequest struct {
	NewName      *string `json:"new_name,omitempty"`
	NewDayOfWeek *int    `json:"new_day_of_week,omitempty" validate:"omitempty,min=0,max=6"`
}

// Create godoc
// @Summary Create a route with its waypoints
// @Tags routes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateRouteRequest true "Route data"
// @Success 201 {object} model.Route
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /routes [post]
func (h *RouteHandler) Create(c echo.Context) error {
	var req CreateRouteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user := middleware.CurrentUser(c)
	route, err := h.routeService.Create(c.Request().Context(), user.ID, service.CreateRouteInput{
		Name:          req.Name,
		Description:   req.Description,
		DayOfWeek:     req.DayOfWeek,
		StartTime:     req.StartTime,
		EstimatedMins: req.EstimatedMins,
		Waypoints:     toWaypointInputs(req.Waypoints),
		TotalDistance: req.TotalDistance,
	})
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusCreated, route)
}

// List godoc
// @Summary List the user's routes with filters, sorting and pagination
// @Tags routes
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param day_of_week query int false "Filter by day of week (0-6)"
// @Param is_active query bool false "Filter by active flag"
// @Param search query string false "Free-text search over name and description"
// @Param sort query string false "Sort field (created_at, updated_at, name, day_of_week)"
// @Param order query string false "Sort order (ASC or DESC)"
// @Success 200 {object} service.RouteList
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /routes [get]
func (h *RouteHandler) List(c echo.Context) error {
	query := service.ListRoutesQuery{
		Search: c.QueryParam("search"),
		Sort:   c.QueryParam("sort"),
		Order:  c.QueryParam("order"),
	}
	query.Page, _ = strconv.Atoi(c.QueryParam("page"))
	query.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if v := c.QueryParam("day_of_week"); v != "" {
		if day, err := strconv.Atoi(v); err == nil {
			query.DayOfWeek = &day
		}
	}
	if v := c.QueryParam("is_active"); v != "" {
		if active, err := strconv.ParseBool(v); err == nil {
			query.IsActive = &active
		}
	}

	user := middleware.CurrentUser(c)
	result, err := h.queryService.List(c.Request().Context(), user.ID, query)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, result)
}

// GetByDay godoc
// @Summary List active routes for a day of the week
// @Tags routes
// @Produce json
// @Security BearerAuth
// @Param day path int true "Day of week (0=Sunday .. 6=Saturday)"
// @Success 200 {array} model.Route
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /routes/day/{day} [get]
func (h *RouteHandler) GetByDay(c echo.Context) error {
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		httpErr := errors.MapErrorToHTTP(errors.ErrInvalidDay)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	user := middleware.CurrentUser(c)
	routes, err := h.routeService.ListByDay(c.Request().Context(), user.ID, day)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, routes)
}

// GetByID godoc
// @Summary Get a route with its waypoints
// @Tags routes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Route ID"
// @Success 200 {object} model.Route
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /routes/{id} [get]
func (h *RouteHandler) GetByID(c echo.Context) error {
	routeID, err := parseRouteID(c)
	if err != nil {
		return err
	}

	user := middleware.CurrentUser(c)
	route, err := h.routeService.GetByID(c.Request().Context(), user.ID, routeID)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, route)
}

// Update godoc
// @Summary Update a route; a supplied waypoint list replaces the existing set
// @Tags routes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Route ID"
// @Param request body UpdateRouteRequest true "Fields to update"
// @Success 200 {object} model.Route
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /routes/{id} [put]
func (h *RouteHandler) Update(c echo.Context) error {
	routeID, err := parseRouteID(c)
	if err != nil {
		return err
	}

	var req UpdateRouteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	input := service.UpdateRouteInput{
		Name:          req.Name,
		Description:   req.Description,
		DayOfWeek:     req.DayOfWeek,
		StartTime:     req.StartTime,
		EstimatedMins: req.EstimatedMins,
		IsActive:      req.IsActive,
		TotalDistance: req.TotalDistance,
	}
	if req.Waypoints != nil {
		input.Waypoints = toWaypointInputs(req.Waypoints)
	}

	user := middleware.CurrentUser(c)
	route, err := h.routeService.Update(c.Request().Context(), user.ID, routeID, input)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, route)
}

// Delete godoc
// @Summary Soft-delete a route
// @Tags routes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Route ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /routes/{id} [delete]
func (h *RouteHandler) Delete(c echo.Context) error {
	routeID, err := parseRouteID(c)
	if err != nil {
		return err
	}

	user := middleware.CurrentUser(c)
	if err := h.routeService.SoftDelete(c.Request().Context(), user.ID, routeID); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "route deleted"})
}

// Duplicate godoc
// @Summary Duplicate a route and its waypoints
// @Tags routes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Route ID"
// @Param request body DuplicateRouteRequest false "Overrides for the copy"
// @Success 201 {object} model.Route
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /routes/{id}/duplicate [post]
func (h *RouteHandler) Duplicate(c echo.Context) error {
	routeID, err := parseRouteID(c)
	if err != nil {
		return err
	}

	var req DuplicateRouteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user := middleware.CurrentUser(c)
	route, err := h.routeService.Duplicate(c.Request().Context(), user.ID, routeID, req.NewName, req.NewDayOfWeek)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusCreated, route)
}

func parseRouteID(c echo.Context) (uuid.UUID, error) {
	routeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid route ID",
			Code:  "INVALID_UUID",
		})
	}
	return routeID, nil
}

func toWaypointInputs(reqs []WaypointRequest) []service.WaypointInput {
	inputs := make([]service.WaypointInput, len(reqs))
	for i, r := range reqs {
		inputs[i] = service.WaypointInput{
			Name:          r.Name,
			Description:   r.Description,
			Address:       r.Address,
			Latitude:      r.Latitude,
			Longitude:     r.Longitude,
			OrderIndex:    r.OrderIndex,
			EstimatedMins: r.EstimatedMins,
			WaypointType:  r.WaypointType,
		}
	}
	return inputs
}
