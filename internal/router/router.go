package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"routeplanner/internal/auth"
	"routeplanner/internal/config"
	apperrors "routeplanner/internal/errors"
	"routeplanner/internal/handler"
	appmw "routeplanner/internal/middleware"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	gateway *appmw.AuthGateway,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	routeHandler *handler.RouteHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/auth/session", authHandler.SessionInfo, gateway.OptionalAuth)

	// Secured routes: echo-jwt verifies signature and expiry, the gateway
	// cross-checks the session store and loads the user.
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(cfg.JWTSecret),
		TokenLookup: "header:" + echo.HeaderAuthorization,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			httpErr := apperrors.MapErrorToHTTP(apperrors.ErrInvalidToken)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		},
	}), gateway.ValidateSession)

	// Auth routes
	secured.POST("/auth/logout", authHandler.Logout)
	secured.GET("/auth/verify", authHandler.Verify)

	// User routes
	secured.GET("/user/profile", userHandler.GetProfile)
	secured.PUT("/user/profile", userHandler.UpdateProfile)
	secured.PUT("/user/change-password", userHandler.ChangePassword)
	secured.GET("/user/stats", userHandler.GetStats)
	secured.DELETE("/user/account", userHandler.DeleteAccount)

	// Route routes
	secured.POST("/routes", routeHandler.Create)
	secured.GET("/routes", routeHandler.List)
	secured.GET("/routes/day/:day", routeHandler.GetByDay)
	secured.GET("/routes/:id", routeHandler.GetByID)
	secured.PUT("/routes/:id", routeHandler.Update)
	secured.DELETE("/routes/:id", routeHandler.Delete)
	secured.POST("/routes/:id/duplicate", routeHandler.Duplicate)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
