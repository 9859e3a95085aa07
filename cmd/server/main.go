package main

import (
	"log"
	"net/http"

	_ "routeplanner/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"routeplanner/internal/auth"
	"routeplanner/internal/cache"
	"routeplanner/internal/config"
	"routeplanner/internal/db"
	"routeplanner/internal/handler"
	appmw "routeplanner/internal/middleware"
	"routeplanner/internal/model"
	"routeplanner/internal/repository"
	"routeplanner/internal/router"
	"routeplanner/internal/service"
)

// @title Route Planner API
// @version 1.0
// @description Personal route-planning API with waypoint management, server-side sessions and response caching.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Route{},
		&model.Waypoint{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	responseCache := cache.NewResponseCache(cacheClient)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	routeRepo := repository.NewRouteRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	sessionStore := auth.NewSessionStore(cacheClient)
	gateway := appmw.NewAuthGateway(jwtService, sessionStore, userRepo)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, sessionStore)
	userService := service.NewUserService(userRepo, routeRepo, sessionStore, responseCache)
	routeService := service.NewRouteService(routeRepo, responseCache)
	queryService := service.NewRouteQueryService(routeRepo, responseCache)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	routeHandler := handler.NewRouteHandler(routeService, queryService)

	// Register routes
	router.Register(e, cfg, gateway, authHandler, userHandler, routeHandler)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
