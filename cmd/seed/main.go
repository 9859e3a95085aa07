package main

import (
	"context"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"routeplanner/internal/cache"
	"routeplanner/internal/config"
	"routeplanner/internal/db"
	"routeplanner/internal/model"
	"routeplanner/internal/repository"
	"routeplanner/internal/service"
)

const (
	demoEmail    = "demo@routeplanner.local"
	demoPassword = "demo-password"
)

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.Route{}, &model.Waypoint{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	routeRepo := repository.NewRouteRepository(gormDB)
	routeService := service.NewRouteService(routeRepo, cache.NewResponseCache(cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)))

	user, err := seedUser(ctx, userRepo)
	if err != nil {
		log.Fatalf("Failed to seed demo user: %v", err)
	}
	log.Printf("Demo user ready: %s (id %d)", user.Email, user.ID)

	created := 0
	for _, input := range demoRoutes() {
		if _, err := routeService.Create(ctx, user.ID, input); err != nil {
			log.Printf("Skipping route %q: %v", input.Name, err)
			continue
		}
		created++
	}
	log.Printf("Seed complete: %d routes created", created)
}

func seedUser(ctx context.Context, repo repository.UserRepository) (*model.User, error) {
	existing, err := repo.FindByEmail(ctx, demoEmail)
	if err == nil {
		return existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(demoPassword), 10)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:        demoEmail,
		PasswordHash: string(hashed),
		FullName:     "Demo User",
		IsActive:     true,
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func demoRoutes() []service.CreateRouteInput {
	monday := 1
	start := "08:30:00"
	return []service.CreateRouteInput{
		{
			Name:      "Morning commute",
			DayOfWeek: monday,
			StartTime: &start,
			Waypoints: []service.WaypointInput{
				{Name: "Home", Latitude: 40.4168, Longitude: -3.7038},
				{Name: "Coffee stop", Latitude: 40.4200, Longitude: -3.6900, EstimatedMins: 10},
				{Name: "Office", Latitude: 40.4300, Longitude: -3.6800},
			},
		},
		{
			Name:      "Saturday market run",
			DayOfWeek: 6,
			Waypoints: []service.WaypointInput{
				{Name: "Home", Latitude: 40.4168, Longitude: -3.7038},
				{Name: "Market", Latitude: 40.4083, Longitude: -3.7074, EstimatedMins: 45},
				{Name: "Home", Latitude: 40.4168, Longitude: -3.7038},
			},
		},
	}
}
