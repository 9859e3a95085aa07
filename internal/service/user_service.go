package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"routeplanner/internal/auth"
	"routeplanner/internal/cache"
	apperrors "routeplanner/internal/errors"
	"routeplanner/internal/geo"
	"routeplanner/internal/model"
	"routeplanner/internal/repository"
)

var dayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// UserStats aggregates a user's route activity.
type UserStats struct {
	TotalRoutes     int64            `json:"total_routes"`
	ActiveRoutes    int64            `json:"active_routes"`
	TotalDistanceKm float64          `json:"total_distance_km"`
	RoutesByDay     map[string]int64 `json:"routes_by_day"`
}

// UserService handles profile, password and account lifecycle operations.
type UserService interface {
	GetProfile(ctx context.Context, userID uint) (*model.UserPublic, error)
	UpdateProfile(ctx context.Context, userID uint, fullName, phone *string) (*model.UserPublic, error)
	ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error
	DeleteAccount(ctx context.Context, userID uint, password string) error
	Stats(ctx context.Context, userID uint) (*UserStats, error)
}

type userService struct {
	userRepo     repository.UserRepository
	routeRepo    repository.RouteRepository
	sessionStore auth.SessionStoreInterface
	cache        *cache.ResponseCache
}

// NewUserService creates a new user service.
func NewUserService(userRepo repository.UserRepository, routeRepo repository.RouteRepository, sessionStore auth.SessionStoreInterface, responseCache *cache.ResponseCache) UserService {
	return &userService{
		userRepo:     userRepo,
		routeRepo:    routeRepo,
		sessionStore: sessionStore,
		cache:        responseCache,
	}
}

// GetProfile returns the user's public projection, with caching.
func (s *userService) GetProfile(ctx context.Context, userID uint) (*model.UserPublic, error) {
	if data := s.cache.Get(ctx, userID, cache.ScopeProfile, "profile"); data != nil {
		var cached model.UserPublic
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	public := user.Public()
	if payload, err := json.Marshal(public); err == nil {
		s.cache.Put(ctx, userID, cache.ScopeProfile, "profile", payload, cache.ProfileTTL)
	}
	return &public, nil
}

// UpdateProfile applies the supplied fields only and invalidates the cached
// profile.
func (s *userService) UpdateProfile(ctx context.Context, userID uint, fullName, phone *string) (*model.UserPublic, error) {
	fields := map[string]interface{}{}
	if fullName != nil {
		fields["full_name"] = strings.TrimSpace(*fullName)
	}
	if phone != nil {
		trimmed := strings.TrimSpace(*phone)
		if trimmed == "" {
			fields["phone"] = nil
		} else {
			fields["phone"] = trimmed
		}
	}

	user, err := s.userRepo.Update(ctx, userID, fields)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.cache.Invalidate(ctx, userID, cache.ScopeProfile)

	public := user.Public()
	return &public, nil
}

// ChangePassword verifies the current password before storing a new digest.
func (s *userService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return apperrors.ErrIncorrectPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.cache.Invalidate(ctx, userID)
	return nil
}

// DeleteAccount soft-deletes the user after a password confirmation, revokes
// the session and drops every cached response.
func (s *userService) DeleteAccount(ctx context.Context, userID uint, password string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return apperrors.ErrIncorrectPassword
	}

	if err := s.userRepo.SoftDelete(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	_ = s.sessionStore.Revoke(ctx, userID)
	s.cache.Invalidate(ctx, userID)
	return nil
}

// Stats returns aggregate route figures for the user, with caching.
func (s *userService) Stats(ctx context.Context, userID uint) (*UserStats, error) {
	if data := s.cache.Get(ctx, userID, cache.ScopeStats, "stats"); data != nil {
		var cached UserStats
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	raw, err := s.routeRepo.Stats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("route stats: %w", err)
	}

	stats := &UserStats{
		TotalRoutes:     raw.TotalRoutes,
		ActiveRoutes:    raw.ActiveRoutes,
		TotalDistanceKm: geo.Round(raw.TotalDistance),
		RoutesByDay:     make(map[string]int64),
	}
	for day, count := range raw.RoutesByDay {
		if day >= 0 && day < len(dayNames) {
			stats.RoutesByDay[dayNames[day]] = count
		}
	}

	if payload, err := json.Marshal(stats); err == nil {
		s.cache.Put(ctx, userID, cache.ScopeStats, "stats", payload, cache.StatsTTL)
	}
	return stats, nil
}
