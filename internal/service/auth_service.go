package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"routeplanner/internal/auth"
	apperrors "routeplanner/internal/errors"
	"routeplanner/internal/model"
	"routeplanner/internal/repository"
)

const bcryptCost = 10

// AuthService handles registration, login and logout.
type AuthService interface {
	Register(ctx context.Context, email, password, fullName string, phone *string) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Logout(ctx context.Context, userID uint) error
}

type authService struct {
	userRepo     repository.UserRepository
	jwtService   *auth.JWTService
	sessionStore auth.SessionStoreInterface
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, sessionStore auth.SessionStoreInterface) AuthService {
	return &authService{
		userRepo:     userRepo,
		jwtService:   jwtService,
		sessionStore: sessionStore,
	}
}

// NormalizeEmail lowercases and trims an email address. Uniqueness checks
// and lookups always go through the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user with a hashed password and opens a session so
// the caller is logged in immediately.
func (s *authService) Register(ctx context.Context, email, password, fullName string, phone *string) (*model.User, string, error) {
	email = NormalizeEmail(email)

	// Uniqueness holds among live rows only; soft-deleted users may share
	// the address. The repository's finders already exclude deleted rows.
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, "", apperrors.ErrUserAlreadyExists
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, "", fmt.Errorf("check user existence: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		FullName:     strings.TrimSpace(fullName),
		Phone:        phone,
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.openSession(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login authenticates a user, stamps last_login and returns a fresh token.
// The new session replaces any previous one for the user.
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, "", apperrors.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("find user: %w", err)
	}

	if !user.IsActive {
		return nil, "", apperrors.ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, "", fmt.Errorf("update last login: %w", err)
	}
	now := time.Now()
	user.LastLogin = &now

	token, err := s.openSession(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout revokes the user's server-side session. The bearer token stays
// structurally valid until its own expiry but fails the session cross-check
// from now on.
func (s *authService) Logout(ctx context.Context, userID uint) error {
	return s.sessionStore.Revoke(ctx, userID)
}

func (s *authService) openSession(ctx context.Context, user *model.User) (string, error) {
	token, err := s.jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	session := &auth.Session{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     token,
		CreatedAt: time.Now(),
	}
	// Best effort: an unreachable session store must not fail the login,
	// only shorten how long the token is honored.
	_ = s.sessionStore.Create(ctx, session, auth.SessionTTL)
	return token, nil
}
