package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"routeplanner/internal/auth"
	apperrors "routeplanner/internal/errors"
	"routeplanner/internal/model"
	"routeplanner/internal/repository"
)

// CurrentUserKey is the echo context key holding the authenticated user.
const CurrentUserKey = "current_user"

// AuthGateway cross-checks structurally valid bearer tokens against the
// revocable session store and the user table. Signature and expiry are
// already verified by the echo-jwt middleware in front of it; this layer is
// what makes logout and server-side revocation effective while the token
// itself is still cryptographically valid.
type AuthGateway struct {
	jwtService   *auth.JWTService
	sessionStore auth.SessionStoreInterface
	userRepo     repository.UserRepository
}

// NewAuthGateway creates a new auth gateway.
func NewAuthGateway(jwtService *auth.JWTService, sessionStore auth.SessionStoreInterface, userRepo repository.UserRepository) *AuthGateway {
	return &AuthGateway{
		jwtService:   jwtService,
		sessionStore: sessionStore,
		userRepo:     userRepo,
	}
}

// ValidateSession resolves the verified token into a user record. It
// requires an active server-side session, rejects deleted or inactive
// users, extends the session TTL and stashes the user in the context.
func (g *AuthGateway) ValidateSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := c.Get("user").(*jwt.Token)
		if !ok {
			return unauthorized(apperrors.ErrInvalidToken)
		}
		claims, ok := token.Claims.(*auth.Claims)
		if !ok {
			return unauthorized(apperrors.ErrInvalidToken)
		}

		user, err := g.resolveUser(c, claims, token.Raw)
		if err != nil {
			return unauthorized(err)
		}

		c.Set(CurrentUserKey, user)
		return next(c)
	}
}

// OptionalAuth performs the same checks as ValidateSession but resolves to
// anonymous instead of failing: no token, a bad token or a missing session
// all leave the context without a user. Only read paths visible to
// non-owners use it.
func (g *AuthGateway) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == "" || tokenString == header {
			return next(c)
		}

		claims, err := g.jwtService.ValidateToken(tokenString)
		if err != nil {
			return next(c)
		}

		user, err := g.resolveUser(c, claims, tokenString)
		if err != nil {
			return next(c)
		}

		c.Set(CurrentUserKey, user)
		return next(c)
	}
}

func (g *AuthGateway) resolveUser(c echo.Context, claims *auth.Claims, rawToken string) (*model.User, error) {
	ctx := c.Request().Context()

	// A failed session read means "no session": the gateway must never
	// fail open when the cache store is unreachable.
	session, found := g.sessionStore.Get(ctx, claims.UserID)
	if !found {
		return nil, apperrors.ErrSessionExpired
	}
	// One active session per user: a newer login overwrites the stored
	// token, so an older token fails here even before its own expiry.
	if session.Token != rawToken {
		return nil, apperrors.ErrSessionExpired
	}

	user, err := g.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.ErrUserNotFound
	}
	if !user.IsActive {
		return nil, apperrors.ErrUserInactive
	}

	// Sliding expiration: every authenticated request keeps the session
	// alive a little longer.
	_ = g.sessionStore.Extend(ctx, claims.UserID, auth.SessionTTL)

	return user, nil
}

// CurrentUser returns the authenticated user from the context, or nil for
// anonymous requests.
func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(CurrentUserKey).(*model.User)
	return user
}

func unauthorized(err error) *echo.HTTPError {
	httpErr := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(http.StatusUnauthorized, httpErr.ToErrorResponse())
}
