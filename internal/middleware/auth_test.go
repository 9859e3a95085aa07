package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"routeplanner/internal/auth"
	"routeplanner/internal/model"
)

// kvStub is an in-memory cache.KeyValue backing a real SessionStore.
type kvStub struct {
	data map[string][]byte
}

func newKVStub() *kvStub {
	return &kvStub{data: make(map[string][]byte)}
}

func (s *kvStub) Get(ctx context.Context, key string) ([]byte, error) {
	return s.data[key], nil
}

func (s *kvStub) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.data[key] = value
	return nil
}

func (s *kvStub) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func (s *kvStub) Expire(ctx context.Context, key string, ttl time.Duration) error { return nil }

func (s *kvStub) SAdd(ctx context.Context, key string, members ...string) error { return nil }

func (s *kvStub) SMembers(ctx context.Context, key string) ([]string, error) { return nil, nil }

// userRepoStub serves FindByID from a fixed map; the gateway uses nothing else.
type userRepoStub struct {
	users map[uint]*model.User
}

func (r *userRepoStub) Create(ctx context.Context, user *model.User) error { return nil }

func (r *userRepoStub) FindByID(ctx context.Context, id uint) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *userRepoStub) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *userRepoStub) Update(ctx context.Context, id uint, fields map[string]interface{}) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *userRepoStub) UpdateLastLogin(ctx context.Context, id uint) error { return nil }

func (r *userRepoStub) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	return nil
}

func (r *userRepoStub) SoftDelete(ctx context.Context, id uint) error { return nil }

type gatewayFixture struct {
	gateway  *AuthGateway
	jwt      *auth.JWTService
	sessions *auth.SessionStore
	users    map[uint]*model.User
}

func newGatewayFixture() *gatewayFixture {
	jwtService := auth.NewJWTService("test-secret")
	sessions := auth.NewSessionStore(newKVStub())
	users := map[uint]*model.User{
		7: {ID: 7, Email: "test@example.com", IsActive: true},
	}
	return &gatewayFixture{
		gateway:  NewAuthGateway(jwtService, sessions, &userRepoStub{users: users}),
		jwt:      jwtService,
		sessions: sessions,
		users:    users,
	}
}

// login issues a token and opens the matching server-side session.
func (f *gatewayFixture) login(t *testing.T, userID uint, email string) string {
	t.Helper()
	token, err := f.jwt.GenerateToken(userID, email)
	require.NoError(t, err)
	require.NoError(t, f.sessions.Create(context.Background(), &auth.Session{
		UserID: userID,
		Email:  email,
		Token:  token,
	}, auth.SessionTTL))
	return token
}

// validateRequest runs ValidateSession against a request carrying the token
// the way the echo-jwt middleware would hand it over.
func (f *gatewayFixture) validateRequest(t *testing.T, tokenString string) (*model.User, error) {
	t.Helper()
	parsed, _, err := jwt.NewParser().ParseUnverified(tokenString, &auth.Claims{})
	require.NoError(t, err)
	parsed.Raw = tokenString

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user", parsed)

	var seen *model.User
	handler := f.gateway.ValidateSession(func(c echo.Context) error {
		seen = CurrentUser(c)
		return c.NoContent(http.StatusOK)
	})
	return seen, handler(c)
}

func TestAuthGateway_ValidateSession(t *testing.T) {
	t.Run("valid token with a live session resolves the user", func(t *testing.T) {
		f := newGatewayFixture()
		token := f.login(t, 7, "test@example.com")

		user, err := f.validateRequest(t, token)

		assert.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, uint(7), user.ID)
	})

	t.Run("valid token without a session is rejected", func(t *testing.T) {
		f := newGatewayFixture()
		token, err := f.jwt.GenerateToken(7, "test@example.com")
		require.NoError(t, err)

		_, err = f.validateRequest(t, token)

		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("token from before a newer login is rejected", func(t *testing.T) {
		f := newGatewayFixture()
		oldToken := f.login(t, 7, "test@example.com")

		// A second login replaces the stored session token.
		require.NoError(t, f.sessions.Create(context.Background(), &auth.Session{
			UserID: 7,
			Email:  "test@example.com",
			Token:  "newer-token",
		}, auth.SessionTTL))

		_, err := f.validateRequest(t, oldToken)

		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("logout revokes the session for a still-valid token", func(t *testing.T) {
		f := newGatewayFixture()
		token := f.login(t, 7, "test@example.com")
		require.NoError(t, f.sessions.Revoke(context.Background(), 7))

		_, err := f.validateRequest(t, token)

		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("deactivated user is rejected even with a live session", func(t *testing.T) {
		f := newGatewayFixture()
		f.users[7].IsActive = false
		token := f.login(t, 7, "test@example.com")

		_, err := f.validateRequest(t, token)

		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("deleted user is rejected even with a live session", func(t *testing.T) {
		f := newGatewayFixture()
		token := f.login(t, 9, "gone@example.com")

		_, err := f.validateRequest(t, token)

		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})
}

func TestAuthGateway_OptionalAuth(t *testing.T) {
	runOptional := func(t *testing.T, f *gatewayFixture, authHeader string) *model.User {
		t.Helper()
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if authHeader != "" {
			req.Header.Set(echo.HeaderAuthorization, authHeader)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		var seen *model.User
		handler := f.gateway.OptionalAuth(func(c echo.Context) error {
			seen = CurrentUser(c)
			return c.NoContent(http.StatusOK)
		})
		require.NoError(t, handler(c))
		return seen
	}

	t.Run("no header resolves to anonymous", func(t *testing.T) {
		f := newGatewayFixture()
		assert.Nil(t, runOptional(t, f, ""))
	})

	t.Run("garbage token resolves to anonymous", func(t *testing.T) {
		f := newGatewayFixture()
		assert.Nil(t, runOptional(t, f, "Bearer not.a.token"))
	})

	t.Run("valid token without a session resolves to anonymous", func(t *testing.T) {
		f := newGatewayFixture()
		token, err := f.jwt.GenerateToken(7, "test@example.com")
		require.NoError(t, err)
		assert.Nil(t, runOptional(t, f, "Bearer "+token))
	})

	t.Run("valid token with a live session resolves the user", func(t *testing.T) {
		f := newGatewayFixture()
		token := f.login(t, 7, "test@example.com")

		user := runOptional(t, f, "Bearer "+token)
		require.NotNil(t, user)
		assert.Equal(t, uint(7), user.ID)
	})
}
