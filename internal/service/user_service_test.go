package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"routeplanner/internal/cache"
	apperrors "routeplanner/internal/errors"
	"routeplanner/internal/model"
	"routeplanner/internal/repository"
)

func TestUserService_GetProfile(t *testing.T) {
	userID := uint(7)

	t.Run("second read is served from cache", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, userID).Return(&model.User{
			ID:       userID,
			Email:    "test@example.com",
			FullName: "Test User",
			IsActive: true,
		}, nil).Once()

		service := NewUserService(mockRepo, new(MockRouteRepository), new(MockSessionStore), cache.NewResponseCache(newMemKV()))

		first, err := service.GetProfile(context.Background(), userID)
		assert.NoError(t, err)
		second, err := service.GetProfile(context.Background(), userID)
		assert.NoError(t, err)

		assert.Equal(t, first.Email, second.Email)
		mockRepo.AssertExpectations(t)
	})
}

func TestUserService_UpdateProfile(t *testing.T) {
	userID := uint(7)

	t.Run("applies supplied fields and drops the cached profile", func(t *testing.T) {
		kv := newMemKV()
		responseCache := cache.NewResponseCache(kv)
		responseCache.Put(context.Background(), userID, cache.ScopeProfile, "profile", []byte(`{}`), time.Minute)

		mockRepo := new(MockUserRepository)
		var fields map[string]interface{}
		mockRepo.On("Update", mock.Anything, userID, mock.AnythingOfType("map[string]interface {}")).
			Run(func(args mock.Arguments) {
				fields = args.Get(2).(map[string]interface{})
			}).Return(&model.User{ID: userID, FullName: "Renamed"}, nil)

		service := NewUserService(mockRepo, new(MockRouteRepository), new(MockSessionStore), responseCache)
		name := "  Renamed  "
		public, err := service.UpdateProfile(context.Background(), userID, &name, nil)

		assert.NoError(t, err)
		assert.Equal(t, "Renamed", public.FullName)
		assert.Equal(t, "Renamed", fields["full_name"])
		assert.NotContains(t, fields, "phone")
		assert.Empty(t, kv.cachedKeys())
	})

	t.Run("blank phone clears the column", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		var fields map[string]interface{}
		mockRepo.On("Update", mock.Anything, userID, mock.AnythingOfType("map[string]interface {}")).
			Run(func(args mock.Arguments) {
				fields = args.Get(2).(map[string]interface{})
			}).Return(&model.User{ID: userID}, nil)

		service := NewUserService(mockRepo, new(MockRouteRepository), new(MockSessionStore), cache.NewResponseCache(newMemKV()))
		phone := "   "
		_, err := service.UpdateProfile(context.Background(), userID, nil, &phone)

		assert.NoError(t, err)
		assert.Contains(t, fields, "phone")
		assert.Nil(t, fields["phone"])
	})
}

func TestUserService_ChangePassword(t *testing.T) {
	userID := uint(7)
	currentHash, _ := bcrypt.GenerateFromPassword([]byte("current-pass"), 10)

	tests := []struct {
		name            string
		currentPassword string
		setupMock       func(*MockUserRepository)
		expectedError   error
	}{
		{
			name:            "stores a new digest after verifying the current password",
			currentPassword: "current-pass",
			setupMock: func(mRepo *MockUserRepository) {
				mRepo.On("FindByID", mock.Anything, userID).Return(&model.User{
					ID:           userID,
					PasswordHash: string(currentHash),
				}, nil)
				mRepo.On("UpdatePassword", mock.Anything, userID, mock.AnythingOfType("string")).Return(nil)
			},
			expectedError: nil,
		},
		{
			name:            "wrong current password",
			currentPassword: "not-it",
			setupMock: func(mRepo *MockUserRepository) {
				mRepo.On("FindByID", mock.Anything, userID).Return(&model.User{
					ID:           userID,
					PasswordHash: string(currentHash),
				}, nil)
			},
			expectedError: apperrors.ErrIncorrectPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := newMemKV()
			responseCache := cache.NewResponseCache(kv)
			responseCache.Put(context.Background(), userID, cache.ScopeProfile, "profile", []byte(`{}`), time.Minute)

			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			service := NewUserService(mockRepo, new(MockRouteRepository), new(MockSessionStore), responseCache)
			err := service.ChangePassword(context.Background(), userID, tt.currentPassword, "new-password")

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				mockRepo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
				assert.Empty(t, kv.cachedKeys())
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_DeleteAccount(t *testing.T) {
	userID := uint(7)
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), 10)

	t.Run("soft-deletes, revokes the session and drops the cache", func(t *testing.T) {
		kv := newMemKV()
		responseCache := cache.NewResponseCache(kv)
		responseCache.Put(context.Background(), userID, cache.ScopeRoutes, "list:p1", []byte(`{}`), time.Minute)
		responseCache.Put(context.Background(), userID, cache.ScopeStats, "stats", []byte(`{}`), time.Minute)

		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, userID).Return(&model.User{
			ID:           userID,
			PasswordHash: string(hash),
		}, nil)
		mockRepo.On("SoftDelete", mock.Anything, userID).Return(nil)

		mockSessions := new(MockSessionStore)
		mockSessions.On("Revoke", mock.Anything, userID).Return(nil)

		service := NewUserService(mockRepo, new(MockRouteRepository), mockSessions, responseCache)
		err := service.DeleteAccount(context.Background(), userID, "password123")

		assert.NoError(t, err)
		assert.Empty(t, kv.cachedKeys())
		mockRepo.AssertExpectations(t)
		mockSessions.AssertExpectations(t)
	})

	t.Run("wrong confirmation password keeps the account", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, userID).Return(&model.User{
			ID:           userID,
			PasswordHash: string(hash),
		}, nil)

		service := NewUserService(mockRepo, new(MockRouteRepository), new(MockSessionStore), cache.NewResponseCache(newMemKV()))
		err := service.DeleteAccount(context.Background(), userID, "not-it")

		assert.Equal(t, apperrors.ErrIncorrectPassword, err)
		mockRepo.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
	})
}

func TestUserService_Stats(t *testing.T) {
	userID := uint(7)

	t.Run("maps day numbers to names and rounds the distance", func(t *testing.T) {
		mockRoutes := new(MockRouteRepository)
		mockRoutes.On("Stats", mock.Anything, userID).Return(&repository.RouteStats{
			TotalRoutes:   4,
			ActiveRoutes:  3,
			TotalDistance: 222.37999999999997,
			RoutesByDay:   map[int]int64{0: 1, 1: 2, 6: 1},
		}, nil)

		service := NewUserService(new(MockUserRepository), mockRoutes, new(MockSessionStore), cache.NewResponseCache(newMemKV()))
		stats, err := service.Stats(context.Background(), userID)

		assert.NoError(t, err)
		assert.Equal(t, int64(4), stats.TotalRoutes)
		assert.Equal(t, int64(3), stats.ActiveRoutes)
		assert.Equal(t, 222.38, stats.TotalDistanceKm)
		assert.Equal(t, map[string]int64{"Sunday": 1, "Monday": 2, "Saturday": 1}, stats.RoutesByDay)
	})

	t.Run("second read is served from cache", func(t *testing.T) {
		mockRoutes := new(MockRouteRepository)
		mockRoutes.On("Stats", mock.Anything, userID).Return(&repository.RouteStats{
			TotalRoutes: 1,
			RoutesByDay: map[int]int64{},
		}, nil).Once()

		service := NewUserService(new(MockUserRepository), mockRoutes, new(MockSessionStore), cache.NewResponseCache(newMemKV()))

		first, err := service.Stats(context.Background(), userID)
		assert.NoError(t, err)
		second, err := service.Stats(context.Background(), userID)
		assert.NoError(t, err)

		assert.Equal(t, first.TotalRoutes, second.TotalRoutes)
		mockRoutes.AssertExpectations(t)
	})
}
