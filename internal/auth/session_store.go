package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"routeplanner/internal/cache"
)

const sessionKeyPrefix = "session:"

// SessionTTL is the sliding window a session stays alive without activity.
const SessionTTL = 7 * 24 * time.Hour

// Session is the server-side record proving a bearer token is currently
// honored. It lives only in the cache store; losing Redis logs everyone out.
type Session struct {
	UserID    uint      `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStoreInterface defines the interface for session storage operations.
type SessionStoreInterface interface {
	Create(ctx context.Context, session *Session, ttl time.Duration) error
	Get(ctx context.Context, userID uint) (*Session, bool)
	Extend(ctx context.Context, userID uint, ttl time.Duration) error
	Revoke(ctx context.Context, userID uint) error
}

// SessionStore keeps at most one active session per user in Redis. Creating
// a session overwrites any prior one, so a second login implicitly revokes
// the first: the older token stays cryptographically valid but fails the
// session cross-check.
//
// Writes are best-effort and never fail the enclosing request. Reads are
// not: a failed Get reads as "no session", so an unreachable Redis can only
// lock users out, never let revoked tokens through.
type SessionStore struct {
	cache cache.KeyValue
}

// Ensure SessionStore implements SessionStoreInterface
var _ SessionStoreInterface = (*SessionStore)(nil)

// NewSessionStore creates a new session store.
func NewSessionStore(kv cache.KeyValue) *SessionStore {
	return &SessionStore{cache: kv}
}

func sessionKey(userID uint) string {
	return fmt.Sprintf("%s%d", sessionKeyPrefix, userID)
}

// Create stores the session, replacing any existing session for the user.
func (s *SessionStore) Create(ctx context.Context, session *Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		log.Printf("session store: marshal session for user %d: %v", session.UserID, err)
		return nil
	}
	return s.cache.Set(ctx, sessionKey(session.UserID), payload, ttl)
}

// Get returns the active session for the user, or false when none exists.
// Store failures read as "not found".
func (s *SessionStore) Get(ctx context.Context, userID uint) (*Session, bool) {
	data, err := s.cache.Get(ctx, sessionKey(userID))
	if err != nil || data == nil {
		return nil, false
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		log.Printf("session store: unmarshal session for user %d: %v", userID, err)
		return nil, false
	}
	return &session, true
}

// Extend resets the session TTL (sliding expiration on authenticated access).
func (s *SessionStore) Extend(ctx context.Context, userID uint, ttl time.Duration) error {
	return s.cache.Expire(ctx, sessionKey(userID), ttl)
}

// Revoke deletes the session (logout).
func (s *SessionStore) Revoke(ctx context.Context, userID uint) error {
	return s.cache.Delete(ctx, sessionKey(userID))
}
