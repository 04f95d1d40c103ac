package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"github.com/sheet-dashboard/backend/internal/models"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// SessionKeepAliveWindow protects recently used sessions from idle cleanup.
const SessionKeepAliveWindow = 5 * time.Minute

// ErrSecretRequired is returned when Sessions is built without a signing key.
var ErrSecretRequired = errors.New("jwt secret required")

type claims struct {
	User models.User `json:"user"`
	jwt.RegisteredClaims
}

// Sessions tracks issued tokens. A token resolves only while it is both
// validly signed and still present, so Logout takes effect immediately.
type Sessions struct {
	auth   Authenticator
	secret []byte
	ttl    time.Duration
	logger *log.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*models.Session
}

// SessionOption customizes Sessions.
type SessionOption func(*Sessions)

// WithTokenTTL overrides DefaultTokenTTL.
func WithTokenTTL(ttl time.Duration) SessionOption {
	return func(s *Sessions) {
		s.ttl = ttl
	}
}

// WithSessionClock sets the time source for issuing and validating tokens.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Sessions) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) SessionOption {
	return func(s *Sessions) {
		s.logger = l
	}
}

// NewSessions creates an identity store backed by auth.
func NewSessions(auth Authenticator, secret []byte, opts ...SessionOption) (*Sessions, error) {
	if len(secret) == 0 {
		return nil, ErrSecretRequired
	}
	s := &Sessions{
		auth:     auth,
		secret:   secret,
		ttl:      DefaultTokenTTL,
		now:      time.Now,
		sessions: make(map[string]*models.Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New("auth")
	}
	return s, nil
}

// Login authenticates creds and opens a session.
func (s *Sessions) Login(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	user, err := s.auth.Authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}
	return s.open(*user)
}

// Register creates the account and signs the new user in.
func (s *Sessions) Register(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	user, err := s.auth.Register(ctx, creds)
	if err != nil {
		return nil, err
	}
	return s.open(*user)
}

func (s *Sessions) open(user models.User) (*models.Session, error) {
	now := s.now()
	c := claims{
		User: user,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	sess := &models.Session{
		Token:        token,
		User:         user,
		IssuedAt:     now,
		LastAccessed: now,
	}
	s.mu.Lock()
	s.sessions[token] = sess
	s.mu.Unlock()

	s.logger.Infof("[Auth] session opened for %s (%s)", user.Email, user.Role)
	out := *sess
	return &out, nil
}

// Logout drops the session for token. The user and the token are cleared together.
func (s *Sessions) Logout(ctx context.Context, token string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[token]
	if ok {
		delete(s.sessions, token)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	s.auth.Revoke(ctx, sess.User.ID)
	s.logger.Infof("[Auth] session closed for %s", sess.User.Email)
	return true
}

// Lookup returns the user signed in with token.
func (s *Sessions) Lookup(token string) (*models.User, bool) {
	if token == "" {
		return nil, false
	}
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, false
	}
	sess.LastAccessed = s.now()
	u := sess.User
	return &u, true
}

// IsAuthenticated reports whether token resolves to a user.
func (s *Sessions) IsAuthenticated(token string) bool {
	_, ok := s.Lookup(token)
	return ok
}

// IsAdmin reports whether token resolves to an admin.
func (s *Sessions) IsAdmin(token string) bool {
	u, ok := s.Lookup(token)
	return ok && u.IsAdmin()
}

// Len returns the number of open sessions.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// CleanupIdle removes sessions idle for longer than maxIdle, keeping any used
// within SessionKeepAliveWindow. Expired tokens are always removed.
func (s *Sessions) CleanupIdle(maxIdle time.Duration) int {
	now := s.now()
	cutoff := now.Add(-maxIdle)
	keepAliveCutoff := now.Add(-SessionKeepAliveWindow)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, sess := range s.sessions {
		expired := !now.Before(sess.IssuedAt.Add(s.ttl))
		if !expired && sess.LastAccessed.After(keepAliveCutoff) {
			continue
		}
		if expired || sess.LastAccessed.Before(cutoff) {
			delete(s.sessions, token)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Infof("[Auth] cleaned up %d idle sessions", removed)
	}
	return removed
}

// RunCleanup calls CleanupIdle every interval until ctx is done.
func (s *Sessions) RunCleanup(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CleanupIdle(maxIdle)
		}
	}
}
