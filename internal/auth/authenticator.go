// Package auth is the identity store: it authenticates users, issues session
// tokens and answers who is signed in.
package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/sheet-dashboard/backend/internal/models"
)

// DefaultMockDelay mimics a remote identity provider round trip.
const DefaultMockDelay = time.Second

const avatarBaseURL = "https://api.dicebear.com/7.x/avataaars/svg?seed="

var (
	ErrInvalidCredentials = models.ErrInvalidCredentials
	ErrUserExists         = errors.New("user already exists")
	ErrEmailRequired      = errors.New("email required")
	ErrPasswordTooShort   = errors.New("password too short (min 6)")
)

// MinPasswordLength is enforced by CredentialAuthenticator.
const MinPasswordLength = 6

// Authenticator resolves credentials into users.
type Authenticator interface {
	Authenticate(ctx context.Context, creds models.Credentials) (*models.User, error)
	Register(ctx context.Context, creds models.Credentials) (*models.User, error)
	Revoke(ctx context.Context, userID string)
}

// AvatarURL returns the generated avatar for an email address.
func AvatarURL(email string) string {
	return avatarBaseURL + email
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// MockAuthenticator accepts any credentials after a fixed delay and
// fabricates the user from the email address.
type MockAuthenticator struct {
	Delay time.Duration
	Sleep SleepFunc
	Now   func() time.Time
}

// NewMockAuthenticator creates a mock with the given delay.
func NewMockAuthenticator(delay time.Duration) *MockAuthenticator {
	return &MockAuthenticator{
		Delay: delay,
		Sleep: sleepContext,
		Now:   time.Now,
	}
}

func (m *MockAuthenticator) wait(ctx context.Context) error {
	sleep := m.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return sleep(ctx, m.Delay)
}

func (m *MockAuthenticator) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

// Authenticate always succeeds. Emails containing "admin" get the admin role.
func (m *MockAuthenticator) Authenticate(ctx context.Context, creds models.Credentials) (*models.User, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	role := models.RoleUser
	if strings.Contains(creds.Email, "admin") {
		role = models.RoleAdmin
	}
	return &models.User{
		ID:     "1",
		Email:  creds.Email,
		Name:   localPart(creds.Email),
		Role:   role,
		Avatar: AvatarURL(creds.Email),
	}, nil
}

// Register always succeeds with the user role.
func (m *MockAuthenticator) Register(ctx context.Context, creds models.Credentials) (*models.User, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	return &models.User{
		ID:     strconv.FormatInt(m.now().UnixMilli(), 10),
		Email:  creds.Email,
		Name:   creds.Name,
		Role:   models.RoleUser,
		Avatar: AvatarURL(creds.Email),
	}, nil
}

// Revoke is a no-op; the mock keeps no state.
func (m *MockAuthenticator) Revoke(context.Context, string) {}

func localPart(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}
