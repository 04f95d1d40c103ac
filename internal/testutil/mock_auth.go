package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/sheet-dashboard/backend/internal/models"
)

// FakeAuthenticator resolves users from a fixed table without delay.
type FakeAuthenticator struct {
	mu      sync.Mutex
	users   map[string]models.User
	revoked []string
}

// NewFakeAuthenticator seeds the fake with users keyed by email.
func NewFakeAuthenticator(users ...models.User) *FakeAuthenticator {
	m := make(map[string]models.User, len(users))
	for _, u := range users {
		m[strings.ToLower(u.Email)] = u
	}
	return &FakeAuthenticator{users: m}
}

func (f *FakeAuthenticator) Authenticate(_ context.Context, creds models.Credentials) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[strings.ToLower(creds.Email)]
	if !ok {
		return nil, models.ErrInvalidCredentials
	}
	return &u, nil
}

func (f *FakeAuthenticator) Register(_ context.Context, creds models.Credentials) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := models.User{ID: creds.Email, Email: creds.Email, Name: creds.Name, Role: models.RoleUser}
	f.users[strings.ToLower(creds.Email)] = u
	return &u, nil
}

func (f *FakeAuthenticator) Revoke(_ context.Context, userID string) {
	f.mu.Lock()
	f.revoked = append(f.revoked, userID)
	f.mu.Unlock()
}

// Revoked returns the user ids passed to Revoke, in order.
func (f *FakeAuthenticator) Revoked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.revoked...)
}

// AdminUser and PlainUser are ready-made identities for handler tests.
var (
	AdminUser = models.User{ID: "u-admin", Email: "admin@example.com", Name: "admin", Role: models.RoleAdmin}
	PlainUser = models.User{ID: "u-plain", Email: "jane@example.com", Name: "jane", Role: models.RoleUser}
)
