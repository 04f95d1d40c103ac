package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sheet-dashboard/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type account struct {
	user models.User
	hash []byte
}

// CredentialAuthenticator keeps accounts in memory with bcrypt password hashes.
type CredentialAuthenticator struct {
	mu       sync.RWMutex
	accounts map[string]*account
	admins   map[string]bool
	cost     int
}

// NewCredentialAuthenticator creates an empty account table. Accounts
// registered with one of adminEmails get the admin role.
func NewCredentialAuthenticator(adminEmails ...string) *CredentialAuthenticator {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		admins[normalizeEmail(e)] = true
	}
	return &CredentialAuthenticator{
		accounts: make(map[string]*account),
		admins:   admins,
		cost:     bcrypt.DefaultCost,
	}
}

func (a *CredentialAuthenticator) Register(ctx context.Context, creds models.Credentials) (*models.User, error) {
	email := normalizeEmail(creds.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(creds.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.RLock()
	_, exists := a.accounts[email]
	a.mu.RUnlock()
	if exists {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), a.cost)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(creds.Name)
	if name == "" {
		name = localPart(email)
	}
	role := models.RoleUser
	if a.admins[email] {
		role = models.RoleAdmin
	}
	acc := &account{
		user: models.User{
			ID:     uuid.New().String(),
			Email:  email,
			Name:   name,
			Role:   role,
			Avatar: AvatarURL(email),
		},
		hash: hash,
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	// race with a concurrent register after the initial check
	if _, exists := a.accounts[email]; exists {
		return nil, ErrUserExists
	}
	a.accounts[email] = acc
	u := acc.user
	return &u, nil
}

func (a *CredentialAuthenticator) Authenticate(ctx context.Context, creds models.Credentials) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.RLock()
	acc, ok := a.accounts[normalizeEmail(creds.Email)]
	a.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(creds.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	u := acc.user
	return &u, nil
}

// Revoke does nothing; accounts outlive their sessions.
func (a *CredentialAuthenticator) Revoke(context.Context, string) {}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
