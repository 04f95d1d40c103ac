package auth

import (
	"context"
	"testing"
	"time"

	"github.com/sheet-dashboard/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func instantMock(now time.Time) (*MockAuthenticator, *[]time.Duration) {
	var waits []time.Duration
	m := NewMockAuthenticator(DefaultMockDelay)
	m.Sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	m.Now = func() time.Time { return now }
	return m, &waits
}

func TestMockAuthenticator_Authenticate(t *testing.T) {
	m, waits := instantMock(time.Now())

	tests := []struct {
		email string
		name  string
		role  models.Role
	}{
		{"jane@example.com", "jane", models.RoleUser},
		{"admin@example.com", "admin", models.RoleAdmin},
		{"sysadmin.ops@corp.io", "sysadmin.ops", models.RoleAdmin},
		{"no-at-sign", "no-at-sign", models.RoleUser},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			u, err := m.Authenticate(context.Background(), models.Credentials{Email: tt.email, Password: "x"})
			require.NoError(t, err)
			assert.Equal(t, "1", u.ID)
			assert.Equal(t, tt.name, u.Name)
			assert.Equal(t, tt.role, u.Role)
			assert.Equal(t, "https://api.dicebear.com/7.x/avataaars/svg?seed="+tt.email, u.Avatar)
		})
	}
	assert.Len(t, *waits, len(tests))
	assert.Equal(t, time.Second, (*waits)[0])
}

func TestMockAuthenticator_Register(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	m, _ := instantMock(now)

	u, err := m.Register(context.Background(), models.Credentials{Name: "Admin Person", Email: "admin@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "1700000000123", u.ID)
	assert.Equal(t, "Admin Person", u.Name)
	assert.Equal(t, models.RoleUser, u.Role, "registration never grants admin")
}

func TestMockAuthenticator_CancelledDuringDelay(t *testing.T) {
	m := NewMockAuthenticator(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Authenticate(ctx, models.Credentials{Email: "a@b.c"})
	assert.ErrorIs(t, err, context.Canceled)
}

func fastCredentials(admins ...string) *CredentialAuthenticator {
	a := NewCredentialAuthenticator(admins...)
	a.cost = bcrypt.MinCost
	return a
}

func TestCredentialAuthenticator_RegisterAndLogin(t *testing.T) {
	a := fastCredentials("boss@example.com")
	ctx := context.Background()

	u, err := a.Register(ctx, models.Credentials{Name: "Jane", Email: " Jane@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.NotEmpty(t, u.ID)

	got, err := a.Authenticate(ctx, models.Credentials{Email: "jane@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = a.Authenticate(ctx, models.Credentials{Email: "jane@example.com", Password: "wrong!!"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Authenticate(ctx, models.Credentials{Email: "ghost@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	boss, err := a.Register(ctx, models.Credentials{Email: "boss@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, boss.Role)
	assert.Equal(t, "boss", boss.Name)
}

func TestCredentialAuthenticator_RegisterValidation(t *testing.T) {
	a := fastCredentials()
	ctx := context.Background()

	_, err := a.Register(ctx, models.Credentials{Email: "", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailRequired)

	_, err = a.Register(ctx, models.Credentials{Email: "a@b.c", Password: "12345"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = a.Register(ctx, models.Credentials{Email: "a@b.c", Password: "123456"})
	require.NoError(t, err)
	_, err = a.Register(ctx, models.Credentials{Email: "A@B.C", Password: "123456"})
	assert.ErrorIs(t, err, ErrUserExists)
}
