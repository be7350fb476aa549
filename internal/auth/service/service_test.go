package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/membership/internal/auth/domain"
	"github.com/smallbiznis/membership/internal/auth/password"
	"github.com/smallbiznis/membership/internal/auth/repository"
	"github.com/smallbiznis/membership/internal/auth/token"
	"github.com/smallbiznis/membership/internal/clock"
	"github.com/smallbiznis/membership/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	password.Cost = bcrypt.MinCost
}

type fixture struct {
	svc    domain.Service
	repo   domain.Repository
	tokens *token.Issuer
	clock  *clock.FakeClock
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.User{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	issuer, err := token.NewIssuer(token.Config{
		Secret:   "test-secret",
		Issuer:   "membership",
		Audience: "membership-api",
		TTL:      30 * time.Minute,
	}, clk)
	require.NoError(t, err)

	repo := repository.New(conn)
	svc := New(Params{
		Log:    zap.NewNop(),
		Repo:   repo,
		Tokens: issuer,
		GenID:  node,
		Clock:  clk,
	})
	return fixture{svc: svc, repo: repo, tokens: issuer, clock: clk}
}

func validRegister() domain.RegisterRequest {
	return domain.RegisterRequest{
		Name:            "Alice",
		Email:           "Alice@Example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestRegisterIssuesCredential(t *testing.T) {
	f := newFixture(t)

	cred, err := f.svc.Register(context.Background(), validRegister())
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", cred.User.Email)
	assert.Equal(t, domain.RoleBusinessOwner, cred.User.Role)
	assert.NotZero(t, cred.User.ID)
	assert.Equal(t, f.clock.Now().Add(30*time.Minute), cred.ExpiresAt)

	claims, err := f.tokens.Parse(cred.Token)
	require.NoError(t, err)
	assert.Equal(t, cred.User.ID.String(), claims.Subject)
	assert.Equal(t, "BusinessOwner", claims.Role)

	stored, err := f.repo.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.True(t, password.Verify("secret1", stored.PasswordHash))
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, validRegister())
	require.NoError(t, err)

	again := validRegister()
	again.Email = "ALICE@example.com"
	_, err = f.svc.Register(ctx, again)
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*domain.RegisterRequest)
		want   error
	}{
		{"blank name", func(r *domain.RegisterRequest) { r.Name = "  " }, domain.ErrInvalidName},
		{"bad email", func(r *domain.RegisterRequest) { r.Email = "not-an-email" }, domain.ErrInvalidEmail},
		{"short password", func(r *domain.RegisterRequest) { r.Password, r.ConfirmPassword = "abc", "abc" }, domain.ErrInvalidPassword},
		{"mismatch", func(r *domain.RegisterRequest) { r.ConfirmPassword = "other1" }, domain.ErrPasswordMismatch},
		{"unknown role", func(r *domain.RegisterRequest) { r.Role = "Root" }, domain.ErrInvalidRole},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			req := validRegister()
			tc.mutate(&req)
			_, err := f.svc.Register(context.Background(), req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRegisterAdminRole(t *testing.T) {
	f := newFixture(t)
	req := validRegister()
	req.Role = domain.RoleAdmin

	cred, err := f.svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, cred.User.Role)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, validRegister())
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	cred, err := f.svc.Login(ctx, domain.LoginRequest{Email: " alice@example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, cred.User.ID)
	assert.Equal(t, f.clock.Now().Add(30*time.Minute), cred.ExpiresAt)
	assert.True(t, f.tokens.Validate(cred.Token))

	stored, err := f.repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
	assert.True(t, stored.LastLoginAt.Equal(f.clock.Now()))
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, validRegister())
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, domain.LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, domain.LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, domain.LoginRequest{Email: "", Password: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	require.NoError(t, f.repo.Update(ctx, registered.User.ID, map[string]any{"is_active": false}))
	_, err = f.svc.Login(ctx, domain.LoginRequest{Email: "alice@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestIsEmailInUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, validRegister())
	require.NoError(t, err)

	inUse, err := f.svc.IsEmailInUse(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.True(t, inUse)

	inUse, err = f.svc.IsEmailInUse(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, inUse)

	inUse, err = f.svc.IsEmailInUse(ctx, "garbage")
	require.NoError(t, err)
	assert.False(t, inUse)
}

func TestGetUserAndListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner, err := f.svc.Register(ctx, validRegister())
	require.NoError(t, err)

	admin := validRegister()
	admin.Name, admin.Email, admin.Role = "Bob", "bob@example.com", domain.RoleAdmin
	_, err = f.svc.Register(ctx, admin)
	require.NoError(t, err)

	info, err := f.svc.GetUser(ctx, owner.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", info.Name)

	_, err = f.svc.GetUser(ctx, snowflake.ID(42))
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	all, err := f.svc.ListActiveUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Alice", all[0].Name)

	admins, err := f.svc.ListUsersByRole(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "bob@example.com", admins[0].Email)

	_, err = f.svc.ListUsersByRole(ctx, "Root")
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}
