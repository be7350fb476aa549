package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/membership/internal/auth/domain"
	"github.com/smallbiznis/membership/internal/auth/password"
	"github.com/smallbiznis/membership/internal/clock"
	"github.com/smallbiznis/membership/internal/config"
	"github.com/smallbiznis/membership/pkg/db"
	"go.uber.org/zap"
)

// EnsureAdmin creates the bootstrap administrator unless a user with the
// configured email already exists. Existing accounts are never modified.
func EnsureAdmin(ctx context.Context, repo authdomain.Repository, node *snowflake.Node, clk clock.Clock, cfg config.BootstrapConfig, log *zap.Logger) (bool, error) {
	if !cfg.AdminEnabled {
		return false, nil
	}
	if repo == nil || node == nil {
		return false, errors.New("seed dependencies are required")
	}
	if clk == nil {
		clk = clock.New()
	}

	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || cfg.AdminPassword == "" {
		return false, errors.New("bootstrap admin email and password are required")
	}

	inUse, err := repo.IsEmailInUse(ctx, email)
	if err != nil {
		return false, err
	}
	if inUse {
		return false, nil
	}

	hashed, err := password.Hash(cfg.AdminPassword)
	if err != nil {
		return false, err
	}

	name := strings.TrimSpace(cfg.AdminName)
	if name == "" {
		name = "Administrator"
	}

	now := clk.Now()
	user := &authdomain.User{
		ID:           node.Generate(),
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Role:         authdomain.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.Create(ctx, user); err != nil {
		// Another replica seeded first.
		if db.IsDuplicateKeyErr(err) {
			return false, nil
		}
		return false, err
	}

	if log != nil {
		log.Info("bootstrap admin created", zap.String("user_id", user.ID.String()), zap.String("email", email))
		if cfg.AdminPassword == "admin123" {
			log.Warn("bootstrap admin is using the default password; change it")
		}
	}
	return true, nil
}
