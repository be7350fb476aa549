package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/membership/internal/auth/domain"
	"github.com/smallbiznis/membership/pkg/db/option"
	"github.com/smallbiznis/membership/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	repository.Repository[domain.User]
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repo{
		Repository: repository.ProvideStore[domain.User](db),
		db:         db,
	}
}

func (r *repo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.found(r.FindOne(ctx, nil, option.Equal("email", email)))
}

func (r *repo) FindActiveByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.found(r.FindOne(ctx, nil,
		option.Equal("email", email),
		option.Equal("is_active", true),
	))
}

func (r *repo) IsEmailInUse(ctx context.Context, email string) (bool, error) {
	return r.Exists(ctx, option.Equal("email", email))
}

func (r *repo) ListActive(ctx context.Context) ([]*domain.User, error) {
	return r.FindAll(ctx, option.Equal("is_active", true), option.OrderBy("name", false))
}

func (r *repo) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	return r.FindAll(ctx,
		option.Equal("role", role),
		option.Equal("is_active", true),
		option.OrderBy("name", false),
	)
}

func (r *repo) TouchLastLogin(ctx context.Context, id snowflake.ID, at time.Time) error {
	return r.Update(ctx, id, map[string]any{
		"last_login_at": at,
		"updated_at":    at,
	})
}

func (r *repo) found(user *domain.User, err error) (*domain.User, error) {
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}
