package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/membership/internal/customer/domain"
	"github.com/smallbiznis/membership/pkg/db/option"
	"github.com/smallbiznis/membership/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	repository.Repository[domain.Customer]
}

func New(db *gorm.DB) domain.Repository {
	return &repo{Repository: repository.ProvideStore[domain.Customer](db)}
}

func (r *repo) ListByOwner(ctx context.Context, ownerID snowflake.ID) ([]*domain.Customer, error) {
	return r.FindAll(ctx, option.Equal("owner_id", ownerID), option.OrderBy("name", false))
}

func (r *repo) ListActiveByOwner(ctx context.Context, ownerID snowflake.ID) ([]*domain.Customer, error) {
	return r.FindAll(ctx,
		option.Equal("owner_id", ownerID),
		option.Equal("is_active", true),
		option.OrderBy("name", false),
	)
}

func (r *repo) ListByOwnerWithSubscriptions(ctx context.Context, ownerID snowflake.ID) ([]*domain.Customer, error) {
	return r.FindAll(ctx,
		option.Equal("owner_id", ownerID),
		option.Preload("Subscriptions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at")
		}),
		option.OrderBy("name", false),
	)
}

func (r *repo) FindByIDAndOwner(ctx context.Context, id, ownerID snowflake.ID) (*domain.Customer, error) {
	return r.FindOne(ctx, nil, option.Equal("id", id), option.Equal("owner_id", ownerID))
}

func (r *repo) FindByDocument(ctx context.Context, document string) (*domain.Customer, error) {
	return r.FindOne(ctx, nil, option.Equal("document", document))
}

func (r *repo) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return r.FindOne(ctx, nil, option.Equal("email", email))
}

func (r *repo) ExistsDocument(ctx context.Context, ownerID snowflake.ID, document string, excludeID *snowflake.ID) (bool, error) {
	return r.Exists(ctx, scoped(ownerID, "document", document, excludeID)...)
}

func (r *repo) ExistsEmail(ctx context.Context, ownerID snowflake.ID, email string, excludeID *snowflake.ID) (bool, error) {
	return r.Exists(ctx, scoped(ownerID, "email", email, excludeID)...)
}

func scoped(ownerID snowflake.ID, column, value string, excludeID *snowflake.ID) []option.QueryOption {
	opts := []option.QueryOption{
		option.Equal("owner_id", ownerID),
		option.Equal(column, value),
	}
	if excludeID != nil {
		opts = append(opts, option.NotEqual("id", *excludeID))
	}
	return opts
}
