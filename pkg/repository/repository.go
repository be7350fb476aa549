// Package repository provides a generic gorm-backed data store.
package repository

import (
	"context"

	"github.com/smallbiznis/membership/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is the generic data access contract shared by every entity.
// Lookups that find nothing return (nil, nil).
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]

	FindByID(ctx context.Context, id any) (*T, error)
	FindAll(ctx context.Context, opts ...option.QueryOption) ([]*T, error)
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Exists(ctx context.Context, opts ...option.QueryOption) (bool, error)
	Count(ctx context.Context, opts ...option.QueryOption) (int64, error)

	Create(ctx context.Context, resource *T) error
	Save(ctx context.Context, resource *T) error
	Update(ctx context.Context, id any, fields any) error
	Delete(ctx context.Context, resource *T) error
	DeleteByID(ctx context.Context, id any) (bool, error)
}
