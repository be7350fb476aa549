package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/membership/pkg/db/option"
	"gorm.io/gorm"
)

type store[T any] struct {
	db *gorm.DB
}

func ProvideStore[T any](db *gorm.DB) Repository[T] {
	return &store[T]{db: db}
}

func (r *store[T]) WithTrx(tx *gorm.DB) Repository[T] {
	return &store[T]{db: tx}
}

func (r *store[T]) FindByID(ctx context.Context, id any) (*T, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *store[T]) FindAll(ctx context.Context, opts ...option.QueryOption) ([]*T, error) {
	return r.Find(ctx, nil, opts...)
}

func (r *store[T]) Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error) {
	var result []*T
	err := r.buildQuery(ctx, query, opts...).Find(&result).Error
	return result, err
}

func (r *store[T]) FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error) {
	return r.first(r.buildQuery(ctx, query, opts...))
}

func (r *store[T]) Exists(ctx context.Context, opts ...option.QueryOption) (bool, error) {
	var found int64
	err := r.buildQuery(ctx, nil, opts...).
		Model(new(T)).
		Select("1").
		Limit(1).
		Find(&found).Error
	if err != nil {
		return false, err
	}
	return found == 1, nil
}

func (r *store[T]) Count(ctx context.Context, opts ...option.QueryOption) (int64, error) {
	var count int64
	err := r.buildQuery(ctx, nil, opts...).Model(new(T)).Count(&count).Error
	return count, err
}

func (r *store[T]) Create(ctx context.Context, resource *T) error {
	return r.db.WithContext(ctx).Create(resource).Error
}

func (r *store[T]) Save(ctx context.Context, resource *T) error {
	return r.db.WithContext(ctx).Save(resource).Error
}

// Update applies a partial update; fields is a map or struct as accepted by gorm Updates.
func (r *store[T]) Update(ctx context.Context, id any, fields any) error {
	return r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(fields).Error
}

func (r *store[T]) Delete(ctx context.Context, resource *T) error {
	return r.db.WithContext(ctx).Delete(resource).Error
}

func (r *store[T]) DeleteByID(ctx context.Context, id any) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *store[T]) first(stmt *gorm.DB) (*T, error) {
	var result T
	if err := stmt.First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *store[T]) buildQuery(ctx context.Context, filter *T, opts ...option.QueryOption) *gorm.DB {
	db := r.db.WithContext(ctx)
	if filter != nil {
		db = db.Where(filter)
	}

	for _, opt := range opts {
		db = opt.Apply(db)
	}

	return db
}
