package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/membership/pkg/repository"
)

// Repository is the customer directory.
type Repository interface {
	repository.Repository[Customer]

	ListByOwner(ctx context.Context, ownerID snowflake.ID) ([]*Customer, error)
	ListActiveByOwner(ctx context.Context, ownerID snowflake.ID) ([]*Customer, error)
	ListByOwnerWithSubscriptions(ctx context.Context, ownerID snowflake.ID) ([]*Customer, error)
	FindByIDAndOwner(ctx context.Context, id, ownerID snowflake.ID) (*Customer, error)

	// FindByDocument and FindByEmail search across all owners.
	FindByDocument(ctx context.Context, document string) (*Customer, error)
	FindByEmail(ctx context.Context, email string) (*Customer, error)

	ExistsDocument(ctx context.Context, ownerID snowflake.ID, document string, excludeID *snowflake.ID) (bool, error)
	ExistsEmail(ctx context.Context, ownerID snowflake.ID, email string, excludeID *snowflake.ID) (bool, error)
}
