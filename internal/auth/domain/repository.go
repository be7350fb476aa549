package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/membership/pkg/repository"
)

// Repository is the user directory.
type Repository interface {
	repository.Repository[User]

	FindByEmail(ctx context.Context, email string) (*User, error)
	FindActiveByEmail(ctx context.Context, email string) (*User, error)
	IsEmailInUse(ctx context.Context, email string) (bool, error)
	ListActive(ctx context.Context) ([]*User, error)
	// ListByRole only returns active users.
	ListByRole(ctx context.Context, role Role) ([]*User, error)
	TouchLastLogin(ctx context.Context, id snowflake.ID, at time.Time) error
}
