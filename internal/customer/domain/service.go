package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

//go:generate mockgen -source=service.go -destination=../mocks/mock_service.go -package=mocks
type Service interface {
	ListCustomers(ctx context.Context, ownerID snowflake.ID) ([]*Customer, error)
	ListCustomersWithSubscriptions(ctx context.Context, ownerID snowflake.ID) ([]*Customer, error)
	GetCustomer(ctx context.Context, id, ownerID snowflake.ID) (*Customer, error)
	CreateCustomer(ctx context.Context, req CreateCustomerRequest, ownerID snowflake.ID) (*Customer, error)
	UpdateCustomer(ctx context.Context, id snowflake.ID, req UpdateCustomerRequest, ownerID snowflake.ID) (*Customer, error)
	DeleteCustomer(ctx context.Context, id, ownerID snowflake.ID) (bool, error)
	IsDocumentInUse(ctx context.Context, document string, ownerID snowflake.ID, excludeID *snowflake.ID) (bool, error)
	IsEmailInUse(ctx context.Context, email string, ownerID snowflake.ID, excludeID *snowflake.ID) (bool, error)
}

type CreateCustomerRequest struct {
	Name      string
	Email     string
	Phone     string
	Document  string
	Address   string
	BirthDate *time.Time
	Notes     string
}

type UpdateCustomerRequest struct {
	Name      string
	Email     string
	Phone     string
	Document  string
	Address   string
	BirthDate *time.Time
	IsActive  bool
	Notes     string
}

var (
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidOwner  = errors.New("invalid_owner")
	ErrNotFound      = errors.New("not_found")
	ErrDocumentInUse = errors.New("document_in_use")
	ErrEmailInUse    = errors.New("email_in_use")
)
