package authorization

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/membership/internal/auth/domain"
)

const (
	ObjectUser     = "user"
	ObjectCustomer = "customer"
)

const (
	ActionUserList = "user:list"

	ActionCustomerView   = "customer:view"
	ActionCustomerCreate = "customer:create"
	ActionCustomerUpdate = "customer:update"
	ActionCustomerDelete = "customer:delete"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)

// Service decides whether a user may perform an action. Roles come from the
// caller's token; the enforcer only maps roles to permissions.
type Service interface {
	Authorize(ctx context.Context, userID snowflake.ID, role authdomain.Role, object, action string) error
}
