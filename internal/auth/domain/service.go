package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

//go:generate mockgen -source=service.go -destination=../mocks/mock_service.go -package=mocks
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*Credential, error)
	Register(ctx context.Context, req RegisterRequest) (*Credential, error)
	IsEmailInUse(ctx context.Context, email string) (bool, error)
	GetUser(ctx context.Context, id snowflake.ID) (*UserInfo, error)
	ListActiveUsers(ctx context.Context) ([]UserInfo, error)
	ListUsersByRole(ctx context.Context, role Role) ([]UserInfo, error)
}

type LoginRequest struct {
	Email    string
	Password string
}

type RegisterRequest struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Role            Role
}

// Credential is returned by Login and Register. ExpiresAt equals the token's exp claim.
type Credential struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserInfo  `json:"user"`
}

type UserInfo struct {
	ID    snowflake.ID `json:"id"`
	Name  string       `json:"name"`
	Email string       `json:"email"`
	Role  Role         `json:"role"`
}
