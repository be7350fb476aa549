// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Role is the coarse permission level of a user.
type Role string

const (
	RoleAdmin         Role = "Admin"
	RoleBusinessOwner Role = "BusinessOwner"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleBusinessOwner
}

// User represents an account that can log in. Email is unique across all users.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	Name         string       `gorm:"type:varchar(255);not null"`
	Email        string       `gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	PasswordHash string       `gorm:"type:text;not null"`
	Role         Role         `gorm:"type:varchar(50);not null;index"`
	IsActive     bool         `gorm:"not null"`
	CreatedAt    time.Time    `gorm:"not null"`
	UpdatedAt    time.Time    `gorm:"not null"`
	LastLoginAt  *time.Time
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Info returns the public summary of the user.
func (u User) Info() UserInfo {
	return UserInfo{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}
