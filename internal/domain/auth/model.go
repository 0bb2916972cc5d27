// Package auth provides authentication domain logic: user registration,
// login and bearer-token issuance/verification.
package auth

import (
	"time"

	"inkpress/internal/core/id"
)

// Roles known to the API.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account that can author posts.
type User struct {
	ID           id.ID     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// RegisterRequest carries the fields needed to create an account.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string
	Password string
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	User        *User
	AccessToken string
	ExpiresAt   time.Time
}
