package identity

import (
	"time"

	"github.com/google/uuid"
)

// RegisterInput contains input for registering a principal
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput contains input for logging in
type LoginInput struct {
	Email    string
	Password string
}

// LogoutInput identifies the access token to revoke
type LogoutInput struct {
	TokenID   string
	ExpiresAt time.Time
}

// PrincipalInfo is the public view of a principal
type PrincipalInfo struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Schema string    `json:"schema,omitempty"`
}

// AuthResult is returned by register and login
type AuthResult struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresAt   time.Time     `json:"expires_at"`
	Principal   PrincipalInfo `json:"principal"`
}

// MigrateTenantResult reports the outcome of an explicit tenant migration
type MigrateTenantResult struct {
	Schema  string `json:"schema"`
	Applied int    `json:"applied"`
}
