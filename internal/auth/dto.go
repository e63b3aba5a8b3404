package auth

import (
	"time"

	"github.com/angelmondragon/storefront-backend/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the session token produced by a successful login.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	ExpiresAt   time.Time      `json:"expires_at"`
	SessionID   string         `json:"-"`
	User        *users.UserDTO `json:"user"`
}
