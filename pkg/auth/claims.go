package auth

import "github.com/golang-jwt/jwt/v5"

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID    uint
	Username  string
	SessionID string
}

// AccessTokenClaims represents the typed JWT issued to clients. The
// registered ID (jti) carries the session id.
type AccessTokenClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// SessionID returns the session the token was minted for.
func (c *AccessTokenClaims) SessionID() string {
	if c == nil {
		return ""
	}
	return c.ID
}
