package domain

import "time"

// TokenClass separates short-lived access tokens from refresh tokens.
type TokenClass string

const (
	TokenAccess  TokenClass = "access"
	TokenRefresh TokenClass = "refresh"
)

// Valid reports whether c is a known token class.
func (c TokenClass) Valid() bool {
	return c == TokenAccess || c == TokenRefresh
}

// TokenClaims is the verified content of a token.
type TokenClaims struct {
	ID        string
	Subject   string
	Class     TokenClass
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Principal is the identity resolved for the current request.
type Principal struct {
	UserID string
	Email  string
	Role   Role
}
