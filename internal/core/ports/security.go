package ports

import (
	"time"

	"github.com/bgi/launchpad-auth/internal/core/domain"
)

// PasswordHasher is a one-way salted hash.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Matches(plaintext, digest string) bool
}

// TokenVerifier checks a compact token and returns its claims. Every failure
// wraps domain.ErrInvalidToken together with the specific kind.
type TokenVerifier interface {
	Verify(token string) (*domain.TokenClaims, error)
}

// TokenCodec signs and verifies tokens.
type TokenCodec interface {
	TokenVerifier
	Issue(subject string, role domain.Role, class domain.TokenClass, ttl time.Duration) (string, error)
}
