package ports

import (
	"context"

	"github.com/bgi/launchpad-auth/internal/core/domain"
)

// CredentialStore defines the persistence operations the auth core needs.
// Emails passed in are already normalised.
type CredentialStore interface {
	// FindByEmail returns domain.ErrUserNotFound when no identity matches.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Save inserts a new identity and returns it with its assigned ID.
	// A uniqueness violation on email is reported as domain.ErrConflict.
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
}

// IdentityFinder is the read-only slice of CredentialStore used per request.
type IdentityFinder interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

// RegistrationLock serialises registrations of the same email across
// processes. Acquire returns domain.ErrLockHeld when another registration
// holds the key.
type RegistrationLock interface {
	Acquire(ctx context.Context, email string) (release func(), err error)
}
