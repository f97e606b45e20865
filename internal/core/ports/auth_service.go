package ports

import (
	"context"
	"time"

	"github.com/bgi/launchpad-auth/internal/core/domain"
)

// RegisterInput carries the data needed to create an identity.
type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	Role         domain.Role
	DepartmentID *int64
}

// PublicUser is the outward projection of an identity. It never carries the
// password hash.
type PublicUser struct {
	ID              string
	Name            string
	Email           string
	Role            domain.Role
	RoleDisplayName string
	DepartmentID    *int64
	Active          bool
	CreatedAt       time.Time
}

// AuthResult pairs freshly minted tokens with the identity they belong to.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         PublicUser
}

// AuthService defines the token-issuing use cases.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Profile(ctx context.Context, email string) (*PublicUser, error)
}
