package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/bgi/launchpad-auth/internal/api/middleware"
	"github.com/bgi/launchpad-auth/internal/core/domain"
)

// ctxPrincipal returns the identity resolved by the Authenticate middleware.
// Handlers behind a permissive rule still need it, so its absence is an
// authentication failure rather than a programming error.
func ctxPrincipal(c echo.Context) (*domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return p, nil
}
