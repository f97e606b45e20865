package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bgi/launchpad-auth/internal/api/metrics"
	"github.com/bgi/launchpad-auth/internal/core/domain"
	"github.com/bgi/launchpad-auth/internal/core/ports"
)

const (
	principalKey   = "auth.principal"
	authFailureKey = "auth.failure"
)

// Authenticate resolves the bearer token of every request into a Principal.
// It never rejects a request itself: a missing or unusable token leaves the
// request unauthenticated and the decision to Enforce. Nothing is cached
// beyond the request.
func Authenticate(tokens ports.TokenVerifier, identities ports.IdentityFinder, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return next(c)
			}

			principal, reason := resolve(c, authHeader, tokens, identities)
			metrics.TokenVerificationsTotal.WithLabelValues(reason).Inc()
			if principal == nil {
				c.Set(authFailureKey, reason)
				log.Debug().
					Str("reason", reason).
					Str("method", c.Request().Method).
					Str("path", c.Request().URL.Path).
					Msg("bearer token rejected")
				return next(c)
			}

			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

func resolve(c echo.Context, authHeader string, tokens ports.TokenVerifier, identities ports.IdentityFinder) (*domain.Principal, string) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return nil, "malformed"
	}

	claims, err := tokens.Verify(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, domain.TokenFailureKind(err)
	}
	if claims.Class != domain.TokenAccess {
		return nil, "wrong_class"
	}

	user, err := identities.FindByEmail(c.Request().Context(), claims.Subject)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return nil, "unknown_subject"
	case err != nil:
		return nil, "lookup_error"
	case !user.Active:
		return nil, "inactive"
	}

	return &domain.Principal{UserID: user.ID, Email: user.Email, Role: user.Role}, "ok"
}

// PrincipalFrom returns the identity Authenticate attached to c, if any.
func PrincipalFrom(c echo.Context) (*domain.Principal, bool) {
	p, ok := c.Get(principalKey).(*domain.Principal)
	return p, ok && p != nil
}

// AuthFailure returns why the request's bearer token was rejected, or "" when
// no token was presented or it was accepted.
func AuthFailure(c echo.Context) string {
	reason, _ := c.Get(authFailureKey).(string)
	return reason
}
