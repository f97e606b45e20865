package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bgi/launchpad-auth/internal/api/metrics"
	"github.com/bgi/launchpad-auth/internal/core/domain"
	"github.com/bgi/launchpad-auth/internal/core/policy"
)

// Enforce consults p with the identity resolved by Authenticate and stops
// the request before its handler when access is denied.
func Enforce(p *policy.Policy, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, _ := PrincipalFrom(c)
			req := c.Request()

			decision := p.Decide(req.Method, req.URL.Path, principal)
			metrics.PolicyDecisionsTotal.WithLabelValues(decision.String()).Inc()

			switch decision {
			case policy.Allow:
				return next(c)
			case policy.DenyForbidden:
				log.Info().
					Str("user_id", principal.UserID).
					Str("role", string(principal.Role)).
					Str("method", req.Method).
					Str("path", req.URL.Path).
					Msg("access denied")
				return domain.ErrForbidden
			default:
				reason := AuthFailure(c)
				if reason == "" {
					reason = "missing"
				}
				log.Debug().
					Str("reason", reason).
					Str("method", req.Method).
					Str("path", req.URL.Path).
					Msg("authentication required")
				return domain.ErrUnauthenticated
			}
		}
	}
}
