// Package metrics defines the Prometheus metrics for the launchpad auth API.
// It is the single source of truth for metric names, labels, and help strings.
//
// The collectors are created unregistered so tests never touch a global
// registry. Call Register once at startup with the registry that /metrics
// serves.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bgi/launchpad-auth/internal/core/ports"
)

const namespace = "auth"

// LoginsTotal counts login attempts.
// Label:
//   - outcome: "success", "invalid_credentials", "validation" or "error"
var LoginsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// RegistrationsTotal counts registration attempts.
// Label:
//   - outcome: "success", "conflict", "validation" or "error"
var RegistrationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by outcome.",
	},
	[]string{"outcome"},
)

// RefreshTotal counts refresh-token exchanges.
// Label:
//   - outcome: "success", "invalid_token", "validation" or "error"
var RefreshTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_total",
		Help:      "Total number of refresh-token exchanges, by outcome.",
	},
	[]string{"outcome"},
)

// TokenVerificationsTotal counts bearer tokens checked by the interceptor.
// Label:
//   - result: "ok", "expired", "malformed", "signature", "wrong_class",
//     "unknown_subject", "inactive", "lookup_error" or "invalid"
var TokenVerificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of bearer tokens verified, by result.",
	},
	[]string{"result"},
)

// PolicyDecisionsTotal counts access policy outcomes.
// Label:
//   - decision: "allow", "unauthenticated" or "forbidden"
var PolicyDecisionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "policy_decisions_total",
		Help:      "Total number of access policy decisions, by decision.",
	},
	[]string{"decision"},
)

// PasswordHashDuration measures the cost of producing one password digest.
var PasswordHashDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "password_hash_duration_seconds",
		Help:      "Duration of password hashing at registration.",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
	},
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		LoginsTotal,
		RegistrationsTotal,
		RefreshTotal,
		TokenVerificationsTotal,
		PolicyDecisionsTotal,
		PasswordHashDuration,
	}
}

// Register adds every auth metric to reg. Collectors already present in reg
// are skipped.
func Register(reg prometheus.Registerer) error {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// InstrumentHasher wraps h so every Hash call is observed by
// PasswordHashDuration.
func InstrumentHasher(h ports.PasswordHasher) ports.PasswordHasher {
	return timedHasher{next: h}
}

type timedHasher struct {
	next ports.PasswordHasher
}

func (t timedHasher) Hash(plaintext string) (string, error) {
	start := time.Now()
	digest, err := t.next.Hash(plaintext)
	PasswordHashDuration.Observe(time.Since(start).Seconds())
	return digest, err
}

func (t timedHasher) Matches(plaintext, digest string) bool {
	return t.next.Matches(plaintext, digest)
}
