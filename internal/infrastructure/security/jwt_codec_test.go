package security

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bgi/launchpad-auth/internal/core/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCodec(t *testing.T) (*JWTCodec, *Keyring, *fakeClock) {
	t.Helper()
	keys, err := NewKeyring(testSecret)
	if err != nil {
		t.Fatalf("keyring: %v", err)
	}
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewJWTCodec(keys, "bgi-launchpad", WithClock(clock.Now)), keys, clock
}

func TestJWTCodec_IssueVerify(t *testing.T) {
	codec, _, clock := newTestCodec(t)

	token, err := codec.Issue("alice@x.edu", domain.RoleStudent, domain.TokenAccess, 15*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected compact JWS, got %q", token)
	}

	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "alice@x.edu" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Class != domain.TokenAccess {
		t.Fatalf("unexpected class: %s", claims.Class)
	}
	if claims.Role != domain.RoleStudent {
		t.Fatalf("unexpected role: %s", claims.Role)
	}
	if !claims.IssuedAt.Equal(clock.Now()) {
		t.Fatalf("unexpected iat: %s", claims.IssuedAt)
	}
	if !claims.ExpiresAt.Equal(clock.Now().Add(15 * time.Minute)) {
		t.Fatalf("unexpected exp: %s", claims.ExpiresAt)
	}
	if claims.ID == "" {
		t.Fatalf("expected jti to be set")
	}
}

func TestJWTCodec_TokensAreUnique(t *testing.T) {
	codec, _, _ := newTestCodec(t)

	a, _ := codec.Issue("alice@x.edu", domain.RoleStudent, domain.TokenAccess, time.Minute)
	b, _ := codec.Issue("alice@x.edu", domain.RoleStudent, domain.TokenAccess, time.Minute)
	if a == b {
		t.Fatalf("two tokens issued at the same instant must differ")
	}
}

func TestJWTCodec_Expiry(t *testing.T) {
	codec, _, clock := newTestCodec(t)

	token, err := codec.Issue("alice@x.edu", domain.RoleStudent, domain.TokenAccess, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clock.Advance(59 * time.Second)
	if _, err := codec.Verify(token); err != nil {
		t.Fatalf("token should still be valid: %v", err)
	}

	clock.Advance(time.Second)
	_, err = codec.Verify(token)
	if !errors.Is(err, domain.ErrInvalidToken) || !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected expired token error at exp, got %v", err)
	}
}

func TestJWTCodec_SignatureMismatch(t *testing.T) {
	codec, _, clock := newTestCodec(t)

	otherKeys, _ := NewKeyring("ffffffffffffffffffffffffffffffff")
	forger := NewJWTCodec(otherKeys, "bgi-launchpad", WithClock(clock.Now))
	forged, err := forger.Issue("alice@x.edu", domain.RoleAdmin, domain.TokenAccess, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = codec.Verify(forged)
	if !errors.Is(err, domain.ErrTokenSignature) {
		t.Fatalf("expected signature mismatch, got %v", err)
	}
}

func TestJWTCodec_RejectsOtherAlgorithms(t *testing.T) {
	codec, _, clock := newTestCodec(t)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "bgi-launchpad",
			Subject:   "alice@x.edu",
			IssuedAt:  jwt.NewNumericDate(clock.Now()),
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Minute)),
		},
		Class: domain.TokenAccess,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := codec.Verify(signed); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected HS512 token to be rejected, got %v", err)
	}
}

func TestJWTCodec_Malformed(t *testing.T) {
	codec, _, _ := newTestCodec(t)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := codec.Verify(raw)
		if !errors.Is(err, domain.ErrTokenMalformed) {
			t.Fatalf("Verify(%q): expected malformed, got %v", raw, err)
		}
	}
}

func TestJWTCodec_WrongIssuer(t *testing.T) {
	codec, keys, clock := newTestCodec(t)
	foreign := NewJWTCodec(keys, "someone-else", WithClock(clock.Now))

	token, _ := foreign.Issue("alice@x.edu", domain.RoleStudent, domain.TokenAccess, time.Minute)
	if _, err := codec.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected foreign issuer to be rejected, got %v", err)
	}
}

func TestJWTCodec_RotationInvalidatesOutstandingTokens(t *testing.T) {
	codec, keys, _ := newTestCodec(t)

	token, _ := codec.Issue("alice@x.edu", domain.RoleStudent, domain.TokenRefresh, time.Hour)
	if err := keys.Rotate("rotated-secret-rotated-secret-000"); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	if _, err := codec.Verify(token); !errors.Is(err, domain.ErrTokenSignature) {
		t.Fatalf("expected token signed with the old key to fail, got %v", err)
	}

	fresh, _ := codec.Issue("alice@x.edu", domain.RoleStudent, domain.TokenRefresh, time.Hour)
	if _, err := codec.Verify(fresh); err != nil {
		t.Fatalf("token signed after rotation should verify: %v", err)
	}
}

func TestJWTCodec_IssueValidation(t *testing.T) {
	codec, _, _ := newTestCodec(t)

	if _, err := codec.Issue("", domain.RoleStudent, domain.TokenAccess, time.Minute); err == nil {
		t.Fatalf("expected error for empty subject")
	}
	if _, err := codec.Issue("a@x.edu", domain.RoleStudent, "session", time.Minute); err == nil {
		t.Fatalf("expected error for unknown class")
	}
	if _, err := codec.Issue("a@x.edu", domain.RoleStudent, domain.TokenAccess, 0); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}
