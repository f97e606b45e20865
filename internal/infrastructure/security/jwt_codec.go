package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bgi/launchpad-auth/internal/core/domain"
	"github.com/bgi/launchpad-auth/internal/core/ports"
)

// Claims is the JWT payload minted by JWTCodec.
type Claims struct {
	jwt.RegisteredClaims
	Class domain.TokenClass `json:"typ"`
	Role  domain.Role       `json:"role,omitempty"`
}

// JWTCodec signs and verifies HS256 tokens with the keys held by a Keyring.
type JWTCodec struct {
	keys   *Keyring
	issuer string
	now    func() time.Time
}

// CodecOption configures a JWTCodec.
type CodecOption func(*JWTCodec)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) CodecOption {
	return func(c *JWTCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewJWTCodec returns a codec bound to keys. An empty issuer disables the iss check.
func NewJWTCodec(keys *Keyring, issuer string, opts ...CodecOption) *JWTCodec {
	c := &JWTCodec{keys: keys, issuer: issuer, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue mints a token for subject valid for ttl.
func (c *JWTCodec) Issue(subject string, role domain.Role, class domain.TokenClass, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("issue token: empty subject")
	}
	if !class.Valid() {
		return "", fmt.Errorf("issue token: unknown class %q", class)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("issue token: non-positive ttl %s", ttl)
	}

	now := c.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			// jti keeps two tokens minted in the same second distinct.
			ID: uuid.NewString(),
		},
		Class: class,
		Role:  role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.keys.Current())
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", class, err)
	}
	return signed, nil
}

// Verify parses token and checks its signature, issuer and lifetime.
func (c *JWTCodec) Verify(token string) (*domain.TokenClaims, error) {
	key := c.keys.Current()

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(_ *jwt.Token) (any, error) {
		return key, nil
	}, opts...)
	if err != nil {
		return nil, classify(err)
	}
	if !parsed.Valid || claims.Subject == "" || !claims.Class.Valid() {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, domain.ErrTokenMalformed)
	}

	out := &domain.TokenClaims{
		ID:      claims.ID,
		Subject: claims.Subject,
		Class:   claims.Class,
		Role:    claims.Role,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func classify(err error) error {
	var kind error
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		kind = domain.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		kind = domain.ErrTokenSignature
	default:
		kind = domain.ErrTokenMalformed
	}
	return fmt.Errorf("%w: %w", domain.ErrInvalidToken, kind)
}

var _ ports.TokenCodec = (*JWTCodec)(nil)
