package security

import (
	"errors"
	"sync/atomic"
	"time"
)

// MinSecretLength is the shortest HMAC secret accepted, 256 bits for HS256.
const MinSecretLength = 32

var ErrWeakSecret = errors.New("signing secret must be at least 32 bytes")

type signingKey struct {
	secret    []byte
	version   int
	rotatedAt time.Time
}

// Keyring holds the process-wide signing key. Readers take a snapshot with
// Current; Rotate replaces the key in a single atomic swap, so every token
// signed with an earlier key stops verifying at once.
type Keyring struct {
	current atomic.Pointer[signingKey]
}

// NewKeyring creates a Keyring loaded with secret.
func NewKeyring(secret string) (*Keyring, error) {
	k := &Keyring{}
	if err := k.Rotate(secret); err != nil {
		return nil, err
	}
	return k, nil
}

// Current returns the active signing secret.
func (k *Keyring) Current() []byte {
	return k.current.Load().secret
}

// Version is incremented on every successful rotation, starting at 1.
func (k *Keyring) Version() int {
	if key := k.current.Load(); key != nil {
		return key.version
	}
	return 0
}

// RotatedAt reports when the active key was installed.
func (k *Keyring) RotatedAt() time.Time {
	if key := k.current.Load(); key != nil {
		return key.rotatedAt
	}
	return time.Time{}
}

// Rotate swaps in a new secret. The previous key is discarded with no grace
// window.
func (k *Keyring) Rotate(secret string) error {
	if len(secret) < MinSecretLength {
		return ErrWeakSecret
	}
	next := &signingKey{
		secret:    []byte(secret),
		rotatedAt: time.Now().UTC(),
	}
	for {
		prev := k.current.Load()
		next.version = 1
		if prev != nil {
			next.version = prev.version + 1
		}
		if k.current.CompareAndSwap(prev, next) {
			return nil
		}
	}
}
