package security

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/bgi/launchpad-auth/internal/core/domain"
)

func TestBcryptHasher_HashAndMatch(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	digest, err := h.Hash("Secret123!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if digest == "Secret123!" {
		t.Fatalf("digest must not equal plaintext")
	}
	if len(digest) != 60 {
		t.Fatalf("expected 60 byte bcrypt digest, got %d", len(digest))
	}
	if !h.Matches("Secret123!", digest) {
		t.Fatalf("expected password to match its digest")
	}
	if h.Matches("secret123!", digest) {
		t.Fatalf("wrong password must not match")
	}
}

func TestBcryptHasher_Salted(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	a, _ := h.Hash("Secret123!")
	b, _ := h.Hash("Secret123!")
	if a == b {
		t.Fatalf("expected different digests for the same password")
	}
}

func TestBcryptHasher_Rejects(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	if _, err := h.Hash(""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty password, got %v", err)
	}
	if _, err := h.Hash(strings.Repeat("x", 73)); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for overlong password, got %v", err)
	}
	if h.Matches("anything", "not-a-bcrypt-digest") {
		t.Fatalf("garbage digest must never match")
	}
}

func TestNewBcryptHasher_CostFallback(t *testing.T) {
	if got := NewBcryptHasher(0).cost; got != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", got)
	}
	if got := NewBcryptHasher(99).cost; got != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", got)
	}
}
