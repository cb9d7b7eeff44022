package security

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashCompare(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	hash, err := h.Hash("s3cret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "s3cret" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("unexpected hash %q", hash)
	}
	if err := h.Compare(hash, "s3cret"); err != nil {
		t.Fatalf("Compare correct password: %v", err)
	}
	if err := h.Compare(hash, "wrong"); err == nil {
		t.Fatalf("Compare must reject a wrong password")
	}
}

func TestBcryptHasher_CostFallback(t *testing.T) {
	for _, cost := range []int{0, -1, 99} {
		if h := NewBcryptHasher(cost); h.cost != bcrypt.DefaultCost {
			t.Fatalf("NewBcryptHasher(%d).cost = %d", cost, h.cost)
		}
	}
	if h := NewBcryptHasher(5); h.cost != 5 {
		t.Fatalf("explicit cost ignored")
	}
}

func TestBcryptHasher_RejectsLongPassword(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	if _, err := h.Hash(strings.Repeat("x", 73)); err == nil {
		t.Fatalf("expected error for password longer than 72 bytes")
	}
}

func TestBcryptHasher_CompareDummyAlwaysFails(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	for _, pw := range []string{"", "video-rental-dummy", "anything"} {
		if err := h.CompareDummy(pw); err == nil {
			t.Fatalf("CompareDummy(%q) must fail", pw)
		}
	}
}
