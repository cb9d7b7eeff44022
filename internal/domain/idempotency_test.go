package domain

import (
	"testing"
	"time"
)

func TestIdempotency_Live(t *testing.T) {
	now := time.Now()
	rec := Idempotency{ExpiresAt: now.Add(time.Minute)}
	if !rec.Live(now) {
		t.Fatalf("record expiring in the future must be live")
	}
	if rec.Live(now.Add(2 * time.Minute)) {
		t.Fatalf("record must not be live after expiry")
	}
	if rec.Live(rec.ExpiresAt) {
		t.Fatalf("record must not be live at its exact expiry instant")
	}
}

func TestIdempotency_UniquePerUserScopeKey(t *testing.T) {
	db := newDomainDB(t)
	now := time.Now().UTC()

	first := &Idempotency{ID: "i1", UserID: "u1", Scope: IdempotencyScopeRentals, Key: "k1",
		RentalID: "r1", Status: 201, ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(first).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	if first.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt should be filled by autoCreateTime")
	}

	dup := &Idempotency{ID: "i2", UserID: "u1", Scope: IdempotencyScopeRentals, Key: "k1",
		RentalID: "r2", Status: 201, ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected UNIQUE violation on (user_id, scope, key)")
	}

	// Same key for another user is fine.
	other := &Idempotency{ID: "i3", UserID: "u2", Scope: IdempotencyScopeRentals, Key: "k1",
		RentalID: "r3", Status: 201, ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("insert other user: %v", err)
	}

	var got Idempotency
	if err := db.First(&got, "id = ?", "i1").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.RentalID != "r1" || got.Status != 201 || !got.Live(now) {
		t.Fatalf("unexpected row: %+v", got)
	}
}
