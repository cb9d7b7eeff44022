package domain

import "time"

// IdempotencyScopeRentals scopes Idempotency-Key values sent to POST /rentals.
const IdempotencyScopeRentals = "rentals"

// Idempotency represents a recorded result of a previously processed request,
// keyed by (user_id, scope, key). A client retrying a borrow with the same key
// gets the rental that the first attempt produced instead of a second one.
type Idempotency struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:ux_idem_user_scope_key,priority:1"`
	Scope     string    `gorm:"type:varchar(32);not null;uniqueIndex:ux_idem_user_scope_key,priority:2"`
	Key       string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_idem_user_scope_key,priority:3"`
	RentalID  string    `gorm:"type:varchar(36);not null"`
	Status    int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }

// Live reports whether the record is still replayable at now.
func (i Idempotency) Live(now time.Time) bool { return now.Before(i.ExpiresAt) }
