// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User
// (identity) model.
//
// All functions are context-aware and accept a *gorm.DB handle, so they can
// run inside a transaction opened by the service layer. They follow the thin
// repository approach: no business rules, only persistence and query
// composition.
//
// Error semantics:
//   - A missing row is reported as ErrNotFound (gorm.ErrRecordNotFound).
//   - Unique violations are reported as ErrDuplicate.
//   - Other DB errors are propagated unchanged.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-video-rental/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates a unique constraint rejected the write.
var ErrDuplicate = errors.New("duplicate")

// ErrConditionFailed is returned by conditional updates whose guard matched
// no row.
var ErrConditionFailed = errors.New("condition not met")

// IsDuplicate reports whether err is a unique constraint violation.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations even
// with TranslateError enabled.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key value")
}

// forUpdate adds a row lock where the dialect supports it. SQLite ignores
// the clause; its writers are already serialized.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// CreateUser inserts u, assigning a UUID and registration time when unset.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.RegisteredAt.IsZero() {
		u.RegisteredAt = time.Now().UTC()
	}
	if u.ActiveRentals == nil {
		u.ActiveRentals = domain.StringList{}
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetUser fetches a user by id.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserForUpdate is GetUser with a row lock for use inside a transaction.
func GetUserForUpdate(ctx context.Context, tx *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := forUpdate(tx.WithContext(ctx)).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail fetches a user by exact email match.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// EmailTaken reports whether another user (id != exceptID) owns email.
func EmailTaken(ctx context.Context, db *gorm.DB, email, exceptID string) (bool, error) {
	var n int64
	q := db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountUsers returns the number of registered identities.
func CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.User{}).Count(&n).Error
	return n, err
}

// ListUsers returns up to limit users in registration order.
func ListUsers(ctx context.Context, db *gorm.DB, limit int) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Order("registered_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateUserFields applies a column->value map to user id.
// Returns ErrNotFound when no row matched.
func UpdateUserFields(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		if IsDuplicate(res.Error) {
			return ErrDuplicate
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActiveRentals replaces the user's open-rental list.
func SetActiveRentals(ctx context.Context, db *gorm.DB, id string, rentals domain.StringList) error {
	if rentals == nil {
		rentals = domain.StringList{}
	}
	res := db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("active_rentals", rentals)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes user id. Returns ErrNotFound when no row matched.
func DeleteUser(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
