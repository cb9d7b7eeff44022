package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-video-rental/internal/domain"
)

// CreateRental inserts r, assigning a UUID when unset. RentedAt and DueDate
// are set by the caller.
func CreateRental(ctx context.Context, db *gorm.DB, r *domain.Rental) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return db.WithContext(ctx).Create(r).Error
}

// GetRental fetches a rental by id.
func GetRental(ctx context.Context, db *gorm.DB, id string) (*domain.Rental, error) {
	var r domain.Rental
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// CloseRental stamps returned_at on an open rental. A rental that is already
// closed (or missing) yields ErrConditionFailed, so it can never be closed
// twice.
func CloseRental(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	res := db.WithContext(ctx).Model(&domain.Rental{}).
		Where("id = ? AND returned_at IS NULL", id).
		Update("returned_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConditionFailed
	}
	return nil
}

// CountOpenRentalsForMovie counts rentals of movieID not yet returned.
func CountOpenRentalsForMovie(ctx context.Context, db *gorm.DB, movieID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Rental{}).
		Where("movie_id = ? AND returned_at IS NULL", movieID).
		Count(&n).Error
	return n, err
}

// ListRentals returns up to limit rentals, newest first.
func ListRentals(ctx context.Context, db *gorm.DB, limit int) ([]domain.Rental, error) {
	var out []domain.Rental
	err := db.WithContext(ctx).
		Order("rented_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListRentalsByUser returns up to limit rentals of userID, newest first.
func ListRentalsByUser(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.Rental, error) {
	var out []domain.Rental
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("rented_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
