package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-video-rental/internal/domain"
)

func mkRental(userID, movieID string, at time.Time) *domain.Rental {
	return &domain.Rental{
		UserID: userID, MovieID: movieID,
		UserFullName: "A B", UserEmail: "a@x.com", MovieTitle: "T",
		RentedAt: at, DueDate: domain.DueDate(at),
	}
}

func TestRentals_CreateCloseOnce(t *testing.T) {
	ctx := context.Background()
	db := newStoreDB(t)
	r := mkRental("u1", "m1", time.Now().UTC())
	if err := CreateRental(ctx, db, r); err != nil {
		t.Fatalf("CreateRental: %v", err)
	}
	if r.ID == "" {
		t.Fatalf("CreateRental should assign an id")
	}

	if n, _ := CountOpenRentalsForMovie(ctx, db, "m1"); n != 1 {
		t.Fatalf("open rentals = %d; want 1", n)
	}

	at := time.Now().UTC()
	if err := CloseRental(ctx, db, r.ID, at); err != nil {
		t.Fatalf("CloseRental: %v", err)
	}
	if err := CloseRental(ctx, db, r.ID, at.Add(time.Minute)); !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("second close must fail the guard, got %v", err)
	}
	got, err := GetRental(ctx, db, r.ID)
	if err != nil {
		t.Fatalf("GetRental: %v", err)
	}
	if got.Open() || !got.ReturnedAt.Equal(at) {
		t.Fatalf("returned_at should keep the first close time: %+v", got)
	}
	if n, _ := CountOpenRentalsForMovie(ctx, db, "m1"); n != 0 {
		t.Fatalf("open rentals = %d; want 0", n)
	}
	if err := CloseRental(ctx, db, "missing", at); !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("closing a missing rental must fail the guard, got %v", err)
	}
	if _, err := GetRental(ctx, db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRentals_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := newStoreDB(t)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	old := mkRental("u1", "m1", base)
	mid := mkRental("u2", "m1", base.Add(time.Hour))
	newest := mkRental("u1", "m2", base.Add(2*time.Hour))
	for _, r := range []*domain.Rental{mid, old, newest} {
		if err := CreateRental(ctx, db, r); err != nil {
			t.Fatalf("CreateRental: %v", err)
		}
	}

	all, err := ListRentals(ctx, db, 10)
	if err != nil || len(all) != 3 {
		t.Fatalf("ListRentals = %v, %v", all, err)
	}
	if all[0].ID != newest.ID || all[2].ID != old.ID {
		t.Fatalf("ListRentals must be newest first")
	}
	if capped, _ := ListRentals(ctx, db, 2); len(capped) != 2 {
		t.Fatalf("limit ignored")
	}

	mine, err := ListRentalsByUser(ctx, db, "u1", 10)
	if err != nil || len(mine) != 2 {
		t.Fatalf("ListRentalsByUser = %v, %v", mine, err)
	}
	if mine[0].ID != newest.ID || mine[1].ID != old.ID {
		t.Fatalf("ListRentalsByUser must be newest first")
	}
	if none, _ := ListRentalsByUser(ctx, db, "nobody", 10); len(none) != 0 {
		t.Fatalf("expected no rentals for unknown user")
	}
}
