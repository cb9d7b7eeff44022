// Package services – RentalService
//
// This file implements the rental ledger: borrowing and returning copies.
// Every borrow and return touches three records (the rental, the movie's
// copy counts, and the customer's open-rental list) and must leave them
// consistent. Both paths take the movie lock and then the user lock, in that
// order, and perform all writes in a single transaction. Events and metrics
// are emitted only after commit.
package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-video-rental/internal/domain"
	"github.com/tbourn/go-video-rental/internal/events"
	"github.com/tbourn/go-video-rental/internal/lock"
	"github.com/tbourn/go-video-rental/internal/repo"
)

// Listing caps.
const (
	MaxLedgerPage   = 200
	MaxMyRentalPage = 50
)

// RentalService owns the borrow and return flows.
type RentalService struct {
	DB        *gorm.DB
	Locker    lock.Locker
	Publisher events.Publisher

	// IdempotencyTTL bounds how long a borrow key replays its rental.
	IdempotencyTTL time.Duration

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// NewRentalService wires a RentalService with a no-op publisher and a
// one-day idempotency window.
func NewRentalService(db *gorm.DB, l lock.Locker) *RentalService {
	return &RentalService{
		DB:             db,
		Locker:         l,
		Publisher:      events.Noop{},
		IdempotencyTTL: 24 * time.Hour,
	}
}

// BorrowRequest names the movie and, for administrators, an optional target.
type BorrowRequest struct {
	MovieID string
	// TargetUserID is honoured only for administrators; customers always
	// borrow for themselves.
	TargetUserID string
	// IdempotencyKey, when set, makes retries return the original rental.
	IdempotencyKey string
}

// BorrowResult is the opened rental.
type BorrowResult struct {
	Rental   *domain.Rental
	Replayed bool
}

func (s *RentalService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// loggerFor returns the request-scoped logger when one is attached.
func loggerFor(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &log.Logger
	}
	return l
}

// Borrow opens a rental of req.MovieID for the actor, or for
// req.TargetUserID when the actor is an administrator.
//
// Checks run in this order: target exists, target below the rental limit,
// movie exists, a copy is available.
func (s *RentalService) Borrow(ctx context.Context, actor *domain.User, req BorrowRequest) (*BorrowResult, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	targetID := actor.ID
	if actor.IsAdministrator() && req.TargetUserID != "" {
		targetID = req.TargetUserID
	}

	tr := otel.Tracer("services/RentalService")
	ctx, span := tr.Start(ctx, "Borrow",
		trace.WithAttributes(
			attribute.String("movie.id", req.MovieID),
			attribute.String("user.id", targetID),
			attribute.Bool("on_behalf", targetID != actor.ID),
		),
	)
	defer span.End()

	if req.IdempotencyKey != "" {
		if res, ok, err := s.replay(ctx, actor.ID, req.IdempotencyKey); err != nil || ok {
			return res, err
		}
	}

	unlock, err := lock.LockAll(ctx, s.Locker, lock.MovieKey(req.MovieID), lock.UserKey(targetID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Another request with the same key may have finished while we waited.
	if req.IdempotencyKey != "" {
		if res, ok, err := s.replay(ctx, actor.ID, req.IdempotencyKey); err != nil || ok {
			return res, err
		}
	}

	now := s.now()
	var rental *domain.Rental
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := repo.GetUserForUpdate(ctx, tx, targetID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if len(u.ActiveRentals) >= domain.MaxActiveRentals {
			return ErrLimitExceeded
		}
		m, err := repo.GetMovieForUpdate(ctx, tx, req.MovieID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrMovieNotFound
			}
			return err
		}
		if m.AvailableCopies <= 0 {
			return ErrOutOfStock
		}

		rental = &domain.Rental{
			UserID:       u.ID,
			MovieID:      m.ID,
			UserFullName: u.FullName(),
			UserEmail:    u.Email,
			MovieTitle:   m.Title,
			RentedAt:     now,
			DueDate:      domain.DueDate(now),
		}
		if err := repo.CreateRental(ctx, tx, rental); err != nil {
			return err
		}
		if err := repo.TakeCopy(ctx, tx, m.ID); err != nil {
			if errors.Is(err, repo.ErrConditionFailed) {
				return ErrOutOfStock
			}
			return err
		}
		active := append(domain.StringList{}, u.ActiveRentals...)
		if err := repo.SetActiveRentals(ctx, tx, u.ID, append(active, rental.ID)); err != nil {
			return err
		}
		if req.IdempotencyKey != "" {
			if _, err := repo.CreateIdempotency(ctx, tx, actor.ID, domain.IdempotencyScopeRentals,
				req.IdempotencyKey, rental.ID, http.StatusCreated, s.IdempotencyTTL); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		recordRejection(err)
		span.RecordError(err)
		return nil, err
	}

	rentalsBorrowed.Inc()
	span.SetAttributes(attribute.String("rental.id", rental.ID))
	s.publish(ctx, events.RentalEvent{
		Type:       events.TypeRentalBorrowed,
		RentalID:   rental.ID,
		UserID:     rental.UserID,
		MovieID:    rental.MovieID,
		MovieTitle: rental.MovieTitle,
		RentedAt:   rental.RentedAt,
		DueDate:    rental.DueDate,
		OccurredAt: now,
	})
	loggerFor(ctx).Info().
		Str("rental_id", rental.ID).
		Str("movie_id", rental.MovieID).
		Str("user_id", rental.UserID).
		Time("due_date", rental.DueDate).
		Msg("rental opened")
	return &BorrowResult{Rental: rental}, nil
}

// replay returns the rental recorded under key, if any.
func (s *RentalService) replay(ctx context.Context, actorID, key string) (*BorrowResult, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, actorID, domain.IdempotencyScopeRentals, key, s.now())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	r, err := repo.GetRental(ctx, s.DB, rec.RentalID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &BorrowResult{Rental: r, Replayed: true}, true, nil
}

// Return closes rentalID. The movie's available count is clamped to its
// total; a rental whose movie or customer has since been deleted still closes.
func (s *RentalService) Return(ctx context.Context, rentalID string) (*domain.Rental, error) {
	tr := otel.Tracer("services/RentalService")
	ctx, span := tr.Start(ctx, "Return", trace.WithAttributes(attribute.String("rental.id", rentalID)))
	defer span.End()

	r, err := repo.GetRental(ctx, s.DB, rentalID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			recordRejection(ErrInvalidRentalState)
			return nil, ErrInvalidRentalState
		}
		return nil, err
	}
	if !r.Open() {
		recordRejection(ErrInvalidRentalState)
		return nil, ErrInvalidRentalState
	}

	unlock, err := lock.LockAll(ctx, s.Locker, lock.MovieKey(r.MovieID), lock.UserKey(r.UserID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now()
	lg := loggerFor(ctx)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CloseRental(ctx, tx, r.ID, now); err != nil {
			if errors.Is(err, repo.ErrConditionFailed) {
				return ErrInvalidRentalState
			}
			return err
		}
		if err := repo.PutBackCopy(ctx, tx, r.MovieID); err != nil {
			if !errors.Is(err, repo.ErrConditionFailed) {
				return err
			}
			if _, gerr := repo.GetMovie(ctx, tx, r.MovieID); errors.Is(gerr, repo.ErrNotFound) {
				lg.Warn().Str("rental_id", r.ID).Str("movie_id", r.MovieID).Msg("returned rental references a deleted movie")
			} else if gerr != nil {
				return gerr
			} else {
				lg.Warn().Str("rental_id", r.ID).Str("movie_id", r.MovieID).Msg("available copies already at total; not incremented")
			}
		}
		u, err := repo.GetUserForUpdate(ctx, tx, r.UserID)
		if errors.Is(err, repo.ErrNotFound) {
			lg.Warn().Str("rental_id", r.ID).Str("user_id", r.UserID).Msg("returned rental references a deleted user")
			return nil
		}
		if err != nil {
			return err
		}
		return repo.SetActiveRentals(ctx, tx, u.ID, u.ActiveRentals.Without(r.ID))
	})
	if err != nil {
		recordRejection(err)
		span.RecordError(err)
		return nil, err
	}

	r.ReturnedAt = &now
	rentalsReturned.Inc()
	s.publish(ctx, events.RentalEvent{
		Type:       events.TypeRentalReturned,
		RentalID:   r.ID,
		UserID:     r.UserID,
		MovieID:    r.MovieID,
		MovieTitle: r.MovieTitle,
		RentedAt:   r.RentedAt,
		DueDate:    r.DueDate,
		ReturnedAt: r.ReturnedAt,
		OccurredAt: now,
	})
	lg.Info().Str("rental_id", r.ID).Str("movie_id", r.MovieID).Msg("rental closed")
	return r, nil
}

// ListAll returns the most recent rentals across all identities.
func (s *RentalService) ListAll(ctx context.Context) ([]domain.Rental, error) {
	tr := otel.Tracer("services/RentalService")
	ctx, span := tr.Start(ctx, "ListAll")
	defer span.End()

	out, err := repo.ListRentals(ctx, s.DB, MaxLedgerPage)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Rental{}
	}
	return out, nil
}

// ListForUser returns the identity's most recent rentals, open or closed.
func (s *RentalService) ListForUser(ctx context.Context, userID string) ([]domain.Rental, error) {
	tr := otel.Tracer("services/RentalService")
	ctx, span := tr.Start(ctx, "ListForUser", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	out, err := repo.ListRentalsByUser(ctx, s.DB, userID, MaxMyRentalPage)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Rental{}
	}
	return out, nil
}

// publish is best effort; the ledger has already committed.
func (s *RentalService) publish(ctx context.Context, ev events.RentalEvent) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.Publish(ctx, ev.MovieID, ev); err != nil {
		loggerFor(ctx).Warn().Err(err).Str("event", ev.Type).Str("rental_id", ev.RentalID).Msg("publish rental event")
	}
}

func recordRejection(err error) {
	switch {
	case errors.Is(err, ErrLimitExceeded):
		rentalRejections.WithLabelValues(reasonLimit).Inc()
	case errors.Is(err, ErrOutOfStock):
		rentalRejections.WithLabelValues(reasonOutOfStock).Inc()
	case errors.Is(err, ErrUserNotFound):
		rentalRejections.WithLabelValues(reasonNoUser).Inc()
	case errors.Is(err, ErrMovieNotFound):
		rentalRejections.WithLabelValues(reasonNoMovie).Inc()
	case errors.Is(err, ErrInvalidRentalState):
		rentalRejections.WithLabelValues(reasonState).Inc()
	}
}
