// Package services – CatalogService
//
// This file implements catalog listing and the administrator-only catalog
// mutations. Availability is owned by the rental ledger: updates can change
// the number of copies owned but never the number on the shelf directly.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-video-rental/internal/domain"
	"github.com/tbourn/go-video-rental/internal/lock"
	"github.com/tbourn/go-video-rental/internal/repo"
)

// MaxCatalogPage caps a catalog listing.
const MaxCatalogPage = 100

// CatalogService provides catalog listing and guarded mutations.
type CatalogService struct {
	DB     *gorm.DB
	Locker lock.Locker
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(db *gorm.DB, l lock.Locker) *CatalogService {
	return &CatalogService{DB: db, Locker: l}
}

// MovieInput is a new catalog entry. TotalCopies defaults to 1 when nil.
type MovieInput struct {
	Title           string
	Genre           string
	Director        string
	DurationMinutes int
	Rating          float64
	Description     string
	Actors          []string
	TotalCopies     *int
}

// MovieUpdate is a partial edit; nil fields are left unchanged.
type MovieUpdate struct {
	Title           *string
	Genre           *string
	Director        *string
	DurationMinutes *int
	Rating          *float64
	Description     *string
	Actors          *[]string
	TotalCopies     *int
}

// List returns up to MaxCatalogPage entries whose title or genre contains
// search (case-insensitive). sortBy "rating" orders by rating descending;
// anything else orders by title ascending.
func (s *CatalogService) List(ctx context.Context, search, sortBy string) ([]domain.Movie, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("search", search),
			attribute.String("sort_by", sortBy),
		),
	)
	defer span.End()

	q := repo.MovieQuery{
		Search: strings.TrimSpace(search),
		SortBy: repo.SortByTitle,
		Limit:  MaxCatalogPage,
	}
	if strings.EqualFold(strings.TrimSpace(sortBy), repo.SortByRating) {
		q.SortBy = repo.SortByRating
	}
	items, err := repo.ListMovies(ctx, s.DB, q)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Movie{}
	}
	return items, nil
}

// Stats exposes catalog size and last modification for conditional GETs.
func (s *CatalogService) Stats(ctx context.Context) (int64, *time.Time, error) {
	return repo.MoviesStats(ctx, s.DB)
}

// Get fetches one catalog entry.
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Movie, error) {
	m, err := repo.GetMovie(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrMovieNotFound
	}
	return m, err
}

// Create adds a catalog entry with every copy on the shelf.
func (s *CatalogService) Create(ctx context.Context, in MovieInput) (*domain.Movie, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Create")
	defer span.End()

	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	case strings.TrimSpace(in.Genre) == "":
		return nil, fmt.Errorf("%w: genre is required", ErrInvalidInput)
	case strings.TrimSpace(in.Director) == "":
		return nil, fmt.Errorf("%w: director is required", ErrInvalidInput)
	case in.DurationMinutes <= 0:
		return nil, fmt.Errorf("%w: duration_minutes must be positive", ErrInvalidInput)
	}
	total := 1
	if in.TotalCopies != nil {
		total = *in.TotalCopies
	}
	if total < 0 {
		return nil, fmt.Errorf("%w: total_copies must be >= 0", ErrInvalidInput)
	}

	m := &domain.Movie{
		Title:           title,
		Genre:           strings.TrimSpace(in.Genre),
		Director:        strings.TrimSpace(in.Director),
		DurationMinutes: in.DurationMinutes,
		Rating:          in.Rating,
		Description:     in.Description,
		Actors:          domain.StringList(in.Actors),
		TotalCopies:     total,
		AvailableCopies: total,
	}
	if err := repo.CreateMovie(ctx, s.DB, m); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("movie.id", m.ID))
	return m, nil
}

// Update applies the supplied fields. A change of total_copies by d moves
// available_copies by d as well; a change that would leave fewer copies
// than are rented out fails with ErrCopiesInUse.
func (s *CatalogService) Update(ctx context.Context, id string, in MovieUpdate) (*domain.Movie, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Update", trace.WithAttributes(attribute.String("movie.id", id)))
	defer span.End()

	fields := map[string]any{}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
		}
		fields["title"] = t
	}
	if in.Genre != nil {
		fields["genre"] = strings.TrimSpace(*in.Genre)
	}
	if in.Director != nil {
		fields["director"] = strings.TrimSpace(*in.Director)
	}
	if in.DurationMinutes != nil {
		if *in.DurationMinutes <= 0 {
			return nil, fmt.Errorf("%w: duration_minutes must be positive", ErrInvalidInput)
		}
		fields["duration_minutes"] = *in.DurationMinutes
	}
	if in.Rating != nil {
		fields["rating"] = *in.Rating
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Actors != nil {
		fields["actors"] = domain.StringList(*in.Actors)
	}
	if in.TotalCopies != nil && *in.TotalCopies < 0 {
		return nil, fmt.Errorf("%w: total_copies must be >= 0", ErrInvalidInput)
	}

	// Copy counts interact with the ledger, so hold the movie lock.
	unlock, err := s.Locker.Lock(ctx, lock.MovieKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var out *domain.Movie
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := repo.GetMovieForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrMovieNotFound
			}
			return err
		}
		if in.TotalCopies != nil && *in.TotalCopies != m.TotalCopies {
			delta := *in.TotalCopies - m.TotalCopies
			avail := m.AvailableCopies + delta
			if avail < 0 {
				return ErrCopiesInUse
			}
			fields["total_copies"] = *in.TotalCopies
			fields["available_copies"] = avail
		}
		if len(fields) > 0 {
			if err := repo.UpdateMovieFields(ctx, tx, id, fields); err != nil {
				return err
			}
		}
		out, err = repo.GetMovie(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a catalog entry that has no open rentals. Closed rentals
// keep their snapshots and are not touched.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Delete", trace.WithAttributes(attribute.String("movie.id", id)))
	defer span.End()

	unlock, err := s.Locker.Lock(ctx, lock.MovieKey(id))
	if err != nil {
		return err
	}
	defer unlock()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetMovieForUpdate(ctx, tx, id); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrMovieNotFound
			}
			return err
		}
		open, err := repo.CountOpenRentalsForMovie(ctx, tx, id)
		if err != nil {
			return err
		}
		if open > 0 {
			return ErrMovieRented
		}
		err = repo.DeleteMovie(ctx, tx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrMovieNotFound
		}
		return err
	})
}

// SeedResult counts what Seed did.
type SeedResult struct {
	Created int
	Skipped int
}

// Seed creates every entry whose title is not in the catalog yet.
func (s *CatalogService) Seed(ctx context.Context, items []MovieInput) (SeedResult, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Seed", trace.WithAttributes(attribute.Int("items", len(items))))
	defer span.End()

	var res SeedResult
	for _, in := range items {
		exists, err := repo.MovieTitleExists(ctx, s.DB, strings.TrimSpace(in.Title))
		if err != nil {
			return res, err
		}
		if exists {
			res.Skipped++
			continue
		}
		if _, err := s.Create(ctx, in); err != nil {
			return res, fmt.Errorf("seed %q: %w", in.Title, err)
		}
		res.Created++
	}
	return res, nil
}
