package handlers

import (
	"context"
	"time"

	"github.com/tbourn/go-video-rental/internal/domain"
	"github.com/tbourn/go-video-rental/internal/services"
)

//
// Service contracts (context-aware)
//

// AuthService registers identities and issues sessions.
type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
}

// CatalogService lists and edits catalog entries.
//
// Implementations must be safe for concurrent use and honor ctx.
type CatalogService interface {
	List(ctx context.Context, search, sortBy string) ([]domain.Movie, error)
	// Stats returns the entry count and latest modification, used for ETags.
	Stats(ctx context.Context) (int64, *time.Time, error)
	Create(ctx context.Context, in services.MovieInput) (*domain.Movie, error)
	Update(ctx context.Context, id string, in services.MovieUpdate) (*domain.Movie, error)
	Delete(ctx context.Context, id string) error
}

// UserService administers identities.
type UserService interface {
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, id string, in services.UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

// RentalService is the rental ledger.
//
// Borrow and Return must be atomic with respect to the movie's availability
// and the user's active rentals.
type RentalService interface {
	Borrow(ctx context.Context, actor *domain.User, req services.BorrowRequest) (*services.BorrowResult, error)
	Return(ctx context.Context, rentalID string) (*domain.Rental, error)
	ListAll(ctx context.Context) ([]domain.Rental, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Rental, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints. It depends only on the service
// interfaces above.
type Handlers struct {
	auth    AuthService
	catalog CatalogService
	users   UserService
	rentals RentalService
}

// New constructs Handlers bound to the given services.
func New(auth AuthService, catalog CatalogService, users UserService, rentals RentalService) *Handlers {
	return &Handlers{auth: auth, catalog: catalog, users: users, rentals: rentals}
}
