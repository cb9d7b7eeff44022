package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-video-rental/internal/domain"
	"github.com/tbourn/go-video-rental/internal/lock"
	"github.com/tbourn/go-video-rental/internal/repo"
)

// MaxUserPage caps an identity listing.
const MaxUserPage = 100

// UserService manages identities on behalf of administrators.
type UserService struct {
	DB     *gorm.DB
	Locker lock.Locker
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB, l lock.Locker) *UserService {
	return &UserService{DB: db, Locker: l}
}

// UserUpdate is a partial edit. Passwords are not editable here.
type UserUpdate struct {
	Email       *string
	FirstName   *string
	LastName    *string
	Address     *string
	PhoneNumber *string
	Role        *string
}

// List returns identities in registration order.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "List")
	defer span.End()

	users, err := repo.ListUsers(ctx, s.DB, MaxUserPage)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// Get fetches one identity.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// Update applies the supplied fields to identity id.
func (s *UserService) Update(ctx context.Context, id string, in UserUpdate) (*domain.User, error) {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "Update", trace.WithAttributes(attribute.String("user.id", id)))
	defer span.End()

	fields := map[string]any{}
	text := []struct {
		col string
		v   *string
	}{
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
		{"address", in.Address},
		{"phone_number", in.PhoneNumber},
	}
	for _, f := range text {
		if f.v == nil {
			continue
		}
		v := strings.TrimSpace(*f.v)
		if v == "" {
			return nil, fmt.Errorf("%w: %s must not be empty", ErrInvalidInput, f.col)
		}
		fields[f.col] = v
	}
	if in.Role != nil {
		r := domain.Role(*in.Role)
		if !r.Valid() {
			return nil, ErrInvalidRole
		}
		fields["role"] = string(r)
	}
	if in.Email != nil {
		if strings.TrimSpace(*in.Email) == "" {
			return nil, fmt.Errorf("%w: email must not be empty", ErrInvalidInput)
		}
		fields["email"] = *in.Email
	}

	var out *domain.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetUserForUpdate(ctx, tx, id); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if in.Email != nil {
			taken, err := repo.EmailTaken(ctx, tx, *in.Email, id)
			if err != nil {
				return err
			}
			if taken {
				return ErrEmailTaken
			}
		}
		if err := repo.UpdateUserFields(ctx, tx, id, fields); err != nil {
			switch {
			case errors.Is(err, repo.ErrDuplicate):
				return ErrEmailTaken
			case errors.Is(err, repo.ErrNotFound):
				return ErrUserNotFound
			}
			return err
		}
		var err error
		out, err = repo.GetUser(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes an identity that holds no open rentals. The identity's lock
// is held so a concurrent borrow cannot slip in between check and delete.
func (s *UserService) Delete(ctx context.Context, id string) error {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "Delete", trace.WithAttributes(attribute.String("user.id", id)))
	defer span.End()

	unlock, err := s.Locker.Lock(ctx, lock.UserKey(id))
	if err != nil {
		return err
	}
	defer unlock()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := repo.GetUserForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if len(u.ActiveRentals) > 0 {
			return ErrUserHasRentals
		}
		err = repo.DeleteUser(ctx, tx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	})
}
