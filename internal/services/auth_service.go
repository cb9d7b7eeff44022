// Package services – AuthService
//
// This file implements registration, login, and the authorization gate.
// Passwords are verified with the configured hasher and sessions are signed
// tokens whose subject is the identity's email. The gate re-resolves the
// subject on every request so a deleted identity loses access immediately.
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
	"github.com/tbourn/go-video-rental/internal/security"
)

// PasswordHasher hashes and verifies credentials.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
	CompareDummy(password string) error
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Issue(subject, role string, ttl time.Duration) (string, security.Claims, error)
	Parse(raw string) (security.Claims, error)
}

// AuthService owns identities' credentials and sessions.
type AuthService struct {
	DB     *gorm.DB
	Hasher PasswordHasher
	Tokens TokenIssuer
	Locker lock.Locker
}

// NewAuthService constructs an AuthService.
func NewAuthService(db *gorm.DB, h PasswordHasher, t TokenIssuer, l lock.Locker) *AuthService {
	return &AuthService{DB: db, Hasher: h, Tokens: t, Locker: l}
}

// RegisterInput carries a new identity. All fields are required.
type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Address     string
	PhoneNumber string
}

// LoginResult is a freshly issued session.
type LoginResult struct {
	AccessToken string
	TokenType   string
	UserID      string
	Role        domain.Role
	ExpiresAt   time.Time
}

func (in RegisterInput) validate() error {
	required := []struct{ name, v string }{
		{"email", in.Email},
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
		{"address", in.Address},
		{"phone_number", in.PhoneNumber},
	}
	for _, f := range required {
		if strings.TrimSpace(f.v) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, f.name)
		}
	}
	if in.Password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if len(in.Password) > 72 {
		return fmt.Errorf("%w: password must be at most 72 bytes", ErrInvalidInput)
	}
	return nil
}

// Register creates an identity. The very first identity becomes an
// administrator; every later one is a customer. The count and the insert run
// under one global lock and one transaction so concurrent first
// registrations cannot both become administrators.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Register")
	defer span.End()

	if err := in.validate(); err != nil {
		return nil, err
	}

	// Hash before taking the lock; bcrypt is the slow part.
	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	unlock, err := s.Locker.Lock(ctx, lock.BootstrapKey)
	if err != nil {
		return nil, err
	}
	defer unlock()

	u := &domain.User{
		Email:         in.Email,
		PasswordHash:  hash,
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		Address:       strings.TrimSpace(in.Address),
		PhoneNumber:   strings.TrimSpace(in.PhoneNumber),
		Role:          domain.RoleCustomer,
		ActiveRentals: domain.StringList{},
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := repo.EmailTaken(ctx, tx, in.Email, "")
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}
		n, err := repo.CountUsers(ctx, tx)
		if err != nil {
			return err
		}
		if n == 0 {
			u.Role = domain.RoleAdministrator
		}
		if err := repo.CreateUser(ctx, tx, u); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return ErrEmailTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", u.ID), attribute.String("user.role", string(u.Role)))
	return u, nil
}

// Login verifies email and password and issues a session token. Unknown
// emails still pay for a hash comparison.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Login")
	defer span.End()

	u, err := repo.GetUserByEmail(ctx, s.DB, email)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
		_ = s.Hasher.CompareDummy(password)
		return nil, ErrInvalidCredentials
	}
	if err := s.Hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, claims, err := s.Tokens.Issue(u.Email, string(u.Role), 0)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", u.ID))
	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		UserID:      u.ID,
		Role:        u.Role,
		ExpiresAt:   claims.ExpiresAt,
	}, nil
}

// Authenticate resolves a bearer token to the identity it names. The role
// is read from the store, not from the token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Authenticate")
	defer span.End()

	if strings.TrimSpace(token) == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	u, err := repo.GetUserByEmail(ctx, s.DB, claims.Subject)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", u.ID))
	return u, nil
}

// CreateAdministrator registers an identity and promotes it to administrator
// regardless of how many identities already exist.
func (s *AuthService) CreateAdministrator(ctx context.Context, in RegisterInput) (*domain.User, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "CreateAdministrator", trace.WithAttributes(attribute.String("user.email_domain", emailDomain(in.Email))))
	defer span.End()

	u, err := s.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	if u.IsAdministrator() {
		return u, nil
	}
	if err := repo.UpdateUserFields(ctx, s.DB, u.ID, map[string]any{"role": domain.RoleAdministrator}); err != nil {
		return nil, err
	}
	u.Role = domain.RoleAdministrator
	return u, nil
}

// RequireAdministrator returns ErrForbidden unless u is an administrator.
func RequireAdministrator(u *domain.User) error {
	if u == nil {
		return ErrUnauthenticated
	}
	if !u.IsAdministrator() {
		return ErrForbidden
	}
	return nil
}

func emailDomain(email string) string {
	if i := strings.LastIndexByte(email, '@'); i >= 0 {
		return email[i+1:]
	}
	return ""
}
