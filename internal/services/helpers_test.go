package services

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-video-rental/internal/domain"
	"github.com/tbourn/go-video-rental/internal/lock"
	"github.com/tbourn/go-video-rental/internal/repo"
	"github.com/tbourn/go-video-rental/internal/security"
)

// newServiceDB opens a file-backed SQLite store in a temp dir so concurrent
// transactions behave like production.
func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "rental.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close(db) })
	db = db.Session(&gorm.Session{Logger: logger.Default.LogMode(logger.Silent)})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type fixture struct {
	db      *gorm.DB
	locker  *lock.Local
	auth    *AuthService
	catalog *CatalogService
	users   *UserService
	rentals *RentalService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newServiceDB(t)
	l := lock.NewLocal()
	issuer, err := security.NewJWTIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewJWTIssuer: %v", err)
	}
	return &fixture{
		db:      db,
		locker:  l,
		auth:    NewAuthService(db, security.NewBcryptHasher(bcrypt.MinCost), issuer, l),
		catalog: NewCatalogService(db, l),
		users:   NewUserService(db, l),
		rentals: NewRentalService(db, l),
	}
}

func regInput(email string) RegisterInput {
	return RegisterInput{
		Email:       email,
		Password:    "s3cret-pass",
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Address:     "12 St James's Square",
		PhoneNumber: "555-0100",
	}
}

func (f *fixture) register(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), regInput(email))
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	return u
}

// admin and customer return the first (administrator) and a second
// (customer) identity.
func (f *fixture) adminAndCustomer(t *testing.T) (*domain.User, *domain.User) {
	t.Helper()
	return f.register(t, "admin@example.com"), f.register(t, "cust@example.com")
}

func (f *fixture) movie(t *testing.T, title string, copies int) *domain.Movie {
	t.Helper()
	m, err := f.catalog.Create(context.Background(), MovieInput{
		Title:           title,
		Genre:           "Drama",
		Director:        "Someone",
		DurationMinutes: 120,
		Rating:          8,
		TotalCopies:     &copies,
	})
	if err != nil {
		t.Fatalf("Create(%s): %v", title, err)
	}
	return m
}

func (f *fixture) reload(t *testing.T, u *domain.User, m *domain.Movie) (*domain.User, *domain.Movie) {
	t.Helper()
	ctx := context.Background()
	var gu *domain.User
	if u != nil {
		var err error
		if gu, err = repo.GetUser(ctx, f.db, u.ID); err != nil {
			t.Fatalf("GetUser: %v", err)
		}
	}
	var gm *domain.Movie
	if m != nil {
		var err error
		if gm, err = repo.GetMovie(ctx, f.db, m.ID); err != nil {
			t.Fatalf("GetMovie: %v", err)
		}
	}
	return gu, gm
}

func intp(v int) *int          { return &v }
func strp(v string) *string    { return &v }
func floatp(v float64) *float64 { return &v }

func TestLoggerFor_UsesRequestLoggerAlongsideGormLogger(t *testing.T) {
	var buf bytes.Buffer
	reqLog := zerolog.New(&buf).With().Str("request_id", "req-1").Logger()
	ctx := reqLog.WithContext(context.Background())

	loggerFor(ctx).Info().Msg("borrowed")
	if !strings.Contains(buf.String(), `"request_id":"req-1"`) {
		t.Fatalf("request logger not used: %q", buf.String())
	}
	if l := loggerFor(context.Background()); l == nil {
		t.Fatalf("loggerFor without request logger returned nil")
	}
}
