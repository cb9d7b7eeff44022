package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-video-rental/internal/domain"
	"github.com/tbourn/go-video-rental/internal/http/middleware"
	"github.com/tbourn/go-video-rental/internal/services"
)

type stubAuth struct {
	registerFn func(context.Context, services.RegisterInput) (*domain.User, error)
	loginFn    func(context.Context, string, string) (*services.LoginResult, error)
}

func (s *stubAuth) Register(ctx context.Context, in services.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuth) Login(ctx context.Context, email, password string) (*services.LoginResult, error) {
	return s.loginFn(ctx, email, password)
}

type stubCatalog struct {
	listFn   func(context.Context, string, string) ([]domain.Movie, error)
	statsFn  func(context.Context) (int64, *time.Time, error)
	createFn func(context.Context, services.MovieInput) (*domain.Movie, error)
	updateFn func(context.Context, string, services.MovieUpdate) (*domain.Movie, error)
	deleteFn func(context.Context, string) error
}

func (s *stubCatalog) List(ctx context.Context, search, sortBy string) ([]domain.Movie, error) {
	return s.listFn(ctx, search, sortBy)
}

func (s *stubCatalog) Stats(ctx context.Context) (int64, *time.Time, error) {
	if s.statsFn == nil {
		return 0, nil, errors.New("stats unavailable")
	}
	return s.statsFn(ctx)
}

func (s *stubCatalog) Create(ctx context.Context, in services.MovieInput) (*domain.Movie, error) {
	return s.createFn(ctx, in)
}

func (s *stubCatalog) Update(ctx context.Context, id string, in services.MovieUpdate) (*domain.Movie, error) {
	return s.updateFn(ctx, id, in)
}

func (s *stubCatalog) Delete(ctx context.Context, id string) error { return s.deleteFn(ctx, id) }

type stubUsers struct {
	listFn   func(context.Context) ([]domain.User, error)
	updateFn func(context.Context, string, services.UserUpdate) (*domain.User, error)
	deleteFn func(context.Context, string) error
}

func (s *stubUsers) List(ctx context.Context) ([]domain.User, error) { return s.listFn(ctx) }

func (s *stubUsers) Update(ctx context.Context, id string, in services.UserUpdate) (*domain.User, error) {
	return s.updateFn(ctx, id, in)
}

func (s *stubUsers) Delete(ctx context.Context, id string) error { return s.deleteFn(ctx, id) }

type stubRentals struct {
	borrowFn  func(context.Context, *domain.User, services.BorrowRequest) (*services.BorrowResult, error)
	returnFn  func(context.Context, string) (*domain.Rental, error)
	listAllFn func(context.Context) ([]domain.Rental, error)
	listForFn func(context.Context, string) ([]domain.Rental, error)
}

func (s *stubRentals) Borrow(ctx context.Context, actor *domain.User, req services.BorrowRequest) (*services.BorrowResult, error) {
	return s.borrowFn(ctx, actor, req)
}

func (s *stubRentals) Return(ctx context.Context, id string) (*domain.Rental, error) {
	return s.returnFn(ctx, id)
}

func (s *stubRentals) ListAll(ctx context.Context) ([]domain.Rental, error) { return s.listAllFn(ctx) }

func (s *stubRentals) ListForUser(ctx context.Context, userID string) ([]domain.Rental, error) {
	return s.listForFn(ctx, userID)
}

// tokenGate resolves "Bearer <user id>" against a fixed set of users.
type tokenGate map[string]*domain.User

func (g tokenGate) Authenticate(_ context.Context, token string) (*domain.User, error) {
	if u, ok := g[token]; ok {
		return u, nil
	}
	return nil, services.ErrUnauthenticated
}

const (
	adminID    = "00000000-0000-4000-8000-00000000000a"
	customerID = "00000000-0000-4000-8000-00000000000c"
	movieID    = "11111111-1111-4111-8111-111111111111"
	rentalID   = "22222222-2222-4222-8222-222222222222"
)

var gate = tokenGate{
	adminID:    {ID: adminID, Email: "admin@example.com", Role: domain.RoleAdministrator},
	customerID: {ID: customerID, Email: "cust@example.com", Role: domain.RoleCustomer},
}

// newTestRouter mounts the handlers the way the production router groups
// them, with the real auth middleware in front.
func newTestRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())

	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.GET("/movies", h.ListMovies)

	authed := r.Group("", middleware.Authenticate(gate))
	authed.POST("/rentals",
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{Scope: "rentals"}, nil),
		h.Borrow)
	authed.GET("/my-rentals", h.MyRentals)

	admin := authed.Group("", middleware.RequireAdministrator())
	admin.POST("/movies", h.CreateMovie)
	admin.PUT("/movies/:id", h.UpdateMovie)
	admin.DELETE("/movies/:id", h.DeleteMovie)
	admin.GET("/users", h.ListUsers)
	admin.PUT("/users/:id", h.UpdateUser)
	admin.DELETE("/users/:id", h.DeleteUser)
	admin.GET("/admin/rentals", h.ListRentals)
	admin.POST("/rentals/return/:id", h.ReturnRental)
	return r
}

type request struct {
	method, path, as, body, contentType string
	header                              map[string]string
}

func serve(r http.Handler, rq request) *httptest.ResponseRecorder {
	var body io.Reader
	if rq.body != "" {
		body = strings.NewReader(rq.body)
	}
	req := httptest.NewRequest(rq.method, rq.path, body)
	if rq.body != "" {
		ct := rq.contentType
		if ct == "" {
			ct = "application/json"
		}
		req.Header.Set("Content-Type", ct)
	}
	if rq.as != "" {
		req.Header.Set("Authorization", "Bearer "+rq.as)
	}
	for k, v := range rq.header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
