// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, authentication, idempotency, and rate
// limiting.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-video-rental/docs"
	"github.com/tbourn/go-video-rental/internal/config"
	"github.com/tbourn/go-video-rental/internal/domain"
	"github.com/tbourn/go-video-rental/internal/events"
	"github.com/tbourn/go-video-rental/internal/http/handlers"
	"github.com/tbourn/go-video-rental/internal/http/middleware"
	"github.com/tbourn/go-video-rental/internal/lock"
	"github.com/tbourn/go-video-rental/internal/repo"
	"github.com/tbourn/go-video-rental/internal/security"
	"github.com/tbourn/go-video-rental/internal/services"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// Dependencies are the infrastructure adapters chosen at startup. Nil fields
// fall back to process-local implementations.
type Dependencies struct {
	Locker    lock.Locker
	Publisher events.Publisher
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. CORS, security headers, gzip
//
// Per route: Authenticate, then (POST /rentals only) the idempotency
// validator, then the rate limiter so replays bypass it and authenticated
// callers are limited per identity rather than per IP.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config, deps Dependencies) error {
	if deps.Locker == nil {
		deps.Locker = lock.NewLocal()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.Noop{}
	}

	issuer, err := security.NewJWTIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("session issuer: %w", err)
	}

	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderIdempotencyKey},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	useCORS(r, cfg.CORS.AllowedOrigins)

	// Identity and rental responses carry personal data: never cache.
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/locker/publisher
	authSvc := services.NewAuthService(db, security.NewBcryptHasher(cfg.Auth.BcryptCost), issuer, deps.Locker)
	rentalSvc := services.NewRentalService(db, deps.Locker)
	rentalSvc.Publisher = deps.Publisher
	if cfg.IdempotencyTTL > 0 {
		rentalSvc.IdempotencyTTL = cfg.IdempotencyTTL
	}
	h := handlers.New(
		authSvc,
		services.NewCatalogService(db, deps.Locker),
		services.NewUserService(db, deps.Locker),
		rentalSvc,
	)

	limit := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP()).Handler()
	idempotent := middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200, Scope: domain.IdempotencyScopeRentals},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			_, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if errors.Is(err, repo.ErrNotFound) {
				return false, nil
			}
			return err == nil, err
		},
	)

	api := groupWithPrefix(r, cfg.APIBasePath)

	public := api.Group("", limit)
	{
		public.POST("/register", h.Register)
		public.POST("/login", h.Login)
		public.GET("/movies", h.ListMovies)
	}

	authed := api.Group("", middleware.Authenticate(authSvc))
	{
		authed.POST("/rentals", idempotent, limit, h.Borrow)
		authed.GET("/my-rentals", limit, h.MyRentals)
	}

	admin := authed.Group("", middleware.RequireAdministrator(), limit)
	{
		admin.POST("/movies", h.CreateMovie)
		admin.PUT("/movies/:id", h.UpdateMovie)
		admin.DELETE("/movies/:id", h.DeleteMovie)

		admin.GET("/users", h.ListUsers)
		admin.PUT("/users/:id", h.UpdateUser)
		admin.DELETE("/users/:id", h.DeleteUser)

		admin.GET("/admin/rentals", h.ListRentals)
		admin.POST("/rentals/return/:id", h.ReturnRental)
	}
	return nil
}

// useCORS installs gin-contrib/cors. With no allowlist every origin is
// accepted (without credentials); otherwise only listed origins are echoed.
func useCORS(r *gin.Engine, origins []string) {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey, "If-None-Match"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", middleware.HeaderIdempotencyReplayed},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		// ACAO: * even without an Origin header, for health checks and curl.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		base.AllowAllOrigins = true
		r.Use(cors.New(base))
		return
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
		}
		c.Next()
	})
	base.AllowOrigins = origins
	r.Use(cors.New(base))
}

// limitBody caps the request body at maxBytes; reads past the cap fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
