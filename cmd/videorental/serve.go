package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-video-rental/internal/config"
	"github.com/tbourn/go-video-rental/internal/events"
	httpapi "github.com/tbourn/go-video-rental/internal/http"
	"github.com/tbourn/go-video-rental/internal/lock"
	"github.com/tbourn/go-video-rental/internal/observability"
	"github.com/tbourn/go-video-rental/internal/repo"
)

const shutdownGrace = 10 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until SIGINT or SIGTERM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx)
		},
	}
}

func (c *cli) serve(ctx context.Context) error {
	cfg := c.cfg

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close(db) }()

	deps, closeDeps, err := buildDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDeps()

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	if err := httpapi.RegisterRoutes(r, db, cfg, deps); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("base_path", cfg.APIBasePath).
			Str("store", cfg.Store.Driver).
			Str("version", version).
			Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Dur("grace", shutdownGrace).Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// buildDependencies picks the Redis locker and Kafka publisher when they are
// configured. The returned func releases whatever was opened.
func buildDependencies(ctx context.Context, cfg config.Config) (httpapi.Dependencies, func(), error) {
	var (
		deps    httpapi.Dependencies
		closers []func() error
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	if cfg.Lock.RedisURL != "" {
		client, err := lock.Connect(ctx, cfg.Lock.RedisURL)
		if err != nil {
			return deps, nil, err
		}
		closers = append(closers, client.Close)
		deps.Locker = lock.NewRedis(client, cfg.Lock.TTL)
		log.Info().Dur("ttl", cfg.Lock.TTL).Msg("entity locks in redis")
	}

	if len(cfg.Events.KafkaBrokers) > 0 {
		p, err := events.NewKafkaProducer(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic)
		if err != nil {
			closeAll()
			return deps, nil, fmt.Errorf("kafka producer: %w", err)
		}
		closers = append(closers, p.Close)
		deps.Publisher = p
		log.Info().Strs("brokers", cfg.Events.KafkaBrokers).Str("topic", cfg.Events.KafkaTopic).Msg("rental events to kafka")
	}

	return deps, closeAll, nil
}
