// Package main is the entry point for the tag registry API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/pkordes/tag-registry/internal/config"
	"github.com/pkordes/tag-registry/internal/handler"
	"github.com/pkordes/tag-registry/internal/middleware"
	"github.com/pkordes/tag-registry/internal/repo"
	"github.com/pkordes/tag-registry/internal/repo/sqlite"
	"github.com/pkordes/tag-registry/internal/seed"
	"github.com/pkordes/tag-registry/internal/service"
	"github.com/pkordes/tag-registry/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Storage ----------------------------------------------------------
	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open storage", "backend", cfg.Backend(), "error", err)
		os.Exit(1)
	}
	defer store.close()
	slog.Info("storage ready", "backend", cfg.Backend())

	// --- Services ---------------------------------------------------------
	opts := service.ResolverOptions{
		StrictCaseMatch:     cfg.StrictCaseMatch,
		LocalizationEnabled: cfg.LocalizationEnabled,
		EnforceUniqueness:   cfg.EnforceNameUniqueness,
		ExactSingularLookup: cfg.ExactSingularLookup,
		Concurrency:         cfg.ResolveConcurrency,
	}
	resolver, err := service.NewTagResolver(store.tags, store.translations, opts, logger)
	if err != nil {
		slog.Error("failed to build resolver", "error", err)
		os.Exit(1)
	}

	if cfg.TranslationsSeedFile != "" {
		if err := seedTranslations(ctx, cfg, opts, store, logger); err != nil {
			slog.Error("failed to seed translations", "file", cfg.TranslationsSeedFile, "error", err)
			os.Exit(1)
		}
	}

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer
	// → CORS → RateLimit → MaxBodySize.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewRateLimitHandler(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	srv := handler.NewServer(resolver, store.tags, logger)
	r.Mount("/", handler.Routes(srv))

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr,
			"strict_case_match", opts.StrictCaseMatch,
			"localization_enabled", opts.LocalizationEnabled,
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// storage bundles the repositories of the selected backend.
type storage struct {
	tags         repo.TagRepo
	translations repo.TranslationRepo
	close        func()
}

// openStore connects to the backend DatabaseURL selects and applies pending
// migrations.
func openStore(ctx context.Context, cfg config.Config) (*storage, error) {
	if cfg.Backend() == config.BackendSQLite {
		db, err := sqlite.Open(ctx, cfg.SQLitePath())
		if err != nil {
			return nil, err
		}
		return &storage{
			tags:         sqlite.NewTagRepo(db),
			translations: sqlite.NewTranslationRepo(db),
			close:        func() { db.Close() },
		}, nil
	}

	// pgxpool manages a pool of Postgres connections.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if err := migratePostgres(ctx, cfg.DatabaseURL); err != nil {
		pool.Close()
		return nil, err
	}
	return &storage{
		tags:         repo.NewTagRepo(pool),
		translations: repo.NewTranslationRepo(pool),
		close:        pool.Close,
	}, nil
}

// migratePostgres applies pending migrations. goose needs database/sql, so it
// gets its own short-lived connection.
func migratePostgres(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.Postgres())
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("migrations applied", "count", len(results))
	return nil
}

// seedTranslations loads the seed file. Seed tags are resolved without
// translation voting so each entry lands on the tag it names.
func seedTranslations(ctx context.Context, cfg config.Config, opts service.ResolverOptions, s *storage, logger *slog.Logger) error {
	f, err := seed.LoadFile(cfg.TranslationsSeedFile)
	if err != nil {
		return err
	}
	opts.LocalizationEnabled = false
	seeder, err := service.NewTagResolver(s.tags, nil, opts, logger)
	if err != nil {
		return err
	}
	_, err = seed.Apply(ctx, f, seeder, s.translations, logger)
	return err
}
