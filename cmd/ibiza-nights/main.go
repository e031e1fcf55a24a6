// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	supabase "github.com/nedpals/supabase-go"
	"go.opentelemetry.io/otel"

	"github.com/olegiv/ibiza-nights/internal/cache"
	"github.com/olegiv/ibiza-nights/internal/config"
	"github.com/olegiv/ibiza-nights/internal/handler"
	"github.com/olegiv/ibiza-nights/internal/handler/api"
	"github.com/olegiv/ibiza-nights/internal/logging"
	"github.com/olegiv/ibiza-nights/internal/middleware"
	"github.com/olegiv/ibiza-nights/internal/scheduler"
	"github.com/olegiv/ibiza-nights/internal/service"
	"github.com/olegiv/ibiza-nights/internal/store"
	"github.com/olegiv/ibiza-nights/internal/telemetry"
	"github.com/olegiv/ibiza-nights/internal/transfer"
	"github.com/olegiv/ibiza-nights/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

// cliOptions holds the one-shot commands selected on the command line.
type cliOptions struct {
	seed       bool
	importPath string
	exportPath string
	dryRun     bool
}

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	var opts cliOptions
	flag.BoolVar(&opts.seed, "seed", false, "Seed the datastore on startup (same as IBIZA_DO_SEED=true)")
	flag.StringVar(&opts.importPath, "import", "", "Import a JSON dataset and exit")
	flag.StringVar(&opts.exportPath, "export", "", "Export all listings to a JSON file and exit")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "With -import: validate the dataset without writing")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "ibiza-nights - Ibiza nightlife directory\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  IBIZA_BACKEND              Datastore: sqlite|postgres|supabase (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  IBIZA_DB_PATH              SQLite database path (default: ./data/ibiza.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  IBIZA_DATABASE_URL         PostgreSQL connection URL\n")
		_, _ = fmt.Fprintf(os.Stderr, "  IBIZA_SUPABASE_URL         Supabase project URL\n")
		_, _ = fmt.Fprintf(os.Stderr, "  IBIZA_SUPABASE_ANON_KEY    Supabase key for public reads\n")
		_, _ = fmt.Fprintf(os.Stderr, "  IBIZA_SUPABASE_SERVICE_KEY Supabase key for moderation and admin writes\n")
		_, _ = fmt.Fprintf(os.Stderr, "  IBIZA_SERVER_PORT          Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  IBIZA_ENV                  Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  IBIZA_REDIS_URL            Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  IBIZA_ADMIN_TOKEN          Bearer token of the bootstrap admin (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  IBIZA_OTEL_ENDPOINT        OTLP/HTTP trace collector URL (optional)\n")
	}

	flag.Parse()

	// Handle -h/-help flag
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	// Handle -v/-version flag
	if *showVersion {
		_, _ = fmt.Println(versionInfo().String())
		os.Exit(0)
	}

	if err := run(opts); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func versionInfo() version.Info {
	return version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}
}

func run(opts cliOptions) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.seed {
		cfg.DoSeed = true
	}
	info := versionInfo()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:       cfg.OTelEndpoint,
		ServiceName:    "ibiza-nights",
		ServiceVersion: info.Version,
		Environment:    cfg.Env,
		SampleRatio:    cfg.OTelSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			slog.Error("error flushing traces", "error", err)
		}
	}()
	if cfg.TracingEnabled() {
		slog.Info("tracing enabled", "endpoint", cfg.OTelEndpoint, "sample_ratio", cfg.OTelSampleRatio)
	}

	stores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer stores.close()

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	logger = slog.New(logging.NewEventLogHandler(textHandler, stores.elevated.Log))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	cacheResult, err := cache.NewCacheWithInfo(cacheConfig(cfg))
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() { _ = cacheResult.Cache.Close() }()
	switch {
	case cacheResult.BackendType == cache.CacheBackendRedis:
		slog.Info("cache initialized", "backend", "redis", "url", cache.SanitizeRedisURL(cfg.RedisURL))
	case cacheResult.IsFallback:
		slog.Warn("cache initialized", "backend", "memory", "note", "Redis unavailable, using fallback",
			"error", cacheResult.FallbackErr)
	default:
		slog.Info("cache initialized", "backend", "memory")
	}

	dir := service.NewDirectory(service.Config{
		Elevated: stores.elevated,
		Public:   stores.public,
		Cache:    cacheResult.Cache,
		CacheTTL: cfg.CacheTTLDuration(),
		Logger:   logger,

		RefreshTimeout: cfg.RequestTimeoutDuration(),
	})
	importer := transfer.NewImporter(stores.elevated, dir.EventLog(), logger)

	// One-shot commands
	switch {
	case opts.exportPath != "":
		return exportDataset(ctx, stores.elevated, opts.exportPath)
	case opts.importPath != "":
		return importDataset(ctx, importer, opts.importPath, opts.dryRun)
	}

	seedOpts := transfer.SeedOptions{
		Environment: seedEnvironment(cfg),
		AdminToken:  cfg.AdminToken,
		AdminEmail:  cfg.AdminEmail,
		AdminName:   cfg.AdminName,
	}
	switch {
	case cfg.DoSeed:
		res, err := importer.Seed(ctx, seedOpts)
		if err != nil {
			return fmt.Errorf("seeding datastore: %w", err)
		}
		slog.Info("seeding complete", "created", res.TotalCreated(), "skipped", res.TotalSkipped())
	case cfg.AdminToken != "":
		if err := importer.EnsureAdmin(ctx, seedOpts); err != nil {
			return fmt.Errorf("ensuring admin user: %w", err)
		}
	}

	if err := dir.Refresh(ctx); err != nil {
		// The scheduler retries; readiness stays false until a refresh succeeds.
		slog.Warn("initial directory refresh failed", "error", err)
	}

	sched := scheduler.New(dir, dir.EventLog(), logger, scheduler.Options{
		RefreshSchedule: cfg.RefreshSchedule,
		PruneSchedule:   cfg.PruneSchedule,
		LogRetention:    cfg.LogRetention(),
		JobTimeout:      time.Minute,
	})
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	apiHandler := api.NewHandler(api.Config{
		Directory: dir,
		Store:     stores.elevated,
		Jobs:      sched.Registry(),
		Logger:    logger,
	})
	healthHandler := handler.NewHealthHandler(stores.elevated, dir, string(cacheResult.BackendType), info)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(telemetry.Middleware(otel.GetTracerProvider()))
	r.Use(middleware.Timeout(cfg.RequestTimeoutDuration()))
	r.Use(middleware.TokenAuth(stores.elevated.Users))

	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimiter.Middleware())
		r.Mount("/", apiHandler.Routes())
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteAPIError(w, http.StatusNotFound, "not_found", "No such endpoint", nil)
	})

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.RequestTimeoutDuration() + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB max header size
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env,
			"backend", cfg.Backend, "version", info.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Graceful shutdown with timeout
	sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// stores holds the elevated store (writes, moderation, admin) and the
// public store serving anonymous reads. They are the same store unless the
// backend is Supabase.
type stores struct {
	elevated *store.Store
	public   *store.Store
	close    func()
}

func openStores(cfg *config.Config) (*stores, error) {
	switch cfg.Backend {
	case config.BackendSupabase:
		slog.Info("connecting to supabase", "url", cfg.SupabaseURL)
		return &stores{
			elevated: store.NewSupabase(supabase.CreateClient(cfg.SupabaseURL, cfg.SupabaseServiceKey)),
			public:   store.NewSupabase(supabase.CreateClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)),
			close:    func() {},
		}, nil

	case config.BackendPostgres:
		slog.Info("initializing database", "backend", "postgres")
		db, err := store.NewPostgresDB(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("initializing database: %w", err)
		}
		return migrated(db)

	default:
		// Ensure data directory exists
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		slog.Info("initializing database", "backend", "sqlite", "path", cfg.DBPath)
		db, err := store.NewSQLiteDB(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("initializing database: %w", err)
		}
		return migrated(db)
	}
}

func migrated(db *sqlx.DB) (*stores, error) {
	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	s := store.NewSQL(db)
	return &stores{
		elevated: s,
		public:   s,
		close: func() {
			if err := db.Close(); err != nil {
				slog.Error("error closing database connection", "error", err)
			}
		},
	}, nil
}

func cacheConfig(cfg *config.Config) cache.CacheConfig {
	cc := cache.DefaultCacheConfig()
	cc.RedisURL = cfg.RedisURL
	cc.Prefix = cfg.CachePrefix
	cc.DefaultTTL = cfg.CacheTTLDuration()
	cc.MaxSize = cfg.CacheMaxSize
	if cfg.UseRedisCache() {
		cc.Type = string(cache.CacheBackendRedis)
	}
	return cc
}

func seedEnvironment(cfg *config.Config) string {
	if cfg.IsProduction() {
		return transfer.EnvProduction
	}
	return cfg.Env
}

func exportDataset(ctx context.Context, s *store.Store, path string) error {
	ds, err := transfer.Export(ctx, s, time.Now())
	if err != nil {
		return fmt.Errorf("exporting listings: %w", err)
	}
	if err := transfer.WriteFile(path, ds); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	slog.Info("export complete", "path", path,
		"events", len(ds.Events), "djs", len(ds.DJs), "clubs", len(ds.Clubs), "promoters", len(ds.Promoters))
	return nil
}

func importDataset(ctx context.Context, importer *transfer.Importer, path string, dryRun bool) error {
	res, err := importer.ImportFile(ctx, path, transfer.ImportOptions{DryRun: dryRun})
	if err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}
	for _, ie := range res.Errors {
		slog.Warn("record not imported", "kind", ie.Kind, "name", ie.Name, "error", ie.Message, "details", ie.Details)
	}
	for _, w := range res.Warnings {
		slog.Warn("import warning", "warning", w)
	}
	slog.Info("import complete", "path", path, "dry_run", dryRun,
		"created", res.TotalCreated(), "skipped", res.TotalSkipped(), "errors", len(res.Errors))
	if res.HasErrors() {
		return fmt.Errorf("%d records could not be imported", len(res.Errors))
	}
	return nil
}
