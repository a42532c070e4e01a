// Package app wires the application components together.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"gymlog/internal/adapter/scheduler"
	"gymlog/internal/adapter/web"
	"gymlog/internal/auth"
	"gymlog/internal/config"
	"gymlog/internal/event"
	"gymlog/internal/observability"
	"gymlog/internal/platform/logger"
	"gymlog/internal/platform/sqlite"
	"gymlog/internal/storage"
)

// App wires application components.
type App struct {
	cfg config.Config
	log *slog.Logger
}

// New creates a new App instance and loads configuration.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Options{
		Env:          cfg.Env,
		ConsoleLevel: cfg.Log.ConsoleLevel,
		FileLevel:    cfg.Log.FileLevel,
		File:         cfg.Log.File,
		App:          "gymlog",
	})
	return &App{cfg: cfg, log: log}, nil
}

// Run starts the application.
func (a *App) Run() error {
	a.log.Info("starting")
	defer func() { _ = logger.Close(a.log) }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if dir := filepath.Dir(a.cfg.DB.File); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	opts := sqlite.DefaultPoolOptions()
	opts.MaxIdle = a.cfg.DB.PoolSize
	pool, err := sqlite.NewPool(ctx, a.cfg.DB.File, opts)
	if err != nil {
		return err
	}

	sink := event.Multi(event.NewLogSink(a.log), observability.MetricsSink{})
	db := sqlite.NewService(pool,
		sqlite.WithLogger(a.log),
		sqlite.WithErrorHook(func(err error) {
			sink.Emit(event.Event{Name: event.StoreError, At: time.Now(), Cause: err})
		}),
	)
	defer func() { _ = db.Close() }()
	observability.ObservePool(pool)

	if err := sqlite.ApplyMigrations(a.cfg.DB.File, storage.Migrations, storage.MigrationsDir); err != nil {
		return err
	}

	users := storage.NewUsers(db)
	hasher := auth.NewBcryptHasher(0)
	if err := a.seedUsers(ctx, users, hasher); err != nil {
		return err
	}

	var ready atomic.Bool

	tokens := auth.NewTokens(auth.TokenConfig{
		Secret: a.cfg.Auth.Secret,
		Issuer: a.cfg.Auth.Issuer,
		TTL:    a.cfg.Auth.TokenTTL,
	})

	if a.cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := web.NewRouter(web.Deps{
		Log:       a.log,
		Users:     users,
		Sessions:  storage.NewSessions(db, sink),
		Exercises: storage.NewExercises(db, sink),
		Sets:      storage.NewSets(db, sink),
		Hasher:    hasher,
		Tokens:    tokens,
		Events:    sink,
		Ready:     ready.Load,
	})

	var sched *scheduler.Scheduler
	if a.cfg.Maintenance.Cron != "" {
		sched = scheduler.New(ctx, a.log)
		maintenance := scheduler.NewMaintenance(db, a.log)
		if _, err := sched.AddJob(a.cfg.Maintenance.Cron, "store-maintenance", time.Minute, maintenance.Run); err != nil {
			return err
		}
		sched.Start()
	}

	srv := &http.Server{Addr: a.cfg.HTTP.Addr, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("server", slog.Any("err", err))
		}
	}()

	ready.Store(true)
	a.log.Info("listening", slog.String("addr", a.cfg.HTTP.Addr))
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if sched != nil {
		_ = sched.Stop(shutdownCtx)
	}
	return srv.Shutdown(shutdownCtx)
}

// seedUsers inserts the configured accounts when the users table is empty.
// A non-empty table means a real install; seeding never touches it.
func (a *App) seedUsers(ctx context.Context, users *storage.Users, hasher auth.Hasher) error {
	creds := a.cfg.SeedCredentials()
	if len(creds) == 0 {
		return nil
	}

	n, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	for _, c := range creds {
		digest, err := hasher.Hash(c[1])
		if err != nil {
			return err
		}
		if _, err := users.Create(ctx, c[0], digest); err != nil {
			return err
		}
		a.log.Info("seeded user", slog.String("username", c[0]))
	}
	return nil
}
