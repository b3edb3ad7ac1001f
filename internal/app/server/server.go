package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"appraisal/internal/domain/assessment"
	"appraisal/internal/domain/audit"
	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/notifications"
	"appraisal/internal/domain/rubric"
	"appraisal/internal/platform/config"
	"appraisal/internal/platform/db"
	"appraisal/internal/platform/email"
	"appraisal/internal/platform/jobs"
	"appraisal/internal/platform/metrics"
	assessmentshandler "appraisal/internal/transport/http/handlers/assessments"
	audithandler "appraisal/internal/transport/http/handlers/audit"
	authhandler "appraisal/internal/transport/http/handlers/auth"
	notificationshandler "appraisal/internal/transport/http/handlers/notifications"
	rubricshandler "appraisal/internal/transport/http/handlers/rubrics"
	"appraisal/internal/transport/http/middleware"
)

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
	Runner *jobs.Runner
}

// routes is everything the router needs; kept separate from App so the
// HTTP surface can be built without a database.
type routes struct {
	cfg           config.Config
	ready         func(ctx context.Context) error
	auth          authhandler.Authenticator
	rubrics       rubricshandler.Service
	assessments   assessmentshandler.Service
	notifications notificationshandler.Service
	audit         audithandler.Service
}

// New connects to the database, prepares the schema and wires every service.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	runner := jobs.New(cfg.TaskTimeout)
	rubricService := rubric.NewService(rubric.NewStore(pool))
	auditService := audit.New(audit.NewStore(pool))
	notificationStore := notifications.NewStore(pool)
	dispatcher := notifications.NewDispatcher(notificationStore, email.New(cfg), runner, notifications.DispatcherConfig{
		From:        cfg.EmailFrom,
		BaseURL:     cfg.BaseURL,
		SendTimeout: cfg.MailSendTimeout,
		Concurrency: cfg.DispatchConcurrency,
	})
	assessmentService := assessment.NewService(assessment.NewStore(pool), rubricService, dispatcher, auditService)

	router := newRouter(routes{
		cfg:           cfg,
		ready:         pool.Ping,
		auth:          auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.TokenTTL),
		rubrics:       rubricService,
		assessments:   assessmentService,
		notifications: notifications.NewService(notificationStore),
		audit:         auditService,
	})

	return &App{Config: cfg, DB: pool, Router: router, Runner: runner}, nil
}

func newRouter(deps routes) http.Handler {
	cfg := deps.cfg
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Total-Count", "X-Request-ID", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if deps.ready != nil {
			if err := deps.ready(ctx); err != nil {
				slog.Warn("readiness check failed", "err", err)
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Handle("/metrics", metrics.Handler())
	}

	var loginGate func(http.Handler) http.Handler
	if cfg.LoginRateLimit > 0 {
		loginGate = middleware.LoginRateLimit(cfg.LoginRateLimit, time.Minute)
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(deps.auth, loginGate).RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			rubricshandler.NewHandler(deps.rubrics).RegisterRoutes(r)
			assessmentshandler.NewHandler(deps.assessments).RegisterRoutes(r)
			notificationshandler.NewHandler(deps.notifications).RegisterRoutes(r)
			audithandler.NewHandler(deps.audit).RegisterRoutes(r)
		})
	})

	return router
}

// Shutdown drains background dispatches and closes the pool.
func (a *App) Shutdown(ctx context.Context) {
	if err := a.Runner.Wait(ctx); err != nil {
		slog.Warn("background tasks did not finish", "err", err)
	}
	a.DB.Close()
}

func configureLogging(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func Run() error {
	cfg := config.Load()
	configureLogging(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("appraisal server listening", "addr", cfg.Addr, "env", cfg.Environment)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown requested")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			app.Shutdown(context.Background())
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown incomplete", "err", err)
	}
	app.Shutdown(shutdownCtx)
	return nil
}
