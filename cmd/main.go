package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notekeeper/internal/auth"
	"notekeeper/internal/cleanup"
	"notekeeper/internal/config"
	"notekeeper/internal/events"
	"notekeeper/internal/http_server/handlers/checklist"
	"notekeeper/internal/http_server/handlers/item"
	"notekeeper/internal/http_server/handlers/login"
	"notekeeper/internal/http_server/handlers/logout"
	"notekeeper/internal/http_server/handlers/note"
	"notekeeper/internal/http_server/handlers/refresh"
	"notekeeper/internal/http_server/handlers/register"
	"notekeeper/internal/http_server/middleware/authn"
	"notekeeper/internal/http_server/middleware/ratelimit"
	"notekeeper/internal/lib/jwt"
	"notekeeper/internal/rabbitmq"
	"notekeeper/internal/storage/memory"
	"notekeeper/internal/storage/postgres"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// storageBackend is everything the application needs from a store;
// both the Postgres and the in-memory implementations satisfy it.
type storageBackend interface {
	auth.UserStore
	auth.TokenLedger
	checklist.Store
	item.Store
	note.Store
	cleanup.TokenPurger
	Close()
}

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := setupLogger(cfg.Env)

	log.Info("starting notekeeper", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("shutdown signal received")
		cancel()
	}()

	var store storageBackend
	if cfg.Env == envLocal {
		store = memory.New()
	} else {
		pg, err := postgres.New(ctx, cfg)
		if err != nil {
			log.Error("failed to connect postgres", slog.String("err", err.Error()))
			os.Exit(1)
		}
		store = pg
	}
	defer store.Close()

	var pub events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		broker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
		if err != nil {
			log.Error("failed to connect rabbitmq", slog.String("err", err.Error()))
			os.Exit(1)
		}
		defer broker.Close()
		pub = broker
	}

	codec := jwt.NewCodec(cfg.Tokens.Secret)
	authService := auth.New(log, store, store, codec, cfg.Tokens.AccessTokenTTL, cfg.Tokens.RefreshTokenTTL)

	sweeper := cleanup.New(log, store, cfg.Cleanup.Hour)
	go sweeper.Run(ctx)

	router := setupRouter(log, codec, authService, store, pub)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", slog.String("err", err.Error()))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", slog.String("err", err.Error()))
	} else {
		log.Info("server stopped gracefully")
	}
}

func setupRouter(
	log *slog.Logger,
	codec *jwt.Codec,
	authService *auth.Auth,
	store storageBackend,
	pub events.Publisher,
) *chi.Mux {
	validate := validator.New()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(ratelimit.Register()).Post("/register",
				register.New(log, validate, authService, pub),
			)
			r.With(ratelimit.Authenticate()).Post("/authenticate",
				login.New(log, validate, authService, pub),
			)
			r.With(ratelimit.Refresh()).Post("/refresh-token",
				refresh.New(log, authService),
			)
			r.With(ratelimit.Logout()).Post("/logout",
				logout.New(log, authService),
			)
		})

		r.Group(func(r chi.Router) {
			r.Use(authn.Middleware(log, codec, store, store))
			r.Use(authn.RequireAuth())

			r.Route("/checklists", func(r chi.Router) {
				r.Get("/", checklist.List(log, store))
				r.Post("/", checklist.Create(log, validate, store))

				r.Route("/{checklistId}", func(r chi.Router) {
					r.Get("/", checklist.Get(log, store))
					r.Put("/", checklist.Update(log, validate, store))
					r.Delete("/", checklist.Delete(log, store))

					r.Route("/items", func(r chi.Router) {
						r.Get("/", item.List(log, store))
						r.Post("/", item.Create(log, validate, store))
						r.Get("/{itemId}", item.Get(log, store))
						r.Put("/{itemId}", item.Update(log, validate, store))
						r.Delete("/{itemId}", item.Delete(log, store))
					})
				})
			})

			r.Route("/text-notes", func(r chi.Router) {
				r.Get("/", note.List(log, store))
				r.Post("/", note.Create(log, validate, store))
				r.Get("/{noteId}", note.Get(log, store))
				r.Put("/{noteId}", note.Update(log, validate, store))
				r.Delete("/{noteId}", note.Delete(log, store))
			})
		})
	})

	return r
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
