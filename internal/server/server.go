// Package server wires storage, services, handlers and middleware into one
// chi router and runs it with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sakif/grid-manager/internal/auth"
	"github.com/sakif/grid-manager/internal/config"
	"github.com/sakif/grid-manager/internal/handler"
	"github.com/sakif/grid-manager/internal/lifecycle"
	"github.com/sakif/grid-manager/internal/metrics"
	"github.com/sakif/grid-manager/internal/middleware"
	"github.com/sakif/grid-manager/internal/repository"
	"github.com/sakif/grid-manager/internal/service"
)

const shutdownTimeout = 30 * time.Second

type Options struct {
	Config  config.Config
	Storage repository.Storage
	Logger  *zap.Logger

	// Passwords defaults to a bcrypt service at the default cost.
	Passwords service.PasswordHasher
}

// Server owns the storage handle and closes it on shutdown.
type Server struct {
	router    *chi.Mux
	config    config.Config
	logger    *zap.Logger
	storage   repository.Storage
	lifecycle *lifecycle.Controller
	metrics   *metrics.Metrics
}

func New(opts Options) (*Server, error) {
	if opts.Storage == nil {
		return nil, errors.New("nil Storage is invalid")
	}
	if opts.Logger == nil {
		return nil, errors.New("nil Logger is invalid")
	}
	if opts.Passwords == nil {
		opts.Passwords = auth.NewPasswordService()
	}

	m := metrics.New()
	lc, err := lifecycle.New(lifecycle.Options{
		Store:              opts.Storage,
		Logger:             opts.Logger.Named("lifecycle"),
		Metrics:            m,
		RegionRestartDelay: opts.Config.RegionRestartDelay,
		GridRestartDelay:   opts.Config.GridRestartDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("creating lifecycle controller: %w", err)
	}

	tokens, err := auth.NewTokenService(opts.Config.SessionSecret, opts.Config.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router:    chi.NewRouter(),
		config:    opts.Config,
		logger:    opts.Logger,
		storage:   opts.Storage,
		lifecycle: lc,
		metrics:   m,
	}
	s.routes(tokens, opts.Passwords)
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Lifecycle is the controller behind the start/stop/restart routes.
func (s *Server) Lifecycle() *lifecycle.Controller {
	return s.lifecycle
}

func (s *Server) routes(tokens *auth.TokenService, passwords service.PasswordHasher) {
	logger := s.logger
	store := s.storage

	grids := service.NewGridService(store, store, s.lifecycle, logger.Named("grids"))
	regions := service.NewRegionService(store, store, s.lifecycle, logger.Named("regions"))
	users := service.NewUserService(store, tokens, passwords, logger.Named("users"))
	settings := service.NewSettingService(store, logger.Named("settings"))
	setup := service.NewSetupService(grids, regions, logger.Named("setup"))

	gridHandler := handler.NewGridHandler(grids, regions, logger)
	regionHandler := handler.NewRegionHandler(regions, logger)
	userHandler := handler.NewUserHandler(users, logger)
	authHandler := handler.NewAuthHandler(users, tokens.TTL(), s.config.Production(), logger)
	settingHandler := handler.NewSettingHandler(settings, logger)
	setupHandler := handler.NewSetupHandler(setup, logger)

	r := s.router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger.Named("http"), s.metrics))
	r.Use(chimiddleware.Recoverer)
	if len(s.config.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", s.metrics.Handler())

	requireAuth := auth.RequireAuth(tokens, store)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		r.Get("/login-customization", settingHandler.HandleGetLoginCustomization)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/user", authHandler.HandleMe)

			r.Get("/grids", gridHandler.HandleList)
			r.Get("/grids/{id}", gridHandler.HandleGet)
			r.Get("/grids/{id}/regions", gridHandler.HandleRegions)
			r.Get("/grids/{id}/next-port", gridHandler.HandleNextPort)

			r.Get("/regions", regionHandler.HandleList)
			r.Get("/regions/{id}", regionHandler.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireSelfOrAdmin("id"))

				r.Get("/users/{id}/avatars", userHandler.HandleAvatars)
				r.Post("/users/{id}/avatars", userHandler.HandleCreateAvatar)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)

				r.Post("/grids", gridHandler.HandleCreate)
				r.Patch("/grids/{id}", gridHandler.HandleUpdate)
				r.Delete("/grids/{id}", gridHandler.HandleDelete)
				r.Post("/grids/{id}/start", gridHandler.HandleStart)
				r.Post("/grids/{id}/stop", gridHandler.HandleStop)
				r.Post("/grids/{id}/restart", gridHandler.HandleRestart)

				r.Post("/regions", regionHandler.HandleCreate)
				r.Patch("/regions/{id}", regionHandler.HandleUpdate)
				r.Delete("/regions/{id}", regionHandler.HandleDelete)
				r.Post("/regions/{id}/start", regionHandler.HandleStart)
				r.Post("/regions/{id}/stop", regionHandler.HandleStop)
				r.Post("/regions/{id}/restart", regionHandler.HandleRestart)

				r.Post("/setup", setupHandler.HandleSetup)

				r.Get("/users", userHandler.HandleList)
				r.Post("/users", userHandler.HandleCreate)

				r.Get("/settings", settingHandler.HandleList)
				r.Get("/settings/{key}", settingHandler.HandleGet)
				r.Put("/settings/{key}", settingHandler.HandlePut)
				r.Delete("/settings/{key}", settingHandler.HandleDelete)
				r.Put("/login-customization", settingHandler.HandlePutLoginCustomization)
			})
		})
	})
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests,
// waits for pending region restarts and closes storage.
func (s *Server) Start() error {
	defer func() {
		if err := s.storage.Close(); err != nil {
			s.logger.Error("closing storage", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			zap.Int("port", s.config.Port),
			zap.String("env", s.config.Env),
			zap.String("storage", s.config.StorageDriver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		s.logger.Info("waiting for pending region restarts")
		s.lifecycle.Wait()
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
