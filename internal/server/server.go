// Package server wires storage, handlers and middleware of the AutoPark dev API server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iudanet/autopark/internal/server/handlers"
	"github.com/iudanet/autopark/internal/server/middleware"
	"github.com/iudanet/autopark/internal/server/storage"
	"github.com/iudanet/autopark/pkg/api"
)

// Storage объединяет все хранилища, которые нужны серверу
type Storage interface {
	storage.UserStorage
	storage.TokenStorage
	storage.NotificationStorage
	storage.FleetStorage
	handlers.Pinger
}

// Config параметры сервера, не зависящие от способа загрузки
type Config struct {
	JWT     handlers.JWTConfig
	Uploads handlers.UploadConfig
	Version string
	// AuthRateLimit запросов в минуту на IP для /auth/login и /auth/register, 0 отключает лимит
	AuthRateLimit int
	// ShutdownTimeout для graceful shutdown, по умолчанию 10s
	ShutdownTimeout time.Duration
	// TokenCleanupInterval период удаления истекших refresh token, 0 отключает очистку
	TokenCleanupInterval time.Duration
}

// Server HTTP API сервер
type Server struct {
	logger   *slog.Logger
	store    Storage
	limiter  *middleware.RateLimiter
	registry *prometheus.Registry
	handler  http.Handler
	cfg      Config
}

// New собирает роутер и middleware
func New(logger *slog.Logger, store Storage, cfg Config) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		logger:   logger,
		store:    store,
		registry: prometheus.NewRegistry(),
		cfg:      cfg,
	}
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if cfg.AuthRateLimit > 0 {
		s.limiter = middleware.NewRateLimiter(cfg.AuthRateLimit, time.Minute, logger)
	}

	s.handler = s.routes()
	return s
}

// Handler returns the root handler with all middleware applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Registry returns the prometheus registry served at /metrics
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Close останавливает фоновые горутины сервера
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

func (s *Server) routes() http.Handler {
	authHandler := handlers.NewAuthHandler(s.logger, s.store, s.store, s.store, s.cfg.JWT)
	usersHandler := handlers.NewUsersHandler(s.logger, s.store, s.cfg.Uploads)
	notificationsHandler := handlers.NewNotificationsHandler(s.logger, s.store)
	fleetHandler := handlers.NewFleetHandler(s.logger, s.store, s.store)
	healthHandler := handlers.NewHealthHandler(s.logger, s.store, s.cfg.Version)

	requireAuth := middleware.AuthMiddleware(s.logger, s.cfg.JWT)
	authed := func(h http.HandlerFunc) http.Handler {
		return requireAuth(h)
	}
	limited := func(h http.HandlerFunc) http.Handler {
		if s.limiter == nil {
			return h
		}
		return middleware.RateLimitMiddleware(s.limiter)(h)
	}

	router := mux.NewRouter()
	router.Use(middleware.NewHTTPMetrics(s.registry).Middleware)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.SendError(w, s.logger, http.StatusNotFound, api.CodeNotFound, "route not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.SendError(w, s.logger, http.StatusMethodNotAllowed, "", "method not allowed")
	})

	// Service endpoints (no auth required)
	router.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", uploadsHandler(s.cfg.Uploads.Dir))).
		Methods(http.MethodGet, http.MethodHead)

	// Auth routes
	router.Handle("/auth/register", limited(authHandler.Register)).Methods(http.MethodPost)
	router.Handle("/auth/login", limited(authHandler.Login)).Methods(http.MethodPost)
	router.HandleFunc("/auth/refresh", authHandler.Refresh).Methods(http.MethodPost)
	router.Handle("/auth/logout", authed(authHandler.Logout)).Methods(http.MethodPost)

	// Profile routes (auth required)
	router.Handle("/auth/users/me", authed(usersHandler.GetMe)).Methods(http.MethodGet)
	router.Handle("/auth/users/me", authed(usersHandler.UpdateMe)).Methods(http.MethodPut)

	// Notifications routes (auth required)
	router.Handle("/notifications", authed(notificationsHandler.List)).Methods(http.MethodGet)
	router.Handle("/notifications/{id}/read", authed(notificationsHandler.MarkRead)).Methods(http.MethodPost)

	// Fleet routes (auth required)
	router.Handle("/vehicles", authed(fleetHandler.ListVehicles)).Methods(http.MethodGet)
	router.Handle("/vehicles/{id}", authed(fleetHandler.GetVehicle)).Methods(http.MethodGet)
	router.Handle("/reservations", authed(fleetHandler.CreateReservation)).Methods(http.MethodPost)
	router.Handle("/reservations", authed(fleetHandler.ListReservations)).Methods(http.MethodGet)
	router.Handle("/reservations/{id}", authed(fleetHandler.CancelReservation)).Methods(http.MethodDelete)

	// Recovery снаружи, чтобы паника в логировании тоже перехватывалась
	var handler http.Handler = router
	handler = middleware.LoggingWithSkip(s.logger, []string{"/health", "/metrics"})(handler)
	handler = middleware.RecoveryMiddleware(s.logger)(handler)
	return handler
}

// uploadsHandler отдает загруженные фотографии без листинга каталога
func uploadsHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(path.Clean("/"+r.URL.Path))))
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

// CleanupExpiredTokens периодически удаляет истекшие refresh token до отмены ctx
func (s *Server) CleanupExpiredTokens(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.store.DeleteExpiredTokens(ctx)
			if err != nil {
				s.logger.WarnContext(ctx, "failed to delete expired tokens", slog.Any("error", err))
				continue
			}
			if deleted > 0 {
				s.logger.InfoContext(ctx, "expired refresh tokens deleted", slog.Int("count", deleted))
			}
		}
	}
}

// ListenAndServe обслуживает addr до отмены ctx, затем выполняет graceful shutdown
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	if s.cfg.TokenCleanupInterval > 0 {
		go s.CleanupExpiredTokens(ctx, s.cfg.TokenCleanupInterval)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting autopark server", slog.String("address", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
