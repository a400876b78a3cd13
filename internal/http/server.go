package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/derstap/backend/internal/auth"
	"github.com/derstap/backend/internal/config"
	"github.com/derstap/backend/internal/repository"
	"github.com/derstap/backend/internal/store"
)

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg     config.Config
	store   *store.Store
	repo    *repository.Repository
	logger  *log.Logger
	router  chi.Router
	httpSrv *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, st *store.Store, repo *repository.Repository, logger *log.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		cfg:    cfg,
		store:  st,
		repo:   repo,
		logger: logger,
		router: r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.With(s.requireAuth).Post("/logout", s.handleLogout)
		r.With(s.requireAuth).Get("/me", s.handleMe)
	})

	s.router.Route("/teachers", func(r chi.Router) {
		r.Get("/", s.handleListTeachers)
		r.Get("/top/rated", s.handleTopTeachers)
		r.Get("/{id}", s.handleGetTeacher)
		r.With(s.requireAuth, s.authorize(auth.ActionUpdateTeacherProfile)).Put("/profile", s.handleUpdateTeacherProfile)
		r.With(s.requireAuth, s.authorize(auth.ActionSetPremium)).Put("/{id}/premium", s.handleSetPremium)
	})

	s.router.Route("/reviews", func(r chi.Router) {
		r.Get("/teacher/{teacherId}", s.handleListTeacherReviews)
		r.With(s.requireAuth).Post("/", s.handleSubmitReview)
		r.With(s.requireAuth).Put("/{id}", s.handleEditReview)
		r.With(s.requireAuth).Delete("/{id}", s.handleDeleteReview)
	})

	s.router.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.With(s.authorize(auth.ActionViewStats)).Get("/stats", s.handleStats)
		r.With(s.authorize(auth.ActionListUsers)).Get("/users", s.handleListUsers)
		r.With(s.authorize(auth.ActionSetUserStatus)).Put("/users/{id}/status", s.handleSetUserStatus)
		r.With(s.authorize(auth.ActionListUsers)).Get("/teachers", s.handleListTeachersAdmin)
		r.With(s.authorize(auth.ActionVerifyTeacher)).Put("/teachers/{id}/verify", s.handleVerifyTeacher)
		r.With(s.authorize(auth.ActionModerateReview)).Get("/reviews/pending", s.handleListPendingReviews)
		r.With(s.authorize(auth.ActionModerateReview)).Put("/reviews/{id}/approve", s.handleApproveReview)
	})
}

// Start boots the HTTP server asynchronously.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.HealthCheck(ctx); err != nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
