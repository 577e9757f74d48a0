// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer: it connects the store, services,
// handlers and middleware, and decides which URL maps to which handler and
// which routes need a logged-in user.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → Server.New() creates:
//	  sqldb.DB → UserDB / FeedbackDB
//	  → AuthService / UserService / FeedbackService
//	  → AuthHandler / UserHandler / FeedbackHandler
//
// All dependencies are wired in one place (New/setupRoutes), the
// "composition root", rather than scattered across the codebase.
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
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/feedback/internal/auth"
	"github.com/sakif/feedback/internal/config"
	"github.com/sakif/feedback/internal/handler"
	"github.com/sakif/feedback/internal/middleware"
	"github.com/sakif/feedback/internal/repository/sqldb"
	"github.com/sakif/feedback/internal/service"
	"github.com/sakif/feedback/internal/view"
)

const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 30 * time.Second
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection and closes it when Start returns.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqldb.DB
}

// New opens the database (running migrations), builds every service and
// handler, and registers the routes. cfg must already be validated.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqldb.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close() // Clean up DB if route setup fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET       /                             → redirect to /register
//	GET|POST  /register                     → sign up
//	GET|POST  /login                        → sign in
//	GET       /logout                       → sign out
//
//	login required:
//	GET       /users/{id}                   → profile and feedback list
//	GET       /users/{id}/delete            → "are you sure?" page
//	POST      /users/{id}/delete            → delete account (confirmed)
//	GET|POST  /users/{id}/feedback/add      → add feedback
//	GET|POST  /feedback/{id}/update         → edit feedback
//	POST      /feedback/{id}/delete         → delete feedback (confirmed)
//
// MIDDLEWARE ORDER MATTERS. Global middleware runs in this order:
//  1. RequestID: unique id per request, picked up by the logger
//  2. RealIP: client IP from proxy headers
//  3. Logger: one line per request with timing
//  4. Recoverer: a panic becomes a 500 instead of a crash
//  5. LoadSession: puts the logged-in user id (if any) on the context
func (s *Server) setupRoutes() error {
	passwords, err := auth.NewPasswordService(s.config.BcryptCost)
	if err != nil {
		return fmt.Errorf("creating password service: %w", err)
	}

	sessions, err := auth.NewSessionManager(s.config.SecretKey, auth.SessionOptions{
		MaxAge: s.config.SessionMaxAge,
		Secure: s.config.CookieSecure,
	})
	if err != nil {
		return fmt.Errorf("creating session manager: %w", err)
	}

	tokens, err := auth.NewConfirmTokens(s.config.SecretKey, s.config.ConfirmTokenTTL)
	if err != nil {
		return fmt.Errorf("creating confirmation tokens: %w", err)
	}

	pages, err := view.New()
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}

	// === Services ===
	// Services receive the repository interfaces, never the *sql.DB.
	users, feedback := s.db.Users(), s.db.Feedback()

	authService := service.NewAuthService(users, passwords, s.logger)
	userService := service.NewUserService(users, feedback, s.logger)
	feedbackService := service.NewFeedbackService(feedback, s.logger)

	// === Handlers ===
	authHandler := handler.NewAuthHandler(authService, sessions, pages, s.logger)
	userHandler := handler.NewUserHandler(userService, tokens, sessions, pages, s.logger)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService, userService, tokens, sessions, pages, s.logger)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(auth.LoadSession(sessions))

	s.router.NotFound(authHandler.HandleNotFound)
	s.router.MethodNotAllowed(authHandler.HandleMethodNotAllowed)

	// === Public Routes ===
	s.router.Get("/", authHandler.HandleHome)
	s.router.Get("/register", authHandler.HandleRegisterForm)
	s.router.Post("/register", authHandler.HandleRegister)
	s.router.Get("/login", authHandler.HandleLoginForm)
	s.router.Post("/login", authHandler.HandleLogin)
	s.router.Get("/logout", authHandler.HandleLogout)

	// === Protected Routes ===
	// One guard for the whole group; no handler below checks the session.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(sessions, s.logger))

		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/", userHandler.HandleProfile)
			r.Get("/delete", userHandler.HandleConfirmDelete)
			r.Post("/delete", userHandler.HandleDelete)
			r.Get("/feedback/add", feedbackHandler.HandleAddForm)
			r.Post("/feedback/add", feedbackHandler.HandleAdd)
		})

		r.Route("/feedback/{id}", func(r chi.Router) {
			r.Get("/update", feedbackHandler.HandleEditForm)
			r.Post("/update", feedbackHandler.HandleUpdate)
			r.Post("/delete", feedbackHandler.HandleDelete)
		})
	})

	return nil
}

// Handler returns the fully wired router. Tests serve it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database connection. Start calls it on the way out;
// callers that never Start (tests) call it themselves.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start starts the HTTP server and blocks until SIGINT/SIGTERM or a
// listener error.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Close the database connection
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.db.Dialect().String()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
