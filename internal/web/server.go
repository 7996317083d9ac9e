// Package web provides the HTTP API of the attendance service.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/rleal/face-attendance/internal/web/handlers"
	"github.com/rleal/face-attendance/internal/web/middleware"
)

// Handlers bundles the API handlers the server routes to.
type Handlers struct {
	Recognize  *handlers.RecognizeHandler
	Enroll     *handlers.EnrollHandler
	Users      *handlers.UsersHandler
	Events     *handlers.EventsHandler
	Attendance *handlers.AttendanceHandler
}

// Server represents the web server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	handlers   Handlers
}

// NewServer creates a new web server.
func NewServer(host string, port int, h Handlers) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:   r,
		handlers: h,
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	// Enrollment holds the connection for the whole capture session.
	r.Use(chiMiddleware.Timeout(5 * time.Minute))
	r.Use(middleware.CORS())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() http.Handler {
	return s.router
}
