package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/rleal/face-attendance/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/recognize", s.handlers.Recognize.Recognize)

		r.Post("/enroll", s.handlers.Enroll.Enroll)
		r.Get("/enroll/progress", s.handlers.Enroll.Progress)

		r.Get("/users", s.handlers.Users.List)
		r.Post("/users", s.handlers.Users.Upsert)
		r.Get("/users/{rut}", s.handlers.Users.Get)
		r.Get("/users/{rut}/photo", s.handlers.Users.Photo)
		r.Post("/users/{rut}/active", s.handlers.Users.SetActive)

		r.Get("/events", s.handlers.Events.List)
		r.Post("/events", s.handlers.Events.Create)
		r.Get("/events/{id}", s.handlers.Events.Get)
		r.Get("/events/{id}/attendance", s.handlers.Events.Attendance)

		r.Post("/attendance/manual", s.handlers.Attendance.Manual)
	})
}
