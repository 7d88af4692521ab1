package web

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/attendance/internal/constants"
	"github.com/kozaktomas/attendance/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	// Create handlers
	attendanceHandler := handlers.NewAttendanceHandler(s.service, s.logger)
	geofenceHandler := handlers.NewGeofenceHandler(s.service, s.logger)
	configHandler := handlers.NewConfigHandler(s.service)
	eventsHandler := handlers.NewEventsHandler(s.hub, s.logger)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Event stream (long-lived, no request timeout)
		r.Get("/attendance/events", eventsHandler.Stream)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(constants.RequestTimeout))

			// Config
			r.Get("/config", configHandler.Get)

			// Attendance
			r.Post("/attendance/checkin", attendanceHandler.CheckIn)
			r.Post("/attendance/checkout", attendanceHandler.CheckOut)
			r.Get("/attendance/today", attendanceHandler.Today)
			r.Get("/attendance/active", attendanceHandler.Active)
			r.Get("/attendance/users/{userID}", attendanceHandler.History)
			r.Get("/attendance/companies/{companyCode}", attendanceHandler.CompanyDay)

			// Geofences
			r.Get("/geofences/{companyCode}", geofenceHandler.Get)
			r.Put("/geofences/{companyCode}", geofenceHandler.Put)
		})
	})
}
