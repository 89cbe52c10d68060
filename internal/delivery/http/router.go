package http

import (
	"log/slog"
	"net/http"

	"trainingportal/internal/delivery/http/controllers"
	"trainingportal/internal/delivery/http/middleware"
	"trainingportal/internal/domain"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Controllers groups the HTTP controllers served by the router.
type Controllers struct {
	Users        *controllers.UserController
	Programs     *controllers.ProgramController
	Certificates *controllers.CertificateController
	Calendar     *controllers.CalendarController
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(c Controllers, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	auth := middleware.RequireAuth(verifier, logger)
	adminOnly := func(h http.HandlerFunc) http.HandlerFunc {
		return auth(middleware.RequireRole(domain.RoleAdmin)(h))
	}
	managers := func(h http.HandlerFunc) http.HandlerFunc {
		return auth(middleware.RequireRole(domain.RoleAdmin, domain.RoleTrainer)(h))
	}

	// Auth
	mux.HandleFunc("POST /auth/signup", c.Users.SignUp)
	mux.HandleFunc("POST /auth/login", c.Users.Login)

	// Users
	mux.HandleFunc("GET /users/me", auth(c.Users.GetMe))
	mux.HandleFunc("PATCH /users/me", auth(c.Users.UpdateMe))
	mux.HandleFunc("GET /users/me/enrollments", auth(c.Programs.ListMyEnrollments))
	mux.HandleFunc("GET /users/me/certificates", auth(c.Certificates.ListMine))
	mux.HandleFunc("GET /users", adminOnly(c.Users.ListUsers))
	mux.HandleFunc("PUT /users/{userID}/roles", adminOnly(c.Users.SetRoles))
	mux.HandleFunc("DELETE /users/{userID}", adminOnly(c.Users.DeleteUser))

	// Programs and enrollments
	mux.HandleFunc("GET /programs", auth(c.Programs.ListPrograms))
	mux.HandleFunc("POST /programs", managers(c.Programs.CreateProgram))
	mux.HandleFunc("GET /programs/{programID}", auth(c.Programs.GetProgram))
	mux.HandleFunc("PATCH /programs/{programID}", managers(c.Programs.UpdateProgram))
	mux.HandleFunc("DELETE /programs/{programID}", managers(c.Programs.DeleteProgram))
	mux.HandleFunc("POST /programs/{programID}/enrollments", auth(c.Programs.Enroll))
	mux.HandleFunc("GET /programs/{programID}/enrollments", managers(c.Programs.ListEnrollments))
	mux.HandleFunc("DELETE /programs/{programID}/enrollments/me", auth(c.Programs.Withdraw))
	mux.HandleFunc("POST /programs/{programID}/enrollments/{userID}/complete", managers(c.Programs.CompleteEnrollment))

	// Certificates
	mux.HandleFunc("GET /certificates/{code}", c.Certificates.Verify)

	// Events and calendar
	mux.HandleFunc("GET /events", auth(c.Calendar.ListEvents))
	mux.HandleFunc("POST /events", managers(c.Calendar.CreateEvent))
	mux.HandleFunc("GET /events/{eventID}", auth(c.Calendar.GetEvent))
	mux.HandleFunc("PATCH /events/{eventID}", managers(c.Calendar.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", managers(c.Calendar.DeleteEvent))
	mux.HandleFunc("GET /calendar/categories", c.Calendar.Categories)
	mux.HandleFunc("GET /calendar/feed.ics", auth(c.Calendar.Feed))
	mux.HandleFunc("GET /calendar/{year}/{month}", auth(c.Calendar.MonthView))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
