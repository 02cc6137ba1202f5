package http

import (
	"log/slog"
	"net/http"

	"campusevents/internal/delivery/http/controllers"
	"campusevents/internal/delivery/http/middleware"
	"campusevents/internal/domain"

	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Auth          *controllers.AuthController
	User          *controllers.UserController
	Event         *controllers.EventController
	Registration  *controllers.RegistrationController
	Attendance    *controllers.AttendanceController
	Forum         *controllers.ForumController
	Notification  *controllers.NotificationController
	Admin         *controllers.AdminController
	PasswordReset *controllers.PasswordResetController
	WS            *controllers.WSController
	Health        *controllers.HealthController
}

// NewRouter registers every route and wraps the mux with request ids, access
// logging, panic recovery and CORS.
func NewRouter(logger *slog.Logger, authn domain.Authenticator, allowedOrigins []string, c Controllers) http.Handler {
	mux := http.NewServeMux()

	anyone := middleware.RequireAuth(authn, logger)
	participant := middleware.RequireAuth(authn, logger, domain.RoleParticipant)
	organizer := middleware.RequireAuth(authn, logger, domain.RoleOrganizer)
	admin := middleware.RequireAuth(authn, logger, domain.RoleAdmin)

	// Auth
	mux.HandleFunc("POST /auth/signup", c.Auth.SignUp)
	mux.HandleFunc("POST /auth/login", c.Auth.Login)

	// Users and organizers
	mux.HandleFunc("GET /users/me", anyone(c.User.GetMe))
	mux.HandleFunc("PATCH /users/me", anyone(c.User.UpdateMe))
	mux.HandleFunc("POST /users/me/follows/{organizerID}", participant(c.User.Follow))
	mux.HandleFunc("DELETE /users/me/follows/{organizerID}", participant(c.User.Unfollow))
	mux.HandleFunc("GET /organizers", c.User.ListOrganizers)
	mux.HandleFunc("GET /organizers/{organizerID}", c.User.GetOrganizer)

	// Password reset
	mux.HandleFunc("POST /password-reset-requests", organizer(c.PasswordReset.Submit))
	mux.HandleFunc("GET /password-reset-requests/mine", organizer(c.PasswordReset.ListMine))

	// Events
	mux.HandleFunc("GET /events", c.Event.List)
	mux.HandleFunc("GET /events/trending", c.Event.Trending)
	mux.HandleFunc("GET /events/mine", organizer(c.Event.ListMine))
	mux.HandleFunc("GET /events/{eventID}", c.Event.Get)
	mux.HandleFunc("POST /events", organizer(c.Event.Create))
	mux.HandleFunc("PATCH /events/{eventID}", organizer(c.Event.Update))

	// Registrations, orders and attendance
	mux.HandleFunc("POST /events/{eventID}/registrations", participant(c.Registration.Register))
	mux.HandleFunc("GET /registrations/mine", participant(c.Registration.ListMine))
	mux.HandleFunc("GET /events/{eventID}/participants", organizer(c.Registration.ListParticipants))
	mux.HandleFunc("GET /events/{eventID}/orders", organizer(c.Registration.ListOrders))
	mux.HandleFunc("POST /events/{eventID}/orders/{orderID}/approve", organizer(c.Registration.ApproveOrder))
	mux.HandleFunc("POST /events/{eventID}/orders/{orderID}/reject", organizer(c.Registration.RejectOrder))
	mux.HandleFunc("PUT /events/{eventID}/participants/{entryID}/attendance", organizer(c.Attendance.Mark))
	mux.HandleFunc("DELETE /events/{eventID}/participants/{entryID}/attendance", organizer(c.Attendance.Unmark))
	mux.HandleFunc("POST /events/{eventID}/check-in", organizer(c.Attendance.CheckIn))

	// Forum and notifications
	mux.HandleFunc("GET /events/{eventID}/forum", anyone(c.Forum.ListThreads))
	mux.HandleFunc("GET /notifications", anyone(c.Notification.List))
	mux.HandleFunc("GET /notifications/unread-count", anyone(c.Notification.UnreadCount))
	mux.HandleFunc("PUT /notifications/read", anyone(c.Notification.MarkRead))
	mux.HandleFunc("GET /ws", middleware.RequireAuthQuery(authn, logger)(c.WS.Serve))

	// Admin
	mux.HandleFunc("GET /admin/organizers", admin(c.Admin.ListOrganizers))
	mux.HandleFunc("PUT /admin/organizers/{organizerID}/disable", admin(c.Admin.ToggleDisabled))
	mux.HandleFunc("DELETE /admin/organizers/{organizerID}", admin(c.Admin.DeleteOrganizer))
	mux.HandleFunc("GET /admin/password-reset-requests", admin(c.PasswordReset.List))
	mux.HandleFunc("POST /admin/password-reset-requests/{requestID}/approve", admin(c.PasswordReset.Approve))
	mux.HandleFunc("POST /admin/password-reset-requests/{requestID}/reject", admin(c.PasswordReset.Reject))

	// Health and docs
	mux.HandleFunc("GET /health", c.Health.Health)
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	var handler http.Handler = middleware.CORS(allowedOrigins, mux)
	handler = chimw.Recoverer(handler)
	handler = middleware.Logging(logger, handler)
	return chimw.RequestID(handler)
}
