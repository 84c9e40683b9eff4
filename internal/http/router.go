package http

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/focusnest/server/internal/http/handlers"
	"github.com/focusnest/server/internal/middleware"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth *handlers.AuthHandler
	User *handlers.UserHandler
	AI   *handlers.AIHandler
	Task *handlers.TaskHandler
}

// Limiters are the per-IP limits on the unauthenticated OTP endpoints.
type Limiters struct {
	Login  *middleware.RateLimiter
	Verify *middleware.RateLimiter
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(h Handlers, limits Limiters, tokens middleware.TokenValidator) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	healthHandler := handlers.NewHealthHandler()
	r.Get("/health", healthHandler.ServeHTTP)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.HandleRegister)
		r.With(middleware.RateLimitMiddleware(limits.Login, middleware.GetIPKey)).Post("/login", h.Auth.HandleLogin)
		r.With(middleware.RateLimitMiddleware(limits.Login, middleware.GetIPKey)).Post("/resend-otp", h.Auth.HandleResendOTP)
		r.With(middleware.RateLimitMiddleware(limits.Verify, middleware.GetIPKey)).Post("/verify-otp", h.Auth.HandleVerifyOTP)
	})

	// Protected routes (require valid JWT)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(tokens))

		r.Put("/user/preferences", h.User.HandleSetPreferences)
		r.Get("/user/me", h.User.HandleMe)

		r.Post("/tasks/schedule", h.AI.HandleSchedule)
		r.Post("/tasks/cognitive-load", h.AI.HandleCognitiveLoad)

		r.Route("/task", func(r chi.Router) {
			r.Get("/", h.Task.HandleList)
			r.Post("/", h.Task.HandleCreate)
			r.Get("/{id}", h.Task.HandleGet)
			r.Put("/{id}", h.Task.HandleUpdate)
			r.Delete("/{id}", h.Task.HandleDelete)
		})
	})

	return r
}
