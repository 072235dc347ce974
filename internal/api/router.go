package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/userchat-be/internal/api/handlers"
	"github.com/isdelr/userchat-be/internal/auth"
	"github.com/isdelr/userchat-be/internal/services"
	"github.com/isdelr/userchat-be/internal/websocket"
)

// Options holds the router settings that come from configuration.
type Options struct {
	// CORSOrigin is the single origin allowed to call the HTTP routes with credentials.
	CORSOrigin string
	// DirectoryRequireSession puts the user directory behind a login.
	DirectoryRequireSession bool
}

// NewRouter creates and configures a new Chi router.
func NewRouter(
	hub *websocket.Hub,
	authService services.AuthServiceProvider,
	userService services.UserServiceProvider,
	sessions *auth.Manager,
	db handlers.Pinger,
	opts Options,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, sessions)
	userHandler := handlers.NewUserHandler(userService)
	wsHandler := handlers.NewWebSocketHandler(hub)
	healthHandler := handlers.NewHealthHandler(db)

	// Preflight requests never match a route, so CORS has to wrap the whole mux.
	// It only adds headers, which leaves /ws open to any origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{opts.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ws", wsHandler.Serve)

	r.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)

		r.Get("/health", healthHandler.Get)

		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/user", authHandler.GetMe)

		r.Group(func(r chi.Router) {
			if opts.DirectoryRequireSession {
				r.Use(auth.RequireSession)
			}
			r.Get("/users", userHandler.GetAll)
			r.Route("/user/{id}", func(r chi.Router) {
				r.Get("/", userHandler.Get)
				r.Patch("/", userHandler.Update)
				r.Delete("/", userHandler.Delete)
			})
		})
	})

	return r
}
