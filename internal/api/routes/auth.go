package routes

import (
	"Inkwell/internal/api/handlers/authn"
	"Inkwell/internal/api/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterAuthRoutes registers the /auth endpoints on the router.
// Refresh authenticates with the refresh token itself, not the access middleware.
func RegisterAuthRoutes(r chi.Router, service authn.Service, authMiddleware *middleware.AuthMiddleware) {
	h := authn.NewHandler(service)

	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.MaxBody(middleware.DefaultBodyLimit))

		r.Post("/register", h.HandleRegister)
		r.Post("/login", h.HandleLogin)
		r.Post("/refresh", h.HandleRefresh)
		r.With(authMiddleware.RequireAuth).Post("/logout", h.HandleLogout)
	})
}
