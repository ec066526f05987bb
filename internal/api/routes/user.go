package routes

import (
	"Inkwell/internal/api/handlers/user"
	"Inkwell/internal/api/middleware"
	"Inkwell/internal/core/users"

	"github.com/go-chi/chi/v5"
)

// RegisterUserRoutes registers the /users endpoints on the router
func RegisterUserRoutes(r chi.Router, service users.UserService, authMiddleware *middleware.AuthMiddleware) {
	h := user.NewHandler(service)

	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.MaxBody(middleware.DefaultBodyLimit))

		r.Get("/", h.HandleFind)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Patch("/{id}", h.HandleUpdate)
			r.Delete("/{id}", h.HandleDelete)
		})
	})
}
