package routes

import (
	commenthandlers "Inkwell/internal/api/handlers/comments"
	"Inkwell/internal/api/middleware"
	"Inkwell/internal/core/comments"

	"github.com/go-chi/chi/v5"
)

// RegisterCommentRoutes registers the /comments endpoints on the router
func RegisterCommentRoutes(r chi.Router, service comments.Service, authMiddleware *middleware.AuthMiddleware) {
	h := commenthandlers.NewHandler(service)

	r.Route("/comments", func(r chi.Router) {
		r.Use(middleware.MaxBody(middleware.AttachmentBodyLimit))

		r.Get("/", h.HandleFind)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Post("/", h.HandleCreate)
			r.Patch("/{id}", h.HandleUpdate)
			r.Delete("/{id}", h.HandleDelete)
			r.Post("/reactions", h.HandleReact)
		})
	})
}
