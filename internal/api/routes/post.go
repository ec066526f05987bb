package routes

import (
	"Inkwell/internal/api/handlers/post"
	"Inkwell/internal/api/middleware"
	"Inkwell/internal/core/posts"

	"github.com/go-chi/chi/v5"
)

// RegisterPostRoutes registers the /posts endpoints on the router.
// Bodies may carry base64 attachments, so the larger body limit applies.
func RegisterPostRoutes(r chi.Router, service posts.Service, authMiddleware *middleware.AuthMiddleware) {
	h := post.NewHandler(service)

	r.Route("/posts", func(r chi.Router) {
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
