package post

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Inkwell/internal/api/handlers"
	"Inkwell/internal/api/middleware"
	"Inkwell/internal/core/posts"
	"Inkwell/internal/core/reactions"
)

// Handler serves the /posts endpoints
type Handler struct {
	service posts.Service
}

// NewHandler creates a new post handler
func NewHandler(service posts.Service) *Handler {
	return &Handler{service: service}
}

// HandleCreate handles POST /posts
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req posts.CreateRequest
	if !handlers.DecodeJSON(w, r, &req) {
		return
	}

	post, err := h.service.Create(r.Context(), middleware.GetUserID(r), req)
	if err != nil {
		handlers.HandleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, post)
}

// HandleUpdate handles PATCH /posts/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req posts.UpdateRequest
	if !handlers.DecodeJSON(w, r, &req) {
		return
	}

	post, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r), req)
	if err != nil {
		handlers.HandleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, post)
}

// HandleDelete handles DELETE /posts/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Remove(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r)); err != nil {
		handlers.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleFind handles GET /posts.
// Filters: id, authorId, search, page, limit, sortBy, sortOrder.
func (h *Handler) HandleFind(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.service.Find(r.Context(), posts.Filter{
		ID:       q.Get("id"),
		AuthorID: q.Get("authorId"),
		Query:    handlers.ListQuery(r),
	})
	if err != nil {
		handlers.HandleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, page)
}

// HandleReact handles POST /posts/reactions.
// Body: { "parentId": "<post id>", "type": "LIKE" | "DISLIKE" | null }
func (h *Handler) HandleReact(w http.ResponseWriter, r *http.Request) {
	var in reactions.Input
	if !handlers.DecodeJSON(w, r, &in) {
		return
	}

	reaction, err := h.service.React(r.Context(), middleware.GetUserID(r), in)
	if err != nil {
		handlers.HandleServiceError(w, err)
		return
	}
	if reaction == nil {
		handlers.WriteJSON(w, http.StatusOK, map[string]any{"deleted": true})
		return
	}
	handlers.WriteJSON(w, http.StatusOK, reaction)
}
