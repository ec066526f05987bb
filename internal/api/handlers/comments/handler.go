package comments

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Inkwell/internal/api/handlers"
	"Inkwell/internal/api/middleware"
	"Inkwell/internal/core/comments"
	"Inkwell/internal/core/reactions"
)

// Handler serves the /comments endpoints
type Handler struct {
	service comments.Service
}

// NewHandler creates a new comment handler
func NewHandler(service comments.Service) *Handler {
	return &Handler{service: service}
}

// HandleCreate handles POST /comments
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req comments.CreateRequest
	if !handlers.DecodeJSON(w, r, &req) {
		return
	}

	comment, err := h.service.Create(r.Context(), middleware.GetUserID(r), req)
	if err != nil {
		handlers.HandleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, comment)
}

// HandleUpdate handles PATCH /comments/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req comments.UpdateRequest
	if !handlers.DecodeJSON(w, r, &req) {
		return
	}

	comment, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r), req)
	if err != nil {
		handlers.HandleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, comment)
}

// HandleDelete handles DELETE /comments/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Remove(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r)); err != nil {
		handlers.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleFind handles GET /comments.
// Without parentCommentId only top-level comments are listed.
func (h *Handler) HandleFind(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.service.Find(r.Context(), comments.Filter{
		ParentCommentID: handlers.OptionalParam(r, "parentCommentId"),
		ID:              q.Get("id"),
		AuthorID:        q.Get("authorId"),
		PostID:          q.Get("postId"),
		Query:           handlers.ListQuery(r),
	})
	if err != nil {
		handlers.HandleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, page)
}

// HandleReact handles POST /comments/reactions
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
