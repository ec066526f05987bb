package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Inkwell/internal/api/handlers"
	"Inkwell/internal/api/middleware"
	"Inkwell/internal/core/users"
)

// Handler serves the /users endpoints
type Handler struct {
	userService users.UserService
}

// NewHandler creates a new user handler
func NewHandler(userService users.UserService) *Handler {
	return &Handler{userService: userService}
}

// HandleFind handles GET /users.
// Filters: id, email, username, search, page, limit, sortBy, sortOrder.
func (h *Handler) HandleFind(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.userService.Find(r.Context(), users.Filter{
		ID:       q.Get("id"),
		Email:    q.Get("email"),
		Username: q.Get("username"),
		Query:    handlers.ListQuery(r),
	})
	if err != nil {
		handlers.HandleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, page)
}

// HandleUpdate handles PATCH /users/{id}. Only the caller's own account can change.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req users.UpdateUserRequest
	if !handlers.DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.Update(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r), req)
	if err != nil {
		handlers.HandleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, user)
}

// HandleDelete handles DELETE /users/{id}.
// Everything the user authored, media included, is removed first.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.Remove(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r)); err != nil {
		handlers.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
