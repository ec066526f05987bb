// Package authn serves registration, login, logout and token refresh.
package authn

import (
	"context"
	"net/http"

	"Inkwell/internal/api/handlers"
	"Inkwell/internal/api/middleware"
	"Inkwell/internal/core/auth"
	"Inkwell/internal/core/users"
)

// Service is the part of auth.Service the handlers use
type Service interface {
	Register(ctx context.Context, req users.CreateUserRequest) (*auth.TokenPair, error)
	Login(ctx context.Context, req auth.LoginRequest) (*auth.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, refreshToken string) (*auth.AccessToken, error)
}

// Handler serves the /auth endpoints
type Handler struct {
	service Service
}

// NewHandler creates a new auth handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// HandleRegister handles POST /auth/register
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req users.CreateUserRequest
	if !handlers.DecodeJSON(w, r, &req) {
		return
	}

	pair, err := h.service.Register(r.Context(), req)
	if err != nil {
		handlers.HandleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, pair)
}

// HandleLogin handles POST /auth/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if !handlers.DecodeJSON(w, r, &req) {
		return
	}

	pair, err := h.service.Login(r.Context(), req)
	if err != nil {
		handlers.HandleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, pair)
}

// HandleLogout handles POST /auth/logout (access token required)
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), middleware.GetUserID(r)); err != nil {
		handlers.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRefresh handles POST /auth/refresh with the refresh token as bearer
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthenticationRequired", "Refresh token required")
		return
	}

	access, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		handlers.HandleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, access)
}
