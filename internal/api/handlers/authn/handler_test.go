package authn

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"Inkwell/internal/api/middleware"
	"Inkwell/internal/core/apperr"
	"Inkwell/internal/core/auth"
	"Inkwell/internal/core/users"
)

type mockAuthService struct {
	registerFunc func(ctx context.Context, req users.CreateUserRequest) (*auth.TokenPair, error)
	loginFunc    func(ctx context.Context, req auth.LoginRequest) (*auth.TokenPair, error)
	logoutFunc   func(ctx context.Context, userID string) error
	refreshFunc  func(ctx context.Context, refreshToken string) (*auth.AccessToken, error)
}

func (m *mockAuthService) Register(ctx context.Context, req users.CreateUserRequest) (*auth.TokenPair, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, req)
	}
	return &auth.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (m *mockAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.TokenPair, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, req)
	}
	return &auth.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (m *mockAuthService) Logout(ctx context.Context, userID string) error {
	if m.logoutFunc != nil {
		return m.logoutFunc(ctx, userID)
	}
	return nil
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*auth.AccessToken, error) {
	if m.refreshFunc != nil {
		return m.refreshFunc(ctx, refreshToken)
	}
	return &auth.AccessToken{AccessToken: "access-2"}, nil
}

func TestHandleRegister(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		var got users.CreateUserRequest
		h := NewHandler(&mockAuthService{
			registerFunc: func(ctx context.Context, req users.CreateUserRequest) (*auth.TokenPair, error) {
				got = req
				return &auth.TokenPair{AccessToken: "a", RefreshToken: "r"}, nil
			},
		})

		body := `{"email":"ink@example.com","username":"ink","password":"secret123"}`
		rr := httptest.NewRecorder()
		h.HandleRegister(rr, httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(body)))

		if rr.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", rr.Code)
		}
		if got.Email != "ink@example.com" || got.Username != "ink" {
			t.Errorf("unexpected request: %+v", got)
		}
		var pair auth.TokenPair
		if err := json.NewDecoder(rr.Body).Decode(&pair); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if pair.AccessToken != "a" || pair.RefreshToken != "r" {
			t.Errorf("unexpected tokens: %+v", pair)
		}
	})

	t.Run("taken", func(t *testing.T) {
		h := NewHandler(&mockAuthService{
			registerFunc: func(ctx context.Context, req users.CreateUserRequest) (*auth.TokenPair, error) {
				return nil, apperr.NewConflictError("user", "email already registered")
			},
		})

		rr := httptest.NewRecorder()
		h.HandleRegister(rr, httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(`{}`)))

		if rr.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rr.Code)
		}
	})
}

func TestHandleLogin_BadCredentials(t *testing.T) {
	h := NewHandler(&mockAuthService{
		loginFunc: func(ctx context.Context, req auth.LoginRequest) (*auth.TokenPair, error) {
			return nil, auth.ErrInvalidCredentials
		},
	})

	rr := httptest.NewRecorder()
	h.HandleLogin(rr, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"x@y.z","password":"nope"}`)))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestHandleLogout_UsesCaller(t *testing.T) {
	var got string
	h := NewHandler(&mockAuthService{
		logoutFunc: func(ctx context.Context, userID string) error {
			got = userID
			return nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req = req.WithContext(middleware.SetTestUserID(req.Context(), "u1"))
	rr := httptest.NewRecorder()
	h.HandleLogout(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rr.Code)
	}
	if got != "u1" {
		t.Errorf("user = %q, want u1", got)
	}
}

func TestHandleRefresh(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		h := NewHandler(&mockAuthService{})
		rr := httptest.NewRecorder()
		h.HandleRefresh(rr, httptest.NewRequest(http.MethodPost, "/auth/refresh", nil))

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
	})

	t.Run("bearer refresh token", func(t *testing.T) {
		var got string
		h := NewHandler(&mockAuthService{
			refreshFunc: func(ctx context.Context, refreshToken string) (*auth.AccessToken, error) {
				got = refreshToken
				return &auth.AccessToken{AccessToken: "fresh"}, nil
			},
		})

		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
		req.Header.Set("Authorization", "Bearer refresh-token")
		rr := httptest.NewRecorder()
		h.HandleRefresh(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
		if got != "refresh-token" {
			t.Errorf("token = %q", got)
		}
	})

	t.Run("revoked", func(t *testing.T) {
		h := NewHandler(&mockAuthService{
			refreshFunc: func(ctx context.Context, refreshToken string) (*auth.AccessToken, error) {
				return nil, auth.ErrTokenRevoked
			},
		})

		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
		req.Header.Set("Authorization", "Bearer stale")
		rr := httptest.NewRecorder()
		h.HandleRefresh(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
	})
}
