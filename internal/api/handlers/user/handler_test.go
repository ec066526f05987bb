package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"Inkwell/internal/api/middleware"
	"Inkwell/internal/core/apperr"
	"Inkwell/internal/core/listing"
	"Inkwell/internal/core/users"
)

// MockUserService is a mock implementation of users.UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Create(ctx context.Context, req users.CreateUserRequest) (*users.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id string) (*users.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockUserService) Find(ctx context.Context, filter users.Filter) (listing.Page[*users.User], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(listing.Page[*users.User]), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, id, currentUserID string, req users.UpdateUserRequest) (*users.User, error) {
	args := m.Called(ctx, id, currentUserID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockUserService) Remove(ctx context.Context, id, currentUserID string) error {
	args := m.Called(ctx, id, currentUserID)
	return args.Error(0)
}

func newRouter(service users.UserService) http.Handler {
	h := NewHandler(service)
	r := chi.NewRouter()
	r.Get("/users", h.HandleFind)
	r.Patch("/users/{id}", h.HandleUpdate)
	r.Delete("/users/{id}", h.HandleDelete)
	return r
}

func withUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.SetTestUserID(req.Context(), userID))
}

func TestHandleFind(t *testing.T) {
	service := new(MockUserService)
	page := listing.Page[*users.User]{Data: []*users.User{{ID: "u1", Username: "ink"}}, Total: 1, Page: 1, Limit: 10, TotalPages: 1}
	service.On("Find", mock.Anything, mock.MatchedBy(func(f users.Filter) bool {
		return f.Username == "ink" && f.Search == "ink" && f.Page == 1
	})).Return(page, nil)

	rr := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users?username=ink&search=ink&page=1", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var got listing.Page[*users.User]
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, 1, got.Total)
	require.Len(t, got.Data, 1)
	assert.Equal(t, "ink", got.Data[0].Username)
	service.AssertExpectations(t)
}

func TestHandleFind_OmitsSecrets(t *testing.T) {
	hash := "refresh-digest"
	service := new(MockUserService)
	service.On("Find", mock.Anything, mock.Anything).Return(listing.Page[*users.User]{
		Data: []*users.User{{ID: "u1", PasswordHash: "$2a$secret", RefreshTokenHash: &hash}},
	}, nil)

	rr := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "$2a$secret")
	assert.NotContains(t, rr.Body.String(), hash)
}

func TestHandleUpdate(t *testing.T) {
	t.Run("own account", func(t *testing.T) {
		service := new(MockUserService)
		name := "New Name"
		service.On("Update", mock.Anything, "u1", "u1", users.UpdateUserRequest{DisplayName: &name}).
			Return(&users.User{ID: "u1", DisplayName: &name}, nil)

		req := withUser(httptest.NewRequest(http.MethodPatch, "/users/u1", strings.NewReader(`{"displayName":"New Name"}`)), "u1")
		rr := httptest.NewRecorder()
		newRouter(service).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		service.AssertExpectations(t)
	})

	t.Run("someone else", func(t *testing.T) {
		service := new(MockUserService)
		service.On("Update", mock.Anything, "u2", "u1", mock.Anything).
			Return(nil, apperr.NewForbiddenError("user", "u2"))

		req := withUser(httptest.NewRequest(http.MethodPatch, "/users/u2", strings.NewReader(`{}`)), "u1")
		rr := httptest.NewRecorder()
		newRouter(service).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("username taken", func(t *testing.T) {
		service := new(MockUserService)
		service.On("Update", mock.Anything, "u1", "u1", mock.Anything).
			Return(nil, apperr.NewConflictError("user", "username already taken"))

		req := withUser(httptest.NewRequest(http.MethodPatch, "/users/u1", strings.NewReader(`{"username":"taken"}`)), "u1")
		rr := httptest.NewRecorder()
		newRouter(service).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Contains(t, rr.Body.String(), "username already taken")
	})

	t.Run("malformed body", func(t *testing.T) {
		service := new(MockUserService)

		req := withUser(httptest.NewRequest(http.MethodPatch, "/users/u1", strings.NewReader(`not json`)), "u1")
		rr := httptest.NewRecorder()
		newRouter(service).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		service.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestHandleDelete(t *testing.T) {
	t.Run("own account", func(t *testing.T) {
		service := new(MockUserService)
		service.On("Remove", mock.Anything, "u1", "u1").Return(nil)

		req := withUser(httptest.NewRequest(http.MethodDelete, "/users/u1", nil), "u1")
		rr := httptest.NewRecorder()
		newRouter(service).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		service.AssertExpectations(t)
	})

	t.Run("unknown user", func(t *testing.T) {
		service := new(MockUserService)
		service.On("Remove", mock.Anything, "missing", "u1").Return(apperr.NewNotFoundError("user", "missing"))

		req := withUser(httptest.NewRequest(http.MethodDelete, "/users/missing", nil), "u1")
		rr := httptest.NewRecorder()
		newRouter(service).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
