package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"Inkwell/internal/core/auth"
)

// Context keys for storing user information
type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	EmailKey     contextKey = "user_email"
	JWTClaimsKey contextKey = "jwt_claims"
)

// TokenParser verifies access tokens
type TokenParser interface {
	ParseAccess(token string) (*auth.Claims, error)
}

// AuthMiddleware enforces bearer access tokens on protected routes
type AuthMiddleware struct {
	tokens TokenParser
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(tokens TokenParser) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth ensures the request carries a valid access token.
// If not authenticated, returns 401; otherwise injects the user id and claims into the context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r)
		if !ok {
			writeAuthError(w, "Missing or malformed Authorization header. Expected: Bearer <token>")
			return
		}

		claims, err := m.tokens.ParseAccess(token)
		if err != nil {
			log.Printf("[AUTH_FAILURE] ip=%s method=%s path=%s error=%v",
				r.RemoteAddr, r.Method, r.URL.Path, err)
			if errors.Is(err, auth.ErrTokenExpired) {
				writeAuthError(w, "Token has expired")
				return
			}
			writeAuthError(w, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.Subject)
		ctx = context.WithValue(ctx, EmailKey, claims.Email)
		ctx = context.WithValue(ctx, JWTClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BearerToken extracts the token from an "Authorization: Bearer" header
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

// GetUserID extracts the authenticated user's id from the request context.
// Returns empty string if not authenticated.
func GetUserID(r *http.Request) string {
	id, _ := r.Context().Value(UserIDKey).(string)
	return id
}

// GetJWTClaims extracts the JWT claims from the request context
func GetJWTClaims(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(JWTClaimsKey).(*auth.Claims)
	return claims
}

// SetTestUserID sets the user id in the context for testing purposes.
// This function should ONLY be used in tests to mock authenticated users.
func SetTestUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// writeAuthError writes a JSON error response for authentication failures
func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	response := `{"error":"AuthenticationRequired","message":"` + message + `"}`
	if _, err := w.Write([]byte(response)); err != nil {
		log.Printf("Failed to write auth error response: %v", err)
	}
}
