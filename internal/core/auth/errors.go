package auth

import "errors"

var (
	// ErrInvalidCredentials is returned when email or password do not match
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken is returned for malformed or wrongly signed tokens
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned for tokens past their expiry
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenRevoked is returned when a refresh token is not the one on record
	ErrTokenRevoked = errors.New("invalid or revoked refresh token")

	// ErrNotLoggedIn is returned by logout when there is no session to end
	ErrNotLoggedIn = errors.New("no active session")
)

// IsUnauthorized reports whether err should be answered with 401
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenRevoked) ||
		errors.Is(err, ErrNotLoggedIn)
}
