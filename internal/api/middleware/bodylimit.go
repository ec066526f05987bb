package middleware

import "net/http"

// Request body limits
const (
	DefaultBodyLimit    int64 = 100 << 10
	AttachmentBodyLimit int64 = 10 << 20
)

// MaxBody caps the request body at n bytes. Reading past the cap fails with
// *http.MaxBytesError, which handlers answer with 413.
func MaxBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > n {
				http.Error(w, "Request body is too large", http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}
