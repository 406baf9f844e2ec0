package middlewarex

import (
	"net/http"
	"strings"
)

// UserAuth pulls the caller identity from the X-User-ID header and puts
// it on the request context. The gateway in front of this service does
// the actual authentication; here we only require that an identity was
// forwarded.
func UserAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
			if userID == "" {
				http.Error(w, "missing X-User-ID", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
