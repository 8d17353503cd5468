package middleware

import (
	"net/http"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/pkg/logger"
)

// SubjectContext tags the request logger with the authenticated subject.
// It must run after the auth gate.
func SubjectContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := internal.SubjectFromContext(r.Context())
		if subject == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := logger.With(r.Context(), "subject", subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
