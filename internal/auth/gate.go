package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/metrics"
	"github.com/frahmantamala/employee-directory/internal/transport"
)

// bearerScheme is stripped from the Authorization header before verification.
const bearerScheme = "Bearer"

// TokenVerifier is the part of TokenService the gate depends on.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Gate admits requests carrying a valid bearer token and rejects the rest
// with 401. Callers never learn why a token was refused.
type Gate struct {
	*transport.BaseHandler
	verifier TokenVerifier
	metrics  *metrics.Metrics
}

func NewGate(verifier TokenVerifier, m *metrics.Metrics, lg *slog.Logger) *Gate {
	return &Gate{
		BaseHandler: transport.NewBaseHandler(lg),
		verifier:    verifier,
		metrics:     m,
	}
}

// ExtractToken returns the token from an Authorization header value, or ""
// when none is present.
func ExtractToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	n := len(bearerScheme)
	if len(header) >= n && strings.EqualFold(header[:n], bearerScheme) && (len(header) == n || header[n] == ' ') {
		return strings.TrimSpace(header[n:])
	}
	return header
}

// Authenticate resolves the subject for a credential header value.
func (g *Gate) Authenticate(header string) (Identity, error) {
	token := ExtractToken(header)
	if token == "" {
		g.metrics.ObserveGateRejection(metrics.ReasonMissing)
		return Identity{}, internal.ErrNoToken
	}

	subject, err := g.verifier.Verify(token)
	if err != nil {
		g.metrics.ObserveGateRejection(rejectionReason(err))
		return Identity{}, internal.ErrInvalidToken.WithCause(err)
	}
	return Identity{Subject: subject}, nil
}

// Middleware is the authenticate stage of every protected route.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := g.Authenticate(r.Header.Get("Authorization"))
		if err != nil {
			g.Logger.Warn("auth gate: request rejected", "path", r.URL.Path, "reason", err.Error())
			g.HandleServiceError(w, err)
			return
		}

		ctx := ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrExpired):
		return metrics.ReasonExpired
	case errors.Is(err, ErrInvalidSignature):
		return metrics.ReasonSignature
	default:
		return metrics.ReasonMalformed
	}
}
