package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/account"
	"github.com/frahmantamala/employee-directory/internal/transport"
)

type ServiceAPI interface {
	Register(ctx context.Context, dto RegisterDTO) (string, error)
	Login(ctx context.Context, dto LoginDTO) (string, error)
	CurrentAccount(ctx context.Context, subject string) (*account.Account, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI, lg *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// Register handles POST /users/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	token, err := h.Service.Register(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("registration failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, AuthResponseV1{Token: token})
}

// Login handles POST /users/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	token, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("authentication failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, AuthResponseV1{Token: token})
}

// Me handles GET /users/me; it must run behind the gate.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrNoToken)
		return
	}

	acc, err := h.Service.CurrentAccount(r.Context(), identity.Subject)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, AccountView{ID: acc.ID, Email: acc.Email})
}
