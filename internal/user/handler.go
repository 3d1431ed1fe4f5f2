package user

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/course-payments/internal"
	"github.com/frahmantamala/course-payments/internal/auth"
	"github.com/frahmantamala/course-payments/internal/transport"
	"github.com/frahmantamala/course-payments/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteForbidden(w)
		return
	}

	ctx, cancel := internal.WithTimeout(r.Context(), 0)
	defer cancel()

	p, err := h.Service.GetByID(ctx, id.SubjectID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.WriteAppError(w, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound))
			return
		}
		h.Logger.Error("GetCurrentUser: lookup failed", "user_id", id.SubjectID, "error", err)
		h.WriteAppError(w, internal.NewInternalError("internal server error", err))
		return
	}

	h.WriteJSON(w, http.StatusOK, ProfileResponse{Success: true, User: p})
}
