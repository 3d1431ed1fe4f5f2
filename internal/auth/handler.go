package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/course-payments/internal"
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

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}

	tokens, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.WriteAppError(w, internal.NewUnauthorizedError("invalid credentials", internal.ErrCodeInvalidCredentials))
			return
		}
		if appErr, ok := internal.IsAppError(err); ok {
			h.WriteAppError(w, appErr)
			return
		}
		h.Logger.Error("login failed", "error", err)
		h.WriteAppError(w, internal.NewInternalError("internal server error", err))
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

// AuthMiddleware verifies the bearer credential and stores the caller identity in the request context.
// A missing header is treated the same as an invalid credential.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.Logger.Warn("auth middleware: missing authorization token", "path", r.URL.Path)
			h.WriteForbidden(w)
			return
		}

		id, err := h.Service.Verify(token)
		if err != nil {
			h.Logger.Warn("auth middleware: token rejected", "path", r.URL.Path, "error", err)
			h.WriteForbidden(w)
			return
		}

		ctx := WithIdentity(r.Context(), id)
		ctx = logger.With(ctx, "subject_id", id.SubjectID, "role", id.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
