package paymentrequest

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/course-payments/internal"
	"github.com/frahmantamala/course-payments/internal/auth"
	"github.com/frahmantamala/course-payments/internal/transport"
	"github.com/frahmantamala/course-payments/pkg/logger"
)

const maxFormMemory = 1 << 20

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

// List handles GET /admin/payment-requests?status=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := internal.WithTimeout(r.Context(), 0)
	defer cancel()

	res, err := h.Service.List(ctx, r.URL.Query().Get("status"))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, res)
}

// Get handles GET /admin/payment-requests/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.WriteAppError(w, ErrInvalidRequestID)
		return
	}

	ctx, cancel := internal.WithTimeout(r.Context(), 0)
	defer cancel()

	req, err := h.Service.Get(ctx, id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, DetailResponse{Success: true, Request: req})
}

// Act handles POST /admin/payment-requests/action. The body is a form or JSON; the response is always an Outcome.
func (h *Handler) Act(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteForbidden(w)
		return
	}

	dto, err := h.decodeAction(r)
	if err != nil {
		h.writeOutcomeError(w, err)
		return
	}
	if err := dto.Validate(); err != nil {
		h.writeOutcomeError(w, err)
		return
	}

	ctx, cancel := internal.WithTimeout(r.Context(), 0)
	defer cancel()

	outcome, err := h.Service.Act(ctx, dto.ToCommand(id.SubjectID))
	if err != nil {
		status := http.StatusInternalServerError
		if appErr, ok := internal.IsAppError(err); ok {
			status = appErr.StatusCode
		}
		h.WriteJSON(w, status, outcome)
		return
	}
	h.WriteJSON(w, http.StatusOK, outcome)
}

// HasAccess handles GET /collections/{id}/access for the calling user.
func (h *Handler) HasAccess(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteForbidden(w)
		return
	}

	collectionID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || collectionID <= 0 {
		h.WriteAppError(w, internal.NewValidationError("collection id must be a positive integer", internal.ErrCodeValidationFailed))
		return
	}

	ctx, cancel := internal.WithTimeout(r.Context(), 0)
	defer cancel()

	has, err := h.Service.HasAccess(ctx, id.SubjectID, collectionID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, AccessResponse{Success: true, CollectionID: collectionID, HasAccess: has})
}

func (h *Handler) decodeAction(r *http.Request) (ActionDTO, error) {
	var dto ActionDTO

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			return dto, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed)
		}
		return dto, nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return dto, internal.NewValidationError("invalid form body", internal.ErrCodeValidationFailed)
		}
	default:
		if err := r.ParseForm(); err != nil {
			return dto, internal.NewValidationError("invalid form body", internal.ErrCodeValidationFailed)
		}
	}

	if raw := strings.TrimSpace(r.FormValue("request_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return dto, ErrInvalidRequestID
		}
		dto.RequestID = id
	}
	dto.Action = strings.TrimSpace(r.FormValue("action"))
	dto.Note = r.FormValue("note")
	dto.TransactionCode = r.FormValue("transaction_code")
	return dto, nil
}

func (h *Handler) writeOutcomeError(w http.ResponseWriter, err error) {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		appErr = internal.NewInternalError("internal server error", err)
	}
	h.Logger.Warn("payment request action refused", "code", appErr.Code, "message", appErr.GetDetailedMessage())
	h.WriteJSON(w, appErr.StatusCode, Outcome{Success: false, Message: appErr.GetDetailedMessage()})
}
