package paymentrequest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/course-payments/internal"
	prDatamodel "github.com/frahmantamala/course-payments/internal/core/datamodel/paymentrequest"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"

	FilterAll = "all"

	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionRevoke  = "revoke"

	AIStatusPending  = "pending"
	AIStatusVerified = "verified"
	AIStatusFailed   = "failed"
)

type PaymentRequest struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	CollectionID    int64     `json:"collection_id"`
	ScreenshotPath  string    `json:"screenshot_path"`
	Status          string    `json:"status"`
	TransactionCode *string   `json:"transaction_code"`
	AIStatus        string    `json:"ai_status"`
	AIResponse      *string   `json:"ai_response"`
	Remarks         *string   `json:"remarks"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EnrichedRequest is a payment request joined in memory with its owner's profile.
type EnrichedRequest struct {
	*PaymentRequest
	UserName   string `json:"user_name"`
	UserEmail  string `json:"user_email"`
	UserAvatar string `json:"user_avatar"`
}

type AccessGrant struct {
	UserID       int64     `json:"user_id"`
	CollectionID int64     `json:"collection_id"`
	GrantedBy    int64     `json:"granted_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// ActionCommand is one admin decision on a payment request.
type ActionCommand struct {
	RequestID       int64
	Action          string
	Note            string
	TransactionCode string
	ActorID         int64
}

// Outcome is the uniform result of Act.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// GrantEffect is the access-grant side effect of a transition.
type GrantEffect int

const (
	GrantNone GrantEffect = iota
	GrantCreate
	GrantDelete
)

// Repository is the payment store. Reads outside WithinTx take no locks.
type Repository interface {
	Create(ctx context.Context, req *PaymentRequest) error
	GetByID(ctx context.Context, id int64) (*PaymentRequest, error)
	// List returns requests newest first. An empty status means every status.
	List(ctx context.Context, status string) ([]*PaymentRequest, error)
	Count(ctx context.Context) (int64, error)
	HasGrant(ctx context.Context, userID, collectionID int64) (bool, error)
	// WithinTx commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx TxRepository) error) error
}

// TxRepository is the store as seen from inside a transaction.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (*PaymentRequest, error)
	// UpdateDecision writes status, remarks and transaction code only if the row still has expectedStatus.
	UpdateDecision(ctx context.Context, req *PaymentRequest, expectedStatus string) error
	// InsertGrant is a no-op when the (user, collection) pair is already granted.
	InsertGrant(ctx context.Context, grant AccessGrant) error
	DeleteGrant(ctx context.Context, userID, collectionID int64) error
}

var (
	ErrRequestNotFound          = internal.NewNotFoundError("payment request not found", internal.ErrCodeRequestNotFound)
	ErrInvalidAction            = internal.NewValidationError("invalid action", internal.ErrCodeInvalidAction)
	ErrInvalidFilter            = internal.NewValidationError("status must be one of pending, approved, rejected, all", internal.ErrCodeInvalidFilter)
	ErrInvalidRequestID         = internal.NewValidationError("request_id must be a positive integer", internal.ErrCodeInvalidRequestID)
	ErrConcurrentUpdate         = internal.NewConflictError("payment request was modified concurrently", internal.ErrCodeConcurrentUpdate)
	ErrDuplicateTransactionCode = internal.NewConflictError("transaction code already used", internal.ErrCodeDuplicateTransaction)
	ErrStorage                  = &internal.AppError{
		Type:       internal.ErrorTypeInternal,
		Code:       internal.ErrCodeStorageFailure,
		Message:    "payment store failure",
		StatusCode: http.StatusInternalServerError,
	}
)

// ParseFilter maps the listing query value to a status. Empty means pending; "all" maps to "".
func ParseFilter(raw string) (filter string, status string, err error) {
	switch f := strings.ToLower(strings.TrimSpace(raw)); f {
	case "":
		return StatusPending, StatusPending, nil
	case StatusPending, StatusApproved, StatusRejected:
		return f, f, nil
	case FilterAll:
		return FilterAll, "", nil
	default:
		return "", "", ErrInvalidFilter
	}
}

// Apply moves the request to the state the action leads to and reports the grant side effect.
// Every action is accepted from every status.
func (p *PaymentRequest) Apply(action, note, transactionCode string) (GrantEffect, error) {
	switch action {
	case ActionApprove:
		p.Status = StatusApproved
		p.Remarks = optional(note)
		if code := strings.TrimSpace(transactionCode); code != "" {
			p.TransactionCode = &code
		}
		return GrantCreate, nil
	case ActionReject:
		p.Status = StatusRejected
		p.Remarks = optional(note)
		return GrantNone, nil
	case ActionRevoke:
		p.Status = StatusRejected
		p.Remarks = optional(note)
		return GrantDelete, nil
	default:
		return GrantNone, ErrInvalidAction
	}
}

func successMessage(action string) string {
	switch action {
	case ActionApprove:
		return "Payment request approved"
	case ActionReject:
		return "Payment request rejected"
	case ActionRevoke:
		return "Payment request revoked"
	}
	return "Payment request updated"
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func ToDataModel(p *PaymentRequest) *prDatamodel.PaymentRequest {
	return &prDatamodel.PaymentRequest{
		ID:              p.ID,
		UserID:          p.UserID,
		CollectionID:    p.CollectionID,
		ScreenshotPath:  p.ScreenshotPath,
		Status:          p.Status,
		TransactionCode: p.TransactionCode,
		AIStatus:        p.AIStatus,
		AIResponse:      p.AIResponse,
		Remarks:         p.Remarks,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func FromDataModel(p *prDatamodel.PaymentRequest) *PaymentRequest {
	return &PaymentRequest{
		ID:              p.ID,
		UserID:          p.UserID,
		CollectionID:    p.CollectionID,
		ScreenshotPath:  p.ScreenshotPath,
		Status:          p.Status,
		TransactionCode: p.TransactionCode,
		AIStatus:        p.AIStatus,
		AIResponse:      p.AIResponse,
		Remarks:         p.Remarks,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func FromDataModelSlice(rows []*prDatamodel.PaymentRequest) []*PaymentRequest {
	result := make([]*PaymentRequest, len(rows))
	for i, r := range rows {
		result[i] = FromDataModel(r)
	}
	return result
}
