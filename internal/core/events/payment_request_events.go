package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const EventTypePaymentRequestDecided = "payment_request.decided"

// PaymentRequestDecidedEvent is published after an admin action has been committed.
type PaymentRequestDecidedEvent struct {
	BaseEvent
	RequestID    int64  `json:"request_id"`
	UserID       int64  `json:"user_id"`
	CollectionID int64  `json:"collection_id"`
	Action       string `json:"action"`
	Status       string `json:"status"`
	ActorID      int64  `json:"actor_id"`
}

func NewPaymentRequestDecidedEvent(requestID, userID, collectionID int64, action, status string, actorID int64) *PaymentRequestDecidedEvent {
	return &PaymentRequestDecidedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentRequestDecided,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"request_id":    requestID,
				"user_id":       userID,
				"collection_id": collectionID,
				"action":        action,
				"status":        status,
				"actor_id":      actorID,
			},
		},
		RequestID:    requestID,
		UserID:       userID,
		CollectionID: collectionID,
		Action:       action,
		Status:       status,
		ActorID:      actorID,
	}
}

// AuditLogHandler writes one structured log line per decision.
func AuditLogHandler(logger *slog.Logger) Handler {
	return func(ctx context.Context, event Event) error {
		e, ok := event.(*PaymentRequestDecidedEvent)
		if !ok {
			return nil
		}
		logger.InfoContext(ctx, "payment request decided",
			"event_id", e.ID,
			"request_id", e.RequestID,
			"user_id", e.UserID,
			"collection_id", e.CollectionID,
			"action", e.Action,
			"status", e.Status,
			"actor_id", e.ActorID,
			"occurred_at", e.Timestamp)
		return nil
	}
}
