package paymentrequest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/course-payments/internal/core/events"
	"github.com/frahmantamala/course-payments/internal/user"
)

const genericFailureMessage = "Failed to process payment request"

type ServiceAPI interface {
	List(ctx context.Context, filter string) (*ListResponse, error)
	Get(ctx context.Context, id int64) (*EnrichedRequest, error)
	Act(ctx context.Context, cmd ActionCommand) (Outcome, error)
	HasAccess(ctx context.Context, userID, collectionID int64) (bool, error)
}

// Service is the payment approval workflow.
type Service struct {
	repo      Repository
	users     user.Directory
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, users user.Directory, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		users:     users,
		publisher: publisher,
		logger:    logger,
	}
}

// List returns requests matching filter, newest first, each enriched with its owner's profile.
// Profile lookups never fail the listing.
func (s *Service) List(ctx context.Context, filter string) (*ListResponse, error) {
	applied, status, err := ParseFilter(filter)
	if err != nil {
		return nil, err
	}

	reqs, err := s.repo.List(ctx, status)
	if err != nil {
		s.logger.Error("failed to list payment requests", "filter", applied, "error", err)
		return nil, ErrStorage.WithCause(err)
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Error("failed to count payment requests", "error", err)
		return nil, ErrStorage.WithCause(err)
	}

	enriched := s.enrich(ctx, reqs)
	return &ListResponse{
		Success:  true,
		Total:    total,
		Filter:   applied,
		Count:    len(enriched),
		Requests: enriched,
	}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*EnrichedRequest, error) {
	if id <= 0 {
		return nil, ErrInvalidRequestID
	}

	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			return nil, ErrRequestNotFound
		}
		s.logger.Error("failed to get payment request", "request_id", id, "error", err)
		return nil, ErrStorage.WithCause(err)
	}

	return s.enrich(ctx, []*PaymentRequest{req})[0], nil
}

// Act applies an admin decision. The row is locked, the status written with an
// expected-previous-status guard, and the grant inserted or deleted, all in one transaction.
// The returned error is always an *internal.AppError; Outcome never carries storage details.
func (s *Service) Act(ctx context.Context, cmd ActionCommand) (Outcome, error) {
	if cmd.RequestID <= 0 {
		return Outcome{Success: false, Message: genericFailureMessage}, ErrInvalidRequestID
	}

	var decided PaymentRequest
	err := s.repo.WithinTx(ctx, func(tx TxRepository) error {
		req, err := tx.GetForUpdate(ctx, cmd.RequestID)
		if err != nil {
			return err
		}

		previous := req.Status
		effect, err := req.Apply(cmd.Action, cmd.Note, cmd.TransactionCode)
		if err != nil {
			return err
		}

		if err := tx.UpdateDecision(ctx, req, previous); err != nil {
			return err
		}

		switch effect {
		case GrantCreate:
			if err := tx.InsertGrant(ctx, AccessGrant{
				UserID:       req.UserID,
				CollectionID: req.CollectionID,
				GrantedBy:    cmd.ActorID,
			}); err != nil {
				return fmt.Errorf("insert access grant: %w", err)
			}
		case GrantDelete:
			if err := tx.DeleteGrant(ctx, req.UserID, req.CollectionID); err != nil {
				return fmt.Errorf("delete access grant: %w", err)
			}
		}

		decided = *req
		return nil
	})
	if err != nil {
		return s.failure(cmd, err)
	}

	s.logger.Info("payment request decided",
		"request_id", decided.ID,
		"action", cmd.Action,
		"status", decided.Status,
		"actor_id", cmd.ActorID)

	if s.publisher != nil {
		event := events.NewPaymentRequestDecidedEvent(decided.ID, decided.UserID, decided.CollectionID, cmd.Action, decided.Status, cmd.ActorID)
		if perr := s.publisher.Publish(ctx, event); perr != nil {
			s.logger.Warn("failed to publish decision event", "request_id", decided.ID, "error", perr)
		}
	}

	return Outcome{Success: true, Message: successMessage(cmd.Action)}, nil
}

func (s *Service) failure(cmd ActionCommand, err error) (Outcome, error) {
	attrs := []any{"request_id", cmd.RequestID, "action", cmd.Action, "actor_id", cmd.ActorID, "error", err}

	switch {
	case errors.Is(err, ErrRequestNotFound):
		s.logger.Warn("payment request action on unknown request", attrs...)
		return Outcome{Success: false, Message: "Payment request not found"}, ErrRequestNotFound
	case errors.Is(err, ErrInvalidAction):
		s.logger.Warn("payment request action rejected", attrs...)
		return Outcome{Success: false, Message: genericFailureMessage}, ErrInvalidAction
	case errors.Is(err, ErrDuplicateTransactionCode):
		s.logger.Warn("payment request action rolled back", attrs...)
		return Outcome{Success: false, Message: genericFailureMessage}, ErrDuplicateTransactionCode.WithCause(err)
	case errors.Is(err, ErrConcurrentUpdate):
		s.logger.Warn("payment request action rolled back", attrs...)
		return Outcome{Success: false, Message: genericFailureMessage}, ErrConcurrentUpdate.WithCause(err)
	default:
		s.logger.Error("payment request action failed", attrs...)
		return Outcome{Success: false, Message: genericFailureMessage}, ErrStorage.WithCause(err)
	}
}

func (s *Service) HasAccess(ctx context.Context, userID, collectionID int64) (bool, error) {
	ok, err := s.repo.HasGrant(ctx, userID, collectionID)
	if err != nil {
		s.logger.Error("failed to check access grant", "user_id", userID, "collection_id", collectionID, "error", err)
		return false, ErrStorage.WithCause(err)
	}
	return ok, nil
}

// enrich joins requests with user profiles from the separate users database.
// One batch lookup is tried first, then per-row lookups; misses get a placeholder name.
func (s *Service) enrich(ctx context.Context, reqs []*PaymentRequest) []*EnrichedRequest {
	out := make([]*EnrichedRequest, 0, len(reqs))
	if len(reqs) == 0 {
		return out
	}

	ids := make([]int64, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.UserID)
	}

	profiles, err := s.users.LookupMany(ctx, ids)
	if err != nil {
		s.logger.Warn("batch user lookup failed, falling back to per-row lookups", "count", len(ids), "error", err)
		profiles = s.lookupEach(ctx, ids)
	}

	for _, r := range reqs {
		e := &EnrichedRequest{PaymentRequest: r}
		if p, ok := profiles[r.UserID]; ok && p != nil {
			e.UserName = p.Name
			e.UserEmail = p.Email
			e.UserAvatar = p.AvatarURL
		} else {
			e.UserName = placeholderName(r.UserID)
		}
		out = append(out, e)
	}
	return out
}

func (s *Service) lookupEach(ctx context.Context, ids []int64) map[int64]*user.Profile {
	profiles := make(map[int64]*user.Profile, len(ids))
	for _, id := range ids {
		if _, done := profiles[id]; done {
			continue
		}
		p, err := s.users.Lookup(ctx, id)
		if err != nil {
			if !errors.Is(err, user.ErrNotFound) {
				s.logger.Warn("user lookup failed", "user_id", id, "error", err)
			}
			profiles[id] = nil
			continue
		}
		profiles[id] = p
	}
	return profiles
}

func placeholderName(userID int64) string {
	return fmt.Sprintf("User #%d", userID)
}
