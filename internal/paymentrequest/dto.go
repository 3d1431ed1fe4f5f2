package paymentrequest

import "github.com/frahmantamala/course-payments/internal/core/common/validation"

// ActionDTO is the body of POST /admin/payment-requests/action, sent as a form or as JSON.
type ActionDTO struct {
	RequestID       int64  `json:"request_id" form:"request_id" validate:"gt=0"`
	Action          string `json:"action" form:"action" validate:"required"`
	Note            string `json:"note" form:"note" validate:"max=2000"`
	TransactionCode string `json:"transaction_code" form:"transaction_code" validate:"max=100"`
}

func (d ActionDTO) Validate() error {
	return validation.Struct(d)
}

func (d ActionDTO) ToCommand(actorID int64) ActionCommand {
	return ActionCommand{
		RequestID:       d.RequestID,
		Action:          d.Action,
		Note:            d.Note,
		TransactionCode: d.TransactionCode,
		ActorID:         actorID,
	}
}

type ListResponse struct {
	Success  bool               `json:"success"`
	Total    int64              `json:"total"`
	Filter   string             `json:"filter"`
	Count    int                `json:"count"`
	Requests []*EnrichedRequest `json:"requests"`
}

type DetailResponse struct {
	Success bool             `json:"success"`
	Request *EnrichedRequest `json:"request"`
}

type AccessResponse struct {
	Success      bool  `json:"success"`
	CollectionID int64 `json:"collection_id"`
	HasAccess    bool  `json:"has_access"`
}
