package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	prDatamodel "github.com/frahmantamala/course-payments/internal/core/datamodel/paymentrequest"
	"github.com/frahmantamala/course-payments/internal/paymentrequest"
)

// PaymentRequestRepository implements paymentrequest.Repository using GORM.
// The *gorm.DB must be opened with TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
type PaymentRequestRepository struct {
	db *gorm.DB
}

func NewPaymentRequestRepository(db *gorm.DB) paymentrequest.Repository {
	return &PaymentRequestRepository{db: db}
}

func (r *PaymentRequestRepository) Create(ctx context.Context, req *paymentrequest.PaymentRequest) error {
	row := paymentrequest.ToDataModel(req)
	if row.Status == "" {
		row.Status = paymentrequest.StatusPending
	}
	if row.AIStatus == "" {
		row.AIStatus = paymentrequest.AIStatusPending
	}

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return paymentrequest.ErrDuplicateTransactionCode.WithCause(err)
		}
		return fmt.Errorf("create payment request: %w", err)
	}

	*req = *paymentrequest.FromDataModel(row)
	return nil
}

func (r *PaymentRequestRepository) GetByID(ctx context.Context, id int64) (*paymentrequest.PaymentRequest, error) {
	return getByID(r.db.WithContext(ctx), id)
}

func (r *PaymentRequestRepository) List(ctx context.Context, status string) ([]*paymentrequest.PaymentRequest, error) {
	var rows []*prDatamodel.PaymentRequest
	q := r.db.WithContext(ctx).Model(&prDatamodel.PaymentRequest{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list payment requests: %w", err)
	}
	return paymentrequest.FromDataModelSlice(rows), nil
}

func (r *PaymentRequestRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&prDatamodel.PaymentRequest{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count payment requests: %w", err)
	}
	return n, nil
}

func (r *PaymentRequestRepository) HasGrant(ctx context.Context, userID, collectionID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&prDatamodel.AccessGrant{}).
		Where("user_id = ? AND collection_id = ?", userID, collectionID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check access grant: %w", err)
	}
	return n > 0, nil
}

func (r *PaymentRequestRepository) WithinTx(ctx context.Context, fn func(tx paymentrequest.TxRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txRepository{db: tx})
	})
}

type txRepository struct {
	db *gorm.DB
}

// GetForUpdate takes a row lock on Postgres. SQLite has no row locks and the driver drops the clause.
func (t *txRepository) GetForUpdate(ctx context.Context, id int64) (*paymentrequest.PaymentRequest, error) {
	return getByID(t.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (t *txRepository) UpdateDecision(ctx context.Context, req *paymentrequest.PaymentRequest, expectedStatus string) error {
	res := t.db.WithContext(ctx).
		Model(&prDatamodel.PaymentRequest{}).
		Where("id = ? AND status = ?", req.ID, expectedStatus).
		Updates(map[string]interface{}{
			"status":           req.Status,
			"remarks":          req.Remarks,
			"transaction_code": req.TransactionCode,
			"updated_at":       time.Now(),
		})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return paymentrequest.ErrDuplicateTransactionCode.WithCause(res.Error)
		}
		return fmt.Errorf("update payment request %d: %w", req.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return paymentrequest.ErrConcurrentUpdate
	}
	return nil
}

func (t *txRepository) InsertGrant(ctx context.Context, grant paymentrequest.AccessGrant) error {
	row := &prDatamodel.AccessGrant{
		UserID:       grant.UserID,
		CollectionID: grant.CollectionID,
		GrantedBy:    grant.GrantedBy,
	}
	return t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "collection_id"}},
			DoNothing: true,
		}).
		Create(row).Error
}

func (t *txRepository) DeleteGrant(ctx context.Context, userID, collectionID int64) error {
	return t.db.WithContext(ctx).
		Where("user_id = ? AND collection_id = ?", userID, collectionID).
		Delete(&prDatamodel.AccessGrant{}).Error
}

func getByID(db *gorm.DB, id int64) (*paymentrequest.PaymentRequest, error) {
	var row prDatamodel.PaymentRequest
	if err := db.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, paymentrequest.ErrRequestNotFound
		}
		return nil, fmt.Errorf("get payment request %d: %w", id, err)
	}
	return paymentrequest.FromDataModel(&row), nil
}
