package paymentrequest

import "time"

type PaymentRequest struct {
	ID              int64     `gorm:"primaryKey"`
	UserID          int64     `gorm:"column:user_id;not null;index"`
	CollectionID    int64     `gorm:"column:collection_id;not null;index"`
	ScreenshotPath  string    `gorm:"column:screenshot_path;not null"`
	Status          string    `gorm:"column:status;not null;default:pending;index"`
	TransactionCode *string   `gorm:"column:transaction_code;uniqueIndex"`
	AIStatus        string    `gorm:"column:ai_status;not null;default:pending"`
	AIResponse      *string   `gorm:"column:ai_response"`
	Remarks         *string   `gorm:"column:remarks"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (PaymentRequest) TableName() string {
	return "payment_requests"
}

type AccessGrant struct {
	ID           int64     `gorm:"primaryKey"`
	UserID       int64     `gorm:"column:user_id;not null;uniqueIndex:idx_access_grants_user_collection"`
	CollectionID int64     `gorm:"column:collection_id;not null;uniqueIndex:idx_access_grants_user_collection"`
	GrantedBy    int64     `gorm:"column:granted_by;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (AccessGrant) TableName() string {
	return "access_grants"
}
