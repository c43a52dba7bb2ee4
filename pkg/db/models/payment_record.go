package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odalechea/procureflow-backend/pkg/enums"
)

// PaymentRecord is an append-only ledger entry against an order. There is no
// correction or void row; reversals are the refund collaborator's problem.
type PaymentRecord struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID   uuid.UUID           `gorm:"column:tenant_id;type:uuid;not null;index"`
	OrderID    uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	Amount     decimal.Decimal     `gorm:"column:amount;type:numeric(14,2);not null"`
	Method     enums.PaymentMethod `gorm:"column:method;type:payment_method;not null"`
	Reference  string              `gorm:"column:reference;not null"`
	RecordedBy uuid.UUID           `gorm:"column:recorded_by;type:uuid;not null"`
	RecordedAt time.Time           `gorm:"column:recorded_at;autoCreateTime"`
}
