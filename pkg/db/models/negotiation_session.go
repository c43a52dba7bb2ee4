package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odalechea/procureflow-backend/pkg/enums"
)

// NegotiationSession is one vendor's round-based offer exchange for one order.
type NegotiationSession struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID          uuid.UUID               `gorm:"column:tenant_id;type:uuid;not null;index"`
	OrderID           uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	VendorID          uuid.UUID               `gorm:"column:vendor_id;type:uuid;not null"`
	Status            enums.NegotiationStatus `gorm:"column:status;type:negotiation_status;not null;default:'open'"`
	Round             int                     `gorm:"column:round;not null;default:0"`
	InitialPrice      decimal.Decimal         `gorm:"column:initial_price;type:numeric(14,2);not null"`
	InitialLeadDays   int                     `gorm:"column:initial_lead_days;not null"`
	LatestPrice       decimal.Decimal         `gorm:"column:latest_price;type:numeric(14,2);not null"`
	LatestLeadDays    int                     `gorm:"column:latest_lead_days;not null"`
	Deadline          *time.Time              `gorm:"column:deadline"`
	EscalationID      *string                 `gorm:"column:escalation_id"`
	EscalationLevel   *enums.EscalationLevel  `gorm:"column:escalation_level;type:escalation_level"`
	EscalationReason  *string                 `gorm:"column:escalation_reason"`
	Notes             *string                 `gorm:"column:notes"`
	ClosedAt          *time.Time              `gorm:"column:closed_at"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
