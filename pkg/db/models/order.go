package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odalechea/procureflow-backend/pkg/enums"
)

// Order is the purchase order aggregate driven by the stage state machine.
//
// VendorID, VendorQuotedPrice, and QuotationAmount are populated together
// when a negotiation concludes; partial population is an inconsistency the
// stage guards reject. Version backs the optimistic-lock Save contract.
type Order struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID           uuid.UUID           `gorm:"column:tenant_id;type:uuid;not null;index"`
	CustomerID         uuid.UUID           `gorm:"column:customer_id;type:uuid;not null"`
	OrderNumber        int64               `gorm:"column:order_number;not null"`
	Status             enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending'"`
	TotalAmount        decimal.Decimal     `gorm:"column:total_amount;type:numeric(14,2);not null"`
	Currency           string              `gorm:"column:currency;not null;default:'USD'"`
	VendorID           *uuid.UUID          `gorm:"column:vendor_id;type:uuid"`
	VendorQuotedPrice  *decimal.Decimal    `gorm:"column:vendor_quoted_price;type:numeric(14,2)"`
	QuotationAmount    *decimal.Decimal    `gorm:"column:quotation_amount;type:numeric(14,2)"`
	VendorLeadTimeDays *int                `gorm:"column:vendor_lead_time_days"`
	NegotiationNotes   *string             `gorm:"column:negotiation_notes"`
	VendorTerms        *string             `gorm:"column:vendor_terms"`
	PaidAmount         decimal.Decimal     `gorm:"column:paid_amount;type:numeric(14,2);not null;default:0"`
	PaymentStatus      enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'unpaid'"`
	Notes              *string             `gorm:"column:notes"`
	CancelReason       *string             `gorm:"column:cancel_reason"`
	Version            int64               `gorm:"column:version;not null;default:1"`
	Items              []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CancelledAt        *time.Time          `gorm:"column:cancelled_at"`
	CompletedAt        *time.Time          `gorm:"column:completed_at"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// HasCompleteQuote reports whether every quote projection field is set.
func (o *Order) HasCompleteQuote() bool {
	return o.VendorID != nil && o.VendorQuotedPrice != nil && o.QuotationAmount != nil
}

// OrderItem is a requested line on a purchase order.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	Description string          `gorm:"column:description;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
