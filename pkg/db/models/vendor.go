package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/odalechea/procureflow-backend/pkg/enums"
)

// Vendor is a supplier profile scored by the matching engine.
type Vendor struct {
	ID                  uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID            uuid.UUID         `gorm:"column:tenant_id;type:uuid;not null;index"`
	Name                string            `gorm:"column:name;not null"`
	Active              bool              `gorm:"column:active;not null;default:true"`
	QualityTier         enums.QualityTier `gorm:"column:quality_tier;type:quality_tier;not null;default:'standard'"`
	Rating              float64           `gorm:"column:rating;not null;default:0"`
	RatingConsistency   float64           `gorm:"column:rating_consistency;not null;default:0"`
	CommunicationRating float64           `gorm:"column:communication_rating;not null;default:0"`
	OnTimeRate          float64           `gorm:"column:on_time_rate;not null;default:0"`
	CompletedOrders     int               `gorm:"column:completed_orders;not null;default:0"`
	TotalOrders         int               `gorm:"column:total_orders;not null;default:0"`
	ActiveOrders        int               `gorm:"column:active_orders;not null;default:0"`
	MaxConcurrentOrders int               `gorm:"column:max_concurrent_orders;not null;default:5"`
	AvgLeadTimeDays     int               `gorm:"column:avg_lead_time_days;not null;default:0"`
	PriceFactor         decimal.Decimal   `gorm:"column:price_factor;type:numeric(6,4);not null;default:1"`
	CreditScore         int               `gorm:"column:credit_score;not null;default:0"`
	PaymentDisputes     int               `gorm:"column:payment_disputes;not null;default:0"`
	Specializations     pq.StringArray    `gorm:"column:specializations;type:text[];default:ARRAY[]::text[]"`
	Certifications      pq.StringArray    `gorm:"column:certifications;type:text[];default:ARRAY[]::text[]"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// CapacityUtilization is the share of concurrent capacity currently in use.
func (v *Vendor) CapacityUtilization() float64 {
	if v.MaxConcurrentOrders <= 0 {
		return 1
	}
	return float64(v.ActiveOrders) / float64(v.MaxConcurrentOrders)
}

// CompletionRate is the ratio of completed to total orders.
func (v *Vendor) CompletionRate() float64 {
	if v.TotalOrders <= 0 {
		return 0
	}
	return float64(v.CompletedOrders) / float64(v.TotalOrders)
}
