package negotiation

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Quote is one vendor's offer as fed into comparison.
type Quote struct {
	VendorID     uuid.UUID       `json:"vendor_id"`
	Price        decimal.Decimal `json:"price"`
	LeadTimeDays int             `json:"lead_time_days"`
}

// QuoteComparison summarizes a set of quotes for selection.
type QuoteComparison struct {
	Count        int             `json:"count"`
	MinPrice     decimal.Decimal `json:"min_price"`
	MaxPrice     decimal.Decimal `json:"max_price"`
	AveragePrice decimal.Decimal `json:"average_price"`
	Quotes       []Quote         `json:"quotes"`
}

func sortQuotesByPrice(quotes []Quote) {
	sort.SliceStable(quotes, func(i, j int) bool {
		if !quotes[i].Price.Equal(quotes[j].Price) {
			return quotes[i].Price.LessThan(quotes[j].Price)
		}
		return quotes[i].LeadTimeDays < quotes[j].LeadTimeDays
	})
}
