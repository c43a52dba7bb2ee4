package rules

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/odalechea/procureflow-backend/pkg/enums"
	pkgerrors "github.com/odalechea/procureflow-backend/pkg/errors"
	"github.com/odalechea/procureflow-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ruleSetAggregateID is the fixed aggregate identity for the process-wide
// rule set; there is exactly one.
var ruleSetAggregateID = uuid.MustParse("9f6f1f1e-0000-4000-8000-7b5c0a2d6e41")

// Service owns the live rule set. Reads hand out immutable snapshots;
// the admin update swaps the whole value at once.
type Service interface {
	Engine() Engine
	Current() RuleSet
	Update(ctx context.Context, next RuleSet, actor outbox.ActorRef) (RuleSet, error)
}

type service struct {
	mu      sync.RWMutex
	current RuleSet
	tx      txRunner
	outbox  outbox.Emitter
}

// NewService seeds the rule set and wires the administrative update path.
func NewService(initial RuleSet, tx txRunner, emitter outbox.Emitter) (Service, error) {
	if err := initial.Validate(); err != nil {
		return nil, fmt.Errorf("initial rule set: %w", err)
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{current: initial, tx: tx, outbox: emitter}, nil
}

func (s *service) Engine() Engine {
	return NewEngine(s.Current())
}

func (s *service) Current() RuleSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// RuleSetUpdatedEvent records the full replacement rule set.
type RuleSetUpdatedEvent struct {
	MaxNegotiationRounds    int     `json:"max_negotiation_rounds"`
	MinDiscountPercent      float64 `json:"min_discount_percent"`
	MaxDiscountPercent      float64 `json:"max_discount_percent"`
	AutoApprovalAmount      string  `json:"auto_approval_amount"`
	MinDownPaymentPercent   float64 `json:"min_down_payment_percent"`
	MaxDownPaymentPercent   float64 `json:"max_down_payment_percent"`
	MaxPaymentTermDays      int     `json:"max_payment_term_days"`
	AutoDisbursementAmount  string  `json:"auto_disbursement_amount"`
	MinQualityRating        float64 `json:"min_quality_rating"`
	MinOnTimeRate           float64 `json:"min_on_time_rate"`
	MinCompletionRate       float64 `json:"min_completion_rate"`
	MaxLeadTimeVarianceDays float64 `json:"max_lead_time_variance_days"`
	CancellationCutoffStage string  `json:"cancellation_cutoff_stage"`
}

func (s *service) Update(ctx context.Context, next RuleSet, actor outbox.ActorRef) (RuleSet, error) {
	if err := next.Validate(); err != nil {
		return RuleSet{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rule set")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRuleSetUpdated,
			AggregateType: enums.AggregateRuleSet,
			AggregateID:   ruleSetAggregateID,
			Actor:         &actor,
			Data: RuleSetUpdatedEvent{
				MaxNegotiationRounds:    next.MaxNegotiationRounds,
				MinDiscountPercent:      next.MinDiscountPercent,
				MaxDiscountPercent:      next.MaxDiscountPercent,
				AutoApprovalAmount:      next.AutoApprovalAmount.String(),
				MinDownPaymentPercent:   next.MinDownPaymentPercent,
				MaxDownPaymentPercent:   next.MaxDownPaymentPercent,
				MaxPaymentTermDays:      next.MaxPaymentTermDays,
				AutoDisbursementAmount:  next.AutoDisbursementAmount.String(),
				MinQualityRating:        next.MinQualityRating,
				MinOnTimeRate:           next.MinOnTimeRate,
				MinCompletionRate:       next.MinCompletionRate,
				MaxLeadTimeVarianceDays: next.MaxLeadTimeVarianceDays,
				CancellationCutoffStage: next.CancellationCutoffStage.String(),
			},
			Version: 1,
		})
	})
	if err != nil {
		return RuleSet{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit rule set update")
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
	return next, nil
}
