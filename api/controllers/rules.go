package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/odalechea/procureflow-backend/api/middleware"
	"github.com/odalechea/procureflow-backend/api/responses"
	"github.com/odalechea/procureflow-backend/api/validators"
	"github.com/odalechea/procureflow-backend/internal/rules"
	"github.com/odalechea/procureflow-backend/pkg/enums"
	pkgerrors "github.com/odalechea/procureflow-backend/pkg/errors"
	"github.com/odalechea/procureflow-backend/pkg/logger"
	"github.com/odalechea/procureflow-backend/pkg/outbox"
)

type ruleSetRequest struct {
	MaxNegotiationRounds    int             `json:"max_negotiation_rounds" validate:"required,gt=0"`
	MinDiscountPercent      float64         `json:"min_discount_percent" validate:"gte=0,lte=100"`
	MaxDiscountPercent      float64         `json:"max_discount_percent" validate:"required,gt=0,lte=100"`
	AutoApprovalAmount      decimal.Decimal `json:"auto_approval_amount" validate:"required"`
	MinDownPaymentPercent   float64         `json:"min_down_payment_percent" validate:"gte=0,lte=100"`
	MaxDownPaymentPercent   float64         `json:"max_down_payment_percent" validate:"required,gt=0,lte=100"`
	MaxPaymentTermDays      int             `json:"max_payment_term_days" validate:"required,gt=0"`
	AutoDisbursementAmount  decimal.Decimal `json:"auto_disbursement_amount" validate:"required"`
	MinQualityRating        float64         `json:"min_quality_rating" validate:"gte=0,lte=5"`
	MinOnTimeRate           float64         `json:"min_on_time_rate" validate:"gte=0,lte=1"`
	MinCompletionRate       float64         `json:"min_completion_rate" validate:"gte=0,lte=1"`
	MaxLeadTimeVarianceDays float64         `json:"max_lead_time_variance_days" validate:"gte=0"`
	CancellationCutoffStage string          `json:"cancellation_cutoff_stage" validate:"required"`
}

// RulesShow returns the live rule thresholds.
func RulesShow(svc rules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Current())
	}
}

// RulesUpdate replaces the live rule set. Requests in flight keep the
// snapshot they started with.
func RulesUpdate(svc rules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ruleSetRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cutoff, err := enums.ParseOrderStatus(req.CancellationCutoffStage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cancellation cutoff stage"))
			return
		}

		next := rules.RuleSet{
			MaxNegotiationRounds:    req.MaxNegotiationRounds,
			MinDiscountPercent:      req.MinDiscountPercent,
			MaxDiscountPercent:      req.MaxDiscountPercent,
			AutoApprovalAmount:      req.AutoApprovalAmount,
			MinDownPaymentPercent:   req.MinDownPaymentPercent,
			MaxDownPaymentPercent:   req.MaxDownPaymentPercent,
			MaxPaymentTermDays:      req.MaxPaymentTermDays,
			AutoDisbursementAmount:  req.AutoDisbursementAmount,
			MinQualityRating:        req.MinQualityRating,
			MinOnTimeRate:           req.MinOnTimeRate,
			MinCompletionRate:       req.MinCompletionRate,
			MaxLeadTimeVarianceDays: req.MaxLeadTimeVarianceDays,
			CancellationCutoffStage: cutoff,
		}

		actor := outbox.ActorRef{
			UserID:   middleware.UserIDFromContext(r.Context()),
			TenantID: middleware.TenantIDFromContext(r.Context()),
			Role:     middleware.RoleFromContext(r.Context()),
		}
		applied, err := svc.Update(r.Context(), next, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, applied)
	}
}
