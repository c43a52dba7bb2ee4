package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/odalechea/procureflow-backend/api/middleware"
	"github.com/odalechea/procureflow-backend/api/responses"
	"github.com/odalechea/procureflow-backend/api/validators"
	"github.com/odalechea/procureflow-backend/internal/payments"
	"github.com/odalechea/procureflow-backend/pkg/enums"
	pkgerrors "github.com/odalechea/procureflow-backend/pkg/errors"
	"github.com/odalechea/procureflow-backend/pkg/logger"
)

type recordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Method    string          `json:"method" validate:"required"`
	Reference string          `json:"reference" validate:"omitempty,max=128"`
}

type downPaymentRequest struct {
	TotalAmount decimal.Decimal `json:"total_amount" validate:"required"`
	Percentage  float64         `json:"percentage" validate:"required,gte=0,lte=100"`
}

// PaymentRecord appends a payment to the order's ledger.
func PaymentRecord(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req recordPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(req.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		projection, err := svc.RecordPayment(r.Context(), payments.RecordPaymentInput{
			TenantID:  middleware.TenantIDFromContext(r.Context()),
			OrderID:   orderID,
			Amount:    req.Amount,
			Method:    method,
			Reference: req.Reference,
			ActorID:   middleware.UserIDFromContext(r.Context()),
			ActorRole: middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, projection)
	}
}

// PaymentHistory lists the order's ledger entries.
func PaymentHistory(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		records, err := svc.History(r.Context(), middleware.TenantIDFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, records)
	}
}

// PaymentDownPayment computes a down payment split for a quoted total.
func PaymentDownPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req downPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		split, err := svc.CalculateDownPayment(req.TotalAmount, req.Percentage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, split)
	}
}
