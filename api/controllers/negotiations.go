package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odalechea/procureflow-backend/api/middleware"
	"github.com/odalechea/procureflow-backend/api/responses"
	"github.com/odalechea/procureflow-backend/api/validators"
	"github.com/odalechea/procureflow-backend/internal/negotiation"
	"github.com/odalechea/procureflow-backend/pkg/enums"
	pkgerrors "github.com/odalechea/procureflow-backend/pkg/errors"
	"github.com/odalechea/procureflow-backend/pkg/logger"
)

type startNegotiationRequest struct {
	VendorID        string          `json:"vendor_id" validate:"required,uuid"`
	InitialPrice    decimal.Decimal `json:"initial_price" validate:"required"`
	InitialLeadDays int             `json:"initial_lead_days" validate:"required,gt=0"`
}

type proposeTermsRequest struct {
	Price        decimal.Decimal `json:"price" validate:"required"`
	LeadTimeDays int             `json:"lead_time_days" validate:"required,gt=0"`
}

type concludeNegotiationRequest struct {
	VendorID       string          `json:"vendor_id" validate:"required,uuid"`
	AgreedPrice    decimal.Decimal `json:"agreed_price" validate:"required"`
	AgreedLeadDays int             `json:"agreed_lead_days" validate:"required,gt=0"`
	Notes          *string         `json:"notes"`
	Terms          *string         `json:"terms"`
}

type rejectNegotiationRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

type deadlineRequest struct {
	DaysFromNow int `json:"days_from_now" validate:"required"`
}

type escalateRequest struct {
	Reason   string `json:"reason" validate:"required,min=3"`
	Severity string `json:"severity" validate:"omitempty,oneof=low medium high critical"`
}

type compareQuotesRequest struct {
	Quotes []quoteRequest `json:"quotes" validate:"required,min=1,dive"`
}

type quoteRequest struct {
	VendorID     string          `json:"vendor_id" validate:"required,uuid"`
	Price        decimal.Decimal `json:"price" validate:"required"`
	LeadTimeDays int             `json:"lead_time_days" validate:"required,gt=0"`
}

// NegotiationStart opens a session for one order/vendor pairing.
func NegotiationStart(svc negotiation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req startNegotiationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendorID, err := uuid.Parse(req.VendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor id"))
			return
		}

		session, err := svc.StartNegotiation(r.Context(), negotiation.StartInput{
			TenantID:        middleware.TenantIDFromContext(r.Context()),
			OrderID:         orderID,
			VendorID:        vendorID,
			InitialPrice:    req.InitialPrice,
			InitialLeadDays: req.InitialLeadDays,
			ActorID:         middleware.UserIDFromContext(r.Context()),
			ActorRole:       middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

// NegotiationListForOrder returns every session attached to an order.
func NegotiationListForOrder(svc negotiation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sessions, err := svc.ListForOrder(r.Context(), middleware.TenantIDFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sessions)
	}
}

// NegotiationPropose records one counter-offer round.
func NegotiationPropose(svc negotiation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := parseUUIDParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req proposeTermsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.ProposeTerms(r.Context(), negotiation.ProposeInput{
			TenantID:     middleware.TenantIDFromContext(r.Context()),
			SessionID:    sessionID,
			Price:        req.Price,
			LeadTimeDays: req.LeadTimeDays,
			ActorID:      middleware.UserIDFromContext(r.Context()),
			ActorRole:    middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// NegotiationConclude accepts final terms and quotes the customer.
func NegotiationConclude(svc negotiation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := parseUUIDParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req concludeNegotiationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendorID, err := uuid.Parse(req.VendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor id"))
			return
		}

		session, err := svc.ConcludeNegotiation(r.Context(), negotiation.ConcludeInput{
			TenantID:       middleware.TenantIDFromContext(r.Context()),
			SessionID:      sessionID,
			VendorID:       vendorID,
			AgreedPrice:    req.AgreedPrice,
			AgreedLeadDays: req.AgreedLeadDays,
			Notes:          req.Notes,
			Terms:          req.Terms,
			ActorID:        middleware.UserIDFromContext(r.Context()),
			ActorRole:      middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// NegotiationReject closes a session without agreement.
func NegotiationReject(svc negotiation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := parseUUIDParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req rejectNegotiationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.RejectNegotiation(r.Context(), negotiation.RejectInput{
			TenantID:  middleware.TenantIDFromContext(r.Context()),
			SessionID: sessionID,
			Reason:    req.Reason,
			ActorID:   middleware.UserIDFromContext(r.Context()),
			ActorRole: middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// NegotiationSetDeadline sets the vendor response deadline.
func NegotiationSetDeadline(svc negotiation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := parseUUIDParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req deadlineRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SetNegotiationDeadline(r.Context(), middleware.TenantIDFromContext(r.Context()), sessionID, req.DaysFromNow)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// NegotiationEscalate raises a stuck session to a higher decision level.
func NegotiationEscalate(svc negotiation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := parseUUIDParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req escalateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		severity := enums.EscalationSeverityMedium
		if raw := strings.TrimSpace(req.Severity); raw != "" {
			parsed, err := enums.ParseEscalationSeverity(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid severity"))
				return
			}
			severity = parsed
		}

		session, err := svc.EscalateNegotiation(r.Context(), negotiation.EscalateInput{
			TenantID:  middleware.TenantIDFromContext(r.Context()),
			SessionID: sessionID,
			Reason:    req.Reason,
			Severity:  severity,
			ActorID:   middleware.UserIDFromContext(r.Context()),
			ActorRole: middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// NegotiationCompareQuotes ranks submitted quotes by price.
func NegotiationCompareQuotes(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req compareQuotesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quotes := make([]negotiation.Quote, 0, len(req.Quotes))
		for _, q := range req.Quotes {
			vendorID, err := uuid.Parse(q.VendorID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor id"))
				return
			}
			quotes = append(quotes, negotiation.Quote{
				VendorID:     vendorID,
				Price:        q.Price,
				LeadTimeDays: q.LeadTimeDays,
			})
		}

		comparison, err := negotiation.CompareQuotes(quotes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, comparison)
	}
}
