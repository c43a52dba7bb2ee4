package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/odalechea/procureflow-backend/api/middleware"
	"github.com/odalechea/procureflow-backend/api/responses"
	"github.com/odalechea/procureflow-backend/api/validators"
	"github.com/odalechea/procureflow-backend/internal/vendors"
	"github.com/odalechea/procureflow-backend/pkg/enums"
	pkgerrors "github.com/odalechea/procureflow-backend/pkg/errors"
	"github.com/odalechea/procureflow-backend/pkg/logger"
	"github.com/odalechea/procureflow-backend/pkg/pagination"
)

type createVendorRequest struct {
	Name                string   `json:"name" validate:"required,min=2"`
	QualityTier         string   `json:"quality_tier" validate:"omitempty,oneof=standard premium elite"`
	MaxConcurrentOrders int      `json:"max_concurrent_orders" validate:"omitempty,gt=0"`
	AvgLeadTimeDays     int      `json:"avg_lead_time_days" validate:"omitempty,gt=0"`
	PriceFactor         string   `json:"price_factor"`
	Specializations     []string `json:"specializations"`
	Certifications      []string `json:"certifications"`
}

type eligibilityRequest struct {
	OrderID       string   `json:"order_id" validate:"required,uuid"`
	RequiredSpecs []string `json:"required_specs"`
}

// VendorCreate registers a vendor in the tenant's pool.
func VendorCreate(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createVendorRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendor, err := svc.Create(r.Context(), middleware.TenantIDFromContext(r.Context()), vendors.CreateVendorInput{
			Name:                req.Name,
			QualityTier:         enums.QualityTier(req.QualityTier),
			MaxConcurrentOrders: req.MaxConcurrentOrders,
			AvgLeadTimeDays:     req.AvgLeadTimeDays,
			PriceFactor:         req.PriceFactor,
			Specializations:     req.Specializations,
			Certifications:      req.Certifications,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, vendor)
	}
}

// VendorDetail returns one vendor.
func VendorDetail(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := parseUUIDParam(r, "vendorID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendor, err := svc.Get(r.Context(), middleware.TenantIDFromContext(r.Context()), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendor)
	}
}

// VendorList returns a cursor page of the tenant's vendors.
func VendorList(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), middleware.TenantIDFromContext(r.Context()), pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// VendorCandidates ranks vendors against one order's requirements.
func VendorCandidates(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		criteria, err := buildMatchCriteria(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		candidates, err := svc.FindCandidates(r.Context(), middleware.TenantIDFromContext(r.Context()), orderID, criteria)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, candidates)
	}
}

// VendorEligibility evaluates one vendor against one order's rules.
func VendorEligibility(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := parseUUIDParam(r, "vendorID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req eligibilityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuid.Parse(req.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		result, err := svc.CheckEligibility(r.Context(), middleware.TenantIDFromContext(r.Context()), vendorID, orderID, req.RequiredSpecs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// VendorScorecard reports delivery performance over the vendor's history.
func VendorScorecard(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := parseUUIDParam(r, "vendorID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Scorecard(r.Context(), middleware.TenantIDFromContext(r.Context()), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func buildMatchCriteria(r *http.Request) (vendors.MatchCriteria, error) {
	var criteria vendors.MatchCriteria

	if raw := strings.TrimSpace(r.URL.Query().Get("min_tier")); raw != "" {
		tier, err := enums.ParseQualityTier(raw)
		if err != nil {
			return criteria, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid min_tier")
		}
		criteria.MinQualityTier = &tier
	}

	maxLead, err := validators.ParseQueryInt(r, "max_lead_days", 0, 0, 365)
	if err != nil {
		return criteria, err
	}
	criteria.MaxLeadTimeDays = maxLead

	limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
	if err != nil {
		return criteria, err
	}
	criteria.Limit = limit

	if raw := strings.TrimSpace(r.URL.Query().Get("specs")); raw != "" {
		for _, spec := range strings.Split(raw, ",") {
			if spec = strings.TrimSpace(spec); spec != "" {
				criteria.RequiredSpecs = append(criteria.RequiredSpecs, spec)
			}
		}
	}

	return criteria, nil
}
