package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odalechea/procureflow-backend/api/middleware"
	"github.com/odalechea/procureflow-backend/api/responses"
	"github.com/odalechea/procureflow-backend/api/validators"
	internalorders "github.com/odalechea/procureflow-backend/internal/orders"
	"github.com/odalechea/procureflow-backend/pkg/enums"
	pkgerrors "github.com/odalechea/procureflow-backend/pkg/errors"
	"github.com/odalechea/procureflow-backend/pkg/logger"
	"github.com/odalechea/procureflow-backend/pkg/pagination"
)

type createOrderRequest struct {
	CustomerID  string                   `json:"customer_id" validate:"required,uuid"`
	TotalAmount decimal.Decimal          `json:"total_amount" validate:"required"`
	Currency    string                   `json:"currency" validate:"omitempty,len=3"`
	Notes       *string                  `json:"notes"`
	Items       []createOrderItemRequest `json:"items" validate:"omitempty,dive"`
}

type createOrderItemRequest struct {
	Description string          `json:"description" validate:"required"`
	Quantity    int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"required"`
}

type advanceOrderRequest struct {
	TargetStage string  `json:"target_stage" validate:"required"`
	Notes       *string `json:"notes"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

type assignVendorRequest struct {
	VendorID     string          `json:"vendor_id" validate:"required,uuid"`
	QuotedPrice  decimal.Decimal `json:"quoted_price" validate:"required"`
	LeadTimeDays int             `json:"lead_time_days" validate:"required,gt=0"`
}

// OrderCreate opens a purchase order in the pending stage.
func OrderCreate(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, err := uuid.Parse(req.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id"))
			return
		}

		items := make([]internalorders.CreateOrderItem, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, internalorders.CreateOrderItem{
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
			})
		}

		order, err := svc.Create(r.Context(), internalorders.CreateOrderInput{
			TenantID:    middleware.TenantIDFromContext(r.Context()),
			CustomerID:  customerID,
			TotalAmount: req.TotalAmount,
			Currency:    strings.ToUpper(req.Currency),
			Items:       items,
			Notes:       req.Notes,
			ActorID:     middleware.UserIDFromContext(r.Context()),
			ActorRole:   middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// OrderDetail returns one order with its items.
func OrderDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), middleware.TenantIDFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderList returns a cursor page of the tenant's orders.
func OrderList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		filters, err := buildOrderFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), middleware.TenantIDFromContext(r.Context()), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// OrderAdvance moves an order to the requested next stage.
func OrderAdvance(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req advanceOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseOrderStatus(req.TargetStage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target stage"))
			return
		}

		order, err := svc.Advance(r.Context(), internalorders.AdvanceInput{
			TenantID:    middleware.TenantIDFromContext(r.Context()),
			OrderID:     orderID,
			TargetStage: target,
			Notes:       req.Notes,
			ActorID:     middleware.UserIDFromContext(r.Context()),
			ActorRole:   middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderCancel terminates an order before the cancellation cutoff.
func OrderCancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req cancelOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), internalorders.CancelInput{
			TenantID:  middleware.TenantIDFromContext(r.Context()),
			OrderID:   orderID,
			Reason:    req.Reason,
			ActorID:   middleware.UserIDFromContext(r.Context()),
			ActorRole: middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderAssignVendor assigns a vendor directly during sourcing.
func OrderAssignVendor(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req assignVendorRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendorID, err := uuid.Parse(req.VendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor id"))
			return
		}

		order, err := svc.AssignVendor(r.Context(), internalorders.AssignVendorInput{
			TenantID:     middleware.TenantIDFromContext(r.Context()),
			OrderID:      orderID,
			VendorID:     vendorID,
			QuotedPrice:  req.QuotedPrice,
			LeadTimeDays: req.LeadTimeDays,
			ActorID:      middleware.UserIDFromContext(r.Context()),
			ActorRole:    middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderPaymentStatus reports the order's payment projection.
func OrderPaymentStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		projection, err := svc.VerifyPayment(r.Context(), middleware.TenantIDFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, projection)
	}
}

func buildOrderFilters(r *http.Request) (internalorders.ListFilters, error) {
	var filters internalorders.ListFilters
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("customer_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id filter")
		}
		filters.CustomerID = &id
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("vendor_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor id filter")
		}
		filters.VendorID = &id
	}
	return filters, nil
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, name+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}
