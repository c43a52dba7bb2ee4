package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odalechea/procureflow-backend/api/controllers"
	"github.com/odalechea/procureflow-backend/api/middleware"
	"github.com/odalechea/procureflow-backend/internal/negotiation"
	"github.com/odalechea/procureflow-backend/internal/orders"
	"github.com/odalechea/procureflow-backend/internal/payments"
	"github.com/odalechea/procureflow-backend/internal/rules"
	"github.com/odalechea/procureflow-backend/internal/vendors"
	"github.com/odalechea/procureflow-backend/pkg/config"
	"github.com/odalechea/procureflow-backend/pkg/db"
	"github.com/odalechea/procureflow-backend/pkg/enums"
	"github.com/odalechea/procureflow-backend/pkg/logger"
	"github.com/odalechea/procureflow-backend/pkg/redis"
)

// Services groups everything the router wires into handlers.
type Services struct {
	Orders       orders.Service
	Negotiations negotiation.Service
	Vendors      vendors.Service
	Payments     payments.Service
	Rules        rules.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	// A typed nil would defeat the middleware's nil guard.
	var idemStore redis.IdempotencyStore
	if redisClient != nil {
		idemStore = redisClient
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(svcs.Orders, logg))
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Route("/{orderID}", func(r chi.Router) {
				r.Get("/", controllers.OrderDetail(svcs.Orders, logg))
				r.Post("/advance", controllers.OrderAdvance(svcs.Orders, logg))
				r.Post("/cancel", controllers.OrderCancel(svcs.Orders, logg))
				r.Post("/assign-vendor", controllers.OrderAssignVendor(svcs.Orders, logg))
				r.Get("/payment", controllers.OrderPaymentStatus(svcs.Orders, logg))
				r.Post("/payments", controllers.PaymentRecord(svcs.Payments, logg))
				r.Get("/payments", controllers.PaymentHistory(svcs.Payments, logg))
				r.Post("/negotiations", controllers.NegotiationStart(svcs.Negotiations, logg))
				r.Get("/negotiations", controllers.NegotiationListForOrder(svcs.Negotiations, logg))
				r.Get("/candidates", controllers.VendorCandidates(svcs.Vendors, logg))
			})
		})

		r.Route("/negotiations", func(r chi.Router) {
			r.Post("/compare", controllers.NegotiationCompareQuotes(logg))
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Post("/propose", controllers.NegotiationPropose(svcs.Negotiations, logg))
				r.Post("/conclude", controllers.NegotiationConclude(svcs.Negotiations, logg))
				r.Post("/reject", controllers.NegotiationReject(svcs.Negotiations, logg))
				r.Post("/deadline", controllers.NegotiationSetDeadline(svcs.Negotiations, logg))
				r.Post("/escalate", controllers.NegotiationEscalate(svcs.Negotiations, logg))
			})
		})

		r.Route("/vendors", func(r chi.Router) {
			r.Post("/", controllers.VendorCreate(svcs.Vendors, logg))
			r.Get("/", controllers.VendorList(svcs.Vendors, logg))
			r.Route("/{vendorID}", func(r chi.Router) {
				r.Get("/", controllers.VendorDetail(svcs.Vendors, logg))
				r.Post("/eligibility", controllers.VendorEligibility(svcs.Vendors, logg))
				r.Get("/scorecard", controllers.VendorScorecard(svcs.Vendors, logg))
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/down-payment", controllers.PaymentDownPayment(svcs.Payments, logg))
		})

		r.Route("/admin/rules", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleAdmin.String()))
			r.Get("/", controllers.RulesShow(svcs.Rules, logg))
			r.Put("/", controllers.RulesUpdate(svcs.Rules, logg))
		})
	})

	return r
}
