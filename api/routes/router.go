package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rcmanalo/buildmart-backend/api/controllers"
	"github.com/rcmanalo/buildmart-backend/api/middleware"
	"github.com/rcmanalo/buildmart-backend/internal/deliveries"
	"github.com/rcmanalo/buildmart-backend/internal/fleet"
	"github.com/rcmanalo/buildmart-backend/internal/notifications"
	"github.com/rcmanalo/buildmart-backend/internal/orders"
	"github.com/rcmanalo/buildmart-backend/internal/payments"
	"github.com/rcmanalo/buildmart-backend/pkg/config"
	"github.com/rcmanalo/buildmart-backend/pkg/db"
	"github.com/rcmanalo/buildmart-backend/pkg/enums"
	"github.com/rcmanalo/buildmart-backend/pkg/logger"
	pkgredis "github.com/rcmanalo/buildmart-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	registry *prometheus.Registry,
	ordersRepo orders.Repository,
	ordersSvc orders.Service,
	paymentsSvc payments.Service,
	deliveriesSvc deliveries.Service,
	fleetSvc fleet.Service,
	notificationsSvc notifications.Service,
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

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		var idempotencyStore pkgredis.IdempotencyStore
		if redisClient != nil {
			idempotencyStore = redisClient
		}
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/{orderId}", controllers.OrderDetail(ordersRepo, logg))
			r.With(middleware.RequireRole(string(enums.ActorRoleCustomer), logg)).
				Post("/{orderId}/payment-method", controllers.SelectPaymentMethod(paymentsSvc, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireStaff(logg))
				r.Get("/", controllers.ListOrders(ordersRepo, logg))
				r.Post("/{orderId}/status", controllers.AdvanceOrderStatus(ordersSvc, logg))
				r.Post("/{orderId}/reject", controllers.RejectOrder(ordersSvc, logg))
				r.Post("/{orderId}/payment-proof/reject", controllers.RejectPaymentProof(paymentsSvc, logg))
			})
		})

		r.Route("/deliveries", func(r chi.Router) {
			// Drivers advance their own deliveries; the service enforces
			// the assignment check.
			r.Post("/{orderId}/status", controllers.AdvanceDeliveryStatus(deliveriesSvc, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireStaff(logg))
				r.Post("/{orderId}/drivers", controllers.AssignDeliveryDrivers(deliveriesSvc, logg))
				r.Post("/{orderId}/vehicles", controllers.AssignDeliveryVehicles(deliveriesSvc, logg))
				r.Post("/{orderId}/cancel", controllers.CancelDelivery(deliveriesSvc, logg))
			})
		})

		r.Route("/fleet", func(r chi.Router) {
			r.Use(middleware.RequireStaff(logg))
			r.Get("/vehicles", controllers.ListFleetVehicles(fleetSvc, logg))
			r.Patch("/vehicles/{vehicleId}/status", controllers.SetFleetVehicleStatus(fleetSvc, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsSvc, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsSvc, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsSvc, logg))
		})
	})

	return r
}
