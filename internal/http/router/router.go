package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pharmadispatch/internal/http/handlers"
	mw "pharmadispatch/internal/http/middleware"
	"pharmadispatch/internal/http/middleware/ratelimit"
	"pharmadispatch/internal/logx"
)

// New constructs a chi-based http.Handler with base middleware and routes.
// A nil rate limit middleware disables limiting.
func New(
	logger logx.Logger,
	base *handlers.Handlers,
	courier *handlers.CourierHandler,
	delivery *handlers.DeliveryHandler,
	wallet *handlers.WalletHandler,
	rl *ratelimit.Middleware,
	pprofH http.Handler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.Observability(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(10 * time.Second))
	if rl != nil {
		r.Use(rl.Handler())
	}

	r.Get("/ping", base.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(base.HealthcheckHead))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/couriers", func(r chi.Router) {
		r.Get("/", courier.List)
		r.Post("/", courier.Create)
		r.Get("/{id}", courier.GetByID)
		r.Patch("/{id}", courier.Update)
		r.Post("/{id}/location", courier.UpdateLocation)
	})

	r.Route("/deliveries", func(r chi.Router) {
		r.Post("/bulk-assign", delivery.BulkAssign)
		r.Post("/{id}/assign", delivery.Assign)
		r.Post("/{id}/assign-manual", delivery.ManualAssign)
		r.Post("/{id}/reassign", delivery.Reassign)
		r.Post("/{id}/accept", delivery.Accept)
		r.Post("/{id}/pickup", delivery.Pickup)
		r.Post("/{id}/transit", delivery.Transit)
		r.Post("/{id}/complete", delivery.Complete)
		r.Post("/{id}/cancel", delivery.Cancel)
		r.Post("/{id}/fail", delivery.Fail)
	})

	r.Route("/wallets", func(r chi.Router) {
		r.Post("/topup", wallet.Topup)
		r.Post("/withdraw", wallet.Withdraw)
		r.Post("/withdrawals/settle", wallet.SettleWithdrawal)
		r.Get("/{owner}/{id}", wallet.Balance)
		r.Get("/{owner}/{id}/transactions", wallet.Transactions)
	})

	if pprofH != nil {
		r.Mount("/debug", pprofH)
	}

	r.NotFound(http.HandlerFunc(base.NotFound))

	return r
}
