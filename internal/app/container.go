package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"pharmadispatch/internal/config"
	"pharmadispatch/internal/gateway/notify"
	"pharmadispatch/internal/http/handlers"
	"pharmadispatch/internal/http/middleware/ratelimit"
	"pharmadispatch/internal/http/pprofserver"
	"pharmadispatch/internal/http/router"
	"pharmadispatch/internal/logx"
	"pharmadispatch/internal/pricing"
	"pharmadispatch/internal/repository"
	"pharmadispatch/internal/service/assignment"
	"pharmadispatch/internal/service/courier"
	"pharmadispatch/internal/service/orders"
	"pharmadispatch/internal/service/settlement"
	"pharmadispatch/internal/service/wallet"
)

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	dbConnect func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error)
	logFatalf func(string, ...interface{})
}

// NewContainerBuilder returns a new dig container builder
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		dbConnect: connectDbWithRetry,
		logFatalf: log.Fatalf,
	}
}

// WithDBConnect sets the database connection function
func (b *ContainerBuilder) WithDBConnect(
	fn func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error),
) *ContainerBuilder {
	if fn != nil {
		b.dbConnect = fn
	}
	return b
}

// WithLogFatalf sets the log.Fatalf function
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds and returns a new dig container
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerDb(container, b.dbConnect); err != nil {
		return nil, fmt.Errorf("DB: %w", err)
	}
	if err := registerService(container); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if err := registerHTTP(container); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	return container, nil
}

// MustBuildContainer builds and returns the HTTP service container
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func registerCore(container *dig.Container, ctx context.Context) error {
	return provideAll(container,
		func() context.Context { return ctx },
		NewLogger,
		config.Load,
		provideMetrics,
		func() time.Duration { return 5 * time.Second },
	)
}

func registerDb(
	container *dig.Container,
	dbConnect func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error),
) error {
	providerDB := func(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
		return dbConnect(ctx, cfg.DB.DSN(), 10, time.Second)
	}
	return provideAll(container, providerDB)
}

type notifierIn struct {
	dig.In

	Gateway *notify.HTTPGateway
	Logger  logx.Logger
	Retries prometheus.Counter `name:"notify_retries_total"`
	Cfg     *config.Config
}

type assignmentIn struct {
	dig.In

	Repo        *repository.DeliveryRepo
	Settle      *settlement.Service
	Notify      *notify.RetryingNotifier
	Cfg         *config.Config
	Outcomes    *prometheus.CounterVec
	Settlements prometheus.Counter `name:"settlements_total"`
	Timeout     time.Duration
	Logger      logx.Logger
}

func newAssignmentService(in assignmentIn) *assignment.Service {
	// a typed nil notifier must stay a nil interface inside the service
	if in.Notify == nil {
		return assignment.NewService(in.Repo, in.Settle, nil,
			in.Cfg.Dispatch, in.Outcomes, in.Settlements, in.Timeout, in.Logger)
	}
	return assignment.NewService(in.Repo, in.Settle, in.Notify,
		in.Cfg.Dispatch, in.Outcomes, in.Settlements, in.Timeout, in.Logger)
}

func registerService(container *dig.Container) error {
	return provideAll(container,
		repository.NewCourierRepo,
		repository.NewDeliveryRepo,
		repository.NewWalletRepo,
		func(repo *repository.CourierRepo, timeout time.Duration) *courier.Service {
			return courier.NewService(repo, timeout)
		},
		func(repo *repository.WalletRepo, timeout time.Duration, logger logx.Logger) *wallet.Service {
			return wallet.NewService(repo, timeout, logger)
		},
		func(w *wallet.Service, cfg *config.Config, logger logx.Logger) *settlement.Service {
			return settlement.NewService(w, cfg.Commission, logger)
		},
		func(cfg *config.Config) *pricing.Calculator {
			return pricing.NewCalculator(cfg.Fees)
		},
		func(cfg *config.Config) *notify.HTTPGateway {
			return notify.NewHTTPGateway(cfg.Notify.BaseURL, nil)
		},
		func(in notifierIn) *notify.RetryingNotifier {
			return notify.NewRetryingNotifier(in.Gateway, in.Logger, in.Retries, notify.RetryConfig{
				MaxAttempts: in.Cfg.Notify.MaxAttempts,
				BaseDelay:   in.Cfg.Notify.BaseDelay,
				MaxDelay:    in.Cfg.Notify.MaxDelay,
			})
		},
		newAssignmentService,
		func(repo *repository.DeliveryRepo, dispatch *assignment.Service, pricer *pricing.Calculator, logger logx.Logger) *orders.Processor {
			return orders.NewProcessor(repo, dispatch, pricer, logger)
		},
	)
}

// pprofHandler keeps the pprof mux distinct from the main router in the
// container, both are http.Handler.
type pprofHandler http.Handler

func registerHTTP(container *dig.Container) error {
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	return provideAll(container,
		handlers.New,
		func(logger logx.Logger, uc *courier.Service) *handlers.CourierHandler {
			return handlers.NewCourierHandler(logger, uc)
		},
		func(logger logx.Logger, uc *assignment.Service) *handlers.DeliveryHandler {
			return handlers.NewDeliveryHandler(logger, uc)
		},
		func(logger logx.Logger, uc *wallet.Service) *handlers.WalletHandler {
			return handlers.NewWalletHandler(logger, uc)
		},
		newRateLimitClock,
		newRateLimiter,
		newRateLimitMiddleware,
		func(cfg *config.Config) pprofHandler {
			return pprofserver.Handler(pprofserver.Config{
				User: cfg.Pprof.User,
				Pass: cfg.Pprof.Pass,
			})
		},
		func(
			logger logx.Logger,
			base *handlers.Handlers,
			cour *handlers.CourierHandler,
			del *handlers.DeliveryHandler,
			wal *handlers.WalletHandler,
			rl *ratelimit.Middleware,
			pp pprofHandler,
		) http.Handler {
			return router.New(logger, base, cour, del, wal, rl, http.Handler(pp))
		},
		serverProvider,
	)
}
