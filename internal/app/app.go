package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/utafrali/checkout-core/internal/checkout/calculations"
	checkoutpg "github.com/utafrali/checkout-core/internal/checkout/repository/postgres"
	checkoutredis "github.com/utafrali/checkout-core/internal/checkout/repository/redis"
	checkoutservice "github.com/utafrali/checkout-core/internal/checkout/service"
	"github.com/utafrali/checkout-core/internal/config"
	paymentdomain "github.com/utafrali/checkout-core/internal/payment/domain"
	"github.com/utafrali/checkout-core/internal/payment/event"
	"github.com/utafrali/checkout-core/internal/payment/gateway"
	paymentpg "github.com/utafrali/checkout-core/internal/payment/repository/postgres"
	"github.com/utafrali/checkout-core/internal/payment/stripe"
	"github.com/utafrali/checkout-core/migrations"
	"github.com/utafrali/checkout-core/pkg/database"
	"github.com/utafrali/checkout-core/pkg/health"
	"github.com/utafrali/checkout-core/pkg/httpclient"
	pkgkafka "github.com/utafrali/checkout-core/pkg/kafka"
	"github.com/utafrali/checkout-core/pkg/tracing"
)

const (
	serviceName    = "checkout-core"
	serviceVersion = "0.1.0"
)

// App wires together all dependencies of checkout-core. The checkout
// resolver and payment gateway are used in-process; the HTTP server only
// serves health checks and metrics.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error

	resolver    *checkoutservice.Resolver
	payments    *stripe.Gateway
	paymentRepo *paymentpg.PaymentRepository
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	// Initialize PostgreSQL connection pool.
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		a.release()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
		logger.Warn("failed to register pool metrics", slog.String("error", err.Error()))
	}

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		a.release()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Configure slow query logging.
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	// Initialize Redis.
	rdb, err := database.NewRedisClient(ctx, cfg.Redis(), logger)
	if err != nil {
		a.release()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rdb
	logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))

	// Initialize Kafka producer.
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	a.producer = producer
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Checkout context resolution.
	checkoutRepo := checkoutpg.NewCheckoutRepository(pool)
	shippingRepo := checkoutpg.NewShippingRepository(pool)
	listings := checkoutredis.NewCachedShippingListingStore(rdb, shippingRepo, cfg.ShippingListingCacheTTL(), logger)
	resolver := checkoutservice.NewResolver(
		checkoutRepo,
		calculations.NewCalculator(),
		checkoutservice.NewShippingMethods(shippingRepo),
		checkoutservice.NewCollectionPoints(shippingRepo),
		listings,
		logger,
	)

	// Payment gateway behind retries and a circuit breaker.
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         time.Duration(cfg.GatewayTimeoutSecs) * time.Second,
		MaxRetries:      cfg.GatewayMaxRetries,
		RetryWaitMin:    500 * time.Millisecond,
		RetryWaitMax:    5 * time.Second,
		MaxConnsPerHost: 50,
	})
	cbCfg := httpclient.CircuitBreakerConfig{
		Name:         "stripe",
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     time.Duration(cfg.CBInterval) * time.Second,
		Timeout:      time.Duration(cfg.CBTimeout) * time.Second,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, cbCfg, logger)
	logger.Info("circuit breaker initialized",
		slog.String("name", cbCfg.Name),
		slog.Uint64("max_requests", uint64(cbCfg.MaxRequests)),
		slog.Int("timeout_seconds", cfg.CBTimeout),
		slog.Uint64("min_requests", uint64(cbCfg.MinRequests)),
	)

	transactions := paymentpg.NewTransactionStore(pool)
	var payments *stripe.Gateway
	if cfg.StripeSecretAPIKey == "" {
		logger.Warn("STRIPE_SECRET_API_KEY not set, payment gateway disabled")
	} else {
		payments, err = stripe.NewGateway(stripe.Config{
			PublicAPIKey: cfg.StripePublicAPIKey,
			SecretAPIKey: cfg.StripeSecretAPIKey,
			AutoCapture:  cfg.StripeAutoCapture,
		}, gateway.NewStripeClient(cfg.StripeAPIURL, cbClient, logger), transactions, event.NewProducer(producer, logger), logger)
		if err != nil {
			a.release()
			return nil, fmt.Errorf("create stripe gateway: %w", err)
		}
		logger.Info("stripe gateway initialized",
			slog.String("api_url", cfg.StripeAPIURL),
			slog.Bool("auto_capture", cfg.StripeAutoCapture),
		)
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           NewRouter(healthHandler, logger),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.resolver = resolver
	a.payments = payments
	a.paymentRepo = paymentpg.NewPaymentRepository(pool)
	return a, nil
}

// Resolver returns the checkout context resolver.
func (a *App) Resolver() *checkoutservice.Resolver {
	return a.resolver
}

// Payments returns the Stripe gateway, or nil when no secret key is configured.
func (a *App) Payments() *stripe.Gateway {
	return a.payments
}

// PaymentInformation loads a payment and builds the information the gateway
// needs for it. An empty token uses the payment's stored token.
func (a *App) PaymentInformation(ctx context.Context, paymentID, token string) (paymentdomain.PaymentInformation, error) {
	payment, err := a.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return paymentdomain.PaymentInformation{}, err
	}
	return paymentdomain.NewPaymentInformation(payment, token), nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans)
// 3. Kafka producer
// 4. Redis client
// 5. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	errs = append(errs, a.release()...)

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// release closes every dependency acquired so far, in shutdown order after
// the HTTP server. NewApp uses it to unwind a partial start.
func (a *App) release() []error {
	var errs []error

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.pool != nil {
		a.pool.Close()
	}
	return errs
}
