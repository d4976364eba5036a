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

	"github.com/utafrali/CompanyDirectory/internal/auth"
	"github.com/utafrali/CompanyDirectory/internal/config"
	"github.com/utafrali/CompanyDirectory/internal/event"
	handler "github.com/utafrali/CompanyDirectory/internal/handler/http"
	"github.com/utafrali/CompanyDirectory/internal/notify"
	"github.com/utafrali/CompanyDirectory/internal/phoneid"
	"github.com/utafrali/CompanyDirectory/internal/repository/postgres"
	"github.com/utafrali/CompanyDirectory/internal/service"
	"github.com/utafrali/CompanyDirectory/internal/storage"
	"github.com/utafrali/CompanyDirectory/internal/storage/memory"
	"github.com/utafrali/CompanyDirectory/internal/storage/s3store"
	"github.com/utafrali/CompanyDirectory/migrations"
	"github.com/utafrali/CompanyDirectory/pkg/database"
	"github.com/utafrali/CompanyDirectory/pkg/health"
	"github.com/utafrali/CompanyDirectory/pkg/httpclient"
	pkgkafka "github.com/utafrali/CompanyDirectory/pkg/kafka"
	"github.com/utafrali/CompanyDirectory/pkg/middleware"
	"github.com/utafrali/CompanyDirectory/pkg/tracing"
)

// ServiceName identifies this process in logs, metrics, traces and events.
const ServiceName = "company-directory"

// App wires together all dependencies and runs the company directory service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
// Anything started before a failing step is released before it returns.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var cleanup cleanupStack
	defer func() {
		if err != nil {
			cleanup.run()
		}
	}()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing(ServiceName))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	cleanup.push(func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer flushCancel()
		_ = tracerShutdown(flushCtx)
	})

	// Initialize PostgreSQL connection pool.
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	cleanup.push(pool.Close)
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, ServiceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if threshold := cfg.SlowQueryThreshold(); threshold > 0 {
		database.SetSlowQueryLogging(threshold, logger)
	}

	// Kafka is optional; without it events are dropped and mail is logged.
	var (
		producer *pkgkafka.Producer
		events   event.Publisher = event.Noop{}
	)
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		events = event.NewProducer(producer, logger)
		cleanup.push(func() { _ = producer.Close() })
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	var mailer notify.Sender = notify.NewLogSender(logger)
	if cfg.MailerDriver == "kafka" && producer != nil {
		mailer = notify.NewKafkaSender(producer, ServiceName)
	}
	logger.Info("email sender selected", slog.String("sender", mailer.Name()))

	phones := newPhoneVerifier(cfg, logger)

	logos, uploads, err := newLogoStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init logo storage: %w", err)
	}

	// Build the dependency graph.
	tokens := auth.NewTokenManager(auth.TokenConfig{
		Secret:     cfg.JWTSecret,
		SessionTTL: cfg.JWTSessionExpiry,
		Issuer:     ServiceName,
	})
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	userRepo := postgres.NewUserRepository(pool)
	companyRepo := postgres.NewCompanyRepository(pool)

	authService := service.NewAuthService(userRepo, hasher, tokens, mailer, phones, events, service.AuthConfig{
		VerifyEmailURL: cfg.VerifyEmailURL,
		MismatchPolicy: service.MismatchPolicy(cfg.MobileMismatchPolicy),
	}, logger)
	companyService := service.NewCompanyService(companyRepo, logos, events, service.CompanyConfig{
		EnforceOwnership: cfg.CompanyEnforceOwnership,
	}, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if producer != nil {
		healthHandler.RegisterNonCritical("kafka", producer.Ping)
	}

	routerCfg := handler.RouterConfig{
		ServiceName: ServiceName,
		Auth:        authService,
		Companies:   companyService,
		Tokens:      tokens,
		Health:      healthHandler,
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Environment:    cfg.Environment,
		},
		Logger: logger,
	}
	if uploads != nil {
		routerCfg.Uploads = uploads
		routerCfg.UploadsPrefix = memory.PathPrefix
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler.NewRouter(routerCfg),
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// newPhoneVerifier returns the Firebase verifier, or a verifier that reports
// the provider unavailable when no API key is configured.
func newPhoneVerifier(cfg *config.Config, logger *slog.Logger) phoneid.Verifier {
	if cfg.FirebaseAPIKey == "" {
		logger.Warn("FIREBASE_API_KEY not set, mobile verification disabled")
		return phoneid.Disabled{}
	}
	// One attempt per lookup; the breaker alone guards the provider.
	httpCfg := httpclient.DefaultConfig()
	httpCfg.MaxRetries = 0
	client := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpCfg),
		httpclient.DefaultCircuitBreakerConfig("firebase"),
		logger,
	)
	return phoneid.NewFirebaseVerifier(client, cfg.FirebaseBaseURL, cfg.FirebaseAPIKey)
}

// newLogoStorage builds the configured backend. The returned handler is
// non-nil only for the memory backend, which serves its own objects.
func newLogoStorage(ctx context.Context, cfg *config.Config) (storage.Storage, http.Handler, error) {
	if cfg.StorageDriver == "s3" {
		store, err := s3store.New(ctx, s3store.Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
	store := memory.New(cfg.StorageBaseURL)
	return store, store.Handler(), nil
}

// cleanupStack releases partially initialized resources in reverse order.
type cleanupStack []func()

func (s *cleanupStack) push(fn func()) { *s = append(*s, fn) }

func (s cleanupStack) run() {
	for i := len(s) - 1; i >= 0; i-- {
		s[i]()
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer
// 4. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (5s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 3. Close Kafka producer.
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 4. Close PostgreSQL pool.
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
