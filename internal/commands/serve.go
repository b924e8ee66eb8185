package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/handlers"
	"github.com/Ramsey-B/fern/pkg/cache"
	"github.com/Ramsey-B/fern/pkg/commodity"
	"github.com/Ramsey-B/fern/pkg/credential"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/endpoint"
	"github.com/Ramsey-B/fern/pkg/health"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/params"
	"github.com/Ramsey-B/fern/pkg/postprocess"
	"github.com/Ramsey-B/fern/pkg/pricing"
	"github.com/Ramsey-B/fern/pkg/query"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/repositories"
	"github.com/Ramsey-B/fern/pkg/startup"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/tracing/exporters"
	"github.com/Ramsey-B/fern/pkg/translate"
)

const shutdownTimeout = 30 * time.Second

// NewServeCmd runs the API.
func NewServeCmd(version string) *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), envFile, version)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", "", "dotenv file to load (default .env)")
	return cmd
}

// services holds what the startup dependencies bring up.
type services struct {
	db    database.DB
	redis *redis.Client
}

func runServe(ctx context.Context, envFile, version string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	if cfg.Version == "dev" {
		cfg.Version = version
	}
	logger, flush, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer flush()

	if cfg.OTLPEnabled {
		shutdown, err := tracing.Setup(ctx, cfg.AppName, exporters.OTLPConfig{
			Endpoint: cfg.OTLPEndpoint,
			Protocol: cfg.OTLPProtocol,
			Insecure: cfg.OTLPInsecure,
		})
		if err != nil {
			return fmt.Errorf("setting up tracing: %w", err)
		}
		defer func() { _ = shutdown(context.Background()) }()
	}

	taxonomy, err := commodity.LoadTaxonomy(cfg.CommoditiesFile)
	if err != nil {
		return err
	}
	anomaly, err := query.LoadFlaringAnomaly(cfg.FlaringAnomalySQLFile)
	if err != nil {
		logger.WithError(err).Warn("Flaring anomaly endpoint disabled")
	}
	policy, err := pricing.PolicyByName(cfg.PricePolicy)
	if err != nil {
		return err
	}

	svc := &services{}
	deps := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	deps.AddDependency(startup.Func{
		Name: "database",
		OnStart: func(ctx context.Context) (err error) {
			svc.db, err = connect(ctx, cfg, logger)
			return err
		},
		OnStop: func(context.Context) error { return svc.db.Close() },
	})
	if cfg.RedisEnabled {
		deps.AddDependency(startup.Func{
			Name: "redis",
			OnStart: func(ctx context.Context) (err error) {
				svc.redis, err = redis.NewClient(ctx, redis.Config{
					Host:     cfg.RedisHost,
					Port:     cfg.RedisPort,
					Password: cfg.RedisPassword,
					DB:       cfg.RedisDB,
				}, logger)
				return err
			},
			OnStop: func(context.Context) error { return svc.redis.Close() },
		})
	}
	if err := deps.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = deps.Stop(stopCtx)
	}()

	var maintenance atomic.Bool
	maintenance.Store(cfg.MaintenanceMode)

	var responses *cache.Cache
	if cfg.CacheEnabled {
		var locker cache.Locker
		if svc.redis != nil {
			locker = cache.RedisLocker(redis.NewLocker(svc.redis, ""))
		}
		responses = cache.New(repositories.NewCacheRepository(svc.db, logger), locker, cache.Config{
			LockTTL:        cfg.CacheLockTTL,
			LockTimeout:    cfg.CacheLockTimeout,
			ComputeTimeout: cfg.CacheComputeTimeout,
		}, logger)
	}

	endpoints := endpoint.Catalogue(taxonomy, anomaly)
	pipeline := endpoint.NewPipeline(
		svc.db,
		params.NewParser(),
		credential.NewGate(repositories.NewAPIKeyRepository(svc.db, logger), logger),
		pricing.NewSelector(policy),
		postprocess.NewProcessor(translate.New(cfg.LanguageDir), logger),
		responses,
		endpoint.Config{Maintenance: maintenance.Load},
		logger,
	)

	if cfg.KafkaEnabled && responses != nil {
		consumer, err := kafka.NewConsumer(kafkaConfig(cfg), logger)
		if err != nil {
			return err
		}
		pathsReading := func(dataset string) []string { return endpoint.PathsReading(endpoints, dataset) }
		if err := consumer.Start(ctx, kafka.InvalidationHandler(responses, pathsReading, logger)); err != nil {
			return err
		}
		defer func() { _ = consumer.Stop() }()
	}

	checker := health.NewChecker(cfg.Version).
		Require("database", svc.db.PingContext).
		WithMaintenance(maintenance.Load)
	if svc.redis != nil {
		checker.Optional("redis", svc.redis.Ping)
	}

	e := newEcho(cfg, logger)
	checker.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	endpointHandler := handlers.NewEndpointHandler(pipeline, endpoints, logger)
	endpointHandler.RegisterRoutes(e)
	e.GET("/", endpointHandler.List)

	if cfg.AuthEnabled && responses != nil {
		verifier, err := middleware.NewOIDCVerifier(ctx, cfg.AuthIssuerURL, cfg.AuthClientID)
		if err != nil {
			return err
		}
		handlers.NewAdminHandler(responses, endpoints, logger).
			RegisterRoutes(e, middleware.Authentication(logger, verifier))
	}

	go reloadMaintenance(ctx, envFile, &maintenance, logger)

	return listen(ctx, cfg, e, checker, logger)
}

func newEcho(cfg *config.Config, logger ectologger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	if cfg.OTLPEnabled {
		e.Use(otelecho.Middleware(cfg.AppName))
	}
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	return e
}

func kafkaConfig(cfg *config.Config) kafka.ConsumerConfig {
	kc := kafka.DefaultConsumerConfig()
	kc.Brokers = cfg.KafkaBrokers
	kc.Topic = cfg.KafkaWarehouseTopic
	kc.GroupID = cfg.KafkaConsumerGroup
	return kc
}

// reloadMaintenance re-reads MAINTENANCE_MODE on SIGHUP.
func reloadMaintenance(ctx context.Context, envFile string, maintenance *atomic.Bool, logger ectologger.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			cfg, err := loadConfig(envFile)
			if err != nil {
				logger.WithError(err).Error("Failed to reload configuration")
				continue
			}
			maintenance.Store(cfg.MaintenanceMode)
			logger.WithField("maintenance", cfg.MaintenanceMode).Info("Reloaded maintenance mode")
		}
	}
}

func listen(ctx context.Context, cfg *config.Config, e *echo.Echo, checker *health.Checker, logger ectologger.Logger) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           e,
		ReadTimeout:       cfg.HTTPReadTimeout(),
		ReadHeaderTimeout: cfg.HTTPReadHeaderTimeout(),
		WriteTimeout:      cfg.HTTPWriteTimeout(),
		IdleTimeout:       cfg.HTTPIdleTimeout(),
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()
	checker.SetReady(true)

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	checker.SetReady(false)
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
