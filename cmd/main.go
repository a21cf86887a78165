package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"orderhub/internal/caching"
	"orderhub/internal/common"
	"orderhub/internal/config"
	"orderhub/internal/handlers"
	"orderhub/internal/jobs"
	"orderhub/internal/messaging"
	"orderhub/internal/metrics"
	"orderhub/internal/middleware"
	"orderhub/internal/repositories"
	"orderhub/internal/services"
	"orderhub/pkg/database"
	"orderhub/pkg/logger"
)

var version = "dev"

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to an optional TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("orderhub stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.NewRegistry())

	pool, err := database.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, log); err != nil {
			return err
		}
	}

	var productCache caching.ProductCache
	if cfg.Redis.Addr != "" {
		productCache = caching.NewRedisProductCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.ProductTTL)
		defer productCache.Close()
		if err := productCache.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("product cache unreachable, reads fall back to the database")
		}
	}

	dialer, err := messaging.DialerFor(cfg.Broker.URL)
	if err != nil {
		return err
	}
	conn := messaging.NewConnection(cfg.Broker.URL, dialer, log,
		messaging.WithBackoff(messaging.Backoff{
			Initial:     cfg.Broker.ReconnectInitial,
			Multiplier:  cfg.Broker.ReconnectMultiplier,
			Max:         cfg.Broker.ReconnectMax,
			MaxAttempts: cfg.Broker.ReconnectMaxAttempts,
		}),
		messaging.WithStateObserver(func(s messaging.State) { m.BrokerState.Set(float64(s)) }),
	)
	if err := conn.Connect(ctx); err != nil {
		return err
	}
	defer conn.Close()

	publisher, err := messaging.NewPublisher(conn, cfg.Broker.Exchange, messaging.ExchangeTopic)
	if err != nil {
		return err
	}
	if err := publisher.Initialize(ctx); err != nil {
		return err
	}
	defer publisher.Close()

	validator := common.NewValidator()

	productSvc := services.NewProductService(repositories.NewProductRepo(pool), productCache, validator, m, log)
	customerSvc := services.NewCustomerService(repositories.NewCustomerRepo(pool), validator)
	orderSvc := services.NewOrderService(
		repositories.NewOrderRepo(pool),
		productSvc,
		services.NewInventoryClient(cfg.Inventory.URL, cfg.Inventory.Timeout, m),
		services.NewOrderEventPublisher(publisher, m, log),
		repositories.NewUnitOfWork(pool),
		validator,
		m,
		log,
	)

	var warmer jobs.CacheWarmer
	if productCache != nil {
		warmer = productSvc
	}
	scheduler, err := jobs.NewScheduler(jobs.Intervals{
		CacheWarmup: cfg.Jobs.CacheWarmupInterval,
		BrokerProbe: cfg.Jobs.BrokerProbeInterval,
	}, warmer, conn, m.BrokerState, log)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("scheduler shutdown failed")
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator
	e.HTTPErrorHandler = common.HTTPErrorHandler(log)

	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.Metrics(m))
	e.Use(echoMiddleware.CORS())
	e.Pre(echoMiddleware.RemoveTrailingSlash())

	versions := middleware.NewVersionMiddleware()
	e.Use(versions.RejectUnknownVersions())

	var cachePinger handlers.Pinger
	if productCache != nil {
		cachePinger = productCache
	}
	handlers.NewHealthHandlers(pool, cachePinger, conn, version).Register(e)
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	v1 := versions.VersionRoute(e, "v1")
	handlers.NewOrderHandlers(orderSvc, log).Register(v1)
	handlers.NewProductHandlers(productSvc, log).Register(v1)
	handlers.NewCustomerHandlers(customerSvc, log).Register(v1)

	serverErr := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		log.Info().Str("addr", addr).Str("version", version).Msg("http server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
