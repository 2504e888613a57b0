package main

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/piresc/tirtha/internal/pkg/circuitbreaker"
	"github.com/piresc/tirtha/internal/pkg/config"
	"github.com/piresc/tirtha/internal/pkg/database"
	"github.com/piresc/tirtha/internal/pkg/health"
	httppkg "github.com/piresc/tirtha/internal/pkg/http"
	"github.com/piresc/tirtha/internal/pkg/logger"
	"github.com/piresc/tirtha/internal/pkg/middleware"
	"github.com/piresc/tirtha/internal/pkg/models"
	natspkg "github.com/piresc/tirtha/internal/pkg/nats"
	nrpkg "github.com/piresc/tirtha/internal/pkg/newrelic"
	"github.com/piresc/tirtha/internal/pkg/retry"
	"github.com/piresc/tirtha/internal/pkg/server"
	wspkg "github.com/piresc/tirtha/internal/pkg/websocket"
	"github.com/piresc/tirtha/services/tracking"
	"github.com/piresc/tirtha/services/tracking/gateway"
	"github.com/piresc/tirtha/services/tracking/handler"
	httpHandler "github.com/piresc/tirtha/services/tracking/handler/http"
	wsHandler "github.com/piresc/tirtha/services/tracking/handler/websocket"
	"github.com/piresc/tirtha/services/tracking/live"
	"github.com/piresc/tirtha/services/tracking/repository"
	"github.com/piresc/tirtha/services/tracking/subscription"
	"github.com/piresc/tirtha/services/tracking/usecase"
	"go.uber.org/zap"
)

func main() {
	appName := "tracking-service"
	configs := config.InitConfig(config.GetEnv("CONFIG_PATH", "config/tracking.env"))

	// Initialize New Relic and Zap logger
	nrApp := nrpkg.InitNewRelic(configs)
	if nrApp != nil {
		if err := nrApp.WaitForConnection(10 * time.Second); err != nil {
			log.Printf("Warning: New Relic connection timeout: %v", err)
		}
	}

	zapLogger, err := logger.InitZapLoggerFromConfig(configs, nrApp)
	if err != nil {
		log.Fatalf("Failed to create Zap logger: %v", err)
	}
	defer zapLogger.Close()
	logger.SetGlobalLogger(zapLogger)

	zapLogger.Info("Starting application",
		zap.String("app", appName),
		zap.String("version", configs.App.Version),
		zap.String("environment", configs.App.Environment),
		zap.String("store", configs.Tracking.Store),
	)

	shutdown := server.NewShutdownManager(zapLogger)
	healthSvc := health.NewService()

	// Durable store
	var repo tracking.LocationRepo
	switch configs.Tracking.Store {
	case "redis":
		redisClient, err := database.NewRedisClient(configs.Redis)
		if err != nil {
			zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		shutdown.Register("redis", func(context.Context) error { return redisClient.Close() })
		healthSvc.AddChecker("redis", health.RedisChecker(redisClient))
		repo = repository.NewRedisLocationRepo(redisClient, configs.Tracking.RedisTxRetries)
	default:
		postgresClient, err := database.NewPostgresClient(configs.Database)
		if err != nil {
			zapLogger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		shutdown.Register("postgres", func(context.Context) error { return postgresClient.Close() })
		healthSvc.AddChecker("postgres", health.PostgresChecker(postgresClient))
		pgRepo := repository.NewPostgresLocationRepo(postgresClient.GetDB())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = pgRepo.EnsureSchema(ctx)
		cancel()
		if err != nil {
			zapLogger.Fatal("Failed to ensure schema", zap.Error(err))
		}
		repo = pgRepo
	}

	// Live layer, relayed between instances when NATS is configured
	broadcaster := live.NewBroadcaster(live.WithGeohashPrecision(configs.Tracking.GeohashPrecision))
	var livePub tracking.LivePublisher = broadcaster
	var notifier tracking.Notifier = gateway.NopNotifier{}

	var natsClient *natspkg.Client
	if configs.NATS.URL != "" {
		natsClient, err = natspkg.NewClient(configs.NATS.URL)
		if err != nil {
			zapLogger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		shutdown.Register("nats", func(context.Context) error {
			natsClient.Close()
			return nil
		})
		healthSvc.AddChecker("nats", health.NATSChecker(natsClient))

		if err := natspkg.EnsureStreams(natsClient); err != nil {
			zapLogger.Fatal("Failed to create JetStream streams", zap.Error(err))
		}
		notifier = gateway.NewNATSNotifier(natsClient)

		if configs.Tracking.RelayEnabled {
			relay := gateway.NewLiveRelay(broadcaster, natsClient)
			if err := relay.Start(); err != nil {
				zapLogger.Fatal("Failed to start live relay", zap.Error(err))
			}
			shutdown.Register("live-relay", func(context.Context) error { return relay.Stop() })
			livePub = relay
		}
	}
	shutdown.Register("live-layer", func(context.Context) error {
		broadcaster.Close()
		return nil
	})

	// Group membership from the group service
	var groups tracking.GroupDirectory
	if configs.Services.GroupServiceURL != "" {
		groupClient := httppkg.NewAPIKeyClient(configs.APIKey.GroupService, "group-service", configs.Services.GroupServiceURL).
			WithResilience(circuitbreaker.DefaultConfig("group-service"), retry.DefaultConfig())
		groups = gateway.NewHTTPGroupDirectory(groupClient)
	}

	feeds := subscription.NewManager(livePub, groups, subscription.Config{
		InitialTimeout:  time.Duration(configs.Tracking.SnapshotTimeoutMs) * time.Millisecond,
		DefaultStrategy: models.GroupStrategy(configs.Tracking.GroupStrategy),
	})
	shutdown.Register("live-feeds", func(context.Context) error {
		feeds.CloseAll()
		return nil
	})

	trackingUC := usecase.NewTrackingUC(repo, livePub, feeds, notifier, usecase.ConfigFromModel(configs.Tracking))
	shutdown.Register("tracking-usecase", func(context.Context) error {
		trackingUC.Close()
		return nil
	})

	// Warm the live layer from the durable store
	rebuildCtx, cancelRebuild := context.WithTimeout(context.Background(), 30*time.Second)
	restored, err := trackingUC.RebuildLive(rebuildCtx)
	cancelRebuild()
	if err != nil {
		zapLogger.Warn("Failed to rebuild live layer", zap.Error(err))
	} else {
		zapLogger.Info("Live layer rebuilt", zap.Int("actors", restored))
	}

	if natsClient != nil {
		deviceHandler := handler.NewDeviceSampleHandler(trackingUC, natsClient, nrApp)
		if err := deviceHandler.InitNATSConsumers(); err != nil {
			zapLogger.Fatal("Failed to initialize NATS consumers", zap.Error(err))
		}
	}

	// Handlers
	wsManager := wspkg.NewManager(configs.JWT)
	shutdown.Register("websocket", func(context.Context) error {
		wsManager.CloseAll()
		return nil
	})
	routes := handler.NewHandler(
		httpHandler.NewTrackingHandler(trackingUC, configs.Tracking),
		wsHandler.NewLiveFeedHandler(wsManager, trackingUC, feeds),
		configs,
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.PanicRecoveryWithZapMiddleware(zapLogger))
	e.Use(middleware.NewRelicMiddleware(nrApp))
	e.Use(logger.ZapEchoMiddleware(zapLogger))

	health.RegisterHealthEndpoints(e, appName, healthSvc)
	routes.RegisterRoutes(e)

	if err := server.NewGracefulServer(e, zapLogger, configs.Server.Port).WithShutdownManager(shutdown).Start(); err != nil {
		zapLogger.Fatal("Server stopped with error", zap.String("app", appName), zap.Error(err))
	}
}
