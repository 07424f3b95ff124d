package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/backstage/services/distribution/config"
	"example.com/backstage/services/distribution/internal/api"
	"example.com/backstage/services/distribution/internal/cache"
	"example.com/backstage/services/distribution/internal/database"
	"example.com/backstage/services/distribution/internal/messaging"
	"example.com/backstage/services/distribution/internal/metrics"
	"example.com/backstage/services/distribution/internal/search"
	"example.com/backstage/services/distribution/internal/service"
	"example.com/backstage/services/distribution/internal/tracing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server for deliveries, mappings, permissions and credit`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, readOnlyDB, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}
	defer database.Close(db)
	defer database.Close(readOnlyDB)

	if err := database.Migrate(db); err != nil {
		return err
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
	}

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer = tracing.Disabled()
	}

	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search")
	}

	var publisher messaging.ServiceBusClient
	if cfg.Azure.QueueConnStr != "" {
		publisher, err = messaging.NewServiceBusClient(cfg.Azure, "api")
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Service Bus publisher, continuing without events")
		} else {
			defer publisher.Close()
		}
	}

	metricsCollector := metrics.NewMetrics()

	var permCache service.PermissionCache
	if redisCache != nil {
		permCache = redisCache
	}
	permService := service.NewPermissionService(db, readOnlyDB, permCache, cfg.Auth.PermissionCacheTTL, metricsCollector)
	authService := service.NewAuthService(db, readOnlyDB, permService, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	var indexer service.SummaryIndexer
	if elasticClient != nil {
		indexer = elasticClient
	}
	deliveryService := service.NewDeliveryService(db, readOnlyDB, redisCache, publisher, indexer, tracer, metricsCollector)
	mappingService := service.NewMappingService(db, readOnlyDB, metricsCollector)
	creditService := service.NewCreditService(db, readOnlyDB)
	purchaseService := service.NewPurchaseService(db, readOnlyDB, metricsCollector)
	stockService := service.NewStockService(db, readOnlyDB, metricsCollector)
	assignmentService := service.NewAssignmentService(db, readOnlyDB)

	server := api.NewServer(cfg, api.Services{
		Auth:       authService,
		Permission: permService,
		Delivery:   deliveryService,
		Mapping:    mappingService,
		Credit:     creditService,
		Purchase:   purchaseService,
		Stock:      stockService,
		Assignment: assignmentService,
	}, tracer, metricsCollector)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
		}
	}()

	<-ctx.Done()

	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Shutting down API server")
	return nil
}
