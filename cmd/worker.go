package cmd

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"example.com/backstage/services/distribution/config"
	"example.com/backstage/services/distribution/internal/cache"
	"example.com/backstage/services/distribution/internal/database"
	"example.com/backstage/services/distribution/internal/messaging"
	"example.com/backstage/services/distribution/internal/metrics"
	"example.com/backstage/services/distribution/internal/search"
	"example.com/backstage/services/distribution/internal/service"
	"example.com/backstage/services/distribution/internal/tracing"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker that reconciles open delivery metrics and processes delivery events`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
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

	g, ctx := errgroup.WithContext(ctx)

	db, readOnlyDB, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}
	defer database.Close(db)
	defer database.Close(readOnlyDB)

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

	metricsCollector := metrics.NewMetrics()

	var indexer service.SummaryIndexer
	if elasticClient != nil {
		indexer = elasticClient
	}
	deliveryService := service.NewDeliveryService(db, readOnlyDB, redisCache, nil, indexer, tracer, metricsCollector)

	// Periodic reconciliation keeps delivery rollups accurate even when an
	// update path skipped them.
	g.Go(func() error {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Worker.ReconcileInterval),
			gocron.NewTask(func() {
				log.Info().Msg("Reconciling open delivery metrics")
				if err := deliveryService.RecomputeOpenDeliveryMetrics(ctx); err != nil {
					log.Error().Err(err).Msg("Failed to reconcile open delivery metrics")
				}
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()
		<-ctx.Done()
		return scheduler.Shutdown()
	})

	// Consume delivery events from the service bus when configured.
	if cfg.Azure.QueueConnStr != "" {
		consumer, err := messaging.NewConsumer(cfg.Azure, deliveryEventHandler(elasticClient, deliveryService))
		if err != nil {
			return err
		}
		defer consumer.Close()

		g.Go(func() error {
			log.Info().Str("queue", cfg.Azure.QueueName).Msg("Starting Service Bus consumer")
			if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		})
	}

	log.Info().Msg("Worker started")

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}

	log.Info().Msg("Shutting down worker")
	return nil
}

// deliveryEventHandler reindexes closed deliveries announced on the queue so
// the search index recovers from indexing failures at close time.
func deliveryEventHandler(elasticClient *search.ElasticClient, deliveryService *service.DeliveryService) messaging.MessageHandler {
	return func(ctx context.Context, eventType string, body []byte) error {
		if eventType != messaging.EventTypeDeliveryClosed {
			log.Warn().Str("event_type", eventType).Msg("Ignoring unknown event type")
			return nil
		}

		var event messaging.DeliveryClosedEvent
		if err := json.Unmarshal(body, &event); err != nil {
			log.Error().Err(err).Msg("Malformed delivery closed event, dropping")
			return nil
		}

		if elasticClient == nil {
			return nil
		}

		delivery, err := deliveryService.GetDelivery(ctx, event.DeliveryID)
		if err != nil {
			return err
		}
		actuals, err := deliveryService.GetItemActuals(ctx, event.DeliveryID)
		if err != nil {
			return err
		}

		return elasticClient.IndexDeliverySummary(ctx, delivery, actuals)
	}
}
