package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/adapters/event"
	"github.com/khoahotran/devconnector/adapters/persistence"
	accountUC "github.com/khoahotran/devconnector/internal/application/usecase/account"
	"github.com/khoahotran/devconnector/internal/config"
	"github.com/khoahotran/devconnector/internal/domain/profile"
	"github.com/khoahotran/devconnector/pkg/logger"
)

func main() {
	fmt.Println("Starting DevConnector Worker...")

	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		log.Fatalf("FATAL: kafka.brokers is required for the worker")
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	dbPool, err := persistence.NewPostgresPool(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect Postgres", err)
	}
	defer dbPool.Close()

	// Repositories
	userRepo := persistence.NewPostgresUserRepo(dbPool, appLogger)
	profileRepo, closeStore, err := newProfileRepo(ctx, cfg, appLogger, dbPool)
	if err != nil {
		appLogger.Fatal("cannot init profile store", err)
	}
	defer closeStore()

	// Worker Use Case
	processProfileEventUC := accountUC.NewProcessProfileEventUseCase(profileRepo, userRepo, appLogger)

	// Kafka Consumer
	profileConsumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    event.TopicProfileEvents,
		GroupID:  "account-cleanup-group",
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer profileConsumer.Close()

	appLogger.Info("Worker listening", zap.String("topic", event.TopicProfileEvents))

	for {
		msg, err := profileConsumer.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				appLogger.Info("Worker stopped")
				return
			}
			appLogger.Error("Failed to read message from Kafka", err)
			continue
		}

		payload, err := event.DecodeProfileEvent(msg)
		if err != nil {
			appLogger.Warn("Skipping undecodable event", zap.String("key", string(msg.Key)), zap.Error(err))
			commitMessage(profileConsumer, msg, appLogger)
			continue
		}

		if err := processProfileEventUC.Execute(ctx, payload); err != nil {
			appLogger.Error("Failed to process profile event", err,
				zap.String("owner_id", payload.OwnerID.String()),
				zap.String("event_type", string(payload.EventType)))
			continue
		}

		commitMessage(profileConsumer, msg, appLogger)
	}
}

func commitMessage(consumer *kafka.Reader, msg kafka.Message, appLogger logger.Logger) {
	if err := consumer.CommitMessages(context.Background(), msg); err != nil {
		appLogger.Error("Failed to commit message", err)
	}
}

// newProfileRepo opens the store the server writes to. The stale-event check
// reads it, so an in-process store on the server side cannot be shared.
func newProfileRepo(ctx context.Context, cfg config.Config, appLogger logger.Logger, dbPool *pgxpool.Pool) (profile.Repository, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		return persistence.NewPostgresProfileRepo(dbPool, appLogger), func() {}, nil
	case config.StoreDriverMongo:
		client, err := persistence.NewMongoClient(ctx, cfg, appLogger)
		if err != nil {
			return nil, nil, err
		}
		repo, err := persistence.NewMongoProfileRepo(ctx, client.Database(cfg.Mongo.Database), appLogger)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return repo, func() { _ = client.Disconnect(context.Background()) }, nil
	case config.StoreDriverMemory:
		return nil, nil, errors.New("store.driver=memory is not visible to the worker, use postgres or mongo")
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
