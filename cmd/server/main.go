package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/adapters/event"
	githubAdapter "github.com/khoahotran/devconnector/adapters/github"
	httpAdapter "github.com/khoahotran/devconnector/adapters/http"
	"github.com/khoahotran/devconnector/adapters/persistence"
	"github.com/khoahotran/devconnector/internal/application/service"
	profileUC "github.com/khoahotran/devconnector/internal/application/usecase/profile"
	"github.com/khoahotran/devconnector/internal/config"
	"github.com/khoahotran/devconnector/internal/domain/profile"
	"github.com/khoahotran/devconnector/pkg/auth"
	"github.com/khoahotran/devconnector/pkg/keylock"
	"github.com/khoahotran/devconnector/pkg/logger"
	"github.com/khoahotran/devconnector/pkg/tracing"
)

func main() {
	fmt.Println("Start DevConnector API Server...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewTracerProvider(cfg, appLogger, "devconnector-api")
	if err != nil {
		appLogger.Fatal("cannot init tracer", err)
	}
	defer tp.Shutdown(context.Background())

	// Identity lookups always live in Postgres
	dbPool, err := persistence.NewPostgresPool(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect Postgres", err)
	}
	defer dbPool.Close()

	// Repositories
	userRepo := persistence.NewPostgresUserRepo(dbPool, appLogger)
	profileRepo, closeStore := newProfileRepo(ctx, cfg, appLogger, dbPool)
	defer closeStore()

	// Services
	locker, closeLocker := newLocker(ctx, cfg, appLogger)
	defer closeLocker()

	var publisher service.ProfileEventPublisher = event.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := event.NewKafkaProducerClient(cfg)
		if err != nil {
			appLogger.Fatal("cannot init Kafka", err)
		}
		defer kafkaClient.Close()
		publisher = kafkaClient
	} else {
		appLogger.Warn("Kafka brokers not configured, profile events are dropped")
	}

	repoLookup, err := githubAdapter.NewGitHubLookupAdapter(cfg, &http.Client{}, appLogger)
	if err != nil {
		appLogger.Fatal("cannot init GitHub adapter", err)
	}
	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)

	// Use Cases
	profileUseCase := profileUC.NewProfileUseCase(profileRepo, userRepo, repoLookup, locker, publisher, cfg.GitHub.Timeout, appLogger)

	// HTTP
	profileHandler := httpAdapter.NewProfileHandler(profileUseCase, appLogger)
	router := httpAdapter.NewRouter(profileHandler, jwtSvc, appLogger)

	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("cannot run server", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server shutdown failed", err)
	}
}

func newProfileRepo(ctx context.Context, cfg config.Config, appLogger logger.Logger, dbPool *pgxpool.Pool) (profile.Repository, func()) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		return persistence.NewPostgresProfileRepo(dbPool, appLogger), func() {}
	case config.StoreDriverMongo:
		client, err := persistence.NewMongoClient(ctx, cfg, appLogger)
		if err != nil {
			appLogger.Fatal("cannot connect MongoDB", err)
		}
		repo, err := persistence.NewMongoProfileRepo(ctx, client.Database(cfg.Mongo.Database), appLogger)
		if err != nil {
			appLogger.Fatal("cannot init Mongo profile store", err)
		}
		return repo, func() { _ = client.Disconnect(context.Background()) }
	case config.StoreDriverMemory:
		appLogger.Warn("Using in-memory profile store, data is lost on restart")
		return persistence.NewMemoryProfileRepo(), func() {}
	default:
		appLogger.Fatal("unknown store driver", nil, zap.String("driver", cfg.Store.Driver))
		return nil, nil
	}
}

// newLocker picks the per-owner write lock. Multi-instance deployments need lock.driver=redis.
func newLocker(ctx context.Context, cfg config.Config, appLogger logger.Logger) (service.Locker, func()) {
	if cfg.Lock.Driver != config.LockDriverRedis {
		return keylock.New(), func() {}
	}
	redisClient, err := persistence.NewRedisClient(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect Redis", err)
	}
	return persistence.NewRedisLocker(redisClient, cfg.Lock.TTL, appLogger), func() { _ = redisClient.Close() }
}
