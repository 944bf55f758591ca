// Command worker runs the two background processes a saga needs once it
// leaves the request path it was accepted on: retry polling for steps
// waiting out a backoff window, and outbox draining onto Kafka. Split out
// of cmd/server so neither process competes with HTTP request handling for
// goroutines or database connections, per SPEC_FULL.md's worker-process
// design.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"payorch.backend/internal/clearing"
	"payorch.backend/internal/clearing/rails"
	"payorch.backend/internal/config"
	domainrepos "payorch.backend/internal/domain/repositories"
	"payorch.backend/internal/dispatch"
	"payorch.backend/internal/eventbus"
	"payorch.backend/internal/fraud"
	"payorch.backend/internal/infrastructure/repositories"
	"payorch.backend/internal/ledger"
	"payorch.backend/internal/routing"
	"payorch.backend/internal/saga"
	"payorch.backend/internal/saga/steps"
	"payorch.backend/pkg/logger"
	"payorch.backend/pkg/redis"
	"payorch.backend/pkg/secretbox"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	getStdDB = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runWorkerProcess(); err != nil {
		log.Fatal(err)
	}
}

func runWorkerProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "worker logger initialized", zap.String("env", cfg.Server.Env))

	if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
		return fmt.Errorf("failed to initialize redis: %w", err)
	}

	db, err := openDB(cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	zapLog := logger.GetLogger()

	sealer, err := secretbox.NewSealer(cfg.Security.RailSecretSealingKey)
	if err != nil {
		return fmt.Errorf("failed to initialize rail secret sealer: %w", err)
	}
	rails.SetSealer(sealer)

	sagaRepo := repositories.NewSagaRepository(db)
	outboxRepo := repositories.NewOutboxRepository(db)
	tenantRepo := repositories.NewTenantConfigRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	clearingAdapterConfigRepo := repositories.NewClearingAdapterConfigRepository(db)
	uow := repositories.NewUnitOfWork(db)

	rateLimiter := clearing.NewRateLimiter(redis.GetClient())
	railClients := []clearing.RailClient{
		rails.NewBankservClient(),
		rails.NewPayShapClient(),
		rails.NewRTCClient(),
		rails.NewSAMOSClient(),
		rails.NewSWIFTClient(),
	}
	framework := clearing.NewFramework(clearingAdapterConfigRepo, railClients, rateLimiter, zapLog)
	resolver := routing.NewResolver(framework.Breakers())
	fraudAdapter := fraud.NewHTTPAdapter(cfg.Clearing.FraudBaseURL, cfg.Clearing.FraudTimeout, zapLog)
	ledgerAdapter := ledger.NewHTTPAdapter(cfg.Clearing.LedgerBaseURL, cfg.Clearing.LedgerTimeout, zapLog)

	waiters := dispatch.NewWaiterRegistry()
	callbackDispatcher := dispatch.NewCallbackDispatcher(cfg.Clearing.AdapterTimeout, zapLog)
	kafkaProducer, err := eventbus.NewKafkaProducer(eventbus.KafkaConfig{
		Brokers:      cfg.Kafka.Brokers,
		BatchTimeout: cfg.Kafka.BatchTimeout,
	}, zapLog)
	if err != nil {
		return fmt.Errorf("failed to initialize kafka producer: %w", err)
	}
	kafkaDispatcher := dispatch.NewKafkaDispatcher(kafkaProducer)
	responseDispatcher := dispatch.NewDispatcher(tenantRepo, waiters, callbackDispatcher, kafkaDispatcher, zapLog)

	engine := saga.NewEngine(sagaRepo, paymentRepo, outboxRepo, uow, []saga.Step{
		steps.NewValidateStep(),
		steps.NewFraudScoreStep(fraudAdapter),
		steps.NewReserveFundsStep(ledgerAdapter),
		steps.NewRouteStep(resolver),
		steps.NewSubmitToClearingStep(framework),
		steps.NewAwaitClearingResultStep(framework),
		steps.NewPostLedgerStep(ledgerAdapter),
		steps.NewNotifyStep(responseDispatcher, zapLog),
	}, zapLog)

	outboxPublisher := eventbus.NewOutboxPublisher(outboxRepo, kafkaProducer, cfg.Worker.OutboxInterval, cfg.Worker.OutboxBatch, zapLog)

	ctx, cancel := context.WithCancel(context.Background())
	go outboxPublisher.Start(ctx)

	sagaLoopDone := make(chan struct{})
	go runSagaRetryLoop(ctx, engine, sagaRepo, tenantRepo, cfg.Worker, zapLog, sagaLoopDone)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down worker...")
	cancel()
	outboxPublisher.Stop()
	<-sagaLoopDone
	return nil
}

// runSagaRetryLoop periodically re-drives every saga whose current step's
// backoff window has elapsed, per spec §5.1: the worker is the fallback
// path for a payment that didn't resolve inline during Accept's
// firstRunBudget window.
func runSagaRetryLoop(ctx context.Context, engine *saga.Engine, sagaRepo domainrepos.SagaRepository, tenantRepo domainrepos.TenantConfigRepository, cfg config.WorkerConfig, log *zap.Logger, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pollOnce(ctx, engine, sagaRepo, tenantRepo, cfg, log)
		}
	}
}

func pollOnce(ctx context.Context, engine *saga.Engine, sagaRepo domainrepos.SagaRepository, tenantRepo domainrepos.TenantConfigRepository, cfg config.WorkerConfig, log *zap.Logger) {
	due, err := sagaRepo.ListDueForRetry(ctx, time.Now(), cfg.PollBatchSize)
	if err != nil {
		log.Warn("worker: failed to list sagas due for retry", zap.Error(err))
		return
	}
	for _, s := range due {
		tenantCfg, err := tenantRepo.GetConfig(ctx, s.TenantID)
		if err != nil {
			log.Warn("worker: failed to load tenant config for saga retry",
				zap.String("sagaId", s.ID.String()), zap.Error(err))
			continue
		}
		if err := engine.Run(ctx, s.TenantID, s.ID, tenantCfg, cfg.LeaseDuration); err != nil {
			log.Warn("worker: saga run failed", zap.String("sagaId", s.ID.String()), zap.Error(err))
		}
	}
}
