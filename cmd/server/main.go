package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"payorch.backend/internal/clearing"
	"payorch.backend/internal/clearing/rails"
	"payorch.backend/internal/config"
	"payorch.backend/internal/dispatch"
	"payorch.backend/internal/eventbus"
	"payorch.backend/internal/fraud"
	"payorch.backend/internal/infrastructure/repositories"
	"payorch.backend/internal/interfaces/http/handlers"
	"payorch.backend/internal/interfaces/http/middleware"
	"payorch.backend/internal/ledger"
	"payorch.backend/internal/routing"
	"payorch.backend/internal/saga"
	"payorch.backend/internal/saga/steps"
	"payorch.backend/internal/usecases"
	"payorch.backend/pkg/jwt"
	"payorch.backend/pkg/logger"
	"payorch.backend/pkg/metrics"
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
	newSessionStore = redis.NewSessionStore
	runServer       = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB        = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
		logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(context.Background(), "Redis initialized")

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	dsn := cfg.Database.URL()
	db, err := openDB(dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Printf("database not available: %v (endpoints will return errors)", err)
	} else {
		log.Println("connected to PostgreSQL via GORM")
	}

	zapLog := logger.GetLogger()

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry)

	sealer, err := secretbox.NewSealer(cfg.Security.RailSecretSealingKey)
	if err != nil {
		return fmt.Errorf("failed to initialize rail secret sealer: %w", err)
	}
	rails.SetSealer(sealer)

	// Repositories
	sagaRepo := repositories.NewSagaRepository(db)
	outboxRepo := repositories.NewOutboxRepository(db)
	tenantRepo := repositories.NewTenantConfigRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	clearingAdapterConfigRepo := repositories.NewClearingAdapterConfigRepository(db)
	adapterCredRepo := repositories.NewAdapterCredentialRepository(db)
	uetrRepo := repositories.NewUETRIndexRepository(db)
	operatorRepo := repositories.NewOperatorRepository(db)
	uow := repositories.NewUnitOfWork(db)

	sessionStore, err := newSessionStore(cfg.Security.SessionEncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}

	// Clearing framework: rate limiter, five rail clients, circuit-breaker
	// registry, then the routing resolver riding on top of it.
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

	// Response-mode dispatch: a synchronous waiter registry, an async
	// callback poster, and a Kafka topic publisher, fanned in by Dispatcher.
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

	// Saga engine: the eight steps wired to the ports above.
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

	// Usecases
	acceptUsecase := usecases.NewAcceptUsecase(paymentRepo, sagaRepo, tenantRepo, outboxRepo, uetrRepo, uow, engine, waiters, zapLog)
	statusUsecase := usecases.NewStatusUsecase(paymentRepo)
	cancelUsecase := usecases.NewCancelUsecase(paymentRepo, sagaRepo)
	callbackUsecase := usecases.NewCallbackUsecase(sagaRepo, tenantRepo, uetrRepo, engine, zapLog)
	adapterCredUsecase := usecases.NewAdapterCredentialUsecase(adapterCredRepo)
	operatorAuthUsecase := usecases.NewOperatorAuthUsecase(operatorRepo, jwtService)

	// Handlers
	paymentHandler := handlers.NewPaymentHandler(acceptUsecase, statusUsecase, cancelUsecase)
	opsHandler := handlers.NewOpsHandler(sagaRepo)
	clearingCallbackHandler := handlers.NewClearingCallbackHandler(callbackUsecase)
	operatorAuthHandler := handlers.NewOperatorAuthHandler(operatorAuthUsecase)
	adapterCredentialHandler := handlers.NewAdapterCredentialHandler(adapterCredUsecase)

	tenantContextMiddleware := middleware.TenantContextMiddleware(jwtService)
	authMiddleware := middleware.AuthMiddleware(jwtService, sessionStore)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(metrics.GinMiddleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	registerMetricsRoute(r)
	registerAPIV1Routes(r, routeDeps{
		paymentHandler:           paymentHandler,
		opsHandler:               opsHandler,
		clearingCallbackHandler:  clearingCallbackHandler,
		operatorAuthHandler:      operatorAuthHandler,
		adapterCredentialHandler: adapterCredentialHandler,
		tenantContextMiddleware:  tenantContextMiddleware,
		authMiddleware:           authMiddleware,
	})

	log.Println("registered routes:")
	for _, route := range r.Routes() {
		log.Printf("   %s %s", route.Method, route.Path)
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("shutting down server...")
	}()

	log.Printf("payment orchestration engine starting on port %s", cfg.Server.Port)
	log.Printf("API: http://localhost:%s/api/v1", cfg.Server.Port)
	log.Printf("Health: http://localhost:%s/health", cfg.Server.Port)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
