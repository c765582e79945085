package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eaglebank/personnel-service/internal/command"
	"github.com/eaglebank/personnel-service/internal/handler"
	"github.com/eaglebank/personnel-service/internal/identity"
	"github.com/eaglebank/personnel-service/internal/query"
	"github.com/eaglebank/personnel-service/internal/repository"
	"github.com/eaglebank/personnel-service/shared/config"
	"github.com/eaglebank/personnel-service/shared/events"
	logging "github.com/eaglebank/personnel-service/shared/logger"
	"github.com/eaglebank/personnel-service/shared/middleware"
	redisClient "github.com/eaglebank/personnel-service/shared/redis"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.LogLevel,
		Development: cfg.Development(),
		File:        cfg.LogFile,
	})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx := context.Background()
	var closers []func() error

	// Record store
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open record store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	closers = append(closers, closeStore)

	// Redis connection (record cache + event streaming)
	var redis *redisClient.Client
	if cfg.RedisAddr != "" {
		redis, err = redisClient.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		closers = append(closers, redis.Close)
		store = repository.NewCachedEmployeeStore(store, redis.Client, cfg.CacheTTL, logger)
	}

	publisher, closePublisher := openPublisher(cfg, redis, logger)
	if closePublisher != nil {
		closers = append(closers, closePublisher)
	}
	emitter := events.NewBestEffort(publisher, logger, cfg.EventPublishTimeout)

	// --- CQRS wiring ---
	identityClient := identity.New(cfg.IdentityURL, cfg.IdentityTimeout)

	commandSvc := command.NewEmployeeCommandService(store, identityClient, emitter, logger)
	querySvc := query.NewEmployeeQueryService(identityClient, store, logger)

	employeeHandler := handler.NewEmployeeHandler(commandSvc, querySvc)

	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.LoggingMiddleware(logger),
		gin.Recovery(),
		middleware.RateLimitByIP(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
	)

	personnel := router.Group("/personnel", middleware.AuthMiddleware([]byte(cfg.JWTSecret)))
	{
		personnel.GET("", employeeHandler.ListEmployees)
		personnel.GET("/:id", employeeHandler.GetEmployee)
		personnel.POST("", employeeHandler.CreateEmployee)
		personnel.PATCH("/:id", employeeHandler.UpdateEmployee)
		personnel.DELETE("/:id", employeeHandler.DeleteEmployee)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Personnel service starting", zap.String("port", cfg.Port), zap.String("store", cfg.StoreDriver), zap.String("event_bus", cfg.EventBus))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("Shutting down...", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}

	// In-flight publishes still need the bus and Redis.
	emitter.Wait()
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			logger.Warn("Failed to release resource", zap.Error(err))
		}
	}
	logger.Info("Server exited")
}

func openStore(ctx context.Context, cfg *config.Config) (repository.EmployeeStore, func() error, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}
		return repository.NewPostgresEmployeeRepository(db), db.Close, nil

	case config.StoreMemory:
		return repository.NewMemoryEmployeeRepository(), func() error { return nil }, nil

	default:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		if err := client.Ping(connectCtx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
		}
		closeFn := func() error {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Disconnect(disconnectCtx)
		}
		return repository.NewMongoEmployeeRepository(client.Database(cfg.MongoDatabase)), closeFn, nil
	}
}

func openPublisher(cfg *config.Config, redis *redisClient.Client, logger *zap.Logger) (events.Publisher, func() error) {
	switch cfg.EventBus {
	case config.EventBusKafka:
		writer := events.NewKafkaWriter(cfg.KafkaBrokers, logger)
		return events.NewKafkaPublisher(writer), writer.Close
	case config.EventBusRedis:
		return events.NewStreamPublisher(redis.Client), nil
	default:
		return events.NopPublisher{}, nil
	}
}
