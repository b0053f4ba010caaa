package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"snelos/api"
	"snelos/config"
	"snelos/database"
	"snelos/events"
	"snelos/repository"
	"snelos/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting snelos ledger...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize Redis client for the treasury cache. The cache is optional:
	// with no address configured the treasury is served straight from
	// Postgres.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		log.Println("Connecting to Redis...")
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Println("Redis connection established successfully")
	}

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	log.Println("Initializing services...")
	ledgerService := service.NewLedgerService(uowFactory)
	accountService := service.NewAccountService(uowFactory)
	treasuryService := service.NewTreasuryService(uowFactory, redisClient)
	postService := service.NewPostService(uowFactory, ledgerService)
	searchService := service.NewSearchService(uowFactory, ledgerService)
	taskService := service.NewTaskService(uowFactory)
	log.Println("Services initialized successfully")

	// Wire the treasury aggregate to ledger events
	treasuryService.RegisterSubscriptions(eventBus)

	// Set up the HTTP server
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	handler := api.NewHandler(accountService, ledgerService, treasuryService, postService, searchService, taskService)
	handler.SetupRoutes(router, []byte(cfg.JWTSecret))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s in %s mode...", server.Addr, cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	// Cleanup resources
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing redis client: %v", err)
		}
	}

	log.Println("Closing database connection...")
	db.Close()

	log.Println("Shutdown completed")
	return nil
}
