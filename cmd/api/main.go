package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-warehouse-ws/internal/config"
	"go-warehouse-ws/internal/events"
	"go-warehouse-ws/internal/handler"
	"go-warehouse-ws/internal/middleware"
	"go-warehouse-ws/internal/observability"
	"go-warehouse-ws/internal/repository"
	"go-warehouse-ws/internal/router"
	"go-warehouse-ws/internal/service"
	"go-warehouse-ws/internal/ws"
	"go-warehouse-ws/pkg/database"
	"go-warehouse-ws/pkg/jwt"
	applogger "go-warehouse-ws/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

const (
	defaultAdminEmail    = "admin@example.com"
	defaultAdminPassword = "admin123"
)

func main() {
	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := applogger.New(cfg.IsProduction(), config.ServiceName)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	if !cfg.EnvFileLoaded {
		log.Warn(".env file not found, using process environment")
	}

	ctx := context.Background()
	shutdownTracing, err := observability.SetupTracing(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to set up tracing", zap.Error(err))
	}

	// 2. Setup Database
	gormLevel := gormlogger.Warn
	if !cfg.IsProduction() {
		gormLevel = gormlogger.Info
	}
	db, err := database.ConnectDB(cfg.DSN(), log, gormLevel)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := repository.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	// 3. Setup WebSocket Hub and event fan-out
	wsHub := ws.NewHub(log.Named("ws"))
	go wsHub.Run()

	publishers := events.Multi{wsHub}
	var kafkaPublisher *events.KafkaPublisher
	if cfg.KafkaBroker != "" {
		kafkaPublisher = events.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaTopic, log.Named("kafka"))
		publishers = append(publishers, kafkaPublisher)
		log.Info("Publishing events to Kafka", zap.String("broker", cfg.KafkaBroker), zap.String("topic", cfg.KafkaTopic))
	}

	// 4. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	movementRepo := repository.NewStockMovementRepo(db)
	userRepo := repository.NewUserRepo(db)

	ledger := service.NewStockLedger(db, productRepo, movementRepo, publishers, cfg.AllowNegativeStock, log.Named("ledger"))
	productService := service.NewProductService(db, productRepo, ledger, publishers, log.Named("products"))
	orderService := service.NewOrderService(db, orderRepo, ledger, publishers, cfg.FulfillmentMode, log.Named("orders"))
	dashService := service.NewDashboardService(movementRepo, orderRepo)
	authService := service.NewAuthService(userRepo, jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL), log.Named("auth"))
	userService := service.NewUserService(userRepo, log.Named("users"))

	// 5. Seed default admin user
	if created, err := userService.EnsureAdmin(ctx, defaultAdminEmail, defaultAdminPassword); err != nil {
		log.Warn("Failed to seed admin user", zap.Error(err))
	} else if created {
		log.Info("Admin user created, change its password", zap.String("email", defaultAdminEmail))
	}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Warehouse Admin v" + config.ServiceVersion,
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS
	app.Use(middleware.Tracing())

	// 7. Routes
	router.Setup(app, router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Product:   handler.NewProductHandler(productService),
		Order:     handler.NewOrderHandler(orderService),
		Dashboard: handler.NewDashboardHandler(dashService),
		User:      handler.NewUserHandler(userService),
		Health:    handler.NewHealthHandler(db, cfg.AppEnv),
	}, authService, wsHub)

	log.Info("Starting server",
		zap.String("port", cfg.Port),
		zap.String("fulfillment_mode", string(cfg.FulfillmentMode)),
		zap.Bool("allow_negative_stock", cfg.AllowNegativeStock))

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Panic("Server stopped", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	wsHub.Stop()

	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			log.Warn("Failed to flush Kafka writer", zap.Error(err))
		}
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		log.Warn("Failed to flush traces", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("Server exited")
}
