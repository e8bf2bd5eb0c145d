package commands

import (
	"fmt"
	"os"

	"go-warehouse-ws/internal/config"
	"go-warehouse-ws/internal/events"
	"go-warehouse-ws/internal/repository"
	"go-warehouse-ws/internal/service"
	"go-warehouse-ws/pkg/database"
	applogger "go-warehouse-ws/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	// Global flags
	dbURL   string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "whctl",
	Short: "Warehouse admin operations",
	Long: `whctl runs maintenance tasks against the warehouse database using the
same services as the API server: schema migration, account recovery and
manual stock and order operations.

Configuration is read from .env and the environment like the server does;
--db overrides DATABASE_URL.`,
	Version:       config.ServiceVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database connection URL (defaults to DATABASE_URL / DB_* settings)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log SQL statements")
}

// app holds the services a command needs.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	db     *gorm.DB
	users  service.UserService
	orders service.OrderService
	stock  service.ProductService
}

func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}

	log, err := applogger.New(false, "whctl")
	if err != nil {
		return nil, err
	}

	if !cfg.EnvFileLoaded {
		log.Debug(".env file not found, using process environment")
	}

	level := gormlogger.Warn
	if verbose {
		level = gormlogger.Info
	}
	db, err := database.ConnectDB(cfg.DSN(), log, level)
	if err != nil {
		return nil, err
	}

	// No dashboard or broker is attached to CLI runs.
	publisher := events.Nop{}
	productRepo := repository.NewProductRepo(db)
	ledger := service.NewStockLedger(db, productRepo, repository.NewStockMovementRepo(db), publisher, cfg.AllowNegativeStock, log)

	return &app{
		cfg:    cfg,
		log:    log,
		db:     db,
		users:  service.NewUserService(repository.NewUserRepo(db), log),
		orders: service.NewOrderService(db, repository.NewOrderRepo(db), ledger, publisher, cfg.FulfillmentMode, log),
		stock:  service.NewProductService(db, productRepo, ledger, publisher, log),
	}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync()
}
