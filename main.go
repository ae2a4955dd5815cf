package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rewards_ledger/config"
	"github.com/rewards_ledger/handler"
	"github.com/rewards_ledger/notify"
	"github.com/rewards_ledger/repository"
	"github.com/rewards_ledger/router"
	"github.com/rewards_ledger/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	store := initStore(cfg, logger)

	if cfg.SeedDemoData {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := repository.SeedDemo(ctx, store); err != nil {
			logger.Warn("demo seed failed", zap.Error(err))
		}
		cancel()
	}

	var notifier service.Notifier
	if cfg.BotToken != "" && cfg.AdminChatID != "" {
		notifier = notify.NewTelegramNotifier(cfg.TelegramAPIBase, cfg.BotToken, cfg.AdminChatID, logger)
	} else {
		logger.Warn("bot credentials not configured, admin notifications disabled")
	}

	ledgerSvc := service.NewLedgerService(store, cfg.RatePerPoint, logger)
	withdrawSvc := service.NewWithdrawService(store, notifier, cfg.MinWithdrawal, logger)
	statsSvc := service.NewStatsService(store, logger)

	users := handler.NewUserHandler(ledgerSvc, withdrawSvc, statsSvc, cfg.PointsPerAd)
	admin := handler.NewAdminHandler(withdrawSvc, statsSvc)

	r := router.SetupRouter(users, admin, logger, cfg.AllowedOrigins, store.Mode())

	logger.Info("rewards ledger service listening",
		zap.String("addr", cfg.ListenAddr),
		zap.String("storage", store.Mode()))
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// initStore opens postgres; when the backend is unreachable the service
// degrades to volatile in-memory storage instead of refusing to start.
func initStore(cfg *config.Config, logger *zap.Logger) repository.Store {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory storage (volatile)")
		return repository.NewMemoryStore()
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		logger.Warn("postgres unavailable, degrading to in-memory storage (volatile)", zap.Error(err))
		return repository.NewMemoryStore()
	}
	store, err := repository.NewGormStore(db)
	if err != nil {
		logger.Warn("postgres init failed, degrading to in-memory storage (volatile)", zap.Error(err))
		return repository.NewMemoryStore()
	}
	logger.Info("postgres storage ready")
	return store
}
