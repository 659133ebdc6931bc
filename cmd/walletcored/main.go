package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/coinsuite/walletcore/api"
	"github.com/coinsuite/walletcore/internal/adapters"
	"github.com/coinsuite/walletcore/internal/config"
	"github.com/coinsuite/walletcore/internal/currency"
	"github.com/coinsuite/walletcore/internal/enablecoin"
	"github.com/coinsuite/walletcore/internal/managewallets"
	"github.com/coinsuite/walletcore/internal/marketdata"
	"github.com/coinsuite/walletcore/internal/walletmanager"
	"github.com/coinsuite/walletcore/pkg/logger"
	"github.com/coinsuite/walletcore/pkg/models"
)

func main() {
	cfg := config.Load()

	zapLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		zapLogger.Fatal("Failed to open database", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	marketClient, err := marketdata.NewClient(db, redisClient, cfg.PriceAPIURL, zapLogger.Named("marketdata"))
	if err != nil {
		zapLogger.Fatal("Failed to create market-data client", zap.Error(err))
	}

	currencyManager := currency.NewManager(cfg.BaseCurrency)

	walletMgr, err := walletmanager.NewManager(db, zapLogger.Named("wallets"))
	if err != nil {
		zapLogger.Fatal("Failed to create wallet manager", zap.Error(err))
	}

	adapter := adapters.NewEvmAdapter(cfg.EvmNodeWSURL, cfg.EvmExplorerURL, "Etherscan", zapLogger.Named("evm"))

	enableFlow := enablecoin.NewService(zapLogger.Named("enablecoin"))
	restoreSettings, err := enablecoin.NewRestoreSettingsService(db, zapLogger.Named("restore"))
	if err != nil {
		zapLogger.Fatal("Failed to create restore settings service", zap.Error(err))
	}

	account := models.Account{
		ID:     uuid.NewSHA1(uuid.NameSpaceOID, []byte("walletcore-default-account")),
		Name:   "Wallet 1",
		Origin: models.AccountCreated,
	}

	manageWallets := managewallets.NewService(
		marketClient,
		walletMgr,
		enableFlow,
		restoreSettings,
		account,
		managewallets.Config{
			FeaturedPageSize: cfg.FeaturedPageSize,
			SearchPageSize:   cfg.SearchPageSize,
		},
		zapLogger.Named("managewallets"),
	)

	server := api.NewServer(zapLogger.Named("api"), manageWallets, enableFlow, adapter, marketClient, currencyManager)

	go func() {
		if err := server.Start(cfg.HTTPAddr); err != nil {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		zapLogger.Error("HTTP shutdown failed", zap.Error(err))
	}

	manageWallets.Clear()
	enableFlow.Close()
	adapter.Close()
	walletMgr.Close()

	if err := redisClient.Close(); err != nil {
		zapLogger.Error("Redis close failed", zap.Error(err))
	}
}
