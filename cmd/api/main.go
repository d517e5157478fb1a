package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/dairyshop/api"
	"github.com/example/dairyshop/pkg/auth"
	"github.com/example/dairyshop/pkg/cart"
	"github.com/example/dairyshop/pkg/catalog"
	"github.com/example/dairyshop/pkg/checkout"
	"github.com/example/dairyshop/pkg/config"
	"github.com/example/dairyshop/pkg/notify"
	"github.com/example/dairyshop/pkg/ratelimit"
	"github.com/example/dairyshop/pkg/repository"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := buildLogger(&cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting storefront API",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Driver))

	products, orders, closeStore, err := openStorage(cfg)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer closeStore()

	redisRepo := repository.NewRedisRepository(&cfg.Redis)
	defer redisRepo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisRepo.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed", zap.Error(err))
	} else {
		logger.Info("Redis connected successfully")
	}
	cancel()

	cat := catalog.NewService(products, redisRepo, cfg.Store.CatalogCacheTTL, logger)
	engine := cart.NewEngine(cat, cart.Config{
		DeliveryCharge:    cfg.Store.DeliveryCharge,
		FreeDeliveryAbove: cfg.Store.FreeDeliveryAbove,
		MinimumOrder:      cfg.Store.MinimumOrder,
		MaxItemQuantity:   cfg.Store.MaxItemQuantity,
	})
	carts := repository.NewCartStore(redisRepo, cfg.Store.CartTTL)
	fanout := notify.NewFanout(notify.NewEmailClient(&cfg.Email), &cfg.Email, logger)
	co := checkout.NewService(engine, carts, orders, fanout, logger)
	verifier := auth.NewVerifier(&cfg.Auth)
	limiter := ratelimit.New(cfg.RateLimit.Window, cfg.RateLimit.Max)

	server := api.NewServer(cfg, logger, cat, engine, carts, orders, co, verifier, limiter)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			serverErr <- err
		}
	}()

	logger.Info("Storefront API started successfully")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Storefront API stopped")
}

func openStorage(cfg *config.Config) (repository.ProductRepository, repository.OrderRepository, func(), error) {
	switch cfg.Storage.Driver {
	case "mysql":
		repo, err := repository.NewSQLRepository(&cfg.MySQL)
		if err != nil {
			return nil, nil, nil, err
		}
		return repo.Products(), repo.Orders(), func() { repo.Close() }, nil
	case "mongo", "":
		repo, err := repository.NewMongoRepository(&cfg.MongoDB)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			repo.Close(ctx)
		}
		return repo.Products(), repo.Orders(), closeFn, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func buildLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	if cfg.Level == "" && cfg.Encoding == "" {
		return zap.NewProduction()
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	if cfg.Encoding != "" {
		zapCfg.Encoding = cfg.Encoding
	}
	if len(cfg.OutputPaths) > 0 {
		zapCfg.OutputPaths = cfg.OutputPaths
	}
	return zapCfg.Build()
}
