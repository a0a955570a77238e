package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/vastralabs/photoshoot/internal/api"
	"github.com/vastralabs/photoshoot/internal/config"
	"github.com/vastralabs/photoshoot/internal/database"
	"github.com/vastralabs/photoshoot/internal/gateway"
	"github.com/vastralabs/photoshoot/internal/repository"
	"github.com/vastralabs/photoshoot/internal/service"
	"github.com/vastralabs/photoshoot/internal/storage"
	"github.com/vastralabs/photoshoot/internal/synthesis"
	"github.com/vastralabs/photoshoot/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr := logger.New(logger.ParseLevel(cfg.LogLevel))

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	store, err := storage.NewStore(storage.Config{
		Endpoint:      cfg.S3Endpoint,
		Region:        cfg.S3Region,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		Bucket:        cfg.S3Bucket,
		PublicBaseURL: cfg.S3PublicBaseURL,
		UsePathStyle:  cfg.S3UsePathStyle,
		Prefix:        cfg.S3Prefix,
	})
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	synthClient := synthesis.NewClient(cfg, logr)
	gatewayClient := gateway.NewClient(cfg)

	userRepo := repository.NewUserRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	generationRepo := repository.NewGenerationRepository(db)

	userService := service.NewUserService(cfg, logr, userRepo, ledgerRepo)
	generationService := service.NewGenerationService(cfg, logr, ledgerRepo, generationRepo, synthClient, store)
	paymentService := service.NewPaymentService(cfg, logr, orderRepo, ledgerRepo, gatewayClient)
	exportService := service.NewExportService(store)
	statsService := service.NewStatsService(userRepo, generationRepo, orderRepo)

	server := api.NewServer(cfg.ListenAddr, cfg.AdminUsername, cfg.AdminPassword, logr,
		userService, generationService, paymentService, exportService, statsService)

	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Error("server stopped", "err", err)
	}
}
