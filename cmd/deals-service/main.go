package main

import (
	"fmt"
	"os"

	"github.com/aidosq/jumys-deals/internal/auth"
	"github.com/aidosq/jumys-deals/internal/config"
	"github.com/aidosq/jumys-deals/internal/db"
	"github.com/aidosq/jumys-deals/internal/excel"
	httphandler "github.com/aidosq/jumys-deals/internal/http"
	"github.com/aidosq/jumys-deals/internal/http/middleware"
	"github.com/aidosq/jumys-deals/internal/logger"
	"github.com/aidosq/jumys-deals/internal/pdf"
	"github.com/aidosq/jumys-deals/internal/realtime"
	"github.com/aidosq/jumys-deals/internal/repository"
	"github.com/aidosq/jumys-deals/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	proposalRepo := repository.NewProposalRepository(database)
	contractRepo := repository.NewContractRepository(database)
	escrowRepo := repository.NewEscrowRepository(database)
	projectRepo := repository.NewProjectRepository(database)
	notificationRepo := repository.NewNotificationRepository(database)
	balanceRepo := repository.NewBalanceRepository(database)

	notifier := service.NewStoreNotifier(notificationRepo)

	var events service.EventPublisher
	if cfg.Redis.Addr != "" {
		publisher, err := realtime.NewPublisher(cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer publisher.Close()
		events = publisher
	}

	proposalService := service.NewProposalService(database, log, proposalRepo, contractRepo, escrowRepo, projectRepo, notifier, events)
	escrowService := service.NewEscrowService(database, log, escrowRepo, balanceRepo, notifier, events)
	contractService := service.NewContractService(database, log, contractRepo, notifier, events)
	notificationService := service.NewNotificationService(notificationRepo)
	exportService := service.NewExportService(contractRepo, escrowRepo, pdf.NewGenerator(), excel.NewGenerator())

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(proposalService, escrowService, contractService, notificationService, exportService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting deals service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
