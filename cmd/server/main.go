package main

import (
	"context"
	"github.com/maxaizer/apply-archive/internal/api"
	"github.com/maxaizer/apply-archive/internal/config"
	"github.com/maxaizer/apply-archive/internal/logger"
	"github.com/maxaizer/apply-archive/internal/repositories"
	"github.com/maxaizer/apply-archive/internal/services"
	log "github.com/sirupsen/logrus"
	"os/signal"
	"syscall"
)

var version = "dev"

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	logger.Setup(cfg.Logger)
	defer logger.Cleanup()

	dbContext, err := repositories.NewDbContext(cfg.Server.DBPath)
	if err != nil {
		log.Fatalf("can't create db context: %v", err)
	}
	defer dbContext.Close()

	err = dbContext.MigrateApplications()
	if err != nil {
		log.Fatalf("can't migrate db context: %v", err)
	}

	applications := repositories.NewCachedApplications(
		repositories.NewApplicationsRepository(dbContext.DB), cfg.Server.CacheTTL)

	cleaner, err := services.NewUploadsCleaner(applications, cfg.Server.UploadsDir, cfg.Server.UploadsRetentionDays)
	if err != nil {
		log.Fatalf("can't create uploads cleaner: %v", err)
	}
	cleaner.Start()
	defer cleaner.Stop()

	server := api.NewServer(applications, cfg.Server, version)
	if err = server.Run(ctx, cfg.Server.Address()); err != nil {
		log.Errorf("server stopped: %v", err)
	}

	log.Info("Applications server stopped.")
}
