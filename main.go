package main

import (
	"context"
	"time"

	"github.com/cppla/aiblog/config"
	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/routes"
	"github.com/cppla/aiblog/stores"
	"github.com/cppla/aiblog/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer utils.Logger.Sync()

	if err := cfg.Validate(); err != nil {
		utils.Sugar.Fatalf("invalid configuration: %v", err)
	}

	db := config.InitDatabase(models.All()...)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := stores.EnsureRoles(ctx, db); err != nil {
		cancel()
		utils.Sugar.Fatalf("failed to seed roles: %v", err)
	}
	cancel()

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	shutdownTimeout := time.Duration(cfg.ShutdownTimeoutSec) * time.Second
	if err := utils.GraceServer(":"+cfg.AppPort, r, shutdownTimeout); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
