package main

import (
	"time"

	"github.com/gaugyan/admin-api/internal/config"
	"github.com/gaugyan/admin-api/internal/database"
	"github.com/gaugyan/admin-api/internal/logger"
	"github.com/gaugyan/admin-api/internal/models"
	"github.com/gaugyan/admin-api/internal/role"
	"github.com/gaugyan/admin-api/internal/server"
	"github.com/gaugyan/admin-api/internal/utils"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	lg := logger.New()
	defer lg.Sync()
	zap.ReplaceGlobals(lg.Desugar())

	if err := utils.ValidateJWTSecret(); err != nil {
		lg.Fatalw("jwt configuration error", "error", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		lg.Fatalw("database connection failed", "error", err)
	}
	database.DB = db

	if err := database.Migrate(db); err != nil {
		lg.Fatalw("migration failed", "error", err)
	}
	lg.Infow("database migrated")

	if err := role.SeedDefaultRoles(db); err != nil {
		lg.Fatalw("failed to seed system roles", "error", err)
	}
	lg.Infow("system roles seeded")

	// Expired token cleanup.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			result := database.DB.Where("expires_at < ?", time.Now()).Delete(&models.ResetToken{})
			if result.RowsAffected > 0 {
				lg.Infow("cleaned up expired reset tokens", "count", result.RowsAffected)
			}

			result = database.DB.Where("expires_at < ?", time.Now()).Delete(&models.RefreshToken{})
			if result.RowsAffected > 0 {
				lg.Infow("cleaned up expired refresh tokens", "count", result.RowsAffected)
			}
		}
	}()

	app := server.New(db)

	lg.Infow("starting GauGyan admin API", "addr", cfg.ServerAddr)
	if err := app.Listen(cfg.ServerAddr); err != nil {
		lg.Fatalw("failed to start server", "error", err)
	}
}
