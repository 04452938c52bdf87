package task

import (
	"context"
	"log/slog"
	"time"
)

// Maintainer is the housekeeping surface of the database.
type Maintainer interface {
	Backup(ctx context.Context) error
	PurgeBackups(ctx context.Context, retentionDays int) error
	PurgeLog(ctx context.Context, maxLogEntries int) error
}

type MaintenanceSettings struct {
	BackupRetentionDays int
	MaxLogEntries       int
}

// NewMaintenanceTask backs up the database, drops expired backups and trims
// the log. A failing step is logged and the next one still runs.
func NewMaintenanceTask(logger *slog.Logger, db Maintainer, settings MaintenanceSettings) func() {
	return func() {
		logger.Debug("running maintenance task...")

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()

		if err := db.Backup(ctx); err != nil {
			logger.Error("database backup error", slog.Any("error", err))
		}

		if err := db.PurgeBackups(ctx, settings.BackupRetentionDays); err != nil {
			logger.Error("backup maintenance error", slog.Any("error", err))
		}

		if err := db.PurgeLog(ctx, settings.MaxLogEntries); err != nil {
			logger.Error("log maintenance error", slog.Any("error", err))
		}

		logger.Info("maintenance task done")
	}
}
