package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/angas/solarquote-go/config"
	"github.com/robfig/cron/v3"
)

type Tasks struct {
	cron            *cron.Cron
	runAt           string
	MaintenanceTask func()
}

func NewTasks(db Maintainer, cnfg *config.AppConfig) *Tasks {
	logger := slog.Default().With("module", "tasks")
	return &Tasks{
		cron:  cron.New(),
		runAt: cnfg.Maintenance.GetRunAt(),
		MaintenanceTask: NewMaintenanceTask(logger.With(slog.String("task", "maintenance")), db, MaintenanceSettings{
			BackupRetentionDays: cnfg.Database.GetBackupRetentionDays(),
			MaxLogEntries:       cnfg.Logging.GetDbMaxEntries(),
		}),
	}
}

// Run schedules the tasks and starts the scheduler in the background.
func (t *Tasks) Run() error {
	if _, err := t.cron.AddFunc(t.runAt, t.MaintenanceTask); err != nil {
		return fmt.Errorf("schedule maintenance task at %q: %w", t.runAt, err)
	}
	t.cron.Start()
	return nil
}

// Stop stops the scheduler, the returned context is done when running jobs
// have completed.
func (t *Tasks) Stop() context.Context {
	return t.cron.Stop()
}
