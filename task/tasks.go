package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/icodeforyou/entsoe-go/config"
	"github.com/icodeforyou/entsoe-go/sink"
	"github.com/robfig/cron/v3"
)

const maintenanceRunAt = "30 2 * * *"

type Tasks struct {
	cron            *cron.Cron
	logger          *slog.Logger
	jobs            []config.AppConfigPollJob
	PollTasks       []func()
	MaintenanceTask func()
}

// NewTasks creates one poll task per configured job. The jobs share the
// client and never run at the same time. db may be nil, then no log
// maintenance is scheduled.
func NewTasks(client Querier, s sink.Sink, db LogPurger, cnfg *config.AppConfig) (*Tasks, error) {
	logger := slog.Default().With("module", "tasks")

	var mu sync.Mutex
	t := &Tasks{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger,
		jobs:   cnfg.Poller.Jobs,
	}
	for i, job := range cnfg.Poller.Jobs {
		pollTask, err := NewPollTask(
			logger.With(slog.Int("job", i), slog.String("kind", job.Kind), slog.String("area", job.Area)),
			&mu, client, s, job)
		if err != nil {
			return nil, fmt.Errorf("poller job %d: %w", i, err)
		}
		t.PollTasks = append(t.PollTasks, pollTask)
	}
	if db != nil {
		t.MaintenanceTask = NewMaintenanceTask(logger.With(slog.String("task", "maintenance")), db, cnfg.Logging)
	}
	return t, nil
}

func (t *Tasks) Run() error {
	for i, job := range t.jobs {
		if _, err := t.cron.AddFunc(job.RunAt, t.PollTasks[i]); err != nil {
			return fmt.Errorf("poller job %d, run_at %q: %w", i, job.RunAt, err)
		}
	}
	if t.MaintenanceTask != nil {
		if _, err := t.cron.AddFunc(maintenanceRunAt, t.MaintenanceTask); err != nil {
			return err
		}
	}
	t.logger.Info("starting poller", slog.Int("jobs", len(t.jobs)))
	t.cron.Start()
	return nil
}

func (t *Tasks) Stop() context.Context {
	return t.cron.Stop()
}
