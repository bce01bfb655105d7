package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/icodeforyou/entsoe-go/config"
)

type LogPurger interface {
	PurgeLog(ctx context.Context, maxEntries int, maxAge time.Duration) (int64, error)
}

func NewMaintenanceTask(logger *slog.Logger, db LogPurger, cnfg config.AppConfigLogging) func() {
	return func() {
		logger.Debug("running maintenance task...")

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()

		removed, err := db.PurgeLog(ctx, cnfg.GetDbMaxEntries(), cnfg.GetDbMaxAge())
		if err != nil {
			logger.Error("log maintenance error", slog.Any("error", err))
			return
		}

		logger.Info("maintenance task done", slog.Int64("removed", removed))
	}
}
