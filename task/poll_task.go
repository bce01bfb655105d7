package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/icodeforyou/entsoe-go/config"
	"github.com/icodeforyou/entsoe-go/entsoe"
	"github.com/icodeforyou/entsoe-go/sink"
	"github.com/icodeforyou/entsoe-go/types"
)

const pollTimeout = 10 * time.Minute

// Querier is implemented by *entsoe.Client.
type Querier interface {
	GetLoad(ctx context.Context, q entsoe.LoadQuery) (entsoe.Result[types.LoadRecord], error)
	GetDayAheadPrice(ctx context.Context, q entsoe.PriceQuery) (entsoe.Result[types.PriceRecord], error)
	GetImbalance(ctx context.Context, q entsoe.ImbalanceQuery) (entsoe.Result[types.ImbalanceRecord], error)
}

var now = time.Now

// NewPollTask returns a task fetching the window of job ending now and
// publishing the flat records to s.
func NewPollTask(logger *slog.Logger, mu *sync.Mutex, client Querier, s sink.Sink, job config.AppConfigPollJob) (func(), error) {
	kind, ok := types.ParseKind(job.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", job.Kind)
	}
	if job.Area == "" {
		return nil, fmt.Errorf("area is required")
	}

	return func() {
		mu.Lock()
		defer mu.Unlock()

		logger.Debug("running poll task...")
		ctx, cancel := context.WithTimeout(context.Background(), pollTimeout)
		defer cancel()

		end := now().UTC()
		q := entsoe.Query{Area: job.Area, Start: end.Add(-job.GetWindow()), End: end}

		records, skipped, err := poll(ctx, client, kind, q, job.Forecast)
		if err != nil {
			logger.Error("poll task error, fetching records", slog.Any("error", err))
			return
		}
		if skipped > 0 {
			logger.Warn("partial result", slog.Int("skippedDays", skipped))
		}

		if err := s.Publish(ctx, kind, job.Area, records); err != nil {
			logger.Error("poll task error, publishing records", slog.Any("error", err))
			return
		}
		logger.Info("poll task done", slog.Int("records", len(records)))
	}, nil
}

func poll(ctx context.Context, client Querier, kind types.Kind, q entsoe.Query, forecast bool) ([]types.FlatRecord, int, error) {
	switch kind {
	case types.KindLoad:
		res, err := client.GetLoad(ctx, entsoe.LoadQuery{Query: q, Forecast: forecast})
		return types.Flatten(res.Records), len(res.Skipped), err
	case types.KindDayAheadPrice:
		res, err := client.GetDayAheadPrice(ctx, entsoe.PriceQuery{Query: q})
		return types.Flatten(res.Records), len(res.Skipped), err
	case types.KindImbalance:
		res, err := client.GetImbalance(ctx, entsoe.ImbalanceQuery{Query: q})
		return types.Flatten(res.Records), len(res.Skipped), err
	}
	return nil, 0, fmt.Errorf("unknown kind %q", kind)
}
