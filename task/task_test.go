package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/icodeforyou/entsoe-go/config"
	"github.com/icodeforyou/entsoe-go/entsoe"
	"github.com/icodeforyou/entsoe-go/types"
	"github.com/icodeforyou/entsoe-go/types/maybe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2023, 1, 2, 12, 0, 0, 0, time.UTC)

type fakeQuerier struct {
	queries  []entsoe.Query
	forecast bool
	err      error
}

func (f *fakeQuerier) GetLoad(_ context.Context, q entsoe.LoadQuery) (entsoe.Result[types.LoadRecord], error) {
	f.queries = append(f.queries, q.Query)
	f.forecast = q.Forecast
	return entsoe.Result[types.LoadRecord]{
		Records: []types.LoadRecord{{Timestamp: q.End, LoadMW: 9000, BAName: q.Area}},
	}, f.err
}

func (f *fakeQuerier) GetDayAheadPrice(_ context.Context, q entsoe.PriceQuery) (entsoe.Result[types.PriceRecord], error) {
	f.queries = append(f.queries, q.Query)
	return entsoe.Result[types.PriceRecord]{
		Records: []types.PriceRecord{
			{Timestamp: q.Start, Prices: map[string]maybe.Maybe[float64]{"EUR": maybe.Some(10.0)}},
			{Timestamp: q.End, Prices: map[string]maybe.Maybe[float64]{"EUR": maybe.Some(11.0)}},
		},
		Skipped: []entsoe.DayFailure{{Day: q.Start}},
	}, f.err
}

func (f *fakeQuerier) GetImbalance(_ context.Context, q entsoe.ImbalanceQuery) (entsoe.Result[types.ImbalanceRecord], error) {
	f.queries = append(f.queries, q.Query)
	return entsoe.Result[types.ImbalanceRecord]{}, f.err
}

type publication struct {
	kind    types.Kind
	area    string
	records []types.FlatRecord
}

type fakeSink struct {
	published []publication
}

func (s *fakeSink) Publish(_ context.Context, kind types.Kind, area string, records []types.FlatRecord) error {
	s.published = append(s.published, publication{kind: kind, area: area, records: records})
	return nil
}

func (s *fakeSink) Close() error { return nil }

type fakePurger struct {
	max    int
	maxAge time.Duration
}

func (p *fakePurger) PurgeLog(_ context.Context, maxEntries int, maxAge time.Duration) (int64, error) {
	p.max = maxEntries
	p.maxAge = maxAge
	return 3, nil
}

func setNow(t *testing.T) {
	t.Helper()
	prev := now
	now = func() time.Time { return fixedNow }
	t.Cleanup(func() { now = prev })
}

func TestPollTask(t *testing.T) {
	setNow(t)
	hours := 6
	tests := []struct {
		name    string
		job     config.AppConfigPollJob
		start   time.Time
		records int
	}{
		{
			name:    "price with default window",
			job:     config.AppConfigPollJob{Kind: "price", Area: "SE3"},
			start:   fixedNow.Add(-24 * time.Hour),
			records: 2,
		},
		{
			name:    "load with custom window",
			job:     config.AppConfigPollJob{Kind: "load", Area: "SE", Forecast: true, WindowHours: &hours},
			start:   fixedNow.Add(-6 * time.Hour),
			records: 1,
		},
		{
			name:    "imbalance",
			job:     config.AppConfigPollJob{Kind: "imbalance", Area: "DE-LU"},
			start:   fixedNow.Add(-24 * time.Hour),
			records: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeQuerier{}
			s := &fakeSink{}
			task, err := NewPollTask(slog.Default(), &sync.Mutex{}, client, s, tt.job)
			require.NoError(t, err)

			task()

			require.Len(t, client.queries, 1)
			assert.Equal(t, entsoe.Query{Area: tt.job.Area, Start: tt.start, End: fixedNow}, client.queries[0])
			assert.Equal(t, tt.job.Forecast, client.forecast)
			require.Len(t, s.published, 1)
			assert.Equal(t, types.Kind(tt.job.Kind), s.published[0].kind)
			assert.Equal(t, tt.job.Area, s.published[0].area)
			assert.Len(t, s.published[0].records, tt.records)
		})
	}
}

func TestPollTaskDoesNotPublishOnError(t *testing.T) {
	setNow(t)
	client := &fakeQuerier{err: errors.New("portal down")}
	s := &fakeSink{}
	task, err := NewPollTask(slog.Default(), &sync.Mutex{}, client, s, config.AppConfigPollJob{Kind: "price", Area: "SE3"})
	require.NoError(t, err)

	task()
	assert.Empty(t, s.published)
}

func TestNewPollTaskValidatesJob(t *testing.T) {
	_, err := NewPollTask(slog.Default(), &sync.Mutex{}, &fakeQuerier{}, &fakeSink{}, config.AppConfigPollJob{Kind: "wind", Area: "SE"})
	assert.Error(t, err)

	_, err = NewPollTask(slog.Default(), &sync.Mutex{}, &fakeQuerier{}, &fakeSink{}, config.AppConfigPollJob{Kind: "load"})
	assert.Error(t, err)
}

func TestTasksRun(t *testing.T) {
	cnfg := &config.AppConfig{Poller: config.AppConfigPoller{Jobs: []config.AppConfigPollJob{
		{Kind: "price", Area: "SE3", RunAt: "15 13 * * *"},
		{Kind: "load", Area: "SE", RunAt: "@hourly"},
	}}}

	tasks, err := NewTasks(&fakeQuerier{}, &fakeSink{}, &fakePurger{}, cnfg)
	require.NoError(t, err)
	require.NoError(t, tasks.Run())
	defer tasks.Stop()

	assert.Len(t, tasks.cron.Entries(), 3)
}

func TestTasksRunInvalidSchedule(t *testing.T) {
	cnfg := &config.AppConfig{Poller: config.AppConfigPoller{Jobs: []config.AppConfigPollJob{
		{Kind: "price", Area: "SE3", RunAt: "every morning"},
	}}}

	tasks, err := NewTasks(&fakeQuerier{}, &fakeSink{}, nil, cnfg)
	require.NoError(t, err)
	assert.Error(t, tasks.Run())
	assert.Nil(t, tasks.MaintenanceTask)
}

func TestMaintenanceTask(t *testing.T) {
	maxEntries := 500
	db := &fakePurger{}
	days := 7
	NewMaintenanceTask(slog.Default(), db, config.AppConfigLogging{DbMaxEntries: &maxEntries, DbMaxAgeDays: &days})()
	assert.Equal(t, 500, db.max)
	assert.Equal(t, 7*24*time.Hour, db.maxAge)
}
