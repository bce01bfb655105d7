package entsoe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/icodeforyou/entsoe-go/area"
	"github.com/icodeforyou/entsoe-go/config"
	"github.com/icodeforyou/entsoe-go/hours"
	"github.com/icodeforyou/entsoe-go/slice"
	"github.com/icodeforyou/entsoe-go/types"
	"github.com/prometheus/client_golang/prometheus"
)

// FailurePolicy decides what happens when a day cannot be fetched.
type FailurePolicy int

const (
	// AbortOnFailure fails the whole call.
	AbortOnFailure FailurePolicy = iota
	// SkipFailedDays leaves the day out and reports it in Result.Skipped.
	SkipFailedDays
)

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort":
		return AbortOnFailure, nil
	case "skip":
		return SkipFailedDays, nil
	}
	return AbortOnFailure, fmt.Errorf("unknown failure policy %q", s)
}

type DayFailure struct {
	Day time.Time
	Err error
}

// Result holds the records of a call, sorted by timestamp and limited
// to the requested window. Skipped lists days left out under SkipFailedDays.
type Result[T any] struct {
	Records []T
	Skipped []DayFailure
}

func (r Result[T]) Partial() bool {
	return len(r.Skipped) > 0
}

// Client retrieves time series from the transparency portal. Days are
// fetched one after another, never concurrently. A Client is not safe
// for concurrent use.
type Client struct {
	logger   *slog.Logger
	registry *area.Registry
	session  *Session
	fetcher  *Fetcher
	policy   FailurePolicy
	now      func() time.Time
}

type settings struct {
	logger      *slog.Logger
	registry    *area.Registry
	registerer  prometheus.Registerer
	credentials CredentialsSource
	sleep       SleepFunc
	now         func() time.Time
	policy      *FailurePolicy
}

type Option func(*settings)

func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

func WithRegistry(registry *area.Registry) Option {
	return func(s *settings) { s.registry = registry }
}

func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *settings) { s.registerer = reg }
}

func WithCredentials(credentials CredentialsSource) Option {
	return func(s *settings) { s.credentials = credentials }
}

func WithSleep(sleep SleepFunc) Option {
	return func(s *settings) { s.sleep = sleep }
}

func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

func WithFailurePolicy(policy FailurePolicy) Option {
	return func(s *settings) { s.policy = &policy }
}

func New(cnfg config.AppConfigPortal, opts ...Option) (*Client, error) {
	s := settings{
		logger:      slog.Default().With("module", "entsoe"),
		registry:    area.Default(),
		credentials: CredentialsFromEnv(cnfg.GetUsernameEnv(), cnfg.GetPasswordEnv()),
		sleep:       sleepContext,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}

	policy, err := ParseFailurePolicy(cnfg.GetFailurePolicy())
	if err != nil {
		return nil, err
	}
	if s.policy != nil {
		policy = *s.policy
	}

	session, err := NewSession(cnfg.GetBaseURL(), cnfg.GetTimeout(), s.credentials)
	if err != nil {
		return nil, err
	}
	session.SetLogger(s.logger)

	fetcher := NewFetcher(session, cnfg.GetRequestsPerSecond(), cnfg.GetBackoff(), cnfg.GetMaxRetries(), NewMetrics(s.registerer))
	fetcher.SetLogger(s.logger)
	fetcher.SetSleep(s.sleep)

	return &Client{
		logger:   s.logger,
		registry: s.registry,
		session:  session,
		fetcher:  fetcher,
		policy:   policy,
		now:      s.now,
	}, nil
}

// Close ends the portal session.
func (c *Client) Close() {
	c.session.Close()
}

func (c *Client) GetLoad(ctx context.Context, q LoadQuery) (Result[types.LoadRecord], error) {
	opts, err := ResolveLoad(c.registry, q, c.now())
	if err != nil {
		return Result[types.LoadRecord]{}, err
	}
	return collect(ctx, c, types.KindLoad, opts.Area, opts.Start, opts.End,
		func(raw string) ([]types.LoadRecord, error) { return ParseLoad(raw, opts) })
}

func (c *Client) GetDayAheadPrice(ctx context.Context, q PriceQuery) (Result[types.PriceRecord], error) {
	opts, err := ResolvePrice(c.registry, q, c.now())
	if err != nil {
		return Result[types.PriceRecord]{}, err
	}
	res, err := collect(ctx, c, types.KindDayAheadPrice, opts.Area, opts.Start, opts.End,
		func(raw string) ([]types.PriceRecord, error) { return ParseDayAheadPrice(raw, opts) })
	if err != nil {
		return res, err
	}
	// Days may differ in the currencies they report.
	types.AlignCurrencies(res.Records)
	return res, nil
}

func (c *Client) GetImbalance(ctx context.Context, q ImbalanceQuery) (Result[types.ImbalanceRecord], error) {
	opts, err := ResolveImbalance(c.registry, q, c.now())
	if err != nil {
		return Result[types.ImbalanceRecord]{}, err
	}
	return collect(ctx, c, types.KindImbalance, opts.Area, opts.Start, opts.End,
		func(raw string) ([]types.ImbalanceRecord, error) { return ParseImbalance(raw, opts) })
}

// collect runs request, fetch and parse for every day of the window in
// order, then sorts and slices the concatenation to [start, end].
func collect[T types.Timestamped](
	ctx context.Context,
	c *Client,
	kind types.Kind,
	areaCode string,
	start, end time.Time,
	parse func(raw string) ([]T, error),
) (Result[T], error) {
	logger := c.logger.With(
		slog.String("query_id", uuid.NewString()),
		slog.String("kind", string(kind)),
		slog.String("area", areaCode))
	logger.Debug("running query", slog.Time("start", start), slog.Time("end", end))

	var res Result[T]
	for _, day := range hours.Days(start, end) {
		req, err := BuildRequest(c.registry, kind, areaCode, day)
		if err != nil {
			return Result[T]{}, err
		}

		body, err := c.fetcher.Fetch(ctx, req)
		if err != nil {
			var failed *FetchFailedError
			if c.policy == SkipFailedDays && errors.As(err, &failed) {
				logger.Warn("skipping day, partial result",
					slog.String("day", day.Format(time.DateOnly)), slog.Any("error", err))
				res.Skipped = append(res.Skipped, DayFailure{Day: day, Err: err})
				continue
			}
			return Result[T]{}, fmt.Errorf("fetching %s for %s: %w", kind, day.Format(time.DateOnly), err)
		}

		records, err := parse(body)
		if err != nil {
			return Result[T]{}, fmt.Errorf("parsing %s for %s: %w", kind, day.Format(time.DateOnly), err)
		}
		logger.Debug("day fetched", slog.String("day", day.Format(time.DateOnly)), slog.Int("records", len(records)))
		res.Records = append(res.Records, records...)
	}

	slices.SortStableFunc(res.Records, func(a, b T) int { return a.Time().Compare(b.Time()) })
	res.Records = slice.Filter(res.Records, func(r T) bool { return hours.Within(r.Time(), start, end) })

	logger.Info("query done", slog.Int("records", len(res.Records)), slog.Int("skippedDays", len(res.Skipped)))
	return res, nil
}
