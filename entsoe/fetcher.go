package entsoe

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Marker the portal puts in the body when an export failed on its side.
const unknownExceptionMarker = "UNKNOWN_EXCEPTION"

type requester interface {
	Get(ctx context.Context, endpoint string, params url.Values) (Response, error)
}

type SleepFunc func(ctx context.Context, d time.Duration) error

// Fetcher downloads exports one at a time. An empty body or a 500 is how
// the portal signals "too many requests", those are retried after a pause.
type Fetcher struct {
	logger     *slog.Logger
	session    requester
	limiter    *rate.Limiter
	backoff    time.Duration
	maxRetries int
	sleep      SleepFunc
	metrics    *Metrics
}

func NewFetcher(session requester, requestsPerSecond float64, backoff time.Duration, maxRetries int, metrics *Metrics) *Fetcher {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Fetcher{
		logger:     slog.Default().With("module", "entsoe"),
		session:    session,
		limiter:    rate.NewLimiter(limit, 1),
		backoff:    backoff,
		maxRetries: maxRetries,
		sleep:      sleepContext,
		metrics:    metrics,
	}
}

func (f *Fetcher) SetLogger(logger *slog.Logger) {
	f.logger = logger
}

func (f *Fetcher) SetSleep(sleep SleepFunc) {
	f.sleep = sleep
}

// Fetch returns the body of a day's export. Throttled attempts are retried
// maxRetries times, after that a *FetchFailedError is returned.
func (f *Fetcher) Fetch(ctx context.Context, req DayRequest) (string, error) {
	logger := f.logger.With(slog.String("endpoint", req.Endpoint), slog.String("day", req.Day.Format(time.DateOnly)))
	failed := func(reason FailureReason, attempts, status int, err error) *FetchFailedError {
		return &FetchFailedError{
			Endpoint: req.Endpoint,
			Day:      req.Day,
			Reason:   reason,
			Attempts: attempts,
			Status:   status,
			Err:      err,
		}
	}

	var lastStatus int
	var lastErr error
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			if attempt > f.maxRetries {
				logger.Warn("request failed, no response found", slog.Int("attempts", attempt))
				return "", failed(ReasonRetriesExhausted, attempt, lastStatus, lastErr)
			}
			logger.Debug("throttled, retrying", slog.Int("attempt", attempt), slog.Duration("backoff", f.backoff))
			f.metrics.retries.WithLabelValues(req.Endpoint).Inc()
			if err := f.sleep(ctx, f.backoff); err != nil {
				return "", err
			}
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return "", err
		}

		start := time.Now()
		res, err := f.session.Get(ctx, req.Endpoint, req.Params)
		f.metrics.latency.WithLabelValues(req.Endpoint).Observe(time.Since(start).Seconds())

		if err != nil {
			if ctx.Err() != nil || !isTransportError(err) {
				return "", err
			}
			logger.Warn("request error", slog.Any("error", err))
			f.metrics.requests.WithLabelValues(req.Endpoint, outcomeTransportError).Inc()
			lastStatus, lastErr = 0, err
			continue
		}

		switch {
		case res.Body == "" || res.Status == http.StatusInternalServerError:
			f.metrics.requests.WithLabelValues(req.Endpoint, outcomeThrottled).Inc()
			lastStatus, lastErr = res.Status, nil
			continue
		case strings.Contains(res.Body, unknownExceptionMarker):
			logger.Warn("portal reported an unknown exception")
			f.metrics.requests.WithLabelValues(req.Endpoint, outcomeUnknownException).Inc()
			return "", failed(ReasonUnknownException, attempt+1, res.Status, nil)
		case res.Status < 200 || res.Status > 299:
			f.metrics.requests.WithLabelValues(req.Endpoint, outcomeUnexpectedStatus).Inc()
			return "", failed(ReasonUnexpectedStatus, attempt+1, res.Status, nil)
		}

		f.metrics.requests.WithLabelValues(req.Endpoint, outcomeOK).Inc()
		return res.Body, nil
	}
}

// Login problems are not transient, everything else the session
// returns comes from the transport and is worth another attempt.
func isTransportError(err error) bool {
	var missing *MissingCredentialsError
	var auth *AuthenticationError
	return !errors.As(err, &missing) && !errors.As(err, &auth)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
