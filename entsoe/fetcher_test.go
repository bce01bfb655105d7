package entsoe

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRequester struct {
	replies []Response
	errs    []error
	calls   int
}

func (f *fakeRequester) Get(_ context.Context, _ string, _ url.Values) (Response, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return Response{}, f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return Response{Status: http.StatusOK}, nil
}

type sleepRecorder struct {
	pauses []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.pauses = append(s.pauses, d)
	return nil
}

func newTestFetcher(req requester, reg prometheus.Registerer) (*Fetcher, *sleepRecorder) {
	f := NewFetcher(req, 0, 5*time.Second, 3, NewMetrics(reg))
	s := &sleepRecorder{}
	f.SetSleep(s.sleep)
	return f, s
}

var testRequest = DayRequest{Endpoint: "load-domain/r2/totalLoadR2/export", Day: jan1}

func TestFetchRetriesThrottledRequests(t *testing.T) {
	req := &fakeRequester{replies: []Response{
		{Status: http.StatusOK},
		{Status: http.StatusInternalServerError, Body: "busy"},
		{Status: http.StatusOK},
		{Status: http.StatusOK, Body: "csv"},
	}}
	f, s := newTestFetcher(req, prometheus.NewRegistry())

	body, err := f.Fetch(context.Background(), testRequest)
	require.NoError(t, err)
	assert.Equal(t, "csv", body)
	assert.Equal(t, 4, req.calls)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second, 5 * time.Second}, s.pauses)

	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.retries.WithLabelValues(testRequest.Endpoint)))
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.requests.WithLabelValues(testRequest.Endpoint, outcomeThrottled)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.requests.WithLabelValues(testRequest.Endpoint, outcomeOK)))
}

func TestFetchGivesUpAfterMaxRetries(t *testing.T) {
	req := &fakeRequester{}
	f, s := newTestFetcher(req, nil)

	_, err := f.Fetch(context.Background(), testRequest)
	var failed *FetchFailedError
	require.True(t, errors.As(err, &failed), "got %v", err)
	assert.Equal(t, ReasonRetriesExhausted, failed.Reason)
	assert.Equal(t, 4, failed.Attempts)
	assert.Equal(t, jan1, failed.Day)
	assert.Equal(t, 4, req.calls)
	assert.Len(t, s.pauses, 3)
}

func TestFetchRetriesTransportErrors(t *testing.T) {
	boom := errors.New("connection reset")
	req := &fakeRequester{
		errs:    []error{boom, boom},
		replies: []Response{{}, {}, {Status: http.StatusOK, Body: "csv"}},
	}
	f, _ := newTestFetcher(req, nil)

	body, err := f.Fetch(context.Background(), testRequest)
	require.NoError(t, err)
	assert.Equal(t, "csv", body)

	req = &fakeRequester{errs: []error{boom, boom, boom, boom}}
	f, _ = newTestFetcher(req, nil)
	_, err = f.Fetch(context.Background(), testRequest)
	var failed *FetchFailedError
	require.True(t, errors.As(err, &failed))
	assert.ErrorIs(t, err, boom)
}

func TestFetchDoesNotRetry(t *testing.T) {
	tests := []struct {
		name   string
		reply  Response
		err    error
		reason FailureReason
	}{
		{
			name:   "unknown exception",
			reply:  Response{Status: http.StatusOK, Body: "{\"error\":\"UNKNOWN_EXCEPTION\"}"},
			reason: ReasonUnknownException,
		},
		{
			name:   "unexpected status",
			reply:  Response{Status: http.StatusForbidden, Body: "forbidden"},
			reason: ReasonUnexpectedStatus,
		},
		{
			name: "rejected login",
			err:  &AuthenticationError{Reason: "User is suspended", Raw: "suspended_use"},
		},
		{
			name: "missing credentials",
			err:  &MissingCredentialsError{Vars: []string{"ENTSOe_USERNAME"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &fakeRequester{replies: []Response{tt.reply}, errs: []error{tt.err}}
			f, s := newTestFetcher(req, nil)

			_, err := f.Fetch(context.Background(), testRequest)
			require.Error(t, err)
			assert.Equal(t, 1, req.calls)
			assert.Empty(t, s.pauses)

			var failed *FetchFailedError
			if tt.reason == "" {
				assert.False(t, errors.As(err, &failed))
				assert.Equal(t, tt.err, err)
				return
			}
			require.True(t, errors.As(err, &failed))
			assert.Equal(t, tt.reason, failed.Reason)
			assert.Equal(t, 1, failed.Attempts)
			assert.Equal(t, tt.reply.Status, failed.Status)
		})
	}
}

func TestFetchStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	req := &fakeRequester{}
	f := NewFetcher(req, 0, time.Hour, 3, nil)
	f.SetSleep(func(ctx context.Context, d time.Duration) error {
		cancel()
		return sleepContext(ctx, d)
	})

	_, err := f.Fetch(ctx, testRequest)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, req.calls)
}
