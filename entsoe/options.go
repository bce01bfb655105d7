package entsoe

import (
	"fmt"
	"time"

	"github.com/icodeforyou/entsoe-go/area"
	"github.com/icodeforyou/entsoe-go/hours"
	"github.com/icodeforyou/entsoe-go/types"
)

// Query is what callers ask for. Either Latest is set, or Start and End
// bound the window, both inclusive.
type Query struct {
	Area   string
	Start  time.Time
	End    time.Time
	Latest bool
}

type LoadQuery struct {
	Query
	Forecast bool // day-ahead forecast instead of actual load
}

type PriceQuery struct {
	Query
}

type ImbalanceQuery struct {
	Query
}

// LoadOptions, PriceOptions and ImbalanceOptions are resolved queries,
// built once per call and never changed afterwards.
type LoadOptions struct {
	Area      string
	Start     time.Time
	End       time.Time
	Forecast  bool
	Market    string
	Frequency string
}

type PriceOptions struct {
	Area      string
	Start     time.Time
	End       time.Time
	Market    string
	Frequency string
}

// ImbalanceOptions always carries the imbalance market. Frequency is the
// fallback for exports whose first interval has no readable end.
type ImbalanceOptions struct {
	Area      string
	Start     time.Time
	End       time.Time
	Market    string
	Frequency string
}

func (q Query) window(now time.Time) (time.Time, time.Time, error) {
	if q.Latest {
		start, end := hours.Latest(now)
		return start, end, nil
	}
	if q.Start.IsZero() || q.End.IsZero() {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start and end are required unless latest is set", ErrInvalidQuery)
	}
	start, end := q.Start.UTC(), q.End.UTC()
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidQuery,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return start, end, nil
}

// marketAndFrequency returns the area's overrides, or the day-ahead defaults.
func marketAndFrequency(rec area.Record) (string, string) {
	market, freq := types.MarketDayAheadHourly, types.FreqHourly
	if rec.Market != "" {
		market = rec.Market
	}
	if rec.Frequency != "" {
		freq = rec.Frequency
	}
	return market, freq
}

func ResolveLoad(registry *area.Registry, q LoadQuery, now time.Time) (LoadOptions, error) {
	if _, err := registry.Lookup(TaxonomyFor(types.KindLoad), q.Area); err != nil {
		return LoadOptions{}, err
	}
	start, end, err := q.window(now)
	if err != nil {
		return LoadOptions{}, err
	}
	// Forecast sticks even if the window lies in the past.
	return LoadOptions{
		Area:      q.Area,
		Start:     start,
		End:       end,
		Forecast:  q.Forecast,
		Market:    types.MarketRealTimeHourly,
		Frequency: types.FreqHourly,
	}, nil
}

func ResolvePrice(registry *area.Registry, q PriceQuery, now time.Time) (PriceOptions, error) {
	rec, err := registry.Lookup(TaxonomyFor(types.KindDayAheadPrice), q.Area)
	if err != nil {
		return PriceOptions{}, err
	}
	start, end, err := q.window(now)
	if err != nil {
		return PriceOptions{}, err
	}
	market, freq := marketAndFrequency(rec)
	return PriceOptions{Area: q.Area, Start: start, End: end, Market: market, Frequency: freq}, nil
}

func ResolveImbalance(registry *area.Registry, q ImbalanceQuery, now time.Time) (ImbalanceOptions, error) {
	rec, err := registry.Lookup(TaxonomyFor(types.KindImbalance), q.Area)
	if err != nil {
		return ImbalanceOptions{}, err
	}
	start, end, err := q.window(now)
	if err != nil {
		return ImbalanceOptions{}, err
	}
	freq := types.FreqNA
	if rec.Frequency != "" {
		freq = rec.Frequency
	}
	return ImbalanceOptions{Area: q.Area, Start: start, End: end, Market: types.MarketImbalance, Frequency: freq}, nil
}
