package entsoe

import (
	"regexp"
	"strings"
	"time"

	"github.com/icodeforyou/entsoe-go/convert"
	"github.com/icodeforyou/entsoe-go/hours"
	"github.com/icodeforyou/entsoe-go/types"
	"github.com/icodeforyou/entsoe-go/types/maybe"
)

const imbalanceTimeColumn = "Balancing Time Unit (UTC)"

var currencyRe = regexp.MustCompile(`\[([^/\]]+)/MWh\]`)

var frequencies = map[time.Duration]string{
	15 * time.Minute: types.FreqFifteenMin,
	30 * time.Minute: types.FreqThirtyMin,
	60 * time.Minute: types.FreqHourly,
}

// FrequencyFor maps an interval length to its frequency label.
func FrequencyFor(d time.Duration) string {
	if f, ok := frequencies[d]; ok {
		return f
	}
	return types.FreqNA
}

type imbalanceColumns struct {
	positive, negative, total, status int
	currency                          string
}

// ParseImbalance turns a day's imbalance export into records. The
// frequency is inferred from the first interval of the day, opts.Frequency
// is used when that interval has no readable end.
func ParseImbalance(raw string, opts ImbalanceOptions) ([]types.ImbalanceRecord, error) {
	t, err := readTable(raw)
	if err != nil {
		return nil, err
	}

	timeCol, err := t.column(imbalanceTimeColumn)
	if err != nil {
		return nil, err
	}

	cols := imbalanceColumns{positive: -1, negative: -1, total: -1, status: -1}
	for i, h := range t.header {
		if i == timeCol {
			continue
		}
		// "Total Imbalance [MWh] - MBA|DE-LU" -> "Total Imbalance [MWh]"
		name, _, _ := strings.Cut(h, " -")
		switch {
		case strings.HasPrefix(name, "+ Imbalance Price"):
			cols.positive = i
			cols.currency = currencyOf(name, cols.currency)
		case strings.HasPrefix(name, "- Imbalance Price"):
			cols.negative = i
			cols.currency = currencyOf(name, cols.currency)
		case strings.HasPrefix(name, "Total Imbalance"):
			cols.total = i
		case name == "Status":
			cols.status = i
		}
	}
	if cols.positive < 0 && cols.negative < 0 && cols.total < 0 {
		return nil, &SchemaError{Column: "Imbalance", Reason: "no imbalance column found"}
	}

	freq := opts.Frequency
	if freq == "" {
		freq = types.FreqNA
	}
	if len(t.rows) > 0 {
		start, end, err := t.intervalStart(t.rows[0], timeCol, " - ")
		if err != nil {
			return nil, err
		}
		if endTs, err := hours.ParseEndBoundary(end, start); err == nil {
			freq = FrequencyFor(endTs.Sub(start))
		}
	}
	market := opts.Market
	if market == "" {
		market = types.MarketImbalance
	}

	records := make([]types.ImbalanceRecord, 0, len(t.rows))
	for _, row := range t.rows {
		ts, _, err := t.intervalStart(row, timeCol, " - ")
		if err != nil {
			return nil, err
		}

		rec := types.ImbalanceRecord{
			Timestamp: ts,
			Currency:  cols.currency,
			Status:    convert.Text(cell(row, cols.status)),
			BAName:    "MBA|" + opts.Area,
			Freq:      freq,
			Market:    market,
		}
		for _, f := range []struct {
			idx  int
			dest *maybe.Maybe[float64]
		}{
			{cols.positive, &rec.PositivePrice},
			{cols.negative, &rec.NegativePrice},
			{cols.total, &rec.TotalImbalance},
		} {
			if f.idx < 0 {
				continue
			}
			v, err := convert.Float(cell(row, f.idx))
			if err != nil {
				return nil, &SchemaError{Column: t.header[f.idx], Reason: err.Error()}
			}
			*f.dest = v
		}

		if !rec.PositivePrice.IsValid() && !rec.NegativePrice.IsValid() &&
			!rec.TotalImbalance.IsValid() && !rec.Status.IsValid() {
			continue
		}
		records = append(records, rec)
	}

	return lastWins(records), nil
}

func currencyOf(column, current string) string {
	if m := currencyRe.FindStringSubmatch(column); m != nil {
		return m[1]
	}
	return current
}
