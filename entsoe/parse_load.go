package entsoe

import (
	"github.com/icodeforyou/entsoe-go/convert"
	"github.com/icodeforyou/entsoe-go/types"
)

const (
	loadTimeColumn     = "Time (UTC)"
	loadForecastColumn = "Day-ahead Total Load Forecast [MW]"
	loadActualColumn   = "Actual Total Load [MW]"
)

// ParseLoad turns a day's total load export into records. Either the
// actual or the day-ahead forecast column is used, depending on opts.
func ParseLoad(raw string, opts LoadOptions) ([]types.LoadRecord, error) {
	t, err := readTable(raw)
	if err != nil {
		return nil, err
	}

	timeCol, err := t.column(loadTimeColumn)
	if err != nil {
		return nil, err
	}
	forecastCol, err := t.uniqueColumn(loadForecastColumn)
	if err != nil {
		return nil, err
	}
	actualCol, err := t.uniqueColumn(loadActualColumn)
	if err != nil {
		return nil, err
	}

	loadCol := actualCol
	if opts.Forecast {
		loadCol = forecastCol
	}

	records := make([]types.LoadRecord, 0, len(t.rows))
	for _, row := range t.rows {
		ts, _, err := t.intervalStart(row, timeCol, "-")
		if err != nil {
			return nil, err
		}
		load, err := convert.Float(cell(row, loadCol))
		if err != nil {
			return nil, &SchemaError{Column: t.header[loadCol], Reason: err.Error()}
		}
		if !load.IsValid() {
			continue
		}
		records = append(records, types.LoadRecord{
			Timestamp: ts,
			LoadMW:    load.Value(),
			BAName:    opts.Area,
			Freq:      opts.Frequency,
			Market:    opts.Market,
		})
	}

	return lastWins(records), nil
}
