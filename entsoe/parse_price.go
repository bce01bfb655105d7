package entsoe

import (
	"fmt"
	"regexp"

	"github.com/icodeforyou/entsoe-go/convert"
	"github.com/icodeforyou/entsoe-go/types"
	"github.com/icodeforyou/entsoe-go/types/maybe"
)

const (
	priceTimeColumn = "MTU (UTC)"
	// Some zones report prices as "56.56 EUR" in this column.
	priceCombinedColumn = "Day-ahead Price [Currency/MWh]"
)

var priceColumnRe = regexp.MustCompile(`^Day-ahead Price \[([^/\]]+)/MWh\]`)

type priceColumn struct {
	idx      int
	currency string // empty for the combined column
}

// ParseDayAheadPrice turns a day's day-ahead price export into records,
// one price per currency column.
func ParseDayAheadPrice(raw string, opts PriceOptions) ([]types.PriceRecord, error) {
	t, err := readTable(raw)
	if err != nil {
		return nil, err
	}

	timeCol, err := t.column(priceTimeColumn)
	if err != nil {
		return nil, err
	}

	var cols []priceColumn
	for i, h := range t.header {
		if h == priceCombinedColumn {
			cols = append(cols, priceColumn{idx: i})
			continue
		}
		if m := priceColumnRe.FindStringSubmatch(h); m != nil {
			cols = append(cols, priceColumn{idx: i, currency: m[1]})
		}
	}
	if len(cols) == 0 {
		return nil, &SchemaError{Column: "Day-ahead Price", Reason: "no price column found"}
	}

	records := make([]types.PriceRecord, 0, len(t.rows))
	for _, row := range t.rows {
		ts, _, err := t.intervalStart(row, timeCol, " - ")
		if err != nil {
			return nil, err
		}
		prices, err := rowPrices(t, row, cols)
		if err != nil {
			return nil, err
		}
		if !anyPrice(prices) {
			continue
		}
		records = append(records, types.PriceRecord{
			Timestamp: ts,
			Prices:    prices,
			BAName:    opts.Area,
			Freq:      opts.Frequency,
			Market:    opts.Market,
		})
	}

	records = lastWins(records)
	types.AlignCurrencies(records)
	return records, nil
}

func anyPrice(prices map[string]maybe.Maybe[float64]) bool {
	for _, p := range prices {
		if p.IsValid() {
			return true
		}
	}
	return false
}

func rowPrices(t *table, row []string, cols []priceColumn) (map[string]maybe.Maybe[float64], error) {
	prices := make(map[string]maybe.Maybe[float64], len(cols))
	for _, col := range cols {
		value := cell(row, col.idx)
		if convert.IsPlaceholder(value) {
			if col.currency != "" {
				prices[col.currency] = maybe.None[float64]()
			}
			continue
		}
		if col.currency == "" {
			price, ccy, err := convert.PriceAndCurrency(value)
			if err != nil {
				return nil, &SchemaError{Column: t.header[col.idx], Reason: err.Error()}
			}
			prices[ccy] = maybe.Some(price)
			continue
		}
		price, err := convert.Float(value)
		if err != nil {
			return nil, &SchemaError{Column: t.header[col.idx], Reason: fmt.Sprintf("row price: %v", err)}
		}
		prices[col.currency] = price
	}
	return prices, nil
}
