package types

import (
	"slices"
	"time"

	"github.com/icodeforyou/entsoe-go/types/maybe"
)

type LoadRecord struct {
	Timestamp time.Time
	LoadMW    float64
	BAName    string
	Freq      string
	Market    string
}

// PriceRecord holds one interval's day-ahead price, keyed by currency code.
// Most zones report a single currency. A currency known to the call but not
// reported for this interval is present as None.
type PriceRecord struct {
	Timestamp time.Time
	Prices    map[string]maybe.Maybe[float64]
	BAName    string
	Freq      string
	Market    string
}

func (p PriceRecord) Currencies() []string {
	ccys := make([]string, 0, len(p.Prices))
	for ccy := range p.Prices {
		ccys = append(ccys, ccy)
	}
	slices.Sort(ccys)
	return ccys
}

// Price returns the price in ccy, if one was reported.
func (p PriceRecord) Price(ccy string) (float64, bool) {
	v := p.Prices[ccy]
	return v.Value(), v.IsValid()
}

// AlignCurrencies gives every record the same set of currency keys, filling
// the ones a record lacks with None.
func AlignCurrencies(records []PriceRecord) {
	all := make(map[string]struct{})
	for _, r := range records {
		for ccy := range r.Prices {
			all[ccy] = struct{}{}
		}
	}
	for i := range records {
		if records[i].Prices == nil {
			records[i].Prices = make(map[string]maybe.Maybe[float64], len(all))
		}
		for ccy := range all {
			if _, ok := records[i].Prices[ccy]; !ok {
				records[i].Prices[ccy] = maybe.None[float64]()
			}
		}
	}
}

type ImbalanceRecord struct {
	Timestamp      time.Time
	PositivePrice  maybe.Maybe[float64] // + Imbalance Price [<Currency>/MWh]
	NegativePrice  maybe.Maybe[float64] // - Imbalance Price [<Currency>/MWh]
	TotalImbalance maybe.Maybe[float64] // MWh
	Currency       string
	Status         maybe.Maybe[string]
	BAName         string
	Freq           string
	Market         string
}

// Timestamped is implemented by all record types, it lets the
// orchestrator sort and slice without knowing the concrete kind.
type Timestamped interface {
	Time() time.Time
}

func (r LoadRecord) Time() time.Time      { return r.Timestamp }
func (r PriceRecord) Time() time.Time     { return r.Timestamp }
func (r ImbalanceRecord) Time() time.Time { return r.Timestamp }
