package types

// Frequency labels stamped on records.
const (
	FreqFiveMin    = "5m"
	FreqTenMin     = "10m"
	FreqFifteenMin = "15m"
	FreqThirtyMin  = "30m"
	FreqHourly     = "1hr"
	FreqNA         = "n/a"
)

// Market labels stamped on records. They are informational only.
const (
	MarketRealTimeHourly   = "RTHR"
	MarketDayAheadHourly   = "DAHR"
	MarketDayAheadHalfHour = "DAHH"
	MarketImbalance        = "IMB"
)

// Kind is the kind of series a record belongs to.
type Kind string

const (
	KindLoad          Kind = "load"
	KindDayAheadPrice Kind = "price"
	KindImbalance     Kind = "imbalance"
)

func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindLoad, KindDayAheadPrice, KindImbalance:
		return Kind(s), true
	}
	return "", false
}
