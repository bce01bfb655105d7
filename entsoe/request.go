package entsoe

import (
	"fmt"
	"net/url"
	"time"

	"github.com/icodeforyou/entsoe-go/area"
	"github.com/icodeforyou/entsoe-go/hours"
	"github.com/icodeforyou/entsoe-go/types"
)

// export describes where a kind of series is downloaded from.
type export struct {
	taxonomy area.Taxonomy
	endpoint string
}

var exports = map[types.Kind]export{
	types.KindLoad:          {taxonomy: area.ControlArea, endpoint: "load-domain/r2/totalLoadR2/export"},
	types.KindDayAheadPrice: {taxonomy: area.BiddingZone, endpoint: "transmission-domain/r2/dayAheadPrices/export"},
	types.KindImbalance:     {taxonomy: area.MarketBalancingArea, endpoint: "balancing/r2/imbalance/export"},
}

// TaxonomyFor returns the area taxonomy a kind of series is queried by.
func TaxonomyFor(kind types.Kind) area.Taxonomy {
	return exports[kind].taxonomy
}

// EndpointFor returns the export endpoint of a kind of series.
func EndpointFor(kind types.Kind) string {
	return exports[kind].endpoint
}

// DayRequest is the export request for one calendar day.
type DayRequest struct {
	Kind     types.Kind
	Endpoint string
	Day      time.Time
	Params   url.Values
}

// BuildRequest derives the export parameters for one area and day.
func BuildRequest(registry *area.Registry, kind types.Kind, areaCode string, day time.Time) (DayRequest, error) {
	exp, ok := exports[kind]
	if !ok {
		return DayRequest{}, fmt.Errorf("unsupported series kind %q", kind)
	}

	rec, err := registry.Lookup(exp.taxonomy, areaCode)
	if err != nil {
		return DayRequest{}, err
	}

	params := url.Values{}
	params.Set("name", "")
	params.Set("defaultValue", "false")
	params.Set("viewType", "TABLE")
	params.Set("areaType", exp.taxonomy.AreaType())
	params.Set("atch", "false")
	params.Set("dateTime.dateTime", hours.PortalDay(day))
	params.Set("dateTime.timezone", "UTC")
	params.Set("dateTime.timezone_input", "UTC")
	params.Set("exportType", "CSV")
	params.Set("dataItem", "ALL")
	params.Set("timeRange", "DEFAULT")

	switch exp.taxonomy {
	case area.MarketBalancingArea:
		params.Set("marketArea.values", rec.ID)
	default:
		params.Set("biddingZone.values", rec.ID)
	}

	return DayRequest{
		Kind:     kind,
		Endpoint: exp.endpoint,
		Day:      hours.Midnight(day),
		Params:   params,
	}, nil
}
