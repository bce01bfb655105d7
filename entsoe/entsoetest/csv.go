package entsoetest

import (
	"fmt"
	"strings"
	"time"
)

const boundaryLayout = "02.01.2006 15:04"

func interval(start time.Time, step time.Duration, sep string) string {
	return start.Format(boundaryLayout) + sep + start.Add(step).Format(boundaryLayout)
}

func quoteRow(cells ...string) string {
	quoted := make([]string, len(cells))
	for i, c := range cells {
		quoted[i] = `"` + c + `"`
	}
	return strings.Join(quoted, ",")
}

// LoadCSV builds an hourly total load export for day. Values are cell
// texts, use "-" for missing readings.
func LoadCSV(day time.Time, area string, forecast, actual []string) string {
	lines := []string{quoteRow(
		"Time (UTC)",
		"Day-ahead Total Load Forecast [MW] - BZN|"+area,
		"Actual Total Load [MW] - BZN|"+area,
	)}
	for i := range forecast {
		a := "-"
		if i < len(actual) {
			a = actual[i]
		}
		start := day.UTC().Add(time.Duration(i) * time.Hour)
		lines = append(lines, quoteRow(interval(start, time.Hour, " - "), forecast[i], a))
	}
	return strings.Join(lines, "\n") + "\n"
}

// PriceCSV builds an hourly day-ahead price export in one currency.
func PriceCSV(day time.Time, area, currency string, prices []string) string {
	lines := []string{quoteRow(
		"MTU (UTC)",
		fmt.Sprintf("Day-ahead Price [%s/MWh] - BZN|%s", currency, area),
	)}
	for i, p := range prices {
		start := day.UTC().Add(time.Duration(i) * time.Hour)
		lines = append(lines, quoteRow(interval(start, time.Hour, " - "), p))
	}
	return strings.Join(lines, "\n") + "\n"
}

type ImbalanceRow struct {
	Positive string
	Negative string
	Total    string
	Status   string
}

// ImbalanceCSV builds an imbalance export with one row per step.
func ImbalanceCSV(day time.Time, area string, step time.Duration, rows []ImbalanceRow) string {
	lines := []string{quoteRow(
		"Balancing Time Unit (UTC)",
		"+ Imbalance Price [EUR/MWh] - MBA|"+area,
		"- Imbalance Price [EUR/MWh] - MBA|"+area,
		"Total Imbalance [MWh] - MBA|"+area,
		"Status",
	)}
	for i, r := range rows {
		start := day.UTC().Add(time.Duration(i) * step)
		lines = append(lines, quoteRow(interval(start, step, " - "), r.Positive, r.Negative, r.Total, r.Status))
	}
	return strings.Join(lines, "\n") + "\n"
}

// Hourly returns n cell texts counting up from first.
func Hourly(n int, first float64) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%.2f", first+float64(i))
	}
	return out
}
