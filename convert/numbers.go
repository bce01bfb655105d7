package convert

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/icodeforyou/entsoe-go/types/maybe"
)

// Cell values the portal uses for "no data".
var placeholders = []string{"", "-", "N/A", "n/e"}

func IsPlaceholder(cell string) bool {
	cell = strings.TrimSpace(cell)
	for _, p := range placeholders {
		if cell == p {
			return true
		}
	}
	return false
}

// Text returns the trimmed cell, or None for a placeholder.
func Text(cell string) maybe.Maybe[string] {
	if IsPlaceholder(cell) {
		return maybe.None[string]()
	}
	return maybe.Some(strings.TrimSpace(cell))
}

// Float parses a numeric cell. Placeholders give None, anything else
// that is not a number is an error.
func Float(cell string) (maybe.Maybe[float64], error) {
	if IsPlaceholder(cell) {
		return maybe.None[float64](), nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return maybe.None[float64](), fmt.Errorf("not a number: %q", cell)
	}
	return maybe.Some(f), nil
}

// PriceAndCurrency splits a combined cell like "56.56 EUR".
func PriceAndCurrency(cell string) (float64, string, error) {
	fields := strings.Fields(cell)
	if len(fields) != 2 {
		return 0, "", fmt.Errorf("invalid price with currency %q", cell)
	}
	f, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid price with currency %q: %w", cell, err)
	}
	return f, fields[1], nil
}

func RoundFloat64(number float64, decimals int) float64 {
	return math.Round(number*math.Pow10(decimals)) / math.Pow10(decimals)
}
