package entsoe

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/icodeforyou/entsoe-go/hours"
	"github.com/icodeforyou/entsoe-go/slice"
)

// table is a CSV export with its header split off.
type table struct {
	header []string
	rows   [][]string
}

func readTable(raw string) (*table, error) {
	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(raw, "\ufeff")))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, &SchemaError{Reason: "export has no header row"}
	}
	if err != nil {
		return nil, &SchemaError{Reason: fmt.Sprintf("export is not valid CSV: %v", err)}
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &SchemaError{Reason: fmt.Sprintf("export is not valid CSV: %v", err)}
		}
		if slice.All(row, func(c string) bool { return strings.TrimSpace(c) == "" }) {
			continue
		}
		rows = append(rows, row)
	}

	return &table{header: header, rows: rows}, nil
}

// column returns the index of the column named exactly name.
func (t *table) column(name string) (int, error) {
	for i, h := range t.header {
		if h == name {
			return i, nil
		}
	}
	return -1, &SchemaError{Column: name, Reason: "column not found"}
}

// uniqueColumn returns the index of the only column containing sub.
func (t *table) uniqueColumn(sub string) (int, error) {
	idx := -1
	for i, h := range t.header {
		if !strings.Contains(h, sub) {
			continue
		}
		if idx >= 0 {
			return -1, &SchemaError{Column: sub, Reason: "more than one matching column"}
		}
		idx = i
	}
	if idx < 0 {
		return -1, &SchemaError{Column: sub, Reason: "column not found"}
	}
	return idx, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// intervalStart parses the start boundary of a combined interval cell.
func (t *table) intervalStart(row []string, col int, sep string) (time.Time, string, error) {
	start, end, err := hours.SplitInterval(cell(row, col), sep)
	if err != nil {
		return time.Time{}, "", &SchemaError{Column: t.header[col], Reason: err.Error()}
	}
	ts, err := hours.ParseBoundary(start)
	if err != nil {
		return time.Time{}, "", &SchemaError{Column: t.header[col], Reason: err.Error()}
	}
	return ts, end, nil
}

// lastWins drops earlier records sharing a timestamp with a later one,
// the surviving record keeps the position of the first occurrence.
func lastWins[T interface{ Time() time.Time }](records []T) []T {
	seen := make(map[time.Time]int, len(records))
	out := make([]T, 0, len(records))
	for _, r := range records {
		if i, ok := seen[r.Time()]; ok {
			out[i] = r
			continue
		}
		seen[r.Time()] = len(out)
		out = append(out, r)
	}
	return out
}
