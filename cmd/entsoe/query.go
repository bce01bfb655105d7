package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/icodeforyou/entsoe-go/area"
	"github.com/icodeforyou/entsoe-go/entsoe"
	"github.com/icodeforyou/entsoe-go/export"
	"github.com/icodeforyou/entsoe-go/types"
	"github.com/spf13/cobra"
)

type queryFlags struct {
	area     string
	start    string
	end      string
	latest   bool
	forecast bool
	format   string
	out      string
	skip     bool
}

func newQueryCmd(a *app, kind, short string) *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   kind,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, _ := types.ParseKind(kind)
			return a.runQuery(cmd.Context(), cmd.OutOrStdout(), k, f)
		},
	}

	cmd.Flags().StringVar(&f.area, "area", "", "area code, see the areas command")
	cmd.Flags().StringVar(&f.start, "start", "", "window start, RFC3339 or YYYY-MM-DD (UTC)")
	cmd.Flags().StringVar(&f.end, "end", "", "window end, RFC3339 or YYYY-MM-DD (UTC, a bare date includes the whole day)")
	cmd.Flags().BoolVar(&f.latest, "latest", false, "the last 24 hours")
	cmd.Flags().StringVar(&f.format, "format", "json", "output format: json, csv or xlsx")
	cmd.Flags().StringVar(&f.out, "out", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&f.skip, "skip-failed", false, "leave out days that cannot be fetched")
	if kind == string(types.KindLoad) {
		cmd.Flags().BoolVar(&f.forecast, "forecast", false, "day-ahead forecast instead of actual load")
	}
	_ = cmd.MarkFlagRequired("area")
	cmd.MarkFlagsMutuallyExclusive("latest", "start")
	cmd.MarkFlagsMutuallyExclusive("latest", "end")
	return cmd
}

func (a *app) runQuery(ctx context.Context, stdout io.Writer, kind types.Kind, f queryFlags) error {
	format, err := export.ParseFormat(f.format)
	if err != nil {
		return err
	}

	q := entsoe.Query{Area: f.area, Latest: f.latest}
	if !f.latest {
		if q.Start, err = parseTime(f.start, false); err != nil {
			return fmt.Errorf("--start: %w", err)
		}
		if q.End, err = parseTime(f.end, true); err != nil {
			return fmt.Errorf("--end: %w", err)
		}
	}

	opts := []entsoe.Option{entsoe.WithLogger(a.logger.With("module", "entsoe"))}
	if f.skip {
		opts = append(opts, entsoe.WithFailurePolicy(entsoe.SkipFailedDays))
	}
	client, err := entsoe.New(a.cnfg.Portal, opts...)
	if err != nil {
		return err
	}
	defer client.Close()

	var records []types.FlatRecord
	var skipped []entsoe.DayFailure
	switch kind {
	case types.KindLoad:
		res, err := client.GetLoad(ctx, entsoe.LoadQuery{Query: q, Forecast: f.forecast})
		if err != nil {
			return err
		}
		records, skipped = types.Flatten(res.Records), res.Skipped
	case types.KindDayAheadPrice:
		res, err := client.GetDayAheadPrice(ctx, entsoe.PriceQuery{Query: q})
		if err != nil {
			return err
		}
		records, skipped = types.Flatten(res.Records), res.Skipped
	case types.KindImbalance:
		res, err := client.GetImbalance(ctx, entsoe.ImbalanceQuery{Query: q})
		if err != nil {
			return err
		}
		records, skipped = types.Flatten(res.Records), res.Skipped
	}

	for _, s := range skipped {
		a.logger.Warn("day left out", slog.String("day", s.Day.Format(time.DateOnly)), slog.Any("error", s.Err))
	}

	w := stdout
	if f.out != "" {
		file, err := os.Create(f.out)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		w = file
	}
	if err := export.Write(w, format, string(kind), records); err != nil {
		return err
	}
	a.logger.Debug("records written", slog.Int("records", len(records)), slog.String("format", string(format)))
	return nil
}

// parseTime accepts RFC3339 or a bare UTC date. With endOfDay a bare date
// means the last instant of that day.
func parseTime(s string, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("required unless --latest is set")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, use RFC3339 or YYYY-MM-DD", s)
	}
	if endOfDay {
		return t.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
	}
	return t, nil
}

func newAreasCmd() *cobra.Command {
	var taxonomy string
	cmd := &cobra.Command{
		Use:   "areas",
		Short: "List the area codes of a taxonomy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := area.ParseTaxonomy(taxonomy)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, code := range area.Codes(t) {
				rec, _ := area.Lookup(t, code)
				fmt.Fprintf(out, "%-20s %s\n", code, rec.Country)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&taxonomy, "taxonomy", string(area.BiddingZone), "control_area (CTA), bidding_zone (BZN) or market_balancing_area (MBA)")
	return cmd
}
