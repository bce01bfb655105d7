package database

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"
)

// LogEntryRow is one persisted log record. Module and QueryID are lifted
// out of the attributes so a single query can be traced across packages.
type LogEntryRow struct {
	Timestamp time.Time
	Level     int
	Module    string
	QueryID   string
	Message   string
	Attrs     string
}

// LogFilter narrows GetLogEntries. Entries below MinLevel are left out,
// empty Module, QueryID and Since match everything.
type LogFilter struct {
	MinLevel slog.Level
	Module   string
	QueryID  string
	Since    time.Time
}

func (f LogFilter) where() (string, []any) {
	clauses := []string{"level >= ?"}
	args := []any{int(f.MinLevel)}
	if f.Module != "" {
		clauses = append(clauses, "module = ?")
		args = append(args, f.Module)
	}
	if f.QueryID != "" {
		clauses = append(clauses, "query_id = ?")
		args = append(args, f.QueryID)
	}
	if !f.Since.IsZero() {
		clauses = append(clauses, "logged_at >= ?")
		args = append(args, f.Since.UnixMilli())
	}
	return strings.Join(clauses, " AND "), args
}

func (d *Database) SaveLogEntry(ctx context.Context, r LogEntryRow) error {
	_, err := d.write.ExecContext(ctx, `
		INSERT INTO log (logged_at, level, module, query_id, message, attrs)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.Timestamp.UnixMilli(), r.Level, r.Module, r.QueryID, r.Message, r.Attrs)
	if err != nil {
		return fmt.Errorf("saving log entry: %w", err)
	}
	return nil
}

// GetLogEntries pages through matching entries, newest first.
func (d *Database) GetLogEntries(ctx context.Context, f LogFilter, page, pageSize int) ([]LogEntryRow, error) {
	page = max(page, 1)
	if pageSize < 1 {
		pageSize = 10
	}

	where, args := f.where()
	args = append(args, pageSize, (page-1)*pageSize)
	rows, err := d.read.QueryContext(ctx, `
		SELECT logged_at, level, module, query_id, message, attrs
		FROM log
		WHERE `+where+`
		ORDER BY id DESC
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching log entries: %w", err)
	}
	defer rows.Close()

	var entries []LogEntryRow
	for rows.Next() {
		var r LogEntryRow
		var ms int64
		if err := rows.Scan(&ms, &r.Level, &r.Module, &r.QueryID, &r.Message, &r.Attrs); err != nil {
			return nil, fmt.Errorf("scanning log entry: %w", err)
		}
		r.Timestamp = time.UnixMilli(ms).UTC()
		entries = append(entries, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading log rows: %w", err)
	}
	return entries, nil
}

// QueryTrace returns every entry logged for one query, oldest first.
func (d *Database) QueryTrace(ctx context.Context, queryID string) ([]LogEntryRow, error) {
	if queryID == "" {
		return nil, nil
	}
	entries, err := d.GetLogEntries(ctx, LogFilter{MinLevel: math.MinInt32, QueryID: queryID}, 1, 1000)
	if err != nil {
		return nil, err
	}
	slices.Reverse(entries)
	return entries, nil
}

// PurgeLog drops entries logged before now minus maxAge, then keeps at most
// maxEntries of the rest. A zero maxAge skips the age cut.
func (d *Database) PurgeLog(ctx context.Context, maxEntries int, maxAge time.Duration) (int64, error) {
	var removed int64
	if maxAge > 0 {
		res, err := d.write.ExecContext(ctx,
			`DELETE FROM log WHERE logged_at < ?`, time.Now().Add(-maxAge).UnixMilli())
		if err != nil {
			return 0, fmt.Errorf("purging old log entries: %w", err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}

	res, err := d.write.ExecContext(ctx, `
		DELETE FROM log WHERE id <= (SELECT id FROM log ORDER BY id DESC LIMIT 1 OFFSET ?)`, maxEntries)
	if err != nil {
		return removed, fmt.Errorf("trimming log: %w", err)
	}
	n, _ := res.RowsAffected()
	removed += n

	d.logger.Debug("log purged", slog.Int64("removed", removed))
	return removed, nil
}
