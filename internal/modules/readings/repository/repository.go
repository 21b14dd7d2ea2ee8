package repository

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"radmon-server/internal/modules/readings/types"
)

//go:embed sql/insert-reading.sql
var insertReadingSQL string

//go:embed sql/select-readings.sql
var selectReadingsSQL string

type ReadingRepository interface {
	// Insert appends one reading and returns the id the store assigned.
	Insert(r types.Reading) (int64, error)
	// List returns readings matching the range, newest id first. A limit of
	// zero or less means no cap (the export path).
	List(filter types.DateRange, limit int) ([]types.Reading, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) ReadingRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Insert(reading types.Reading) (int64, error) {
	res, err := r.db.Exec(insertReadingSQL,
		reading.Timestamp.UTC().Format(types.TimestampLayout),
		reading.DeviceID,
		reading.CPM,
		reading.ACPM,
		reading.USV,
		reading.Dose,
		reading.RawData,
		reading.ClientIP,
	)
	if err != nil {
		return 0, fmt.Errorf("insert reading: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert reading id: %w", err)
	}
	return id, nil
}

func (r *repositoryImpl) List(filter types.DateRange, limit int) ([]types.Reading, error) {
	query, args := buildQuery(filter, limit)
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close readings rows", "error", err)
		}
	}()
	return scanReadings(rows)
}

// buildQuery appends the range predicate to the embedded base select. Bounds
// are always bound parameters; the stored timestamp layout makes string
// comparison chronological.
func buildQuery(filter types.DateRange, limit int) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if !filter.From.IsZero() {
		conds = append(conds, "timestamp >= ?")
		args = append(args, filter.From.UTC().Format(types.TimestampLayout))
	}
	if !filter.To.IsZero() {
		conds = append(conds, "timestamp <= ?")
		args = append(args, filter.To.UTC().Format(types.TimestampLayout))
	}

	query := strings.TrimRight(selectReadingsSQL, "\n")
	if len(conds) > 0 {
		query += "\nWHERE " + strings.Join(conds, " AND ")
	}
	query += "\nORDER BY id DESC"
	if limit > 0 {
		query += "\nLIMIT ?"
		args = append(args, limit)
	}
	return query, args
}

func scanReadings(rows *sql.Rows) ([]types.Reading, error) {
	var out []types.Reading
	for rows.Next() {
		var (
			rec types.Reading
			ts  string
		)
		if err := rows.Scan(
			&rec.ID, &ts, &rec.DeviceID,
			&rec.CPM, &rec.ACPM, &rec.USV, &rec.Dose,
			&rec.RawData, &rec.ClientIP,
		); err != nil {
			return nil, err
		}
		t, err := time.ParseInLocation(types.TimestampLayout, ts, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		rec.Timestamp = t
		out = append(out, rec)
	}
	return out, rows.Err()
}
