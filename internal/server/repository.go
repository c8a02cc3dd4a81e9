package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Tiliavir/trivial-timecard/internal/model"
)

// ErrNotFound is returned when no timecard has the requested id.
var ErrNotFound = errors.New("timecard not found")

// Timecard is a stored entry together with its owner.
type Timecard struct {
	model.TimeEntry
	EmployeeID int64
}

// Repository defines timecard database operations.
type Repository interface {
	ListByEmployee(ctx context.Context, employeeID int64) ([]Timecard, error)
	ListRange(ctx context.Context, employeeID int64, from, to string) ([]Timecard, error)
	Get(ctx context.Context, id int64) (Timecard, error)
	Create(ctx context.Context, tc *Timecard) error
	Update(ctx context.Context, tc Timecard) error
}

type sqlRepository struct {
	db *sql.DB
}

// NewRepository creates a Repository over the timecards table.
func NewRepository(db *sql.DB) Repository {
	return &sqlRepository{db: db}
}

const selectTimecard = `
	SELECT id, employee_id, work_date, start_time, lunch_start, lunch_end, end_time, total_minutes, status
	FROM timecards
`

func (r *sqlRepository) ListByEmployee(ctx context.Context, employeeID int64) ([]Timecard, error) {
	return r.list(ctx, selectTimecard+`WHERE employee_id = ? ORDER BY work_date ASC, id ASC`, employeeID)
}

func (r *sqlRepository) ListRange(ctx context.Context, employeeID int64, from, to string) ([]Timecard, error) {
	return r.list(ctx, selectTimecard+`WHERE employee_id = ? AND work_date BETWEEN ? AND ? ORDER BY work_date ASC, id ASC`,
		employeeID, from, to)
}

func (r *sqlRepository) list(ctx context.Context, query string, args ...any) ([]Timecard, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query timecards: %w", err)
	}
	defer rows.Close()

	var out []Timecard
	for rows.Next() {
		tc, err := scanTimecard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timecard: %w", err)
		}
		out = append(out, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating timecards: %w", err)
	}
	return out, nil
}

func (r *sqlRepository) Get(ctx context.Context, id int64) (Timecard, error) {
	tc, err := scanTimecard(r.db.QueryRowContext(ctx, selectTimecard+`WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Timecard{}, ErrNotFound
	}
	if err != nil {
		return Timecard{}, fmt.Errorf("failed to get timecard %d: %w", id, err)
	}
	return tc, nil
}

func (r *sqlRepository) Create(ctx context.Context, tc *Timecard) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO timecards (employee_id, work_date, start_time, lunch_start, lunch_end, end_time, total_minutes, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, tc.EmployeeID, tc.Date,
		nullClock(tc.StartTime), nullClock(tc.LunchStart), nullClock(tc.LunchEnd), nullClock(tc.EndTime),
		tc.TotalTime.TotalMinutes(), string(tc.Status))
	if err != nil {
		return fmt.Errorf("failed to create timecard: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get timecard id: %w", err)
	}
	tc.ID = id
	return nil
}

func (r *sqlRepository) Update(ctx context.Context, tc Timecard) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE timecards
		SET employee_id = ?, work_date = ?, start_time = ?, lunch_start = ?, lunch_end = ?, end_time = ?,
			total_minutes = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, tc.EmployeeID, tc.Date,
		nullClock(tc.StartTime), nullClock(tc.LunchStart), nullClock(tc.LunchEnd), nullClock(tc.EndTime),
		tc.TotalTime.TotalMinutes(), string(tc.Status), tc.ID)
	if err != nil {
		return fmt.Errorf("failed to update timecard %d: %w", tc.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update timecard %d: %w", tc.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTimecard(s scanner) (Timecard, error) {
	var (
		tc      Timecard
		times   [4]sql.NullString
		minutes int
		status  string
	)
	err := s.Scan(&tc.ID, &tc.EmployeeID, &tc.Date,
		&times[0], &times[1], &times[2], &times[3], &minutes, &status)
	if err != nil {
		return Timecard{}, err
	}
	for i, f := range model.Fields {
		if !times[i].Valid {
			continue
		}
		c, err := model.ParseOptionalClock(times[i].String)
		if err != nil {
			return Timecard{}, fmt.Errorf("timecard %d %s: %w", tc.ID, f, err)
		}
		tc.Set(f, c)
	}
	tc.TotalTime = model.DurationFromMinutes(minutes)
	tc.Status = model.ParseStatus(status)
	return tc, nil
}

func nullClock(c *model.Clock) any {
	if c == nil {
		return nil
	}
	return c.String()
}
