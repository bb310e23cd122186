package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"jalaliflow/internal/jalali"
	"jalaliflow/internal/model"
	"jalaliflow/internal/schedule"
)

const eventColumns = "id, name, frequency, start_date, next_run, action, created_at, updated_at"

// SQLStore keeps events in the jalali_events table.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

// OpenMySQL opens a MySQL handle from a go-sql-driver DSN. parseTime is
// forced on so timestamps scan into time.Time.
func OpenMySQL(dsn string) (*SQLStore, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parse dsn: %w", err)
	}
	cfg.ParseTime = true
	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return NewSQLStore(db), nil
}

// DB exposes the handle for migrations.
func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) Create(ctx context.Context, e *model.RecurringEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	action, err := json.Marshal(e.Action)
	if err != nil {
		return err
	}
	now := s.now().UTC().Truncate(time.Second)
	e.CreatedAt, e.UpdatedAt = now, now

	query := `
		INSERT INTO jalali_events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		e.ID, e.Name, string(e.Frequency), e.StartDate, e.NextRun, string(action), e.CreatedAt, e.UpdatedAt,
	)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (model.RecurringEvent, error) {
	var (
		e      model.RecurringEvent
		freq   string
		action string
	)
	if err := row.Scan(&e.ID, &e.Name, &freq, &e.StartDate, &e.NextRun, &action, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return e, err
	}
	e.Frequency = schedule.Frequency(freq)
	if err := json.Unmarshal([]byte(action), &e.Action); err != nil {
		return e, fmt.Errorf("store: decode action of %s: %w", e.ID, err)
	}
	return e, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*model.RecurringEvent, error) {
	query := "SELECT " + eventColumns + " FROM jalali_events WHERE id = ?"
	e, err := scanEvent(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) ([]model.RecurringEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RecurringEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) List(ctx context.Context) ([]model.RecurringEvent, error) {
	return s.query(ctx, "SELECT "+eventColumns+" FROM jalali_events ORDER BY next_run, name")
}

func (s *SQLStore) Due(ctx context.Context, today string) ([]model.RecurringEvent, error) {
	if _, err := jalali.Parse(today); err != nil {
		return nil, err
	}
	return s.query(ctx, "SELECT "+eventColumns+" FROM jalali_events WHERE next_run <= ? ORDER BY next_run, name", today)
}

func (s *SQLStore) UpdateNextRun(ctx context.Context, id, nextRun string) error {
	if _, err := jalali.Parse(nextRun); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE jalali_events SET next_run = ?, updated_at = ? WHERE id = ?",
		nextRun, s.now().UTC().Truncate(time.Second), id,
	)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM jalali_events WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
