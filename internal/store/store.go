// Package store persists recurring events.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"jalaliflow/internal/config"
	"jalaliflow/internal/model"
)

// ErrNotFound is returned when an event ID does not exist.
var ErrNotFound = errors.New("store: event not found")

// Store is the event storage collaborator.
type Store interface {
	// Create validates e, assigns an ID when empty and stamps the times.
	Create(ctx context.Context, e *model.RecurringEvent) error
	Get(ctx context.Context, id string) (*model.RecurringEvent, error)
	List(ctx context.Context) ([]model.RecurringEvent, error)
	// Due returns events whose next run is on or before today
	// ("YYYY/MM/DD").
	Due(ctx context.Context, today string) ([]model.RecurringEvent, error)
	UpdateNextRun(ctx context.Context, id, nextRun string) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// Open builds the store selected by cfg. The mysql driver also applies
// pending migrations.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "file":
		return NewFileStore(cfg.Path), nil
	case "mysql":
		s, err := OpenMySQL(cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := s.db.PingContext(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("store: ping mysql: %w", err)
		}
		if err := Migrate(s.db); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
}

// sortEvents orders by next run, then name. Validated "YYYY/MM/DD" strings
// sort chronologically.
func sortEvents(evs []model.RecurringEvent) {
	sort.SliceStable(evs, func(i, j int) bool {
		if evs[i].NextRun != evs[j].NextRun {
			return evs[i].NextRun < evs[j].NextRun
		}
		return evs[i].Name < evs[j].Name
	})
}
