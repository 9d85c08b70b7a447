// Package storage persists instruments and archived calculations.
// Supports multiple backends: memory, file, PostgreSQL.
//
// Stores round-trip records losslessly and nothing more: they never
// recompute a budget and do not filter, sort or paginate beyond returning
// newest first.
package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"uncertainty-budget/core/history"
	"uncertainty-budget/core/instrument"
	"uncertainty-budget/internal/config"
	"uncertainty-budget/internal/errors"
)

// InstrumentStore keeps the instrument catalogue
type InstrumentStore interface {
	// SaveInstrument inserts or replaces an instrument, assigning IDs
	SaveInstrument(ctx context.Context, inst *instrument.Instrument) error

	// GetInstrument retrieves an instrument by ID
	GetInstrument(ctx context.Context, id string) (*instrument.Instrument, error)

	// ListInstruments lists instruments, most recently updated first
	ListInstruments(ctx context.Context) ([]*instrument.Instrument, error)
}

// HistoryStore archives computed budgets
type HistoryStore interface {
	// SaveCalculation stores a record, assigning ID and CreatedAt
	SaveCalculation(ctx context.Context, rec *history.Record) error

	// GetCalculation retrieves a record by ID
	GetCalculation(ctx context.Context, id string) (*history.Record, error)

	// ListCalculations lists records, newest first
	ListCalculations(ctx context.Context) ([]*history.Record, error)
}

// Store is the full storage interface
type Store interface {
	InstrumentStore
	HistoryStore

	// Close closes the store
	Close() error
}

// Open returns the backend selected by cfg.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendFile:
		return NewFileStore(cfg.Directory)
	case config.BackendPostgres:
		return NewPostgresStore(ctx, cfg.DSN)
	}
	return nil, errors.Newf(errors.TypeConfig, "unknown storage backend %q", cfg.Backend)
}

func newID() string {
	return uuid.New().String()
}

// Timestamps are kept at microsecond precision, the finest postgres stores.
func prepareInstrument(inst *instrument.Instrument, now time.Time) error {
	now = now.Truncate(time.Microsecond)
	if err := inst.Validate(); err != nil {
		return err
	}
	inst.AssignIDs(newID)
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = now
	}
	inst.UpdatedAt = now
	return nil
}

func prepareRecord(rec *history.Record, now time.Time) {
	now = now.Truncate(time.Microsecond)
	if rec.ID == "" {
		rec.ID = newID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
}

// clone deep-copies v through its JSON form, the same encoding every
// backend persists.
func clone[T any](v *T) (*T, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Internal("encode record", err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Internal("decode record", err)
	}
	return &out, nil
}
