package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/multierr"

	"uncertainty-budget/core/history"
	"uncertainty-budget/core/instrument"
	"uncertainty-budget/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS instruments (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	document    JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS calculations (
	id                 TEXT PRIMARY KEY,
	instrument_name    TEXT NOT NULL,
	measured_quantity  TEXT NOT NULL,
	instrument_type    TEXT NOT NULL,
	measurement_range  TEXT NOT NULL,
	components         JSONB NOT NULL,
	results            JSONB NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS calculations_created_at_idx ON calculations (created_at DESC);
`

// PostgresStore keeps instruments and calculations in PostgreSQL.
// Instrument trees and budget blobs are JSONB documents.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects, pings and applies the schema.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "open postgres", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return nil, multierr.Append(errors.Internal("connect postgres", err), db.Close())
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, multierr.Append(errors.Internal("apply schema", err), db.Close())
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) SaveInstrument(ctx context.Context, inst *instrument.Instrument) error {
	if err := prepareInstrument(inst, time.Now().UTC()); err != nil {
		return err
	}

	var created time.Time
	err := s.db.QueryRowContext(ctx, `SELECT created_at FROM instruments WHERE id = $1`, inst.ID).Scan(&created)
	switch {
	case err == nil:
		inst.CreatedAt = created.UTC()
	case err != sql.ErrNoRows:
		return errors.Internal("load instrument", err)
	}

	doc, err := json.Marshal(inst)
	if err != nil {
		return errors.Internal("encode instrument", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO instruments (id, name, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`,
		inst.ID, inst.Name, doc, inst.CreatedAt, inst.UpdatedAt)
	if err != nil {
		return errors.Internal("save instrument", err)
	}
	return nil
}

func (s *PostgresStore) GetInstrument(ctx context.Context, id string) (*instrument.Instrument, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `SELECT document FROM instruments WHERE id = $1`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("instrument", id)
	}
	if err != nil {
		return nil, errors.Internal("load instrument", err)
	}

	var inst instrument.Instrument
	if err := json.Unmarshal(doc, &inst); err != nil {
		return nil, errors.Internal("decode instrument", err)
	}
	return &inst, nil
}

func (s *PostgresStore) ListInstruments(ctx context.Context) ([]*instrument.Instrument, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT document FROM instruments ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, errors.Internal("list instruments", err)
	}
	defer rows.Close()

	var out []*instrument.Instrument
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, errors.Internal("scan instrument", err)
		}
		var inst instrument.Instrument
		if err := json.Unmarshal(doc, &inst); err != nil {
			return nil, errors.Internal("decode instrument", err)
		}
		out = append(out, &inst)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("list instruments", err)
	}
	return out, nil
}

func (s *PostgresStore) SaveCalculation(ctx context.Context, rec *history.Record) error {
	prepareRecord(rec, time.Now().UTC())

	components, err := json.Marshal(rec.Components)
	if err != nil {
		return errors.Internal("encode components", err)
	}
	results, err := json.Marshal(rec.Result)
	if err != nil {
		return errors.Internal("encode results", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO calculations
			(id, instrument_name, measured_quantity, instrument_type, measurement_range, components, results, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.InstrumentName, rec.MeasuredQuantity, rec.InstrumentType, rec.MeasurementRange,
		components, results, rec.CreatedAt)
	if err != nil {
		return errors.Internal("save calculation", err)
	}
	return nil
}

const calculationColumns = `id, instrument_name, measured_quantity, instrument_type, measurement_range, components, results, created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*history.Record, error) {
	var (
		rec                 history.Record
		components, results []byte
	)
	if err := row.Scan(&rec.ID, &rec.InstrumentName, &rec.MeasuredQuantity, &rec.InstrumentType,
		&rec.MeasurementRange, &components, &results, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(components, &rec.Components); err != nil {
		return nil, errors.Internal("decode components", err)
	}
	if err := json.Unmarshal(results, &rec.Result); err != nil {
		return nil, errors.Internal("decode results", err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return &rec, nil
}

func (s *PostgresStore) GetCalculation(ctx context.Context, id string) (*history.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+calculationColumns+` FROM calculations WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("calculation", id)
	}
	if err != nil {
		return nil, errors.Internal("load calculation", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListCalculations(ctx context.Context) ([]*history.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+calculationColumns+` FROM calculations ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, errors.Internal("list calculations", err)
	}
	defer rows.Close()

	var out []*history.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Internal("scan calculation", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("list calculations", err)
	}
	return out, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
