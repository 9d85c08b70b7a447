package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"uncertainty-budget/core/history"
	"uncertainty-budget/core/instrument"
	"uncertainty-budget/internal/errors"
)

const (
	instrumentsDir  = "instruments"
	calculationsDir = "calculations"
)

// FileStore is a file-based storage backend: one JSON document per record.
type FileStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStore creates a file store
func NewFileStore(basePath string) (*FileStore, error) {
	for _, dir := range []string{instrumentsDir, calculationsDir} {
		if err := os.MkdirAll(filepath.Join(basePath, dir), 0755); err != nil {
			return nil, errors.Internal("create storage directory", err)
		}
	}
	return &FileStore{basePath: basePath}, nil
}

func (s *FileStore) SaveInstrument(ctx context.Context, inst *instrument.Instrument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := prepareInstrument(inst, time.Now().UTC()); err != nil {
		return err
	}
	var prev instrument.Instrument
	if err := s.read(instrumentsDir, inst.ID, &prev); err == nil {
		inst.CreatedAt = prev.CreatedAt
	}
	return s.write(instrumentsDir, inst.ID, inst)
}

func (s *FileStore) GetInstrument(ctx context.Context, id string) (*instrument.Instrument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var inst instrument.Instrument
	if err := s.read(instrumentsDir, id, &inst); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("instrument", id)
		}
		return nil, err
	}
	return &inst, nil
}

func (s *FileStore) ListInstruments(ctx context.Context) ([]*instrument.Instrument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*instrument.Instrument
	err := s.each(instrumentsDir, func(data []byte) error {
		var inst instrument.Instrument
		if err := json.Unmarshal(data, &inst); err != nil {
			return err
		}
		out = append(out, &inst)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortInstruments(out)
	return out, nil
}

func (s *FileStore) SaveCalculation(ctx context.Context, rec *history.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepareRecord(rec, time.Now().UTC())
	return s.write(calculationsDir, rec.ID, rec)
}

func (s *FileStore) GetCalculation(ctx context.Context, id string) (*history.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rec history.Record
	if err := s.read(calculationsDir, id, &rec); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("calculation", id)
		}
		return nil, err
	}
	return &rec, nil
}

func (s *FileStore) ListCalculations(ctx context.Context) ([]*history.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*history.Record
	err := s.each(calculationsDir, func(data []byte) error {
		var rec history.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		out = append(out, &rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortRecords(out)
	return out, nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) path(dir, id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", errors.Input(fmt.Sprintf("invalid record id %q", id))
	}
	return filepath.Join(s.basePath, dir, id+".json"), nil
}

func (s *FileStore) write(dir, id string, v interface{}) error {
	path, err := s.path(dir, id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Internal("encode record", err)
	}

	// Write then rename so readers never see a partial document.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Internal("write record", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Internal("commit record", err)
	}
	return nil
}

// read returns the raw os error for a missing file so callers can map it.
func (s *FileStore) read(dir, id string, v interface{}) error {
	path, err := s.path(dir, id)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Internal("decode "+path, err)
	}
	return nil
}

func (s *FileStore) each(dir string, fn func([]byte) error) error {
	entries, err := os.ReadDir(filepath.Join(s.basePath, dir))
	if err != nil {
		return errors.Internal("read storage", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.basePath, dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Internal("read "+path, err)
		}
		if err := fn(data); err != nil {
			return errors.Internal("decode "+path, err)
		}
	}
	return nil
}
