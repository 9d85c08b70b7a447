package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"uncertainty-budget/core/history"
	"uncertainty-budget/core/instrument"
	"uncertainty-budget/internal/errors"
)

// MemoryStore is an in-memory storage backend (for testing)
type MemoryStore struct {
	instruments  map[string]*instrument.Instrument
	calculations map[string]*history.Record
	mu           sync.RWMutex
}

// NewMemoryStore creates a memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		instruments:  make(map[string]*instrument.Instrument),
		calculations: make(map[string]*history.Record),
	}
}

func (s *MemoryStore) SaveInstrument(ctx context.Context, inst *instrument.Instrument) error {
	if err := prepareInstrument(inst, time.Now().UTC()); err != nil {
		return err
	}
	stored, err := clone(inst)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.instruments[inst.ID]; ok {
		stored.CreatedAt = prev.CreatedAt
		inst.CreatedAt = prev.CreatedAt
	}
	s.instruments[inst.ID] = stored
	return nil
}

func (s *MemoryStore) GetInstrument(ctx context.Context, id string) (*instrument.Instrument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.instruments[id]
	if !ok {
		return nil, errors.NotFound("instrument", id)
	}
	return clone(inst)
}

func (s *MemoryStore) ListInstruments(ctx context.Context) ([]*instrument.Instrument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*instrument.Instrument, 0, len(s.instruments))
	for _, inst := range s.instruments {
		c, err := clone(inst)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sortInstruments(out)
	return out, nil
}

func (s *MemoryStore) SaveCalculation(ctx context.Context, rec *history.Record) error {
	prepareRecord(rec, time.Now().UTC())
	stored, err := clone(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculations[rec.ID] = stored
	return nil
}

func (s *MemoryStore) GetCalculation(ctx context.Context, id string) (*history.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.calculations[id]
	if !ok {
		return nil, errors.NotFound("calculation", id)
	}
	return clone(rec)
}

func (s *MemoryStore) ListCalculations(ctx context.Context) ([]*history.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*history.Record, 0, len(s.calculations))
	for _, rec := range s.calculations {
		c, err := clone(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sortRecords(out)
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// Ties on the timestamp fall back to ID so listings are stable.
func sortInstruments(list []*instrument.Instrument) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].UpdatedAt.Equal(list[j].UpdatedAt) {
			return list[i].UpdatedAt.After(list[j].UpdatedAt)
		}
		return list[i].ID < list[j].ID
	})
}

func sortRecords(list []*history.Record) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
