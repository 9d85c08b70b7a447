// Package service ties the instrument catalogue, the budget engine and the
// calculation history together. The HTTP API and the CLI are thin wrappers
// around it.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"uncertainty-budget/adapters/storage"
	"uncertainty-budget/core/budget"
	"uncertainty-budget/core/component"
	"uncertainty-budget/core/history"
	"uncertainty-budget/core/instrument"
	"uncertainty-budget/internal/errors"
)

// Selection identifies a stored range: instrument, quantity, range.
type Selection struct {
	InstrumentID string `json:"instrument_id"`
	QuantityID   string `json:"quantity_id"`
	RangeID      string `json:"range_id"`
}

// Validate requires all three IDs.
func (s Selection) Validate() error {
	if s.InstrumentID == "" || s.QuantityID == "" || s.RangeID == "" {
		return errors.Input("instrument_id, quantity_id and range_id are required")
	}
	return nil
}

// Service is the application entry point for budgets
type Service struct {
	store  storage.Store
	logger *zap.Logger
	now    func() time.Time
}

// New creates a service over store.
func New(store storage.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Store exposes the underlying store for catalogue and history reads.
func (s *Service) Store() storage.Store {
	return s.store
}

// Resolution is a selection resolved against the catalogue.
type Resolution struct {
	Instrument *instrument.Instrument
	Quantity   *instrument.MeasurementQuantity
	Range      *instrument.Range
}

// Metadata is the descriptive part of a history record.
func (r *Resolution) Metadata() history.Metadata {
	return history.Metadata{
		InstrumentName:   r.Instrument.Name,
		MeasuredQuantity: r.Quantity.MeasuredQuantity,
		InstrumentType:   r.Quantity.InstrumentType,
		MeasurementRange: r.Range.Label(),
	}
}

// Resolve looks up the instrument, quantity and range of sel.
func (s *Service) Resolve(ctx context.Context, sel Selection) (*Resolution, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	inst, err := s.store.GetInstrument(ctx, sel.InstrumentID)
	if err != nil {
		return nil, err
	}
	q, r, err := inst.Find(sel.QuantityID, sel.RangeID)
	if err != nil {
		return nil, err
	}
	return &Resolution{Instrument: inst, Quantity: q, Range: r}, nil
}

// Defaults returns the starting components for a stored range.
func (s *Service) Defaults(ctx context.Context, sel Selection) ([]component.Component, *Resolution, error) {
	res, err := s.Resolve(ctx, sel)
	if err != nil {
		return nil, nil, err
	}
	return component.Defaults(res.Range.Seed()), res, nil
}

// Evaluate computes a budget for the selected range without saving it.
func (s *Service) Evaluate(ctx context.Context, sel Selection, components []component.Component) (*budget.Sheet, *Resolution, error) {
	res, err := s.Resolve(ctx, sel)
	if err != nil {
		return nil, nil, err
	}
	sheet, err := budget.Calculate(components, res.Range.Reference())
	if err != nil {
		s.logger.Debug("budget rejected",
			zap.String("instrument", res.Instrument.Name),
			zap.String("kind", string(errors.TypeOf(err))),
			zap.Error(err))
		return nil, nil, err
	}
	return sheet, res, nil
}

// Save computes a budget for the selected range and archives it.
func (s *Service) Save(ctx context.Context, sel Selection, components []component.Component) (*history.Record, error) {
	sheet, res, err := s.Evaluate(ctx, sel, components)
	if err != nil {
		return nil, err
	}

	rec := history.NewRecord(res.Metadata(), sheet)
	rec.CreatedAt = s.now().UTC().Truncate(time.Microsecond)
	if err := s.store.SaveCalculation(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info("calculation saved",
		zap.String("id", rec.ID),
		zap.String("instrument", rec.InstrumentName),
		zap.String("range", rec.MeasurementRange),
		zap.Float64("final_uncertainty", rec.Result.FinalUncertainty),
		zap.Bool("cmc_dominates", rec.Result.CMCDominates()))
	return rec, nil
}

// AddInstrument validates and stores an instrument.
func (s *Service) AddInstrument(ctx context.Context, inst *instrument.Instrument) error {
	if err := s.store.SaveInstrument(ctx, inst); err != nil {
		return err
	}
	s.logger.Info("instrument saved", zap.String("id", inst.ID), zap.String("name", inst.Name))
	return nil
}
