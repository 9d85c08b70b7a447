// Package history defines the archived form of a computed budget.
package history

import (
	"time"

	"uncertainty-budget/core/budget"
	"uncertainty-budget/core/component"
)

// Metadata describes what a budget was computed for
type Metadata struct {
	InstrumentName   string `json:"instrumentName"`
	MeasuredQuantity string `json:"measuredQuantity"`
	InstrumentType   string `json:"instrumentType"`
	MeasurementRange string `json:"measurementRange"`
}

// Record is one archived calculation. Components and Result are stored
// verbatim and never recomputed.
type Record struct {
	ID string `json:"id"`
	Metadata
	Components []component.Component `json:"components"`
	Result     budget.Result         `json:"results"`
	CreatedAt  time.Time             `json:"createdAt"`
}

// NewRecord builds an unsaved record from a computed sheet.
func NewRecord(meta Metadata, sheet *budget.Sheet) *Record {
	components := make([]component.Component, len(sheet.Components))
	copy(components, sheet.Components)
	return &Record{
		Metadata:   meta,
		Components: components,
		Result:     sheet.Result,
	}
}

// Sheet rebuilds the per-component rows for display. The stored result is
// returned as is, not recomputed.
func (r *Record) Sheet() (*budget.Sheet, error) {
	ref := budget.ReferenceRange{Unit: r.Result.Unit, CMC: r.Result.CMC}
	contributions, err := budget.Contributions(r.Components, ref)
	if err != nil {
		return nil, err
	}
	components := make([]component.Component, len(r.Components))
	copy(components, r.Components)
	return &budget.Sheet{
		Range:         ref,
		Components:    components,
		Contributions: contributions,
		Result:        r.Result,
	}, nil
}
