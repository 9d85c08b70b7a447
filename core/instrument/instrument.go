// Package instrument models the reference instruments a lab calibrates
// with: each instrument measures one or more quantities, and each quantity
// has ranges that carry a CMC.
package instrument

import (
	"fmt"
	"math"
	"strings"
	"time"

	"uncertainty-budget/core/budget"
	"uncertainty-budget/core/component"
	"uncertainty-budget/internal/errors"
)

// Instrument is a calibration standard
type Instrument struct {
	ID           string                `json:"id" yaml:"id,omitempty"`
	Name         string                `json:"name" yaml:"name"`
	Brand        string                `json:"brand" yaml:"brand"`
	Type         string                `json:"type" yaml:"type"`
	SerialNumber string                `json:"serialNumber" yaml:"serialNumber"`
	Quantities   []MeasurementQuantity `json:"measurementQuantities" yaml:"measurementQuantities"`
	CreatedAt    time.Time             `json:"createdAt" yaml:"-"`
	UpdatedAt    time.Time             `json:"updatedAt" yaml:"-"`
}

// MeasurementQuantity is one quantity an instrument can measure
type MeasurementQuantity struct {
	ID               string  `json:"id" yaml:"id,omitempty"`
	MeasuredQuantity string  `json:"measuredQuantity" yaml:"measuredQuantity"`
	InstrumentType   string  `json:"instrumentType" yaml:"instrumentType"`
	Ranges           []Range `json:"ranges" yaml:"ranges"`
}

// Range is a measurement range with its capability figures
type Range struct {
	ID                     string  `json:"id" yaml:"id,omitempty"`
	MinRange               string  `json:"minRange" yaml:"minRange"`
	MaxRange               string  `json:"maxRange" yaml:"maxRange"`
	Unit                   string  `json:"unit" yaml:"unit"`
	CMC                    float64 `json:"cmc" yaml:"cmc"`
	Drift                  float64 `json:"drift" yaml:"drift"`
	CalibrationUncertainty float64 `json:"calibrationUncertainty" yaml:"calibrationUncertainty"`
}

// Reference is the part of the range the budget engine consumes.
func (r Range) Reference() budget.ReferenceRange {
	return budget.ReferenceRange{
		MinRange: r.MinRange,
		MaxRange: r.MaxRange,
		Unit:     r.Unit,
		CMC:      r.CMC,
	}
}

// Label formats the range as "min ~ max unit".
func (r Range) Label() string {
	return r.Reference().Label()
}

// Seed returns the values default components start from.
func (r Range) Seed() component.Seed {
	return component.Seed{
		Unit:                   r.Unit,
		Drift:                  r.Drift,
		CalibrationUncertainty: r.CalibrationUncertainty,
	}
}

// Validate checks the instrument tree
func (i *Instrument) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return errors.Input("instrument name is required")
	}
	if len(i.Quantities) == 0 {
		return errors.Input(fmt.Sprintf("instrument %q has no measurement quantities", i.Name))
	}
	for qi, q := range i.Quantities {
		if strings.TrimSpace(q.MeasuredQuantity) == "" {
			return errors.Input(fmt.Sprintf("instrument %q: quantity %d has no name", i.Name, qi+1))
		}
		for ri, r := range q.Ranges {
			if err := r.validate(); err != nil {
				return errors.Wrapf(errors.TypeInput, err, "instrument %q: %s range %d", i.Name, q.MeasuredQuantity, ri+1)
			}
		}
	}
	return nil
}

func (r Range) validate() error {
	if strings.TrimSpace(r.Unit) == "" {
		return fmt.Errorf("unit is required")
	}
	fields := []struct {
		name  string
		value float64
	}{
		{"cmc", r.CMC},
		{"drift", r.Drift},
		{"calibrationUncertainty", r.CalibrationUncertainty},
	}
	for _, f := range fields {
		if f.value < 0 || math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%s must be a non-negative number, got %v", f.name, f.value)
		}
	}
	return nil
}

// Find returns the quantity and range with the given IDs.
func (i *Instrument) Find(quantityID, rangeID string) (*MeasurementQuantity, *Range, error) {
	for qi := range i.Quantities {
		q := &i.Quantities[qi]
		if q.ID != quantityID {
			continue
		}
		for ri := range q.Ranges {
			if q.Ranges[ri].ID == rangeID {
				return q, &q.Ranges[ri], nil
			}
		}
		return nil, nil, errors.NotFound("range", rangeID)
	}
	return nil, nil, errors.NotFound("measurement quantity", quantityID)
}

// AssignIDs fills empty IDs using next.
func (i *Instrument) AssignIDs(next func() string) {
	if i.ID == "" {
		i.ID = next()
	}
	for qi := range i.Quantities {
		q := &i.Quantities[qi]
		if q.ID == "" {
			q.ID = next()
		}
		for ri := range q.Ranges {
			if q.Ranges[ri].ID == "" {
				q.Ranges[ri].ID = next()
			}
		}
	}
}
