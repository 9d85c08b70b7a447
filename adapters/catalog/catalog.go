// Package catalog imports instrument catalogues from YAML.
//
//	instruments:
//	  - name: Multifunction Calibrator
//	    brand: Fluke
//	    measurementQuantities:
//	      - measuredQuantity: DC Voltage
//	        instrumentType: Digital Multimeter
//	        ranges:
//	          - {minRange: "0", maxRange: "100", unit: mV, cmc: 0.085}
package catalog

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"uncertainty-budget/adapters/storage"
	"uncertainty-budget/core/instrument"
	"uncertainty-budget/internal/errors"
)

// Document is the catalogue file layout
type Document struct {
	Instruments []*instrument.Instrument `yaml:"instruments"`
}

// Parse decodes a catalogue. Unknown keys are rejected.
func Parse(data []byte, name string) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Parsing(fmt.Sprintf("parse catalogue %s", name), err).
			WithContext("file", name)
	}
	if len(doc.Instruments) == 0 {
		return nil, errors.Newf(errors.TypeParsing, "catalogue %s lists no instruments", name).
			WithContext("file", name)
	}
	return &doc, nil
}

// Load reads and parses the catalogue at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("catalogue", path)
		}
		return nil, errors.Wrapf(errors.TypeInput, err, "read %s", path)
	}
	return Parse(data, path)
}

// Validate reports every invalid instrument, not just the first.
func (d *Document) Validate() error {
	var errs error
	for i, inst := range d.Instruments {
		if inst == nil {
			errs = multierr.Append(errs, fmt.Errorf("instrument %d: empty entry", i+1))
			continue
		}
		if err := inst.Validate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("instrument %d (%s): %w", i+1, inst.Name, err))
		}
	}
	return errs
}

// Import validates the whole document, then saves each instrument. Nothing
// is saved when any entry is invalid.
func Import(ctx context.Context, store storage.InstrumentStore, doc *Document) ([]*instrument.Instrument, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	saved := make([]*instrument.Instrument, 0, len(doc.Instruments))
	for _, inst := range doc.Instruments {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		if err := store.SaveInstrument(ctx, inst); err != nil {
			return saved, err
		}
		saved = append(saved, inst)
	}
	return saved, nil
}

// Export encodes instruments as a catalogue document.
func Export(insts []*instrument.Instrument) ([]byte, error) {
	data, err := yaml.Marshal(Document{Instruments: insts})
	if err != nil {
		return nil, errors.Internal("encode catalogue", err)
	}
	return data, nil
}
