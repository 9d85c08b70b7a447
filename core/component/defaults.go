package component

import "fmt"

// Fallback magnitudes for the default contributors when a range carries no
// drift or calibration uncertainty of its own.
const (
	defaultCalibrationUncertainty = 0.0001
	defaultDrift                  = 0.0001
	defaultResolution             = 0.001
	defaultRepeatability          = 0.002
)

// Seed carries the range values a new budget starts from.
type Seed struct {
	Unit                   string
	Drift                  float64
	CalibrationUncertainty float64
}

// Defaults returns the four contributors every new budget starts with:
// reference certificate, drift, resolution and repeatability.
func Defaults(seed Seed) []Component {
	unit := seed.Unit
	if unit == "" {
		unit = "mV"
	}

	certificate := defaultCalibrationUncertainty
	if seed.CalibrationUncertainty > 0 {
		certificate = seed.CalibrationUncertainty
	}
	drift := defaultDrift
	if seed.Drift > 0 {
		drift = seed.Drift
	}

	cs := []Component{
		New("Reference standard calibration certificate", unit, certificate, Normal),
		New("Drift", unit, drift, Rectangular),
		New("Resolution / readability", unit, defaultResolution, Rectangular),
		New("Repeatability", unit, defaultRepeatability, TypeA),
	}
	for i := range cs {
		cs[i].ID = fmt.Sprintf("comp-%d", i)
	}
	return cs
}

// Blank is the template for a contributor added by hand.
func Blank(unit string) Component {
	if unit == "" {
		unit = "mV"
	}
	return New("New component", unit, 0, Rectangular)
}
