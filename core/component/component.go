package component

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"go.uber.org/multierr"

	"uncertainty-budget/internal/errors"
)

// SensitivityCoefficient is ci. Every contributor is already expressed in
// the measurand's unit, so there is no scaling.
const SensitivityCoefficient = 1.0

// Component is one contributor to measurement uncertainty.
//
// The divisor is not a field: it is derived from Distribution, so the two
// can never disagree.
type Component struct {
	// ID is an opaque caller-side identifier (row key in a budget sheet)
	ID string

	// Name labels the contributor
	Name string

	// Unit is informational only
	Unit string

	// Uncertainty is the stated magnitude U in Unit
	Uncertainty float64

	// Distribution selects the divisor
	Distribution Distribution

	// Ni is the contributor's degrees of freedom
	Ni int
}

// New returns a component with Ni = 1.
func New(name, unit string, uncertainty float64, d Distribution) Component {
	return Component{
		Name:         name,
		Unit:         unit,
		Uncertainty:  uncertainty,
		Distribution: d,
		Ni:           1,
	}
}

// Divisor returns the divisor for the component's distribution.
func (c Component) Divisor() float64 {
	return c.Distribution.Divisor()
}

// SetDistribution parses name and assigns it. The component is untouched
// on failure.
func SetDistribution(c *Component, name string) error {
	d, err := ParseDistribution(name)
	if err != nil {
		return err
	}
	c.Distribution = d
	return nil
}

// Validate checks a single component. It has no side effects.
func Validate(c Component) error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.InvalidComponent("component name is empty")
	}
	if math.IsNaN(c.Uncertainty) || math.IsInf(c.Uncertainty, 0) {
		return errors.InvalidComponent("component %q: uncertainty is not a finite number", c.Name).
			WithContext("component", c.Name)
	}
	if c.Uncertainty < 0 {
		return errors.InvalidComponent("component %q: uncertainty %g is negative", c.Name, c.Uncertainty).
			WithContext("component", c.Name)
	}
	if c.Ni < 1 {
		return errors.InvalidComponent("component %q: ni must be at least 1, got %d", c.Name, c.Ni).
			WithContext("component", c.Name)
	}
	if !c.Distribution.Valid() {
		return errors.InvalidDistribution(c.Distribution.String()).WithContext("component", c.Name)
	}
	return nil
}

// ValidateAll reports every invalid component at once, for linting a
// budget before it is computed.
func ValidateAll(cs []Component) error {
	if len(cs) == 0 {
		return errors.EmptyComponentSet()
	}
	var err error
	for i, c := range cs {
		if verr := Validate(c); verr != nil {
			err = multierr.Append(err, fmt.Errorf("component %d: %w", i+1, verr))
		}
	}
	return err
}

// componentJSON is the stored shape. divisor is written for readers of
// historical records and ignored on decode.
type componentJSON struct {
	ID           string       `json:"id,omitempty"`
	Name         string       `json:"name"`
	Unit         string       `json:"unit"`
	Uncertainty  float64      `json:"uncertainty"`
	Distribution Distribution `json:"distribution"`
	Divisor      float64      `json:"divisor"`
	Ni           *int         `json:"ni,omitempty"`
}

// MarshalJSON writes the component with its derived divisor.
func (c Component) MarshalJSON() ([]byte, error) {
	ni := c.Ni
	return json.Marshal(componentJSON{
		ID:           c.ID,
		Name:         c.Name,
		Unit:         c.Unit,
		Uncertainty:  c.Uncertainty,
		Distribution: c.Distribution,
		Divisor:      c.Divisor(),
		Ni:           &ni,
	})
}

// UnmarshalJSON reads a component. A missing ni defaults to 1.
func (c *Component) UnmarshalJSON(data []byte) error {
	var raw componentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ni := 1
	if raw.Ni != nil {
		ni = *raw.Ni
	}
	*c = Component{
		ID:           raw.ID,
		Name:         raw.Name,
		Unit:         raw.Unit,
		Uncertainty:  raw.Uncertainty,
		Distribution: raw.Distribution,
		Ni:           ni,
	}
	return nil
}
