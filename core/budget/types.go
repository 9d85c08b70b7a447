package budget

import (
	"encoding/json"
	"fmt"
	"math"

	"uncertainty-budget/core/component"
	"uncertainty-budget/internal/errors"
)

// ReferenceRange is the measurement range under calibration. Only Unit and
// CMC take part in the calculation.
type ReferenceRange struct {
	MinRange string  `json:"minRange"`
	MaxRange string  `json:"maxRange"`
	Unit     string  `json:"unit"`
	CMC      float64 `json:"cmc"`
}

// Validate rejects a negative or non-finite CMC.
func (r ReferenceRange) Validate() error {
	if math.IsNaN(r.CMC) || math.IsInf(r.CMC, 0) {
		return errors.InvalidReference("cmc is not a finite number")
	}
	if r.CMC < 0 {
		return errors.InvalidReference("cmc %g is negative", r.CMC).WithContext("cmc", r.CMC)
	}
	return nil
}

// Label formats the range the way history records show it.
func (r ReferenceRange) Label() string {
	return fmt.Sprintf("%s ~ %s %s", r.MinRange, r.MaxRange, r.Unit)
}

// Contribution holds the values derived for one component.
type Contribution struct {
	Name         string                 `json:"name"`
	Unit         string                 `json:"unit"`
	Distribution component.Distribution `json:"distribution"`
	Uncertainty  float64                `json:"uncertainty"`
	Divisor      float64                `json:"divisor"`
	Ni           int                    `json:"ni"`
	Ui           float64                `json:"ui"`
	Ci           float64                `json:"ci"`
	UiCi         float64                `json:"uici"`
	UiCiSquared  float64                `json:"uiciSquared"`
	UiCi4OverNi  float64                `json:"uici4OverNi"`
}

// Result is the aggregate budget. Field names follow the stored results
// blob.
type Result struct {
	SumUiCiSquared   float64          `json:"sumUiCiSquared"`
	SumUiCi4OverNi   float64          `json:"sumUiCi4OverNi"`
	Uc               float64          `json:"uc"`
	Veff             DegreesOfFreedom `json:"veff"`
	K                float64          `json:"k"`
	U                float64          `json:"U"`
	CMC              float64          `json:"cmc"`
	FinalUncertainty float64          `json:"finalUncertainty"`
	Unit             string           `json:"unit"`
}

// CMCDominates reports whether the reported uncertainty is the CMC floor
// rather than the expanded uncertainty.
func (r Result) CMCDominates() bool {
	return r.CMC > r.U
}

// Sheet is a complete budget: inputs, per-row values and the result.
type Sheet struct {
	Range         ReferenceRange        `json:"range"`
	Components    []component.Component `json:"components"`
	Contributions []Contribution        `json:"contributions"`
	Result        Result                `json:"results"`
}

// DegreesOfFreedom is the effective degrees of freedom. A budget whose
// components are all zero has no defined value; that NaN is encoded as
// JSON null and decoded back to NaN.
type DegreesOfFreedom float64

// Defined reports whether the value is a finite number.
func (v DegreesOfFreedom) Defined() bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// MarshalJSON writes null for an undefined value.
func (v DegreesOfFreedom) MarshalJSON() ([]byte, error) {
	if !v.Defined() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(v))
}

// UnmarshalJSON reads null as NaN.
func (v *DegreesOfFreedom) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = DegreesOfFreedom(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = DegreesOfFreedom(f)
	return nil
}
