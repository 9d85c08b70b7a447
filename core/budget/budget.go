// Package budget computes a GUM uncertainty budget: per-component standard
// uncertainties, the combined and expanded uncertainty, the effective
// degrees of freedom and the reported value floored at the CMC.
//
// Every function here is pure. Inputs are read, never written, and nothing
// is shared between calls, so callers may compute budgets concurrently.
package budget

import (
	"math"
	"sort"

	"uncertainty-budget/core/component"
	"uncertainty-budget/internal/errors"
)

// CoverageFactor is k. It is fixed at 2 and not looked up from veff;
// stored results depend on it.
const CoverageFactor = 2.0

// Compute derives the budget result for components against ref.
//
// Validation runs before any arithmetic: the reference first, then the
// component set, then each component in order. The first failure is
// returned and no result is produced.
func Compute(components []component.Component, ref ReferenceRange) (Result, error) {
	contributions, err := derive(components, ref)
	if err != nil {
		return Result{}, err
	}
	return aggregate(contributions, ref)
}

// Contributions returns the per-component derived values.
func Contributions(components []component.Component, ref ReferenceRange) ([]Contribution, error) {
	return derive(components, ref)
}

// Calculate returns the full sheet. The sheet holds its own copy of the
// components.
func Calculate(components []component.Component, ref ReferenceRange) (*Sheet, error) {
	contributions, err := derive(components, ref)
	if err != nil {
		return nil, err
	}
	result, err := aggregate(contributions, ref)
	if err != nil {
		return nil, err
	}

	own := make([]component.Component, len(components))
	copy(own, components)

	return &Sheet{
		Range:         ref,
		Components:    own,
		Contributions: contributions,
		Result:        result,
	}, nil
}

func validate(components []component.Component, ref ReferenceRange) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	if len(components) == 0 {
		return errors.EmptyComponentSet()
	}
	for i, c := range components {
		if err := component.Validate(c); err != nil {
			if e, ok := errors.As(err); ok {
				e.WithContext("index", i)
			}
			return err
		}
	}
	return nil
}

func derive(components []component.Component, ref ReferenceRange) ([]Contribution, error) {
	if err := validate(components, ref); err != nil {
		return nil, err
	}

	out := make([]Contribution, len(components))
	for i, c := range components {
		out[i] = contribution(c)
		if !finite(out[i].UiCiSquared) || !finite(out[i].UiCi4OverNi) {
			return nil, errors.InvalidComponent("component %q: uncertainty %g is too large to combine", c.Name, c.Uncertainty).
				WithContext("index", i).
				WithContext("component", c.Name)
		}
	}
	return out, nil
}

func contribution(c component.Component) Contribution {
	divisor := c.Divisor()
	ui := c.Uncertainty / divisor
	uici := ui * component.SensitivityCoefficient

	return Contribution{
		Name:         c.Name,
		Unit:         c.Unit,
		Distribution: c.Distribution,
		Uncertainty:  c.Uncertainty,
		Divisor:      divisor,
		Ni:           c.Ni,
		Ui:           ui,
		Ci:           component.SensitivityCoefficient,
		UiCi:         uici,
		UiCiSquared:  math.Pow(uici, 2),
		UiCi4OverNi:  math.Pow(uici, 4) / float64(c.Ni),
	}
}

func aggregate(contributions []Contribution, ref ReferenceRange) (Result, error) {
	squares := make([]float64, len(contributions))
	fourths := make([]float64, len(contributions))
	for i, c := range contributions {
		squares[i] = c.UiCiSquared
		fourths[i] = c.UiCi4OverNi
	}
	sumSq := sum(squares)
	sum4 := sum(fourths)
	if !finite(sumSq) || !finite(sum4) {
		return Result{}, errors.InvalidComponent("components are too large to combine: the sum of their squares overflows")
	}

	uc := math.Sqrt(sumSq)
	expanded := CoverageFactor * uc

	return Result{
		SumUiCiSquared:   sumSq,
		SumUiCi4OverNi:   sum4,
		Uc:               uc,
		Veff:             DegreesOfFreedom(effectiveDegrees(contributions)),
		K:                CoverageFactor,
		U:                expanded,
		CMC:              ref.CMC,
		FinalUncertainty: math.Max(expanded, ref.CMC),
		Unit:             ref.Unit,
	}, nil
}

// effectiveDegrees is uc⁴ / sqrt(Σ (ui·ci)⁴/ni), the Welch-Satterthwaite
// form stored budgets use. The terms are rescaled by a power of two so the
// largest is in [0.5, 1); the fourth powers then neither overflow nor
// underflow to zero, and the rescaling is exact. All-zero components give
// NaN (0/0).
func effectiveDegrees(contributions []Contribution) float64 {
	var largest float64
	for _, c := range contributions {
		largest = math.Max(largest, c.UiCi)
	}
	if largest == 0 {
		return math.NaN()
	}
	_, exp := math.Frexp(largest)

	squares := make([]float64, len(contributions))
	fourths := make([]float64, len(contributions))
	for i, c := range contributions {
		scaled := math.Ldexp(c.UiCi, -exp)
		squares[i] = scaled * scaled
		fourths[i] = math.Pow(scaled, 4) / float64(c.Ni)
	}
	uc := math.Sqrt(sum(squares))
	return math.Ldexp(math.Pow(uc, 4)/math.Sqrt(sum(fourths)), 2*exp)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// sum adds terms in ascending order so the total does not depend on the
// order components were listed in. terms is reordered.
func sum(terms []float64) float64 {
	sort.Float64s(terms)
	var total float64
	for _, t := range terms {
		total += t
	}
	return total
}
