// Package component defines a single uncertainty contributor and the
// probability distribution that fixes its divisor.
package component

import (
	"encoding/json"
	"strings"

	"uncertainty-budget/internal/errors"
)

// Distribution is the assumed probability distribution of a contributor.
// The zero value is unset and never valid.
type Distribution int

const (
	Normal Distribution = iota + 1
	Rectangular
	TypeA
)

// Divisors. Rectangular is the truncated 1.732, not math.Sqrt(3):
// stored budgets were computed with it and must reproduce bit for bit.
const (
	DivisorNormal      = 2.0
	DivisorRectangular = 1.732
	DivisorTypeA       = 1.0
)

// Distributions lists every valid distribution in display order.
var Distributions = []Distribution{Normal, Rectangular, TypeA}

// Divisor returns the divisor that converts a stated uncertainty into a
// standard uncertainty. Unset distributions return 0.
func (d Distribution) Divisor() float64 {
	switch d {
	case Normal:
		return DivisorNormal
	case Rectangular:
		return DivisorRectangular
	case TypeA:
		return DivisorTypeA
	}
	return 0
}

// Valid reports whether d is one of the three recognised distributions.
func (d Distribution) Valid() bool {
	return d >= Normal && d <= TypeA
}

// String returns the label used in stored records.
func (d Distribution) String() string {
	switch d {
	case Normal:
		return "Normal"
	case Rectangular:
		return "Rectangular"
	case TypeA:
		return "Type A"
	}
	return "unset"
}

// ParseDistribution accepts Normal, Rectangular, TypeA and "Type A",
// ignoring case and surrounding space.
func ParseDistribution(name string) (Distribution, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "normal":
		return Normal, nil
	case "rectangular":
		return Rectangular, nil
	case "typea", "type a":
		return TypeA, nil
	}
	return 0, errors.InvalidDistribution(name)
}

// MarshalJSON encodes the label.
func (d Distribution) MarshalJSON() ([]byte, error) {
	if !d.Valid() {
		return nil, errors.InvalidDistribution(d.String())
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a label.
func (d *Distribution) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseDistribution(name)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalText lets yaml.v3 and flag-style parsers use the label.
func (d Distribution) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, errors.InvalidDistribution(d.String())
	}
	return []byte(d.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (d *Distribution) UnmarshalText(text []byte) error {
	parsed, err := ParseDistribution(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
