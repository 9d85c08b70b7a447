package budgetfile

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"uncertainty-budget/core/budget"
	"uncertainty-budget/internal/errors"
)

// document is the YAML and JSON shape of a budget file:
//
//	range:
//	  min: "0"
//	  max: "100"
//	  unit: mV
//	  cmc: 0.085
//	components:
//	  - name: Drift
//	    uncertainty: 0.0001
//	    distribution: Rectangular
type document struct {
	Range      *rangeDoc      `json:"range" yaml:"range"`
	Components []componentDoc `json:"components" yaml:"components"`
}

type rangeDoc struct {
	Min  scalar   `json:"min" yaml:"min"`
	Max  scalar   `json:"max" yaml:"max"`
	Unit string   `json:"unit" yaml:"unit"`
	CMC  *float64 `json:"cmc" yaml:"cmc"`
}

type componentDoc struct {
	Name         string   `json:"name" yaml:"name"`
	Unit         string   `json:"unit" yaml:"unit"`
	Uncertainty  *float64 `json:"uncertainty" yaml:"uncertainty"`
	Distribution string   `json:"distribution" yaml:"distribution"`
	Ni           *int     `json:"ni" yaml:"ni"`

	line int
}

// UnmarshalYAML records where the component starts.
func (c *componentDoc) UnmarshalYAML(node *yaml.Node) error {
	type plain componentDoc
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = componentDoc(p)
	c.line = node.Line
	return nil
}

// scalar accepts a range bound written as a string or a number.
type scalar string

func (s *scalar) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = scalar(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("range bound must be a string or a number")
	}
	*s = scalar(n.String())
	return nil
}

func (s *scalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: range bound must be a string or a number", node.Line)
	}
	*s = scalar(node.Value)
	return nil
}

func parseYAML(src []byte, filename string) (*File, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Parsing(filename, err).WithContext("file", filename)
	}
	return doc.file(filename)
}

func parseJSON(src []byte, filename string) (*File, error) {
	var doc document
	dec := json.NewDecoder(bytes.NewReader(src))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		line := 0
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case stderrors.As(err, &syntaxErr):
			line = lineAt(src, syntaxErr.Offset)
		case stderrors.As(err, &typeErr):
			line = lineAt(src, typeErr.Offset)
		}
		return nil, errors.Parsing(fmt.Sprintf("%s:%d", filename, line), err).
			WithContext("file", filename).
			WithContext("line", line)
	}
	return doc.file(filename)
}

func (d *document) file(filename string) (*File, error) {
	if d.Range == nil {
		return nil, errors.Newf(errors.TypeParsing, "%s: missing range", filename).
			WithContext("file", filename)
	}
	if d.Range.CMC == nil {
		return nil, errors.Newf(errors.TypeParsing, "%s: range has no cmc", filename).
			WithContext("file", filename)
	}

	specs := make([]componentSpec, len(d.Components))
	for i, c := range d.Components {
		specs[i] = componentSpec{
			Name:         c.Name,
			Unit:         c.Unit,
			Uncertainty:  c.Uncertainty,
			Distribution: c.Distribution,
			Ni:           c.Ni,
			Line:         c.line,
		}
	}

	rng := budget.ReferenceRange{
		MinRange: string(d.Range.Min),
		MaxRange: string(d.Range.Max),
		Unit:     d.Range.Unit,
		CMC:      *d.Range.CMC,
	}
	cs, err := buildComponents(specs, filename, rng.Unit)
	if err != nil {
		return nil, err
	}
	return &File{Range: rng, Components: cs}, nil
}

// lineAt converts a byte offset into a 1-based line number.
func lineAt(src []byte, offset int64) int {
	if offset > int64(len(src)) {
		offset = int64(len(src))
	}
	return bytes.Count(src[:offset], []byte("\n")) + 1
}

// Encode writes f as a YAML budget file.
func Encode(f *File) ([]byte, error) {
	doc := struct {
		Range      rangeOut       `yaml:"range"`
		Components []componentOut `yaml:"components"`
	}{
		Range: rangeOut{
			Min:  f.Range.MinRange,
			Max:  f.Range.MaxRange,
			Unit: f.Range.Unit,
			CMC:  f.Range.CMC,
		},
	}
	for _, c := range f.Components {
		doc.Components = append(doc.Components, componentOut{
			Name:         c.Name,
			Unit:         c.Unit,
			Uncertainty:  c.Uncertainty,
			Distribution: c.Distribution.String(),
			Ni:           c.Ni,
		})
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errors.Internal("encode budget file", err)
	}
	return out, nil
}

type rangeOut struct {
	Min  string  `yaml:"min"`
	Max  string  `yaml:"max"`
	Unit string  `yaml:"unit"`
	CMC  float64 `yaml:"cmc"`
}

type componentOut struct {
	Name         string  `yaml:"name"`
	Unit         string  `yaml:"unit"`
	Uncertainty  float64 `yaml:"uncertainty"`
	Distribution string  `yaml:"distribution"`
	Ni           int     `yaml:"ni"`
}
