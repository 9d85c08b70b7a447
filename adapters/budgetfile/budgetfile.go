// Package budgetfile loads budget definitions from disk.
//
// A budget file holds a reference range and an ordered list of components.
// HCL, YAML and JSON are accepted, chosen by file extension.
package budgetfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"uncertainty-budget/core/budget"
	"uncertainty-budget/core/component"
	"uncertainty-budget/internal/errors"
)

// File is a loaded budget definition
type File struct {
	// Path the definition was read from
	Path string `json:"-" yaml:"-"`

	Range      budget.ReferenceRange `json:"range"`
	Components []component.Component `json:"components"`
}

// Calculate runs the budget engine over the file's contents.
func (f *File) Calculate() (*budget.Sheet, error) {
	sheet, err := budget.Calculate(f.Components, f.Range)
	if err != nil {
		if e, ok := errors.As(err); ok {
			e.WithContext("file", f.Path)
		}
		return nil, err
	}
	return sheet, nil
}

// Load reads and parses the file at path.
func Load(path string) (*File, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("budget file", path)
		}
		return nil, errors.Wrapf(errors.TypeInput, err, "read %s", path)
	}
	return Parse(src, path)
}

// Parse decodes src according to the extension of filename.
func Parse(src []byte, filename string) (*File, error) {
	var (
		f   *File
		err error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".hcl":
		f, err = parseHCL(src, filename)
	case ".yaml", ".yml":
		f, err = parseYAML(src, filename)
	case ".json":
		f, err = parseJSON(src, filename)
	default:
		return nil, errors.Newf(errors.TypeInput, "%s: unsupported budget file type (want .hcl, .yaml, .yml or .json)", filename)
	}
	if err != nil {
		return nil, err
	}
	f.Path = filename
	return f, nil
}

// componentSpec is a component as written in a file, before defaults.
type componentSpec struct {
	Name         string
	Unit         string
	Uncertainty  *float64
	Distribution string
	Ni           *int
	Line         int
}

// build applies defaults: unit falls back to the range unit, ni to 1.
func (s componentSpec) build(filename, rangeUnit string) (component.Component, error) {
	at := func(err *errors.Error) *errors.Error {
		return err.WithContext("file", filename).WithContext("line", s.Line)
	}

	if s.Uncertainty == nil {
		return component.Component{}, at(errors.Parsing(
			fmt.Sprintf("%s:%d: component %q has no uncertainty", filename, s.Line, s.Name), nil))
	}
	d, err := component.ParseDistribution(s.Distribution)
	if err != nil {
		if e, ok := errors.As(err); ok {
			return component.Component{}, at(e)
		}
		return component.Component{}, err
	}

	unit := s.Unit
	if unit == "" {
		unit = rangeUnit
	}
	c := component.New(s.Name, unit, *s.Uncertainty, d)
	if s.Ni != nil {
		c.Ni = *s.Ni
	}
	return c, nil
}

func buildComponents(specs []componentSpec, filename, rangeUnit string) ([]component.Component, error) {
	cs := make([]component.Component, 0, len(specs))
	for _, s := range specs {
		c, err := s.build(filename, rangeUnit)
		if err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	return cs, nil
}
