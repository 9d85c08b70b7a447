package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"uncertainty-budget/core/budget"
	"uncertainty-budget/core/ui"
	"uncertainty-budget/internal/errors"
)

// Format represents output format type
type Format string

const (
	// FormatTable is a human-readable terminal table
	FormatTable Format = "table"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"
)

// DefaultSignificantFigures is used when Options leaves it unset.
const DefaultSignificantFigures = 4

// Options control rendering
type Options struct {
	SignificantFigures int
	NoColor            bool
	Title              string

	// RangeLabel replaces the label derived from the sheet's range
	RangeLabel string
}

func (o Options) figures() int {
	if o.SignificantFigures < 1 {
		return DefaultSignificantFigures
	}
	return o.SignificantFigures
}

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render writes sheet to w
	Render(w io.Writer, sheet *budget.Sheet) error
}

// NewFormatter returns the formatter for f.
func NewFormatter(f Format, opts Options) (Formatter, error) {
	switch f {
	case FormatTable, "":
		return &tableFormatter{opts: opts}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	}
	return nil, errors.Newf(errors.TypeInput, "unknown output format %q", f)
}

type tableFormatter struct {
	opts Options
}

func (f *tableFormatter) Format() Format { return FormatTable }

func (f *tableFormatter) Render(w io.Writer, sheet *budget.Sheet) error {
	return WriteTable(w, sheet, f.opts)
}

type jsonFormatter struct{}

func (jsonFormatter) Format() Format { return FormatJSON }

func (jsonFormatter) Render(w io.Writer, sheet *budget.Sheet) error {
	return WriteJSON(w, sheet)
}

// WriteTable renders the per-component rows and the aggregate result.
func WriteTable(w io.Writer, sheet *budget.Sheet, opts Options) error {
	if sheet == nil {
		return errors.Internal("render budget", fmt.Errorf("nil sheet"))
	}
	n := opts.figures()
	sf := func(v float64) string { return SignificantFigures(v, n) }

	out := ui.NewWriter(w, opts.NoColor)
	title := opts.Title
	if title == "" {
		title = "Uncertainty budget"
	}
	out.Header(title)
	label := opts.RangeLabel
	if label == "" {
		label = sheet.Range.Label()
	}
	out.Field("Range", label)
	out.Println("")

	t := out.NewTable("#", "Component", "Unit", "Distribution", "U", "Divisor", "ni",
		"ui", "ci", "ui·ci", "(ui·ci)²", "(ui·ci)⁴/ni")
	t.AlignRight(0, 4, 5, 6, 7, 8, 9, 10, 11)
	for i, c := range sheet.Contributions {
		t.AddRow(
			strconv.Itoa(i+1),
			c.Name,
			c.Unit,
			c.Distribution.String(),
			sf(c.Uncertainty),
			strconv.FormatFloat(c.Divisor, 'f', -1, 64),
			strconv.Itoa(c.Ni),
			sf(c.Ui),
			strconv.FormatFloat(c.Ci, 'f', -1, 64),
			sf(c.UiCi),
			sf(c.UiCiSquared),
			sf(c.UiCi4OverNi),
		)
	}
	t.Render()
	out.Println("")

	r := sheet.Result
	unit := " " + r.Unit
	out.SubHeader("Result")
	out.Field("Σ (ui·ci)²", sf(r.SumUiCiSquared))
	out.Field("Σ (ui·ci)⁴/ni", sf(r.SumUiCi4OverNi))
	out.Field("Combined uncertainty uc", sf(r.Uc)+unit)
	out.Field("Effective dof veff", SignificantFigures(float64(r.Veff), n))
	out.Field("Coverage factor k", strconv.FormatFloat(r.K, 'f', -1, 64))
	out.Field("Expanded uncertainty U", sf(r.U)+unit)
	out.Field("CMC", sf(r.CMC)+unit)
	out.Highlight("Final uncertainty", sf(r.FinalUncertainty)+unit)

	if r.CMCDominates() {
		out.Println("")
		out.Warning("CMC floor applies: U = %s%s is below the CMC", sf(r.U), unit)
	}
	return nil
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Internal("encode json", err)
	}
	return nil
}
