package budgetfile

import (
	"fmt"
	"math"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"uncertainty-budget/core/budget"
	"uncertainty-budget/internal/errors"
)

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "range"},
		{Type: "component", LabelNames: []string{"name"}},
	},
}

var rangeSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "min"},
		{Name: "max"},
		{Name: "unit", Required: true},
		{Name: "cmc", Required: true},
	},
}

var componentSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "unit"},
		{Name: "uncertainty", Required: true},
		{Name: "distribution", Required: true},
		{Name: "ni"},
	},
}

func parseHCL(src []byte, filename string) (*File, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diagError(diags, filename)
	}

	content, diags := file.Body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, diagError(diags, filename)
	}

	var (
		rng      *budget.ReferenceRange
		specs    []componentSpec
		allDiags hcl.Diagnostics
	)
	for _, block := range content.Blocks {
		switch block.Type {
		case "range":
			if rng != nil {
				allDiags = append(allDiags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate range block",
					Detail:   "A budget file has exactly one range block.",
					Subject:  block.DefRange.Ptr(),
				})
				continue
			}
			r, d := decodeRange(block)
			allDiags = append(allDiags, d...)
			rng = &r
		case "component":
			s, d := decodeComponent(block)
			allDiags = append(allDiags, d...)
			specs = append(specs, s)
		}
	}
	if allDiags.HasErrors() {
		return nil, diagError(allDiags, filename)
	}
	if rng == nil {
		return nil, errors.Newf(errors.TypeParsing, "%s: missing range block", filename).
			WithContext("file", filename)
	}

	cs, err := buildComponents(specs, filename, rng.Unit)
	if err != nil {
		return nil, err
	}
	return &File{Range: *rng, Components: cs}, nil
}

func decodeRange(block *hcl.Block) (budget.ReferenceRange, hcl.Diagnostics) {
	var r budget.ReferenceRange
	content, diags := block.Body.Content(rangeSchema)
	if diags.HasErrors() {
		return r, diags
	}

	var d hcl.Diagnostics
	r.MinRange, d = stringAttr(content.Attributes, "min")
	diags = append(diags, d...)
	r.MaxRange, d = stringAttr(content.Attributes, "max")
	diags = append(diags, d...)
	r.Unit, d = stringAttr(content.Attributes, "unit")
	diags = append(diags, d...)

	cmc, d := numberAttr(content.Attributes, "cmc")
	diags = append(diags, d...)
	if cmc != nil {
		r.CMC = *cmc
	}
	return r, diags
}

func decodeComponent(block *hcl.Block) (componentSpec, hcl.Diagnostics) {
	s := componentSpec{
		Name: block.Labels[0],
		Line: block.DefRange.Start.Line,
	}
	content, diags := block.Body.Content(componentSchema)
	if diags.HasErrors() {
		return s, diags
	}

	var d hcl.Diagnostics
	s.Unit, d = stringAttr(content.Attributes, "unit")
	diags = append(diags, d...)
	s.Distribution, d = stringAttr(content.Attributes, "distribution")
	diags = append(diags, d...)
	s.Uncertainty, d = numberAttr(content.Attributes, "uncertainty")
	diags = append(diags, d...)
	s.Ni, d = intAttr(content.Attributes, "ni")
	diags = append(diags, d...)
	return s, diags
}

// attrValue evaluates an attribute as a literal of type want. Budget
// files have no variables, so references and functions are rejected.
func attrValue(attrs hcl.Attributes, name string, want cty.Type) (cty.Value, *hcl.Attribute, hcl.Diagnostics) {
	attr, ok := attrs[name]
	if !ok {
		return cty.NullVal(want), nil, nil
	}
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return cty.NullVal(want), attr, diags
	}
	if !val.IsKnown() || val.IsNull() {
		return cty.NullVal(want), attr, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Missing value",
			Detail:   fmt.Sprintf("The %q attribute has no value.", name),
			Subject:  attr.Expr.Range().Ptr(),
		}}
	}
	converted, err := convert.Convert(val, want)
	if err != nil {
		return cty.NullVal(want), attr, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Incorrect attribute value type",
			Detail:   fmt.Sprintf("Inappropriate value for %q: %s.", name, err),
			Subject:  attr.Expr.Range().Ptr(),
		}}
	}
	return converted, attr, nil
}

func stringAttr(attrs hcl.Attributes, name string) (string, hcl.Diagnostics) {
	val, _, diags := attrValue(attrs, name, cty.String)
	if diags.HasErrors() || val.IsNull() {
		return "", diags
	}
	return val.AsString(), nil
}

func numberAttr(attrs hcl.Attributes, name string) (*float64, hcl.Diagnostics) {
	val, _, diags := attrValue(attrs, name, cty.Number)
	if diags.HasErrors() || val.IsNull() {
		return nil, diags
	}
	f, _ := val.AsBigFloat().Float64()
	return &f, nil
}

func intAttr(attrs hcl.Attributes, name string) (*int, hcl.Diagnostics) {
	val, attr, diags := attrValue(attrs, name, cty.Number)
	if diags.HasErrors() || val.IsNull() {
		return nil, diags
	}
	invalid := func(detail string) hcl.Diagnostics {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid integer",
			Detail:   fmt.Sprintf("The %q attribute %s.", name, detail),
			Subject:  attr.Expr.Range().Ptr(),
		}}
	}

	bf := val.AsBigFloat()
	if !bf.IsInt() {
		return nil, invalid("must be a whole number")
	}
	n, acc := bf.Int64()
	if acc != big.Exact || n > math.MaxInt || n < math.MinInt {
		return nil, invalid("is out of range")
	}
	i := int(n)
	return &i, nil
}

// diagError reports the first error diagnostic with its position.
func diagError(diags hcl.Diagnostics, filename string) error {
	for _, diag := range diags {
		if diag.Severity != hcl.DiagError {
			continue
		}
		line := 0
		if diag.Subject != nil {
			line = diag.Subject.Start.Line
		}
		msg := diag.Summary
		if diag.Detail != "" {
			msg += ": " + diag.Detail
		}
		return errors.Newf(errors.TypeParsing, "%s:%d: %s", filename, line, msg).
			WithContext("file", filename).
			WithContext("line", line)
	}
	return errors.Parsing(filename, diags)
}
