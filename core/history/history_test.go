package history

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"uncertainty-budget/core/budget"
	"uncertainty-budget/core/component"
)

func sheet(t *testing.T) *budget.Sheet {
	t.Helper()
	s, err := budget.Calculate(
		component.Defaults(component.Seed{Unit: "mV"}),
		budget.ReferenceRange{MinRange: "0", MaxRange: "100", Unit: "mV", CMC: 0.085},
	)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	return s
}

func TestNewRecordCopiesComponents(t *testing.T) {
	s := sheet(t)
	rec := NewRecord(Metadata{InstrumentName: "Calibrator", MeasurementRange: s.Range.Label()}, s)

	s.Components[0].Uncertainty = 42
	if rec.Components[0].Uncertainty == 42 {
		t.Error("record aliases the sheet's components")
	}
	if rec.Result != s.Result {
		t.Errorf("result = %+v, want %+v", rec.Result, s.Result)
	}
}

func TestRecordJSONShape(t *testing.T) {
	rec := NewRecord(Metadata{
		InstrumentName:   "Calibrator",
		MeasuredQuantity: "DC Voltage",
		InstrumentType:   "DMM",
		MeasurementRange: "0 ~ 100 mV",
	}, sheet(t))

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"id", "instrumentName", "measuredQuantity", "instrumentType", "measurementRange", "components", "results", "createdAt"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
}

func TestSheetKeepsStoredResult(t *testing.T) {
	s := sheet(t)
	rec := NewRecord(Metadata{}, s)
	// A result archived by an older engine must be shown unchanged.
	rec.Result.FinalUncertainty = 0.5

	got, err := rec.Sheet()
	if err != nil {
		t.Fatalf("Sheet: %v", err)
	}
	if got.Result.FinalUncertainty != 0.5 {
		t.Errorf("result was recomputed: %+v", got.Result)
	}
	if diff := cmp.Diff(s.Contributions, got.Contributions); diff != "" {
		t.Errorf("contributions mismatch (-want +got):\n%s", diff)
	}
}
