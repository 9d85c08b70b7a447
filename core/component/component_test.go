package component

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"

	"uncertainty-budget/internal/errors"
)

func TestDivisorMapping(t *testing.T) {
	tests := []struct {
		d    Distribution
		want float64
	}{
		{Normal, 2},
		{Rectangular, 1.732},
		{TypeA, 1},
		{Distribution(0), 0},
	}
	for _, tt := range tests {
		t.Run(tt.d.String(), func(t *testing.T) {
			if got := tt.d.Divisor(); got != tt.want {
				t.Errorf("Divisor() = %v, want %v", got, tt.want)
			}
		})
	}

	if DivisorRectangular == math.Sqrt(3) {
		t.Error("rectangular divisor must stay the truncated literal 1.732")
	}
}

func TestParseDistribution(t *testing.T) {
	tests := []struct {
		in      string
		want    Distribution
		wantErr bool
	}{
		{"Normal", Normal, false},
		{"rectangular", Rectangular, false},
		{"TypeA", TypeA, false},
		{"Type A", TypeA, false},
		{"  type a ", TypeA, false},
		{"Foo", 0, true},
		{"", 0, true},
		{"Triangular", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDistribution(tt.in)
			if tt.wantErr {
				if !errors.IsType(err, errors.TypeInvalidDistribution) {
					t.Fatalf("ParseDistribution(%q) err = %v, want INVALID_DISTRIBUTION", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDistribution(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseDistribution(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetDistributionKeepsDivisorInStep(t *testing.T) {
	c := New("Drift", "mV", 0.0001, Normal)

	if err := SetDistribution(&c, "Rectangular"); err != nil {
		t.Fatalf("SetDistribution: %v", err)
	}
	if c.Distribution != Rectangular || c.Divisor() != 1.732 {
		t.Errorf("after Rectangular: distribution=%v divisor=%v", c.Distribution, c.Divisor())
	}

	if err := SetDistribution(&c, "Type A"); err != nil {
		t.Fatalf("SetDistribution: %v", err)
	}
	if c.Divisor() != 1 {
		t.Errorf("after Type A: divisor=%v, want 1", c.Divisor())
	}
}

func TestSetDistributionRejectsUnknownAndLeavesComponent(t *testing.T) {
	c := New("Drift", "mV", 0.0001, Normal)

	err := SetDistribution(&c, "Foo")
	if !errors.IsType(err, errors.TypeInvalidDistribution) {
		t.Fatalf("SetDistribution(Foo) = %v, want INVALID_DISTRIBUTION", err)
	}
	if c.Distribution != Normal || c.Divisor() != 2 {
		t.Errorf("component changed on failure: %+v", c)
	}
}

func TestValidate(t *testing.T) {
	valid := New("Repeatability", "mV", 0.002, TypeA)

	tests := []struct {
		name     string
		mutate   func(*Component)
		wantType errors.Type
	}{
		{"valid", func(*Component) {}, ""},
		{"zero uncertainty", func(c *Component) { c.Uncertainty = 0 }, ""},
		{"negative uncertainty", func(c *Component) { c.Uncertainty = -1 }, errors.TypeInvalidComponent},
		{"nan uncertainty", func(c *Component) { c.Uncertainty = math.NaN() }, errors.TypeInvalidComponent},
		{"infinite uncertainty", func(c *Component) { c.Uncertainty = math.Inf(1) }, errors.TypeInvalidComponent},
		{"ni zero", func(c *Component) { c.Ni = 0 }, errors.TypeInvalidComponent},
		{"ni negative", func(c *Component) { c.Ni = -3 }, errors.TypeInvalidComponent},
		{"empty name", func(c *Component) { c.Name = "" }, errors.TypeInvalidComponent},
		{"blank name", func(c *Component) { c.Name = "   " }, errors.TypeInvalidComponent},
		{"unset distribution", func(c *Component) { c.Distribution = 0 }, errors.TypeInvalidDistribution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			before := c

			err := Validate(c)
			if tt.wantType == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
			} else if !errors.IsType(err, tt.wantType) {
				t.Fatalf("Validate() = %v, want %s", err, tt.wantType)
			}

			if !math.IsNaN(c.Uncertainty) && c != before {
				t.Errorf("Validate mutated its argument")
			}
		})
	}
}

func TestValidateAllCollectsEveryProblem(t *testing.T) {
	cs := []Component{
		New("ok", "mV", 1, Normal),
		New("", "mV", 1, Normal),
		New("negative", "mV", -1, Normal),
		{Name: "no ni", Unit: "mV", Uncertainty: 1, Distribution: TypeA},
	}

	err := ValidateAll(cs)
	if got := len(multierr.Errors(err)); got != 3 {
		t.Fatalf("ValidateAll returned %d errors, want 3: %v", got, err)
	}
	if !errors.IsType(multierr.Errors(err)[0], errors.TypeInvalidComponent) {
		t.Errorf("first error kind = %s", errors.TypeOf(multierr.Errors(err)[0]))
	}

	if err := ValidateAll(nil); !errors.IsType(err, errors.TypeEmptyComponentSet) {
		t.Errorf("ValidateAll(nil) = %v, want EMPTY_COMPONENT_SET", err)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	in := []Component{
		{ID: "comp-0", Name: "Certificate", Unit: "mV", Uncertainty: 0.0001, Distribution: Normal, Ni: 1},
		{ID: "comp-3", Name: "Repeatability", Unit: "mV", Uncertainty: 0.002, Distribution: TypeA, Ni: 9},
	}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out []Component
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalStoredRecordIgnoresDivisor(t *testing.T) {
	// A record as the original calculator saved it, with a stale divisor.
	stored := `{"id":"comp-1","name":"Drift","unit":"mV","uncertainty":0.0001,"distribution":"Type A","divisor":1.732}`

	var c Component
	if err := json.Unmarshal([]byte(stored), &c); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if c.Distribution != TypeA || c.Divisor() != 1 {
		t.Errorf("distribution=%v divisor=%v, want Type A / 1", c.Distribution, c.Divisor())
	}
	if c.Ni != 1 {
		t.Errorf("Ni = %d, want default 1", c.Ni)
	}
}

func TestUnmarshalRejectsUnknownDistribution(t *testing.T) {
	var c Component
	err := json.Unmarshal([]byte(`{"name":"x","uncertainty":1,"distribution":"Foo"}`), &c)
	if !errors.IsType(err, errors.TypeInvalidDistribution) {
		t.Fatalf("Unmarshal = %v, want INVALID_DISTRIBUTION", err)
	}
}

func TestDefaults(t *testing.T) {
	t.Run("fallback constants", func(t *testing.T) {
		cs := Defaults(Seed{})
		want := []Component{
			{ID: "comp-0", Name: "Reference standard calibration certificate", Unit: "mV", Uncertainty: 0.0001, Distribution: Normal, Ni: 1},
			{ID: "comp-1", Name: "Drift", Unit: "mV", Uncertainty: 0.0001, Distribution: Rectangular, Ni: 1},
			{ID: "comp-2", Name: "Resolution / readability", Unit: "mV", Uncertainty: 0.001, Distribution: Rectangular, Ni: 1},
			{ID: "comp-3", Name: "Repeatability", Unit: "mV", Uncertainty: 0.002, Distribution: TypeA, Ni: 1},
		}
		if diff := cmp.Diff(want, cs); diff != "" {
			t.Errorf("Defaults mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("seeded from range", func(t *testing.T) {
		cs := Defaults(Seed{Unit: "V", Drift: 0.005, CalibrationUncertainty: 0.003})
		if cs[0].Uncertainty != 0.003 || cs[1].Uncertainty != 0.005 {
			t.Errorf("seeded values not used: %+v", cs[:2])
		}
		for _, c := range cs {
			if c.Unit != "V" {
				t.Errorf("unit = %q, want V", c.Unit)
			}
			if err := Validate(c); err != nil {
				t.Errorf("default %q invalid: %v", c.Name, err)
			}
		}
	})
}

func TestBlank(t *testing.T) {
	c := Blank("")
	if c.Distribution != Rectangular || c.Uncertainty != 0 || c.Ni != 1 || c.Unit != "mV" {
		t.Errorf("Blank() = %+v", c)
	}
}
