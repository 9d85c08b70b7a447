package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"uncertainty-budget/adapters/budgetfile"
)

const budgetYAML = `
range:
  min: "0"
  max: "100"
  unit: mV
  cmc: 0.001
components:
  - name: Reference standard
    uncertainty: 0.0001
    distribution: Normal
  - name: Drift
    uncertainty: 0.0001
    distribution: Rectangular
  - name: Resolution
    uncertainty: 0.001
    distribution: Rectangular
  - name: Repeatability
    uncertainty: 0.002
    distribution: Type A
`

const badBudgetYAML = `
range:
  unit: mV
  cmc: 0.001
components:
  - name: ""
    uncertainty: 0.0001
    distribution: Normal
  - name: Drift
    uncertainty: -1
    distribution: Rectangular
`

const catalogueYAML = `
instruments:
  - name: Multifunction Calibrator
    measurementQuantities:
      - measuredQuantity: DC Voltage
        instrumentType: Digital Multimeter
        ranges:
          - {minRange: "0", maxRange: "100", unit: mV, cmc: 0.085}
`

// testEnv writes a config using a file store under a temp directory.
func testEnv(t *testing.T) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	cfgPath = filepath.Join(dir, "ubudget.json")
	cfg := fmt.Sprintf(`{"storage": {"backend": "file", "directory": %q}, "output": {"format": "table", "significant_figures": 4, "no_color": true}}`,
		filepath.Join(dir, "data"))
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, cfgPath
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	outputFormat, sigFigures, parallel = "", 0, 2
	defaultsOutput = ""

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestComputeJSON(t *testing.T) {
	dir, cfg := testEnv(t)
	path := writeFile(t, dir, "budget.yaml", budgetYAML)

	out, err := run(t, cfg, "compute", "--format", "json", path)
	if err != nil {
		t.Fatalf("compute: %v\n%s", err, out)
	}
	var sheet struct {
		Results struct {
			Uc               float64 `json:"uc"`
			U                float64 `json:"U"`
			FinalUncertainty float64 `json:"finalUncertainty"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(out), &sheet); err != nil {
		t.Fatalf("output is not a sheet: %v\n%s", err, out)
	}
	if sheet.Results.FinalUncertainty != sheet.Results.U || sheet.Results.Uc == 0 {
		t.Errorf("results = %+v", sheet.Results)
	}
}

func TestComputeTableReportsEveryFile(t *testing.T) {
	dir, cfg := testEnv(t)
	good := writeFile(t, dir, "good.yaml", budgetYAML)
	bad := writeFile(t, dir, "bad.yaml", badBudgetYAML)

	out, err := run(t, cfg, "compute", "--sig", "3", good, bad)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 file(s) failed") {
		t.Fatalf("compute = %v", err)
	}
	for _, want := range []string{good, "0.00417 mV", bad + ": [INVALID_COMPONENT]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "[INVALID_COMPONENT]"); n != 1 {
		t.Errorf("failure reported %d times:\n%s", n, out)
	}
}

func TestCheckListsAllProblems(t *testing.T) {
	dir, cfg := testEnv(t)
	bad := writeFile(t, dir, "bad.yaml", badBudgetYAML)

	out, err := run(t, cfg, "check", bad)
	if err == nil || !strings.Contains(err.Error(), "2 problem(s)") {
		t.Fatalf("check = %v\n%s", err, out)
	}
	if !strings.Contains(out, "component 1") || !strings.Contains(out, "component 2") {
		t.Errorf("not every problem listed:\n%s", out)
	}

	good := writeFile(t, dir, "good.yaml", budgetYAML)
	if out, err := run(t, cfg, "check", good); err != nil {
		t.Errorf("check(good) = %v\n%s", err, out)
	}
}

func TestDefaultsPrintsLoadableFile(t *testing.T) {
	_, cfg := testEnv(t)

	out, err := run(t, cfg, "defaults", "--unit", "V", "--cmc", "0.00002", "--drift", "0.000005")
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	f, err := budgetfile.Parse([]byte(out), "defaults.yaml")
	if err != nil {
		t.Fatalf("Parse: %v\n%s", err, out)
	}
	if len(f.Components) != 4 || f.Components[1].Uncertainty != 0.000005 || f.Range.Unit != "V" {
		t.Errorf("file = %+v", f)
	}
}

func TestInstrumentsAndHistory(t *testing.T) {
	dir, cfg := testEnv(t)
	catalogue := writeFile(t, dir, "catalogue.yaml", catalogueYAML)

	out, err := run(t, cfg, "instruments", "import", catalogue)
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}

	out, err = run(t, cfg, "instruments", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Multifunction Calibrator") || !strings.Contains(out, "0 ~ 100 mV") {
		t.Errorf("list output:\n%s", out)
	}

	out, err = run(t, cfg, "instruments", "export")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "measuredQuantity: DC Voltage") {
		t.Errorf("export output:\n%s", out)
	}

	out, err = run(t, cfg, "history", "list")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	if !strings.Contains(out, "no calculations") {
		t.Errorf("history output:\n%s", out)
	}

	if _, err := run(t, cfg, "history", "show", "missing"); err == nil {
		t.Error("history show of a missing id succeeded")
	}
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "new.json")

	if out, err := run(t, path, "config", "init"); err != nil {
		t.Fatalf("config init: %v\n%s", err, out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if _, err := run(t, path, "config", "init"); err == nil {
		t.Error("config init overwrote an existing file")
	}

	out, err := run(t, path, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, `"backend": "file"`) {
		t.Errorf("config show:\n%s", out)
	}
}
