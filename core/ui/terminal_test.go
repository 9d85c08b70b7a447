package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestTableAlignment(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	tbl := w.NewTable("Name", "Value").AlignRight(1)
	tbl.AddRow("a", "1")
	tbl.AddRow("longer", "12345")
	tbl.AddRow("extra cells", "2", "dropped")
	tbl.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := []string{
		"Name        │ Value",
		"────────────┼──────",
		"a           │     1",
		"longer      │ 12345",
		"extra cells │     2",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestVerbosity(t *testing.T) {
	tests := []struct {
		level     int
		wantInfo  bool
		wantDebug bool
	}{
		{0, false, false},
		{1, true, false},
		{2, true, true},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		w := NewWriter(&buf, true)
		w.SetVerbosity(tt.level)
		w.Info("info line")
		w.Debug("debug line")

		if got := strings.Contains(buf.String(), "info line"); got != tt.wantInfo {
			t.Errorf("level %d: info printed = %v", tt.level, got)
		}
		if got := strings.Contains(buf.String(), "debug line"); got != tt.wantDebug {
			t.Errorf("level %d: debug printed = %v", tt.level, got)
		}
	}
}

func TestNoColorLeavesTextPlain(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)
	w.Success("saved %s", "x")
	w.Highlight("Final", "1.0 mV")

	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("escape codes with colour disabled: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "✓ saved x") {
		t.Errorf("output = %q", buf.String())
	}
}
