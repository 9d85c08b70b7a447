package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"uncertainty-budget/core/budget"
	"uncertainty-budget/core/component"
	"uncertainty-budget/core/history"
	"uncertainty-budget/core/instrument"
	"uncertainty-budget/internal/config"
	"uncertainty-budget/internal/errors"
)

func sampleInstrument() *instrument.Instrument {
	return &instrument.Instrument{
		Name:         "Multifunction Calibrator",
		Brand:        "Fluke",
		Type:         "5522A",
		SerialNumber: "SN-001",
		Quantities: []instrument.MeasurementQuantity{{
			MeasuredQuantity: "DC Voltage",
			InstrumentType:   "Digital Multimeter",
			Ranges: []instrument.Range{
				{MinRange: "0", MaxRange: "100", Unit: "mV", CMC: 0.085, Drift: 0.0001, CalibrationUncertainty: 0.0002},
			},
		}},
	}
}

func sampleRecord(t *testing.T) *history.Record {
	t.Helper()
	cs := component.Defaults(component.Seed{Unit: "mV"})
	cs[3].Ni = 9
	sheet, err := budget.Calculate(cs, budget.ReferenceRange{MinRange: "0", MaxRange: "100", Unit: "mV", CMC: 0.085})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	return history.NewRecord(history.Metadata{
		InstrumentName:   "Multifunction Calibrator",
		MeasuredQuantity: "DC Voltage",
		InstrumentType:   "Digital Multimeter",
		MeasurementRange: sheet.Range.Label(),
	}, sheet)
}

// runStoreContract exercises the behaviour every backend must share.
func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("instrument round trip", func(t *testing.T) {
		inst := sampleInstrument()
		if err := s.SaveInstrument(ctx, inst); err != nil {
			t.Fatalf("SaveInstrument: %v", err)
		}
		if inst.ID == "" || inst.Quantities[0].ID == "" || inst.Quantities[0].Ranges[0].ID == "" {
			t.Fatalf("ids not assigned: %+v", inst)
		}

		got, err := s.GetInstrument(ctx, inst.ID)
		if err != nil {
			t.Fatalf("GetInstrument: %v", err)
		}
		if diff := cmp.Diff(inst, got); diff != "" {
			t.Errorf("instrument mismatch (-saved +loaded):\n%s", diff)
		}
	})

	t.Run("instrument update keeps created time", func(t *testing.T) {
		inst := sampleInstrument()
		if err := s.SaveInstrument(ctx, inst); err != nil {
			t.Fatalf("SaveInstrument: %v", err)
		}
		created := inst.CreatedAt

		time.Sleep(2 * time.Millisecond)
		inst.Brand = "Transmille"
		if err := s.SaveInstrument(ctx, inst); err != nil {
			t.Fatalf("SaveInstrument: %v", err)
		}

		got, err := s.GetInstrument(ctx, inst.ID)
		if err != nil {
			t.Fatalf("GetInstrument: %v", err)
		}
		if got.Brand != "Transmille" {
			t.Errorf("Brand = %q", got.Brand)
		}
		if !got.CreatedAt.Equal(created) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
		}
		if !got.UpdatedAt.After(created) {
			t.Errorf("UpdatedAt %v not after %v", got.UpdatedAt, created)
		}

		list, err := s.ListInstruments(ctx)
		if err != nil {
			t.Fatalf("ListInstruments: %v", err)
		}
		if len(list) == 0 || list[0].ID != inst.ID {
			t.Errorf("most recently updated instrument not first")
		}
	})

	t.Run("invalid instrument rejected", func(t *testing.T) {
		inst := sampleInstrument()
		inst.Name = ""
		if err := s.SaveInstrument(ctx, inst); !errors.IsType(err, errors.TypeInput) {
			t.Fatalf("SaveInstrument = %v, want INPUT_ERROR", err)
		}
	})

	t.Run("calculation round trip", func(t *testing.T) {
		rec := sampleRecord(t)
		if err := s.SaveCalculation(ctx, rec); err != nil {
			t.Fatalf("SaveCalculation: %v", err)
		}
		if rec.ID == "" || rec.CreatedAt.IsZero() {
			t.Fatalf("id/created not assigned: %+v", rec)
		}

		got, err := s.GetCalculation(ctx, rec.ID)
		if err != nil {
			t.Fatalf("GetCalculation: %v", err)
		}
		if diff := cmp.Diff(rec, got); diff != "" {
			t.Errorf("record mismatch (-saved +loaded):\n%s", diff)
		}
	})

	t.Run("calculations newest first", func(t *testing.T) {
		first := sampleRecord(t)
		if err := s.SaveCalculation(ctx, first); err != nil {
			t.Fatalf("SaveCalculation: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
		second := sampleRecord(t)
		if err := s.SaveCalculation(ctx, second); err != nil {
			t.Fatalf("SaveCalculation: %v", err)
		}

		list, err := s.ListCalculations(ctx)
		if err != nil {
			t.Fatalf("ListCalculations: %v", err)
		}
		if len(list) < 2 || list[0].ID != second.ID || list[1].ID != first.ID {
			t.Errorf("unexpected order: %d records", len(list))
		}
	})

	t.Run("not found", func(t *testing.T) {
		if _, err := s.GetInstrument(ctx, "00000000-0000-0000-0000-000000000000"); !errors.IsType(err, errors.TypeNotFound) {
			t.Errorf("GetInstrument = %v, want NOT_FOUND", err)
		}
		if _, err := s.GetCalculation(ctx, "00000000-0000-0000-0000-000000000000"); !errors.IsType(err, errors.TypeNotFound) {
			t.Errorf("GetCalculation = %v, want NOT_FOUND", err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	rec := sampleRecord(t)
	if err := s.SaveCalculation(ctx, rec); err != nil {
		t.Fatalf("SaveCalculation: %v", err)
	}

	rec.Components[0].Uncertainty = 99
	got, err := s.GetCalculation(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetCalculation: %v", err)
	}
	if got.Components[0].Uncertainty == 99 {
		t.Error("store aliases the caller's record")
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	runStoreContract(t, s)
}

func TestFileStoreRejectsPathIDs(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := s.GetCalculation(context.Background(), "../etc/passwd"); !errors.IsType(err, errors.TypeInput) {
		t.Errorf("GetCalculation = %v, want INPUT_ERROR", err)
	}
}

func TestFileStoreKeepsUndefinedVeff(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	sheet, err := budget.Calculate([]component.Component{component.New("zero", "mV", 0, component.Normal)}, budget.ReferenceRange{Unit: "mV", CMC: 0.01})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	rec := history.NewRecord(history.Metadata{InstrumentName: "x"}, sheet)
	if err := s.SaveCalculation(ctx, rec); err != nil {
		t.Fatalf("SaveCalculation: %v", err)
	}
	got, err := s.GetCalculation(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetCalculation: %v", err)
	}
	if got.Result.Veff.Defined() || got.Result.FinalUncertainty != 0.01 {
		t.Errorf("result = %+v", got.Result)
	}
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("UBUDGET_TEST_DSN")
	if dsn == "" {
		t.Skip("UBUDGET_TEST_DSN not set")
	}
	s, err := NewPostgresStore(context.Background(), dsn)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	defer s.Close()
	runStoreContract(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.StorageConfig{Backend: config.BackendMemory})
	if err != nil {
		t.Fatalf("Open(memory): %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("Open(memory) = %T", s)
	}

	s, err = Open(ctx, config.StorageConfig{Backend: config.BackendFile, Directory: t.TempDir()})
	if err != nil {
		t.Fatalf("Open(file): %v", err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("Open(file) = %T", s)
	}

	if _, err := Open(ctx, config.StorageConfig{Backend: "s3"}); !errors.IsType(err, errors.TypeConfig) {
		t.Errorf("Open(s3) = %v, want CONFIG_ERROR", err)
	}
}
