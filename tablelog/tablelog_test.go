package tablelog

import (
	"slices"
	"testing"
	"time"
)

func testLogger() *Logger {
	return &Logger{table: "public.run_log", cols: slices.Clone(DefaultColumns)}
}

func TestBuildRow_FillsMissingColumns(t *testing.T) {
	l := testLogger()
	f, err := l.buildRow(map[string]any{"message": "import finished"})
	if err != nil {
		t.Fatalf("buildRow: %v", err)
	}
	if f.Len() != 1 {
		t.Fatalf("got %d rows, want 1", f.Len())
	}

	msg, err := f.Value(0, "message")
	if err != nil || msg != "import finished" {
		t.Errorf("message = %v, %v", msg, err)
	}
	// Absent string columns come out empty, not NULL.
	for _, name := range []string{"value", "other_info"} {
		v, err := f.Value(0, name)
		if err != nil {
			t.Fatalf("Value(%s): %v", name, err)
		}
		if v != "" {
			t.Errorf("%s = %v, want empty string", name, v)
		}
	}
	// The date is stamped when not provided.
	d, err := f.Value(0, "date")
	if err != nil {
		t.Fatalf("Value(date): %v", err)
	}
	stamp, ok := d.(time.Time)
	if !ok || stamp.IsZero() {
		t.Errorf("date = %v, want a current timestamp", d)
	}
}

func TestBuildRow_KeepsProvidedValues(t *testing.T) {
	l := testLogger()
	when := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	f, err := l.buildRow(map[string]any{
		"date":       when,
		"value":      "42",
		"message":    "count",
		"other_info": "nightly",
		"unknown":    "dropped",
	})
	if err != nil {
		t.Fatalf("buildRow: %v", err)
	}
	d, _ := f.Value(0, "date")
	if !d.(time.Time).Equal(when) {
		t.Errorf("date = %v, want %v", d, when)
	}
	v, _ := f.Value(0, "value")
	if v != "42" {
		t.Errorf("value = %v", v)
	}
	other, _ := f.Value(0, "other_info")
	if other != "nightly" {
		t.Errorf("other_info = %v", other)
	}
	if f.Width() != len(DefaultColumns) {
		t.Errorf("unknown keys must not add columns: width = %d", f.Width())
	}
}
