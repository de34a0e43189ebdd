package frame

import (
	"testing"
	"time"
)

func makeTestFrame(t *testing.T) *Frame {
	t.Helper()
	f, err := New(
		Column{Name: "ID", Type: Int64},
		Column{Name: "Name", Type: String},
		Column{Name: "Score", Type: Float64},
	)
	if err != nil {
		t.Fatalf("failed to build frame: %v", err)
	}
	return f
}

func TestNew_LowercasesColumnNames(t *testing.T) {
	f := makeTestFrame(t)
	want := []string{"id", "name", "score"}
	got := f.Names()
	if len(got) != len(want) {
		t.Fatalf("got %d columns, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNew_RejectsDuplicates(t *testing.T) {
	_, err := New(
		Column{Name: "id", Type: Int64},
		Column{Name: "ID", Type: String},
	)
	if err == nil {
		t.Fatal("expected error for duplicate column names")
	}
}

func TestNew_RejectsNonEligibleDtype(t *testing.T) {
	_, err := New(Column{Name: "x", Type: DType("complex128")})
	if err == nil {
		t.Fatal("expected error for non-eligible dtype")
	}
}

func TestNew_RejectsEmpty(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatal("expected error for frame without columns")
	}
}

func TestAppendRow_CoercesValues(t *testing.T) {
	f := makeTestFrame(t)
	if err := f.AppendRow("42", 7, "1.5"); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	row := f.Row(0)
	if row[0] != int64(42) {
		t.Errorf("id = %v (%T), want int64 42", row[0], row[0])
	}
	if row[1] != "7" {
		t.Errorf("name = %v, want \"7\"", row[1])
	}
	if row[2] != 1.5 {
		t.Errorf("score = %v, want 1.5", row[2])
	}
}

func TestAppendRow_KeepsNull(t *testing.T) {
	f := makeTestFrame(t)
	if err := f.AppendRow(1, nil, nil); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if f.Row(0)[1] != nil || f.Row(0)[2] != nil {
		t.Errorf("nil cells not preserved: %v", f.Row(0))
	}
}

func TestAppendRow_WrongArity(t *testing.T) {
	f := makeTestFrame(t)
	if err := f.AppendRow(1, "a"); err == nil {
		t.Fatal("expected error for short row")
	}
}

func TestAppendRow_BadValue(t *testing.T) {
	f := makeTestFrame(t)
	if err := f.AppendRow("not-a-number", "a", 1.0); err == nil {
		t.Fatal("expected coercion error")
	}
	if f.Len() != 0 {
		t.Errorf("failed append must not add a row, got %d rows", f.Len())
	}
}

func TestShape(t *testing.T) {
	f := makeTestFrame(t)
	for i := 0; i < 3; i++ {
		if err := f.AppendRow(i, "n", float64(i)); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}
	rows, cols := f.Shape()
	if rows != 3 || cols != 3 {
		t.Errorf("shape = (%d, %d), want (3, 3)", rows, cols)
	}
}

func TestSelectColumns_DropsUnknownAndDedups(t *testing.T) {
	f := makeTestFrame(t)
	if err := f.AppendRow(1, "a", 0.5); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	sel := f.SelectColumns("score", "missing", "id", "SCORE")
	if got := sel.Names(); len(got) != 2 || got[0] != "score" || got[1] != "id" {
		t.Fatalf("selected columns = %v, want [score id]", got)
	}
	if sel.Len() != 1 {
		t.Fatalf("row count = %d, want 1", sel.Len())
	}
	if sel.Row(0)[0] != 0.5 || sel.Row(0)[1] != int64(1) {
		t.Errorf("row = %v, want [0.5 1]", sel.Row(0))
	}
}

func TestRenameColumn(t *testing.T) {
	f := makeTestFrame(t)
	if err := f.RenameColumn("name", "Label"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if _, err := f.Col("label"); err != nil {
		t.Errorf("renamed column not found: %v", err)
	}
	if err := f.RenameColumn("label", "id"); err == nil {
		t.Error("expected error renaming onto existing column")
	}
	if err := f.RenameColumn("ghost", "x"); err == nil {
		t.Error("expected error renaming missing column")
	}
}

func TestEqual(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	build := func() *Frame {
		f, err := New(
			Column{Name: "id", Type: Int64},
			Column{Name: "at", Type: Timestamp},
		)
		if err != nil {
			t.Fatalf("failed to build frame: %v", err)
		}
		if err := f.AppendRow(1, ts); err != nil {
			t.Fatalf("append failed: %v", err)
		}
		return f
	}
	a, b := build(), build()
	if !a.Equal(b) {
		t.Error("identical frames compare unequal")
	}
	if err := b.AppendRow(2, ts); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if a.Equal(b) {
		t.Error("frames with different row counts compare equal")
	}
}

func TestColAndValue(t *testing.T) {
	f := makeTestFrame(t)
	if err := f.AppendRow(1, "a", 0.1); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := f.AppendRow(2, "b", 0.2); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	col, err := f.Col("id")
	if err != nil {
		t.Fatalf("col failed: %v", err)
	}
	if len(col) != 2 || col[0] != int64(1) || col[1] != int64(2) {
		t.Errorf("col = %v, want [1 2]", col)
	}
	v, err := f.Value(1, "name")
	if err != nil {
		t.Fatalf("value failed: %v", err)
	}
	if v != "b" {
		t.Errorf("value = %v, want b", v)
	}
	if _, err := f.Value(5, "name"); err == nil {
		t.Error("expected error for out-of-range row")
	}
}
