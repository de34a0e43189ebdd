package constraints

import (
	"strings"
	"testing"

	"github.com/dataplumb/pgframe/frame"
)

func makeFrame(t *testing.T, rows ...[]any) *frame.Frame {
	t.Helper()
	f := frame.MustNew(
		frame.Column{Name: "id", Type: frame.Int64},
		frame.Column{Name: "score", Type: frame.Float64},
		frame.Column{Name: "label", Type: frame.String},
	)
	for _, r := range rows {
		if err := f.AppendRow(r...); err != nil {
			t.Fatalf("AppendRow: %v", err)
		}
	}
	return f
}

func TestNotNull(t *testing.T) {
	f := makeFrame(t,
		[]any{int64(1), 0.5, "a"},
		[]any{int64(2), nil, "b"},
	)
	if err := NotNull("id", "label")(f); err != nil {
		t.Errorf("unexpected failure: %v", err)
	}
	err := NotNull("score")(f)
	if err == nil {
		t.Fatal("expected null violation")
	}
	if !strings.Contains(err.Error(), "score") {
		t.Errorf("error should name the column: %v", err)
	}
	if err := NotNull("ghost")(f); err == nil {
		t.Error("unknown column must fail")
	}
}

func TestUnique(t *testing.T) {
	f := makeFrame(t,
		[]any{int64(1), 0.5, "a"},
		[]any{int64(2), 0.5, "b"},
	)
	if err := Unique("id", "label")(f); err != nil {
		t.Errorf("unexpected failure: %v", err)
	}
	if err := Unique("score")(f); err == nil {
		t.Error("expected uniqueness violation")
	}
}

func TestOfType(t *testing.T) {
	f := makeFrame(t)
	if err := OfType(frame.Int64, "id")(f); err != nil {
		t.Errorf("unexpected failure: %v", err)
	}
	if err := OfType(frame.String, "id")(f); err == nil {
		t.Error("expected type mismatch")
	}
	if err := OfType(frame.String, "ghost")(f); err == nil {
		t.Error("unknown column must fail")
	}
}

func TestQuantileBelow(t *testing.T) {
	f := makeFrame(t,
		[]any{int64(1), 1.0, "a"},
		[]any{int64(2), 2.0, "b"},
		[]any{int64(3), 3.0, "c"},
		[]any{int64(4), nil, "d"},
	)
	// Median of 1,2,3 is 2.
	if err := QuantileBelow(0.5, 2.5, "score")(f); err != nil {
		t.Errorf("unexpected failure: %v", err)
	}
	if err := QuantileBelow(0.5, 2.0, "score")(f); err == nil {
		t.Error("quantile at the threshold must fail")
	}
	if err := QuantileBelow(1.0, 10.0, "score")(f); err != nil {
		t.Errorf("max quantile: %v", err)
	}
	if err := QuantileBelow(0.5, 100.0, "label")(f); err == nil {
		t.Error("non-numeric column must fail")
	}
}

func TestUniqueCountBetween(t *testing.T) {
	f := makeFrame(t,
		[]any{int64(1), 1.0, "a"},
		[]any{int64(2), 1.0, "a"},
		[]any{int64(3), 2.0, "b"},
	)
	// label has 2 distinct values.
	if err := UniqueCountBetween(1, 3, "label")(f); err != nil {
		t.Errorf("unexpected failure: %v", err)
	}
	// Upper bound is exclusive.
	if err := UniqueCountBetween(1, 2, "label")(f); err == nil {
		t.Error("count at the upper bound must fail")
	}
	if err := UniqueCountBetween(3, 10, "label")(f); err == nil {
		t.Error("count below the lower bound must fail")
	}
}

func TestSuite_CollectsEveryFailure(t *testing.T) {
	f := makeFrame(t,
		[]any{int64(1), 0.5, "a"},
		[]any{int64(1), nil, "b"},
	)
	suite := NewSuite().
		Add("ids unique", Unique("id")).
		Add("scores present", NotNull("score")).
		Add("labels present", NotNull("label"))

	err := suite.Run(f)
	if err == nil {
		t.Fatal("expected failures")
	}
	msg := err.Error()
	if !strings.Contains(msg, "ids unique") || !strings.Contains(msg, "scores present") {
		t.Errorf("joined error should name every failing check: %q", msg)
	}
	if strings.Contains(msg, "labels present") {
		t.Errorf("passing check must not appear: %q", msg)
	}
}

func TestSuite_ReplaceByName(t *testing.T) {
	f := makeFrame(t, []any{int64(1), 0.5, "a"})
	suite := NewSuite().
		Add("check", NotNull("ghost")).
		Add("check", NotNull("id"))
	if err := suite.Run(f); err != nil {
		t.Errorf("replaced check should pass: %v", err)
	}
}
