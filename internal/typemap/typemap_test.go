package typemap

import (
	"testing"

	"github.com/dataplumb/pgframe/frame"
)

func TestRoundTrip(t *testing.T) {
	for _, dt := range frame.DTypes() {
		udt, ok := UDT(dt)
		if !ok {
			t.Errorf("no column type for dtype %s", dt)
			continue
		}
		if got := DType(udt); got != dt {
			t.Errorf("DType(UDT(%s)) = %s", dt, got)
		}
	}
}

func TestDType_WiderReadSet(t *testing.T) {
	tests := map[string]frame.DType{
		"varchar":     frame.String,
		"bpchar":      frame.String,
		"timestamptz": frame.Timestamp,
		"name":        frame.String,
	}
	for udt, want := range tests {
		if got := DType(udt); got != want {
			t.Errorf("DType(%s) = %s, want %s", udt, got, want)
		}
	}
}

func TestDType_UnknownFallsBackToString(t *testing.T) {
	if got := DType("geometry"); got != frame.String {
		t.Errorf("DType(geometry) = %s, want string", got)
	}
	if Known("geometry") {
		t.Error("geometry reported as known")
	}
	if !Known("int8") {
		t.Error("int8 reported as unknown")
	}
}
