package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dataplumb/pgframe/frame"
)

func openTestCache(t *testing.T, maxBytes int64) *Cache {
	t.Helper()
	c, err := Open(t.TempDir(), maxBytes, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return c
}

func TestKey_SanitizesShape(t *testing.T) {
	key := Key("main.orders", []string{"id", "total"}, "total > 10", 5)
	if key == "" {
		t.Fatal("empty key")
	}
	for _, r := range key {
		ok := r == '.' || r == '-' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			t.Fatalf("key contains unsafe rune %q: %s", r, key)
		}
	}
	// Same shape, same key; different shape, different key.
	if Key("main.orders", []string{"id", "total"}, "total > 10", 5) != key {
		t.Fatal("key not deterministic")
	}
	if Key("main.orders", []string{"id"}, "total > 10", 5) == key {
		t.Fatal("different column sets must not collide")
	}
	if Key("main.orders", []string{"id", "total"}, "total > 10", 6) == key {
		t.Fatal("different limits must not collide")
	}
}

func TestKey_PunctuationOnlyDifferences(t *testing.T) {
	// Sanitization flattens punctuation, so these shapes differ only in
	// runes the sanitizer rewrites. The keys must still be distinct.
	a := Key("main.orders", []string{"id"}, "total > 10", 0)
	b := Key("main.orders", []string{"id"}, "total < 10", 0)
	if a == b {
		t.Fatalf("opposite predicates share key %s", a)
	}
	if Key("main.orders", []string{"id"}, "name = 'a'", 0) ==
		Key("main.orders", []string{"id"}, "name = 'b'", 0) {
		t.Fatal("different literals must not collide")
	}
}

func TestReadHonorsPredicate(t *testing.T) {
	c := openTestCache(t, 0)

	store := func(where string, total int64) {
		f := frame.MustNew(frame.Column{Name: "total", Type: frame.Int64})
		if err := f.AppendRow(total); err != nil {
			t.Fatal(err)
		}
		if err := c.Write(Key("main.orders", []string{"total"}, where, 0), f); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	store("total > 10", 99)
	store("total < 10", 1)

	got, ok, err := c.Read(Key("main.orders", []string{"total"}, "total < 10", 0))
	if err != nil || !ok {
		t.Fatalf("Read: ok=%v err=%v", ok, err)
	}
	v, err := got.Value(0, "total")
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(1) {
		t.Fatalf("read returned the wrong entry: total = %v", v)
	}
}

func TestRoundTrip(t *testing.T) {
	c := openTestCache(t, 0)

	f := frame.MustNew(
		frame.Column{Name: "ok", Type: frame.Bool},
		frame.Column{Name: "n", Type: frame.Int64},
		frame.Column{Name: "ratio", Type: frame.Float64},
		frame.Column{Name: "amount", Type: frame.Numeric},
		frame.Column{Name: "label", Type: frame.String},
		frame.Column{Name: "blob", Type: frame.Bytes},
		frame.Column{Name: "at", Type: frame.Timestamp},
		frame.Column{Name: "day", Type: frame.Date},
		frame.Column{Name: "ref", Type: frame.UUID},
	)
	stamp := time.Date(2024, 5, 17, 10, 30, 0, 123456000, time.UTC)
	id := uuid.MustParse("8b9f0a52-3c1d-4e6f-9a0b-1c2d3e4f5a6b")
	if err := f.AppendRow(true, int64(42), 1.5, "19.99", "hello, world", []byte{0xde, 0xad}, stamp, stamp, id); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}
	if err := f.AppendRow(nil, nil, nil, nil, nil, nil, nil, nil, nil); err != nil {
		t.Fatalf("AppendRow nulls: %v", err)
	}
	if err := f.AppendRow(false, int64(-7), 0.0, decimal.NewFromInt(3), "", []byte{}, stamp, stamp, id); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}

	key := Key("main.t", nil, "", 0)
	if err := c.Write(key, f); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, ok, err := c.Read(key)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !got.Equal(f) {
		t.Fatalf("round-trip mismatch\n got: %+v\nwant: %+v", got, f)
	}
}

func TestRoundTrip_BackslashStrings(t *testing.T) {
	c := openTestCache(t, 0)

	f := frame.MustNew(frame.Column{Name: "label", Type: frame.String})
	for _, s := range []string{`\N`, `\\N`, `back\slash`, `\`, ""} {
		if err := f.AppendRow(s); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.AppendRow(nil); err != nil {
		t.Fatal(err)
	}

	key := Key("main.labels", nil, "", 0)
	if err := c.Write(key, f); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, ok, err := c.Read(key)
	if err != nil || !ok {
		t.Fatalf("Read: ok=%v err=%v", ok, err)
	}
	if !got.Equal(f) {
		t.Fatalf("backslash strings did not survive the round-trip\n got: %+v\nwant: %+v", got, f)
	}
	// The literal string and NULL stay distinct.
	v, err := got.Value(0, "label")
	if err != nil {
		t.Fatal(err)
	}
	if v != `\N` {
		t.Fatalf("literal sentinel string decoded as %v", v)
	}
	if v, _ := got.Value(5, "label"); v != nil {
		t.Fatalf("NULL cell decoded as %v", v)
	}
}

func TestRead_MissIsNotAnError(t *testing.T) {
	c := openTestCache(t, 0)
	f, ok, err := c.Read("no-such-entry")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if ok || f != nil {
		t.Fatal("expected a miss")
	}
}

func TestWrite_RefusedWhenFull(t *testing.T) {
	c := openTestCache(t, 1)
	if err := os.WriteFile(filepath.Join(c.Dir(), "ballast"), []byte("xx"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := frame.MustNew(frame.Column{Name: "n", Type: frame.Int64})
	if err := f.AppendRow(int64(1)); err != nil {
		t.Fatal(err)
	}
	if err := c.Write("entry", f); err != nil {
		t.Fatalf("Write over cap must not error: %v", err)
	}
	if _, ok, _ := c.Read("entry"); ok {
		t.Fatal("entry must not be stored once the cap is exceeded")
	}
}

func TestSizeAndClean(t *testing.T) {
	c := openTestCache(t, 0)
	if err := os.WriteFile(filepath.Join(c.Dir(), "a"), []byte("1234"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(c.Dir(), "b"), []byte("12"), 0o644); err != nil {
		t.Fatal(err)
	}
	size, err := c.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 6 {
		t.Fatalf("size = %d, want 6", size)
	}
	if err := c.Clean(); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	size, err = c.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 0 {
		t.Fatalf("size after clean = %d, want 0", size)
	}
}

func TestDecode_RejectsGarbage(t *testing.T) {
	c := openTestCache(t, 0)
	if err := os.WriteFile(filepath.Join(c.Dir(), "bad"), []byte("not a header\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.Read("bad"); err == nil {
		t.Fatal("expected decode error")
	}
	if _, _, err := c.Read("bad"); err != nil && !strings.Contains(err.Error(), "bad") {
		t.Fatalf("error should name the entry: %v", err)
	}
}
