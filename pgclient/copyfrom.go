package pgclient

import (
	"github.com/jackc/pgx/v5"

	"github.com/dataplumb/pgframe/frame"
)

// copySource adapts a frame to the pull-based row source the driver's copy
// protocol consumes. Cell values are already in their canonical Go
// representation, which pgx encodes directly (decimal and uuid values go
// through their driver.Valuer implementations).
type copySource struct {
	f   *frame.Frame
	row int
}

var _ pgx.CopyFromSource = (*copySource)(nil)

func newCopySource(f *frame.Frame) *copySource {
	return &copySource{f: f, row: -1}
}

func (s *copySource) Next() bool {
	s.row++
	return s.row < s.f.Len()
}

func (s *copySource) Values() ([]any, error) {
	return s.f.Row(s.row), nil
}

func (s *copySource) Err() error { return nil }
