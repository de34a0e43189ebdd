// Package constraints provides data checks over frames: the pre-write
// assertions a pipeline runs before a frame is allowed into the database.
//
// Each check returns an error naming the first offending column; a Suite
// collects named checks and reports every failure at once.
package constraints

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/dataplumb/pgframe/frame"
)

// Check is one named assertion over a frame.
type Check func(f *frame.Frame) error

// NotNull fails when any of the columns contains a NULL cell.
func NotNull(columns ...string) Check {
	return func(f *frame.Frame) error {
		for _, name := range columns {
			vals, err := f.Col(name)
			if err != nil {
				return err
			}
			for i, v := range vals {
				if v == nil {
					return fmt.Errorf("column %q contains null values (row %d)", name, i)
				}
			}
		}
		return nil
	}
}

// Unique fails when a column contains duplicated values.
func Unique(columns ...string) Check {
	return func(f *frame.Frame) error {
		for _, name := range columns {
			n, err := distinctCount(f, name)
			if err != nil {
				return err
			}
			if n != f.Len() {
				return fmt.Errorf("column %q is not unique", name)
			}
		}
		return nil
	}
}

// OfType fails when a column's declared dtype differs from want.
func OfType(want frame.DType, columns ...string) Check {
	return func(f *frame.Frame) error {
		byName := make(map[string]frame.DType, f.Width())
		for _, c := range f.Columns() {
			byName[c.Name] = c.Type
		}
		for _, name := range columns {
			got, ok := byName[name]
			if !ok {
				return fmt.Errorf("no column %q", name)
			}
			if got != want {
				return fmt.Errorf("column %q is %s, want %s", name, got, want)
			}
		}
		return nil
	}
}

// QuantileBelow fails when the q-quantile of a numeric column reaches the
// threshold.
func QuantileBelow(q, threshold float64, columns ...string) Check {
	return func(f *frame.Frame) error {
		for _, name := range columns {
			value, err := quantile(f, name, q)
			if err != nil {
				return err
			}
			if value >= threshold {
				return fmt.Errorf("column %q quantile(%g) = %g, want < %g", name, q, value, threshold)
			}
		}
		return nil
	}
}

// UniqueCountBetween fails when the number of distinct values in a column
// leaves the interval [min, max).
func UniqueCountBetween(min, max int, columns ...string) Check {
	return func(f *frame.Frame) error {
		for _, name := range columns {
			n, err := distinctCount(f, name)
			if err != nil {
				return err
			}
			if n < min || n >= max {
				return fmt.Errorf("column %q has %d distinct values, want [%d, %d)", name, n, min, max)
			}
		}
		return nil
	}
}

// Suite is an ordered set of named checks.
type Suite struct {
	names  []string
	checks map[string]Check
}

// NewSuite builds an empty suite.
func NewSuite() *Suite {
	return &Suite{checks: make(map[string]Check)}
}

// Add registers a named check, replacing any previous check of that name.
func (s *Suite) Add(name string, check Check) *Suite {
	if _, ok := s.checks[name]; !ok {
		s.names = append(s.names, name)
	}
	s.checks[name] = check
	return s
}

// Run executes every check against the frame and joins the failures.
func (s *Suite) Run(f *frame.Frame) error {
	var errs []error
	for _, name := range s.names {
		if err := s.checks[name](f); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func distinctCount(f *frame.Frame, column string) (int, error) {
	vals, err := f.Col(column)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		seen[fmt.Sprint(v)] = struct{}{}
	}
	return len(seen), nil
}

func quantile(f *frame.Frame, column string, q float64) (float64, error) {
	vals, err := f.Col(column)
	if err != nil {
		return 0, err
	}
	nums := make([]float64, 0, len(vals))
	for _, v := range vals {
		if v == nil {
			continue
		}
		if d, ok := v.(decimal.Decimal); ok {
			n, _ := d.Float64()
			nums = append(nums, n)
			continue
		}
		n, err := cast.ToFloat64E(v)
		if err != nil {
			return 0, fmt.Errorf("column %q is not numeric: %w", column, err)
		}
		nums = append(nums, n)
	}
	if len(nums) == 0 {
		return 0, fmt.Errorf("column %q has no values", column)
	}
	sort.Float64s(nums)
	if q <= 0 {
		return nums[0], nil
	}
	if q >= 1 {
		return nums[len(nums)-1], nil
	}
	// Nearest-rank with linear interpolation between the two bounding
	// order statistics.
	pos := q * float64(len(nums)-1)
	lo := int(pos)
	if lo == len(nums)-1 {
		return nums[lo], nil
	}
	fracPart := pos - float64(lo)
	return nums[lo]*(1-fracPart) + nums[lo+1]*fracPart, nil
}
