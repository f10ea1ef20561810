package model

import (
	"github.com/pkg/errors"
)

// Option configures a Model at construction.
type Option func(*Model) error

// WithSeedPair makes the seed view choice explicit: the views at indices i
// and j are moved to the front of the view order and become the
// triangulation pair. Directory-enumeration order is not a semantic key, so
// drivers that care which views seed the reconstruction should use this.
func WithSeedPair(i, j int) Option {
	return func(m *Model) error {
		if i == j {
			return errors.Errorf("seed pair indices must differ, got %d twice", i)
		}
		if i < 0 || i >= len(m.views) || j < 0 || j >= len(m.views) {
			return errors.Errorf("seed pair (%d, %d) out of range for %d views", i, j, len(m.views))
		}
		m.views[0], m.views[i] = m.views[i], m.views[0]
		if j == 0 {
			// the original first view moved to i
			j = i
		}
		m.views[1], m.views[j] = m.views[j], m.views[1]
		return nil
	}
}

// WithTolerance overrides the absolute and relative tolerances used for
// point equality in both triangulation acceptance and the visibility test.
func WithTolerance(atol, rtol float64) Option {
	return func(m *Model) error {
		if atol < 0 || rtol < 0 {
			return errors.Errorf("tolerances must be non-negative, got atol=%v rtol=%v", atol, rtol)
		}
		m.atol = atol
		m.rtol = rtol
		return nil
	}
}
