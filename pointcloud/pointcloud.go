// Package pointcloud defines a sparse, position-keyed point cloud used as
// the reconstruction engine's working candidate set.
//
// The cloud has set semantics: only membership matters to the carving
// algorithm, and iteration order carries no meaning beyond being stable
// between mutations.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// MetaData is bounds data about what's stored in the point cloud.
type MetaData struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// PointCloud is a general purpose container of points. The backing
// implementation is sparse.
type PointCloud interface {
	// Size returns the number of points in the cloud.
	Size() int

	// MetaData returns the bounds of the cloud.
	MetaData() MetaData

	// Set places the given point in the cloud. Setting a point that is
	// already present is a no-op.
	Set(p r3.Vector) error

	// Unset removes the point at the given position if it exists;
	// otherwise it does nothing.
	Unset(x, y, z float64)

	// At reports whether a point exists at the given position.
	At(x, y, z float64) bool

	// Iterate calls fn for every point in the cloud. If fn returns false,
	// iteration stops. The cloud must not be mutated during iteration.
	Iterate(fn func(p r3.Vector) bool)

	// Points returns a snapshot of all points in the cloud.
	Points() []r3.Vector
}

// NewMetaData returns a new MetaData with bounds that any merged point will
// tighten.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64, MaxX: -math.MaxFloat64,
		MinY: math.MaxFloat64, MaxY: -math.MaxFloat64,
		MinZ: math.MaxFloat64, MaxZ: -math.MaxFloat64,
	}
}

// Merge widens the bounds to include the given point.
func (meta *MetaData) Merge(v r3.Vector) {
	if v.X > meta.MaxX {
		meta.MaxX = v.X
	}
	if v.Y > meta.MaxY {
		meta.MaxY = v.Y
	}
	if v.Z > meta.MaxZ {
		meta.MaxZ = v.Z
	}
	if v.X < meta.MinX {
		meta.MinX = v.X
	}
	if v.Y < meta.MinY {
		meta.MinY = v.Y
	}
	if v.Z < meta.MinZ {
		meta.MinZ = v.Z
	}
}
