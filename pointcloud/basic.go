package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// basicPointCloud is the basic implementation of the PointCloud interface
// backed by a slice of points plus an index map keyed by position.
type basicPointCloud struct {
	points   []r3.Vector
	indexMap map[r3.Vector]uint
	meta     MetaData
}

// New returns an empty PointCloud backed by a basicPointCloud.
func New() PointCloud {
	return NewWithPrealloc(0)
}

// NewWithPrealloc returns an empty, preallocated PointCloud backed by a
// basicPointCloud.
func NewWithPrealloc(size int) PointCloud {
	return &basicPointCloud{
		points:   make([]r3.Vector, 0, size),
		indexMap: make(map[r3.Vector]uint, size),
		meta:     NewMetaData(),
	}
}

func (cloud *basicPointCloud) Size() int {
	return len(cloud.points)
}

func (cloud *basicPointCloud) MetaData() MetaData {
	return cloud.meta
}

// Set validates that the point can be used as a map key before storing it.
func (cloud *basicPointCloud) Set(p r3.Vector) error {
	for _, v := range []float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Errorf("point (%v, %v, %v) is not finite", p.X, p.Y, p.Z)
		}
	}
	if _, exists := cloud.indexMap[p]; exists {
		return nil
	}
	cloud.indexMap[p] = uint(len(cloud.points))
	cloud.points = append(cloud.points, p)
	cloud.meta.Merge(p)
	return nil
}

func (cloud *basicPointCloud) Unset(x, y, z float64) {
	p := r3.Vector{X: x, Y: y, Z: z}
	i, exists := cloud.indexMap[p]
	if !exists {
		return
	}
	// swap the last point into the removed slot
	last := uint(len(cloud.points)) - 1
	if i != last {
		cloud.points[i] = cloud.points[last]
		cloud.indexMap[cloud.points[i]] = i
	}
	cloud.points = cloud.points[:last]
	delete(cloud.indexMap, p)
}

func (cloud *basicPointCloud) At(x, y, z float64) bool {
	_, exists := cloud.indexMap[r3.Vector{X: x, Y: y, Z: z}]
	return exists
}

func (cloud *basicPointCloud) Iterate(fn func(p r3.Vector) bool) {
	for _, p := range cloud.points {
		if !fn(p) {
			return
		}
	}
}

func (cloud *basicPointCloud) Points() []r3.Vector {
	out := make([]r3.Vector, len(cloud.points))
	copy(out, cloud.points)
	return out
}
