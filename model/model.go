// Package model implements sparse visual-hull reconstruction: dual-ray
// triangulation of candidate points from the boundary vertices of two seed
// views, followed by one silhouette-consistency carving step per remaining
// view.
package model

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/visualhull/carve/pointcloud"
	"github.com/visualhull/carve/spatialmath"
	"github.com/visualhull/carve/view"
)

var (
	// ErrParallelAxes is returned by Seed when the two seed views have
	// parallel optical axes, which makes ray triangulation degenerate.
	// The model is left unseeded.
	ErrParallelAxes = errors.New("seed views have parallel optical axes")

	// ErrNotSeeded is returned by RefineStep when Seed has not succeeded yet.
	ErrNotSeeded = errors.New("model has not been seeded")

	// ErrAlreadySeeded is returned by Seed when called a second time after
	// success; reseeding would rescan the same pairs.
	ErrAlreadySeeded = errors.New("model has already been seeded")
)

// seededCursor is the carving cursor right after triangulation: the seed
// pair is consumed, the third view is the first filter.
const seededCursor = 2

// Model owns the ordered views, the working candidate cloud and the carving
// cursor. It is single-threaded; callers interleaving reads with RefineStep
// must do so between calls.
type Model struct {
	views    []*view.View
	cloud    pointcloud.PointCloud
	nextView int

	atol float64
	rtol float64
}

// NewModel builds a reconstruction from the given views. The first two views
// are the seed pair unless WithSeedPair says otherwise. At least two views
// are required.
func NewModel(views []*view.View, opts ...Option) (*Model, error) {
	if len(views) < 2 {
		return nil, errors.Errorf("need at least 2 views to reconstruct, got %d", len(views))
	}
	ordered := make([]*view.View, len(views))
	copy(ordered, views)
	m := &Model{
		views: ordered,
		cloud: pointcloud.New(),
		atol:  spatialmath.DefaultAbsTol,
		rtol:  spatialmath.DefaultRelTol,
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NumViews returns the number of views in the model.
func (m *Model) NumViews() int {
	return len(m.views)
}

// Seeded reports whether triangulation has run successfully.
func (m *Model) Seeded() bool {
	return m.nextView >= seededCursor
}

// NextView returns the index of the next view the carving step will consume.
func (m *Model) NextView() int {
	return m.nextView
}

// Size returns the number of candidate points currently in the cloud.
func (m *Model) Size() int {
	return m.cloud.Size()
}

// Points returns a snapshot of the candidate cloud.
func (m *Model) Points() []r3.Vector {
	return m.cloud.Points()
}

// Cloud returns the working candidate cloud for reading or export. Callers
// must not mutate it.
func (m *Model) Cloud() pointcloud.PointCloud {
	return m.cloud
}

// Seed triangulates candidate points from every boundary-vertex pair across
// the two seed views. A pair is accepted only when its two rays, cast along
// each view's optical axis, truly meet within tolerance; skew pairs and
// pairs whose linear solve is rank-deficient are skipped. On success the
// carving cursor moves past the seed pair.
func (m *Model) Seed() error {
	if m.Seeded() {
		return ErrAlreadySeeded
	}
	view0, view1 := m.views[0], m.views[1]
	d0, d1 := view0.VY(), view1.VY()
	if spatialmath.VectorsAlmostEqual(d0.Cross(d1), r3.Vector{}, m.atol, m.rtol) {
		return ErrParallelAxes
	}
	for _, p0 := range view0.Vertices() {
		for _, p1 := range view1.Vertices() {
			q, ok := triangulateRayPair(p0, d0, p1, d1, m.atol, m.rtol)
			if !ok {
				continue
			}
			if err := m.cloud.Set(q); err != nil {
				return err
			}
		}
	}
	m.nextView = seededCursor
	return nil
}

// triangulateRayPair solves, in the least-squares sense, for the closest
// points of the rays p0+t*d0 and p1+s*d1 and returns the intersection when
// the rays truly meet within tolerance. Rank-deficient solves (parallel
// rays) and near-miss skew rays report false.
func triangulateRayPair(p0, d0, p1, d1 r3.Vector, atol, rtol float64) (r3.Vector, bool) {
	a := mat.NewDense(3, 2, []float64{
		d0.X, -d1.X,
		d0.Y, -d1.Y,
		d0.Z, -d1.Z,
	})
	diff := p1.Sub(p0)
	b := mat.NewVecDense(3, []float64{diff.X, diff.Y, diff.Z})
	var ts mat.VecDense
	if err := ts.SolveVec(a, b); err != nil {
		// an ill-conditioned solve still produces a solution; let the
		// closeness check decide, as with any other pair
		if _, conditioned := err.(mat.Condition); !conditioned {
			return r3.Vector{}, false
		}
	}
	q0 := p0.Add(d0.Mul(ts.AtVec(0)))
	q1 := p1.Add(d1.Mul(ts.AtVec(1)))
	if !spatialmath.VectorsAlmostEqual(q0, q1, atol, rtol) {
		return r3.Vector{}, false
	}
	return q0, true
}

// RefineStep carves the candidate cloud against the next unconsumed view:
// every candidate whose projection along that view's optical axis does not
// land on a silhouette boundary vertex is removed. It returns false once all
// views have been consumed and errors if the model was never seeded.
func (m *Model) RefineStep() (bool, error) {
	if !m.Seeded() {
		return false, ErrNotSeeded
	}
	if m.nextView >= len(m.views) {
		return false, nil
	}
	filter := m.views[m.nextView]
	m.nextView++

	verts := filter.Vertices()
	if len(verts) == 0 {
		// nothing is visible in a view with an empty silhouette
		for _, p := range m.cloud.Points() {
			m.cloud.Unset(p.X, p.Y, p.Z)
		}
		return true, nil
	}

	normal := filter.VY()
	d := spatialmath.PlaneOffset(verts[0], normal)

	// mark during the scan, remove in batch after
	var remove []r3.Vector
	m.cloud.Iterate(func(p r3.Vector) bool {
		projected := spatialmath.IntersectPlaneWithLine(normal, d, p)
		if !m.visible(projected, verts) {
			remove = append(remove, p)
		}
		return true
	})
	for _, p := range remove {
		m.cloud.Unset(p.X, p.Y, p.Z)
	}
	return true, nil
}

func (m *Model) visible(projected r3.Vector, verts []r3.Vector) bool {
	for _, v := range verts {
		if spatialmath.VectorsAlmostEqual(projected, v, m.atol, m.rtol) {
			return true
		}
	}
	return false
}
