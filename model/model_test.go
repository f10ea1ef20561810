package model

import (
	"errors"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/visualhull/carve/spatialmath"
	"github.com/visualhull/carve/view"
)

// frameFacingPlusY looks from y=-10 toward the scene; its plane is y=-10.
func frameFacingPlusY() view.CameraFrame {
	return view.CameraFrame{
		Position:  r3.Vector{Y: -10},
		VX:        r3.Vector{X: 1},
		VY:        r3.Vector{Y: 1},
		VZ:        r3.Vector{Z: 1},
		PixelSize: 1,
	}
}

// frameFacingMinusX looks from x=10 toward the scene; its plane is x=10.
func frameFacingMinusX() view.CameraFrame {
	return view.CameraFrame{
		Position:  r3.Vector{X: 10},
		VX:        r3.Vector{Y: 1},
		VY:        r3.Vector{X: -1},
		VZ:        r3.Vector{Z: 1},
		PixelSize: 1,
	}
}

// frameFacingMinusY looks from y=5 toward the scene; its plane is y=5.
func frameFacingMinusY() view.CameraFrame {
	return view.CameraFrame{
		Position:  r3.Vector{Y: 5},
		VX:        r3.Vector{X: 1},
		VY:        r3.Vector{Y: -1},
		VZ:        r3.Vector{Z: 1},
		PixelSize: 1,
	}
}

// projections of a world point onto the three synthetic view planes along
// each view's optical axis.
func projOntoPlaneY(w r3.Vector, planeY float64) r3.Vector {
	return r3.Vector{X: w.X, Y: planeY, Z: w.Z}
}

func projOntoPlaneX(w r3.Vector, planeX float64) r3.Vector {
	return r3.Vector{X: planeX, Y: w.Y, Z: w.Z}
}

func mustView(t *testing.T, frame view.CameraFrame, verts []r3.Vector) *view.View {
	t.Helper()
	v, err := view.NewView(frame, verts)
	test.That(t, err, test.ShouldBeNil)
	return v
}

// twoSeedViews builds a seed pair observing the given world points from
// y=-10 and x=10.
func twoSeedViews(t *testing.T, world []r3.Vector) []*view.View {
	t.Helper()
	verts0 := make([]r3.Vector, 0, len(world))
	verts1 := make([]r3.Vector, 0, len(world))
	for _, w := range world {
		verts0 = append(verts0, projOntoPlaneY(w, -10))
		verts1 = append(verts1, projOntoPlaneX(w, 10))
	}
	return []*view.View{
		mustView(t, frameFacingPlusY(), verts0),
		mustView(t, frameFacingMinusX(), verts1),
	}
}

func containsAlmost(points []r3.Vector, target r3.Vector) bool {
	for _, p := range points {
		if spatialmath.VectorsAlmostEqual(p, target, spatialmath.DefaultAbsTol, spatialmath.DefaultRelTol) {
			return true
		}
	}
	return false
}

func TestNewModelRequiresTwoViews(t *testing.T) {
	_, err := NewModel(nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "at least 2 views")

	_, err = NewModel([]*view.View{mustView(t, frameFacingPlusY(), nil)})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSeedRecoversKnownPoints(t *testing.T) {
	// distinct z values so no cross pair of rays intersects
	world := []r3.Vector{
		{X: 1, Y: 2, Z: 3},
		{X: -2, Y: 0, Z: 1},
		{X: 0, Y: 5, Z: -4},
	}
	m, err := NewModel(twoSeedViews(t, world))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Seeded(), test.ShouldBeFalse)

	test.That(t, m.Seed(), test.ShouldBeNil)
	test.That(t, m.Seeded(), test.ShouldBeTrue)
	test.That(t, m.NextView(), test.ShouldEqual, 2)
	test.That(t, m.Size(), test.ShouldEqual, len(world))
	points := m.Points()
	for _, w := range world {
		test.That(t, containsAlmost(points, w), test.ShouldBeTrue)
	}
}

func TestSeedParallelAxesDegenerate(t *testing.T) {
	antiparallel := view.CameraFrame{
		Position:  r3.Vector{Y: 10},
		VX:        r3.Vector{X: 1},
		VY:        r3.Vector{Y: -1},
		VZ:        r3.Vector{Z: 1},
		PixelSize: 1,
	}
	for _, frame1 := range []view.CameraFrame{frameFacingPlusY(), antiparallel} {
		m, err := NewModel([]*view.View{
			mustView(t, frameFacingPlusY(), []r3.Vector{{Y: -10}}),
			mustView(t, frame1, []r3.Vector{{Y: 10}}),
		})
		test.That(t, err, test.ShouldBeNil)
		err = m.Seed()
		test.That(t, errors.Is(err, ErrParallelAxes), test.ShouldBeTrue)
		test.That(t, m.Size(), test.ShouldEqual, 0)
		test.That(t, m.Seeded(), test.ShouldBeFalse)
		test.That(t, m.NextView(), test.ShouldEqual, 0)

		// refining an unseeded model fails fast instead of silently
		// iterating views
		_, err = m.RefineStep()
		test.That(t, errors.Is(err, ErrNotSeeded), test.ShouldBeTrue)
	}
}

func TestSeedTwiceRejected(t *testing.T) {
	m, err := NewModel(twoSeedViews(t, []r3.Vector{{X: 1, Y: 2, Z: 3}}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Seed(), test.ShouldBeNil)
	test.That(t, errors.Is(m.Seed(), ErrAlreadySeeded), test.ShouldBeTrue)
}

func TestSeedEmptyResultIsNotAnError(t *testing.T) {
	// rays never meet: the two observations are of unrelated points with
	// different z, so every pair is skew
	views := []*view.View{
		mustView(t, frameFacingPlusY(), []r3.Vector{{X: 0, Y: -10, Z: 0}}),
		mustView(t, frameFacingMinusX(), []r3.Vector{{X: 10, Y: 0, Z: 5}}),
		mustView(t, frameFacingMinusY(), []r3.Vector{{X: 0, Y: 5, Z: 0}}),
	}
	m, err := NewModel(views)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Seed(), test.ShouldBeNil)
	test.That(t, m.Size(), test.ShouldEqual, 0)

	// steps on an empty cloud still advance the cursor
	more, err := m.RefineStep()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, more, test.ShouldBeTrue)
	test.That(t, m.NextView(), test.ShouldEqual, 3)
	more, err = m.RefineStep()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, more, test.ShouldBeFalse)
}

func TestCubeCarvingScenario(t *testing.T) {
	// 4 visible corners of a unit cube
	corners := []r3.Vector{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 0, Z: 1},
		{X: 1, Y: 0, Z: 1},
	}
	excluded := r3.Vector{X: 1, Y: 0, Z: 1}

	views := twoSeedViews(t, corners)
	// the third view's silhouette misses one corner's projection
	var filterVerts []r3.Vector
	for _, w := range corners {
		if w == excluded {
			continue
		}
		filterVerts = append(filterVerts, projOntoPlaneY(w, 5))
	}
	views = append(views, mustView(t, frameFacingMinusY(), filterVerts))

	m, err := NewModel(views)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Seed(), test.ShouldBeNil)
	test.That(t, m.Size(), test.ShouldEqual, 4)

	more, err := m.RefineStep()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, more, test.ShouldBeTrue)
	test.That(t, m.NextView(), test.ShouldEqual, 3)
	test.That(t, m.Size(), test.ShouldEqual, 3)
	test.That(t, containsAlmost(m.Points(), excluded), test.ShouldBeFalse)
	for _, w := range corners {
		if w == excluded {
			continue
		}
		test.That(t, containsAlmost(m.Points(), w), test.ShouldBeTrue)
	}

	// terminal idempotence
	for i := 0; i < 3; i++ {
		more, err = m.RefineStep()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, more, test.ShouldBeFalse)
		test.That(t, m.Size(), test.ShouldEqual, 3)
	}
}

// checkConsistency verifies that every remaining candidate projects onto a
// silhouette vertex of each consumed view.
func checkConsistency(t *testing.T, m *Model, views []*view.View, consumed int) {
	t.Helper()
	for _, p := range m.Points() {
		for i := 0; i < consumed; i++ {
			verts := views[i].Vertices()
			normal := views[i].VY()
			d := spatialmath.PlaneOffset(verts[0], normal)
			projected := spatialmath.IntersectPlaneWithLine(normal, d, p)
			test.That(t, containsAlmost(verts, projected), test.ShouldBeTrue)
		}
	}
}

func TestMonotoneShrinkageAndConsistency(t *testing.T) {
	world := []r3.Vector{
		{X: 1, Y: 2, Z: 3},
		{X: -2, Y: 0, Z: 1},
		{X: 0, Y: 5, Z: -4},
	}
	views := twoSeedViews(t, world)

	// view2 sees only the first two points, view3 sees everything left
	views = append(views, mustView(t, frameFacingMinusY(), []r3.Vector{
		projOntoPlaneY(world[0], 5),
		projOntoPlaneY(world[1], 5),
	}))
	views = append(views, mustView(t, frameFacingMinusY(), []r3.Vector{
		projOntoPlaneY(world[0], 5),
		projOntoPlaneY(world[1], 5),
		projOntoPlaneY(world[2], 5),
	}))

	m, err := NewModel(views)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Seed(), test.ShouldBeNil)

	sizes := []int{m.Size()}
	consumed := 2
	for {
		more, err := m.RefineStep()
		test.That(t, err, test.ShouldBeNil)
		if !more {
			break
		}
		consumed++
		sizes = append(sizes, m.Size())
		checkConsistency(t, m, views, consumed)
	}
	test.That(t, sizes, test.ShouldResemble, []int{3, 2, 2})
	for i := 1; i < len(sizes); i++ {
		test.That(t, sizes[i], test.ShouldBeLessThanOrEqualTo, sizes[i-1])
	}
}

func TestRefineStepEmptySilhouetteRemovesEverything(t *testing.T) {
	views := twoSeedViews(t, []r3.Vector{{X: 1, Y: 2, Z: 3}})
	views = append(views, mustView(t, frameFacingMinusY(), nil))

	m, err := NewModel(views)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Seed(), test.ShouldBeNil)
	test.That(t, m.Size(), test.ShouldEqual, 1)

	more, err := m.RefineStep()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, more, test.ShouldBeTrue)
	test.That(t, m.Size(), test.ShouldEqual, 0)
}

func TestTriangulateRayPair(t *testing.T) {
	atol, rtol := spatialmath.DefaultAbsTol, spatialmath.DefaultRelTol

	// rays that truly meet
	q, ok := triangulateRayPair(
		r3.Vector{X: 1, Y: -10, Z: 3}, r3.Vector{Y: 1},
		r3.Vector{X: 10, Y: 2, Z: 3}, r3.Vector{X: -1},
		atol, rtol)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, spatialmath.VectorsAlmostEqual(q, r3.Vector{X: 1, Y: 2, Z: 3}, atol, rtol), test.ShouldBeTrue)

	// parallel rays: the least-squares solve is rank-deficient and some
	// (t,s) comes back anyway; the pair must be skipped
	_, ok = triangulateRayPair(
		r3.Vector{}, r3.Vector{Y: 1},
		r3.Vector{X: 1, Y: 1}, r3.Vector{Y: 1},
		atol, rtol)
	test.That(t, ok, test.ShouldBeFalse)

	// skew rays that pass within 1 unit but never meet
	_, ok = triangulateRayPair(
		r3.Vector{X: 0, Y: -10, Z: 0}, r3.Vector{Y: 1},
		r3.Vector{X: 10, Y: 0, Z: 1}, r3.Vector{X: -1},
		atol, rtol)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestWithSeedPair(t *testing.T) {
	world := []r3.Vector{{X: 1, Y: 2, Z: 3}}
	seedViews := twoSeedViews(t, world)
	// decoy first view whose axis is parallel to the second seed view
	decoy := mustView(t, frameFacingMinusY(), []r3.Vector{projOntoPlaneY(world[0], 5)})

	views := []*view.View{decoy, seedViews[0], seedViews[1]}
	m, err := NewModel(views, WithSeedPair(1, 2))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Seed(), test.ShouldBeNil)
	test.That(t, m.Size(), test.ShouldEqual, 1)
	test.That(t, containsAlmost(m.Points(), world[0]), test.ShouldBeTrue)

	// the decoy moved behind the seed pair and now acts as a filter that
	// keeps the point
	more, err := m.RefineStep()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, more, test.ShouldBeTrue)
	test.That(t, m.Size(), test.ShouldEqual, 1)

	_, err = NewModel(views, WithSeedPair(0, 0))
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewModel(views, WithSeedPair(0, 5))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestWithTolerance(t *testing.T) {
	// with a huge tolerance, skew rays are accepted
	views := []*view.View{
		mustView(t, frameFacingPlusY(), []r3.Vector{{X: 0, Y: -10, Z: 0}}),
		mustView(t, frameFacingMinusX(), []r3.Vector{{X: 10, Y: 0, Z: 1}}),
	}
	m, err := NewModel(views, WithTolerance(10, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Seed(), test.ShouldBeNil)
	test.That(t, m.Size(), test.ShouldEqual, 1)

	_, err = NewModel(views, WithTolerance(-1, 0))
	test.That(t, err, test.ShouldNotBeNil)
}
