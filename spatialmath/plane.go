// Package spatialmath contains the geometric primitives used by the
// reconstruction engine: plane construction, plane/line intersection along
// the plane normal, and tolerance-based vector comparison.
package spatialmath

import (
	"github.com/golang/geo/r3"
)

// PlaneOffset returns the D coefficient of the plane Ax+By+Cz+D=0 whose
// normal is (A,B,C) and which passes through point.
func PlaneOffset(point, normal r3.Vector) float64 {
	return -normal.Dot(point)
}

// IntersectPlaneWithLine returns the point where the line through linePoint
// with direction normal meets the plane (normal, d). The line runs along the
// plane's own normal, so the intersection always exists and is unique.
func IntersectPlaneWithLine(normal r3.Vector, d float64, linePoint r3.Vector) r3.Vector {
	t := (normal.Dot(linePoint) + d) / normal.Norm2()
	return linePoint.Sub(normal.Mul(t))
}
