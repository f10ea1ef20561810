package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Default tolerances for deciding that two reconstructed points are the same
// point. A component a matches b when |a-b| <= atol + rtol*|b|.
const (
	DefaultAbsTol = 1e-8
	DefaultRelTol = 1e-5
)

// Camera frame descriptors are often hand-written, so the orthonormality
// check is looser than point identity.
const frameEpsilon = 1e-6

func floatAlmostEqual(a, b, atol, rtol float64) bool {
	return math.Abs(a-b) <= atol+rtol*math.Abs(b)
}

// VectorsAlmostEqual reports whether a and b are component-wise equal within
// the given absolute and relative tolerances. This is the single equality
// primitive used for both triangulation acceptance and silhouette visibility.
func VectorsAlmostEqual(a, b r3.Vector, atol, rtol float64) bool {
	return floatAlmostEqual(a.X, b.X, atol, rtol) &&
		floatAlmostEqual(a.Y, b.Y, atol, rtol) &&
		floatAlmostEqual(a.Z, b.Z, atol, rtol)
}

// CheckOrthonormalFrame verifies that vx, vy, vz form an orthonormal
// triple: each of unit length, pairwise perpendicular.
func CheckOrthonormalFrame(vx, vy, vz r3.Vector) error {
	axes := []struct {
		name string
		vec  r3.Vector
	}{
		{"vx", vx},
		{"vy", vy},
		{"vz", vz},
	}
	for _, axis := range axes {
		if !floatAlmostEqual(axis.vec.Norm(), 1, frameEpsilon, 0) {
			return errors.Errorf("frame axis %s = %v is not unit length", axis.name, axis.vec)
		}
	}
	pairs := []struct {
		names string
		dot   float64
	}{
		{"vx,vy", vx.Dot(vy)},
		{"vx,vz", vx.Dot(vz)},
		{"vy,vz", vy.Dot(vz)},
	}
	for _, pair := range pairs {
		if math.Abs(pair.dot) > frameEpsilon {
			return errors.Errorf("frame axes %s are not perpendicular (dot %v)", pair.names, pair.dot)
		}
	}
	return nil
}
