package view

import (
	"encoding/json"
	"io"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/visualhull/carve/spatialmath"
)

// DefaultPixelSize is the width of one silhouette pixel in world units when
// the descriptor does not say otherwise.
const DefaultPixelSize = 1.0

// CameraFrame is the pose of one projection plane: the plane origin plus an
// orthonormal triple. VY is the optical axis pointing from the camera toward
// the scene; VX and VZ span the image plane (VX right, VZ up).
type CameraFrame struct {
	Position  r3.Vector
	VX        r3.Vector
	VY        r3.Vector
	VZ        r3.Vector
	PixelSize float64
}

// CheckValid checks if the fields of a CameraFrame have valid inputs.
func (frame *CameraFrame) CheckValid() error {
	if err := spatialmath.CheckOrthonormalFrame(frame.VX, frame.VY, frame.VZ); err != nil {
		return err
	}
	if frame.PixelSize <= 0 {
		return errors.Errorf("invalid pixel size %v", frame.PixelSize)
	}
	return nil
}

// vectorJSON is one {x,y,z} object in a camera descriptor. Pointer fields so
// an absent coordinate is distinguishable from zero.
type vectorJSON struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	Z *float64 `json:"z"`
}

func (v *vectorJSON) toVector(field string) (r3.Vector, error) {
	if v == nil {
		return r3.Vector{}, errors.Errorf("camera descriptor missing %q", field)
	}
	if v.X == nil || v.Y == nil || v.Z == nil {
		return r3.Vector{}, errors.Errorf("camera descriptor field %q is missing a coordinate", field)
	}
	return r3.Vector{X: *v.X, Y: *v.Y, Z: *v.Z}, nil
}

type cameraFrameJSON struct {
	Position  *vectorJSON `json:"position"`
	VX        *vectorJSON `json:"vx"`
	VY        *vectorJSON `json:"vy"`
	VZ        *vectorJSON `json:"vz"`
	PixelSize *float64    `json:"pixel_size"`
}

// NewCameraFrameFromJSON parses and validates a camera descriptor.
func NewCameraFrameFromJSON(data []byte) (*CameraFrame, error) {
	parsed := cameraFrameJSON{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, errors.Wrap(err, "error parsing camera descriptor")
	}
	frame := &CameraFrame{PixelSize: DefaultPixelSize}
	var err error
	if frame.Position, err = parsed.Position.toVector("position"); err != nil {
		return nil, err
	}
	if frame.VX, err = parsed.VX.toVector("vx"); err != nil {
		return nil, err
	}
	if frame.VY, err = parsed.VY.toVector("vy"); err != nil {
		return nil, err
	}
	if frame.VZ, err = parsed.VZ.toVector("vz"); err != nil {
		return nil, err
	}
	if parsed.PixelSize != nil {
		frame.PixelSize = *parsed.PixelSize
	}
	if err := frame.CheckValid(); err != nil {
		return nil, err
	}
	return frame, nil
}

// NewCameraFrameFromJSONFile takes in a file path to a JSON descriptor and
// turns it into a CameraFrame.
func NewCameraFrameFromJSONFile(jsonPath string) (*CameraFrame, error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening camera descriptor")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)
	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading camera descriptor")
	}
	return NewCameraFrameFromJSON(byteValue)
}
