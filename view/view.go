// Package view models a single calibrated silhouette observation: a camera
// frame plus the silhouette's boundary vertices mapped into world space on
// the view's projection plane.
package view

import (
	"image"

	"github.com/golang/geo/r3"
)

// View is one observation of the scene. Immutable after construction.
type View struct {
	frame    CameraFrame
	vertices []r3.Vector
}

// NewView builds a view from an already unprojected boundary. The frame must
// be valid and the vertices must lie on the frame's projection plane.
func NewView(frame CameraFrame, vertices []r3.Vector) (*View, error) {
	if err := frame.CheckValid(); err != nil {
		return nil, err
	}
	verts := make([]r3.Vector, len(vertices))
	copy(verts, vertices)
	return &View{frame: frame, vertices: verts}, nil
}

// NewViewFromSilhouette builds a view by extracting the silhouette boundary
// of a two-level image and unprojecting each boundary pixel onto the frame's
// projection plane. The center pixel of the image maps to the frame position.
func NewViewFromSilhouette(img image.Image, frame CameraFrame) (*View, error) {
	if err := frame.CheckValid(); err != nil {
		return nil, err
	}
	boundary, err := silhouetteBoundary(img)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	cx := float64(bounds.Min.X) + float64(bounds.Dx()-1)/2
	cy := float64(bounds.Min.Y) + float64(bounds.Dy()-1)/2
	vertices := make([]r3.Vector, 0, len(boundary))
	for _, px := range boundary {
		// image rows grow down while vz points up
		offsetX := (float64(px.X) - cx) * frame.PixelSize
		offsetZ := (cy - float64(px.Y)) * frame.PixelSize
		vertices = append(vertices,
			frame.Position.Add(frame.VX.Mul(offsetX)).Add(frame.VZ.Mul(offsetZ)))
	}
	return &View{frame: frame, vertices: vertices}, nil
}

// Position returns the camera/plane origin.
func (v *View) Position() r3.Vector {
	return v.frame.Position
}

// VX returns the horizontal image plane axis.
func (v *View) VX() r3.Vector {
	return v.frame.VX
}

// VY returns the optical axis, perpendicular to the projection plane and
// pointing from the camera toward the scene.
func (v *View) VY() r3.Vector {
	return v.frame.VY
}

// VZ returns the vertical image plane axis.
func (v *View) VZ() r3.Vector {
	return v.frame.VZ
}

// Vertices returns the world-space silhouette boundary. The returned slice
// must not be modified.
func (v *View) Vertices() []r3.Vector {
	return v.vertices
}
