package view

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

const (
	backgroundValue = 0
	objectValue     = 255
)

// silhouetteBoundary returns the pixels on the boundary of a two-level
// silhouette image: object pixels with at least one 4-neighbor that is
// background or outside the image. Pixels are visited in row-major order so
// the result is stable across reads.
func silhouetteBoundary(img image.Image) ([]image.Point, error) {
	bounds := img.Bounds()
	object := func(x, y int) (bool, error) {
		gray, ok := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
		if !ok {
			return false, errors.New("silhouette image is not grayscale convertible")
		}
		switch gray.Y {
		case backgroundValue:
			return false, nil
		case objectValue:
			return true, nil
		default:
			return false, errors.Errorf("silhouette pixel (%d,%d) has value %d, want %d or %d",
				x, y, gray.Y, backgroundValue, objectValue)
		}
	}

	var boundary []image.Point
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			isObject, err := object(x, y)
			if err != nil {
				return nil, err
			}
			if !isObject {
				continue
			}
			onBoundary := false
			for _, n := range []image.Point{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
				if !n.In(bounds) {
					onBoundary = true
					break
				}
				neighborObject, err := object(n.X, n.Y)
				if err != nil {
					return nil, err
				}
				if !neighborObject {
					onBoundary = true
					break
				}
			}
			if onBoundary {
				boundary = append(boundary, image.Point{X: x, Y: y})
			}
		}
	}
	return boundary, nil
}
