package model

import (
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/image/bmp"

	"github.com/visualhull/carve/view"
)

const (
	cameraFileName     = "camera.json"
	silhouetteFileName = "plane.bmp"
	viewDirPrefix      = "view"
)

// LoadModel scans dir for view subdirectories (names starting with "view",
// taken in lexical order) and builds a Model from them. Each subdirectory
// must contain a silhouette image and a camera descriptor; a missing or
// malformed file fails the whole model.
func LoadModel(dir string, logger golog.Logger, opts ...Option) (*Model, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading model directory %q", dir)
	}
	var views []*view.View
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), viewDirPrefix) {
			continue
		}
		v, err := loadView(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "view %q", entry.Name())
		}
		logger.Debugw("loaded view", "name", entry.Name(), "boundary_vertices", len(v.Vertices()))
		views = append(views, v)
	}
	return NewModel(views, opts...)
}

func loadView(viewDir string) (*view.View, error) {
	frame, err := view.NewCameraFrameFromJSONFile(filepath.Join(viewDir, cameraFileName))
	if err != nil {
		return nil, err
	}
	img, err := readSilhouette(filepath.Join(viewDir, silhouetteFileName))
	if err != nil {
		return nil, err
	}
	return view.NewViewFromSilhouette(img, *frame)
}

func readSilhouette(path string) (image.Image, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "error opening silhouette image")
	}
	img, err := bmp.Decode(f)
	if err = multierr.Combine(err, f.Close()); err != nil {
		return nil, errors.Wrap(err, "error decoding silhouette image")
	}
	return img, nil
}
