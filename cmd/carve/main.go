// Package main is a command that reconstructs a sparse point cloud from a
// model directory of calibrated silhouette views and writes it out as PCD.
package main

import (
	"context"
	"os"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"github.com/visualhull/carve/model"
	"github.com/visualhull/carve/pointcloud"
)

var logger = golog.NewDevelopmentLogger("carve")

// Arguments for the command.
type Arguments struct {
	ModelDir string `flag:"model,required,usage=model directory containing view subdirectories"`
	OutFile  string `flag:"out,required,usage=output PCD file"`
	Binary   bool   `flag:"binary,usage=write binary PCD instead of ascii"`
}

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}

	m, err := model.LoadModel(argsParsed.ModelDir, logger)
	if err != nil {
		return err
	}
	logger.Infow("model loaded", "views", m.NumViews())

	if err := m.Seed(); err != nil {
		if errors.Is(err, model.ErrParallelAxes) {
			return errors.Wrap(err, "cannot triangulate from the first two views; pick a different seed pair")
		}
		return err
	}
	logger.Infow("seeded", "candidates", m.Size())

	for {
		more, err := m.RefineStep()
		if err != nil {
			return err
		}
		if !more {
			break
		}
		logger.Infow("carved", "next_view", m.NextView(), "remaining", m.Size())
	}

	outType := pointcloud.PCDAscii
	if argsParsed.Binary {
		outType = pointcloud.PCDBinary
	}
	//nolint:gosec
	out, err := os.Create(argsParsed.OutFile)
	if err != nil {
		return errors.Wrap(err, "error creating output file")
	}
	if err := pointcloud.ToPCD(m.Cloud(), out, outType); err != nil {
		return multierr.Combine(err, out.Close())
	}
	logger.Infow("wrote point cloud", "file", argsParsed.OutFile, "points", m.Size())
	return out.Close()
}
