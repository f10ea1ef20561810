package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// PCDType is the data encoding of a pcd file.
type PCDType int

const (
	// PCDAscii ascii format for pcd.
	PCDAscii PCDType = 0
	// PCDBinary binary format for pcd.
	PCDBinary PCDType = 1
)

// ToPCD writes out a point cloud to a PCD file of the specified type.
func ToPCD(cloud PointCloud, out io.Writer, outputType PCDType) error {
	_, err := fmt.Fprintf(out, "VERSION .7\n"+
		"FIELDS x y z\n"+
		"SIZE 4 4 4\n"+
		"TYPE F F F\n"+
		"COUNT 1 1 1\n"+
		"WIDTH %d\n"+
		"HEIGHT 1\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n",
		cloud.Size(), cloud.Size())
	if err != nil {
		return err
	}
	switch outputType {
	case PCDBinary:
		_, err = fmt.Fprintf(out, "DATA binary\n")
	case PCDAscii:
		_, err = fmt.Fprintf(out, "DATA ascii\n")
	default:
		return errors.Errorf("unknown pcd type %d", outputType)
	}
	if err != nil {
		return err
	}
	return writePCDData(cloud, out, outputType)
}

func writePCDData(cloud PointCloud, out io.Writer, pcdtype PCDType) error {
	var err error
	cloud.Iterate(func(pos r3.Vector) bool {
		switch pcdtype {
		case PCDBinary:
			buf := make([]byte, 12)
			binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(pos.X)))
			binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(pos.Y)))
			binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(float32(pos.Z)))
			_, err = out.Write(buf)
		case PCDAscii:
			_, err = fmt.Fprintf(out, "%f %f %f\n", pos.X, pos.Y, pos.Z)
		}
		return err == nil
	})
	return err
}

type pcdHeader struct {
	fields []string
	width  int
	points int
	binary bool
}

// ReadPCD reads a point cloud of the layout ToPCD writes.
func ReadPCD(inRaw io.Reader) (PointCloud, error) {
	in := bufio.NewReader(inRaw)
	header := pcdHeader{}
	for {
		line, err := in.ReadString('\n')
		if err != nil {
			return nil, errors.Wrap(err, "error reading pcd header")
		}
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) < 2 {
			return nil, errors.Errorf("unexpected pcd header line %q", line)
		}
		key, value := tokens[0], tokens[1]
		switch key {
		case "FIELDS":
			header.fields = tokens[1:]
			if len(header.fields) != 3 || header.fields[0] != "x" || header.fields[1] != "y" || header.fields[2] != "z" {
				return nil, errors.Errorf("unsupported pcd fields %v", header.fields)
			}
		case "WIDTH":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid pcd WIDTH %q", value)
			}
			header.width = n
		case "POINTS":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid pcd POINTS %q", value)
			}
			header.points = n
		case "DATA":
			switch value {
			case "ascii":
				header.binary = false
			case "binary":
				header.binary = true
			default:
				return nil, errors.Errorf("unsupported pcd data encoding %q", value)
			}
		case "VERSION", "SIZE", "TYPE", "COUNT", "HEIGHT", "VIEWPOINT":
			// accepted but not needed for the fixed x y z layout
		default:
			return nil, errors.Errorf("unexpected pcd header key %q", key)
		}
		if key == "DATA" {
			break
		}
	}
	if header.binary {
		return readPCDBinary(in, header)
	}
	return readPCDAscii(in, header)
}

func readPCDAscii(in *bufio.Reader, header pcdHeader) (PointCloud, error) {
	cloud := NewWithPrealloc(header.points)
	for i := 0; i < header.points; i++ {
		line, err := in.ReadString('\n')
		if err != nil {
			return nil, errors.Wrapf(err, "error reading pcd point %d", i)
		}
		tokens := strings.Fields(line)
		if len(tokens) != 3 {
			return nil, errors.Errorf("unexpected number of fields in pcd point %q", line)
		}
		coords := make([]float64, 3)
		for j, token := range tokens {
			v, err := strconv.ParseFloat(token, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid pcd coordinate %q", token)
			}
			coords[j] = v
		}
		if err := cloud.Set(r3.Vector{X: coords[0], Y: coords[1], Z: coords[2]}); err != nil {
			return nil, err
		}
	}
	return cloud, nil
}

func readPCDBinary(in *bufio.Reader, header pcdHeader) (PointCloud, error) {
	cloud := NewWithPrealloc(header.points)
	buf := make([]byte, 12)
	for i := 0; i < header.points; i++ {
		if _, err := io.ReadFull(in, buf); err != nil {
			return nil, errors.Wrapf(err, "error reading pcd point %d", i)
		}
		p := r3.Vector{
			X: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf))),
			Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[4:]))),
			Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[8:]))),
		}
		if err := cloud.Set(p); err != nil {
			return nil, err
		}
	}
	return cloud, nil
}
