package placement

import (
	"math"
	"os"

	"github.com/aukilabs/entitygrid/grid"
	"github.com/aukilabs/entitygrid/models"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Settings describe how grid cells map to world coordinates.
type Settings struct {
	// The world size of a cell along the x and z axes.
	CellSize float32 `yaml:"cell_size"`

	// The world height at which objects are placed.
	UpOffset float32 `yaml:"up_offset"`
}

func DefaultSettings() Settings {
	return Settings{
		CellSize: 1,
	}
}

// LoadSettings reads settings from a YAML file. Fields missing from the file
// keep their default value.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	raw, err := os.ReadFile(path)
	if err != nil {
		return s, errors.New("reading placement settings failed").
			WithTag("path", path).
			Wrap(err)
	}

	if err := yaml.Unmarshal(raw, &s); err != nil {
		return s, errors.New("decoding placement settings failed").
			WithTag("path", path).
			Wrap(err)
	}

	return s, s.Validate()
}

func (s Settings) Validate() error {
	if s.CellSize <= 0 || math.IsInf(float64(s.CellSize), 0) || math.IsNaN(float64(s.CellSize)) {
		return errors.New("cell size must be a positive number").
			WithTag("cell_size", s.CellSize)
	}

	if math.IsInf(float64(s.UpOffset), 0) || math.IsNaN(float64(s.UpOffset)) {
		return errors.New("up offset must be a finite number").
			WithTag("up_offset", s.UpOffset)
	}
	return nil
}

// WorldPose returns the pose of an object placed at the given cell: the cell
// x and y become the world x and z, and the rotation turns around the world
// up axis.
func (s Settings) WorldPose(p grid.Position, r grid.Rotation) models.Pose {
	half := float64(r.Angle()) / 2

	return models.Pose{
		PX: float32(p.X) * s.CellSize,
		PY: s.UpOffset,
		PZ: float32(p.Y) * s.CellSize,
		RY: float32(math.Sin(half)),
		RW: float32(math.Cos(half)),
	}
}
