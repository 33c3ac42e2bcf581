package grid

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Rotation is the facing of an occupant. The zero value is Up.
type Rotation uint8

const (
	Up Rotation = iota
	Down
	Left
	Right
)

// Angles in radians.
const (
	upAngle    float32 = 0
	rightAngle float32 = math.Pi / 2
	downAngle  float32 = math.Pi
	leftAngle  float32 = 3 * math.Pi / 2
)

var rotationNames = [...]string{
	Up:    "up",
	Down:  "down",
	Left:  "left",
	Right: "right",
}

// Next rotates clockwise: Up, Right, Down, Left, Up.
func (r Rotation) Next() Rotation {
	switch r {
	case Up:
		return Right
	case Right:
		return Down
	case Down:
		return Left
	case Left:
		return Up
	default:
		return r
	}
}

// Previous rotates counter-clockwise. It is the inverse of Next.
func (r Rotation) Previous() Rotation {
	switch r {
	case Up:
		return Left
	case Left:
		return Down
	case Down:
		return Right
	case Right:
		return Up
	default:
		return r
	}
}

func (r Rotation) Opposite() Rotation {
	switch r {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	default:
		return r
	}
}

// Angle returns the rotation in radians: Up is 0, Right π/2, Down π and Left
// 3π/2.
func (r Rotation) Angle() float32 {
	switch r {
	case Right:
		return rightAngle
	case Down:
		return downAngle
	case Left:
		return leftAngle
	default:
		return upAngle
	}
}

// Direction returns the cardinal direction the rotation faces.
func (r Rotation) Direction() Direction {
	switch r {
	case Right:
		return East
	case Down:
		return South
	case Left:
		return West
	default:
		return North
	}
}

func (r Rotation) IsValid() bool {
	return r <= Right
}

func (r Rotation) String() string {
	if !r.IsValid() {
		return fmt.Sprintf("rotation(%d)", uint8(r))
	}
	return rotationNames[r]
}

func (r Rotation) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, errors.New("invalid rotation").WithTag("rotation", uint8(r))
	}
	return []byte(rotationNames[r]), nil
}

func (r *Rotation) UnmarshalText(b []byte) error {
	v, err := ParseRotation(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// ParseRotation parses the text form of a rotation (up, down, left, right).
func ParseRotation(s string) (Rotation, error) {
	for i, name := range rotationNames {
		if name == s {
			return Rotation(i), nil
		}
	}
	return Up, errors.New("unknown rotation").WithTag("rotation", s)
}

// RandomRotation returns a rotation chosen uniformly among the four values.
func RandomRotation() Rotation {
	switch rand.IntN(4) {
	case 1:
		return Right
	case 2:
		return Down
	case 3:
		return Left
	default:
		return Up
	}
}
