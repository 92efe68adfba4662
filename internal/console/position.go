package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/sandbox/internal/core/models"
)

const positionFormats = "Supported values are (@p), (x,z), (x,y,z)."

// ErrBadPosition is wrapped by every ParsePosition failure.
var ErrBadPosition = errors.New("cannot parse position")

type positionError struct {
	field string
}

func (e *positionError) Error() string {
	return fmt.Sprintf("Cannot parse %s. %s", e.field, positionFormats)
}

func (e *positionError) Unwrap() error {
	return ErrBadPosition
}

// Position is where a console spawn goes: the player's location or a fixed point.
type Position struct {
	AtPlayer bool
	Point    mgl32.Vec3
}

func (p Position) String() string {
	if p.AtPlayer {
		return "@p"
	}
	return models.FormatVec3(p.Point)
}

// ParsePosition accepts "@p", "x,z" (placed at y = 0) or "x,y,z", optionally
// wrapped in parentheses.
func ParsePosition(input string) (Position, error) {
	input = strings.ToLower(strings.Trim(strings.TrimSpace(input), "()"))
	if input == "@p" {
		return Position{AtPlayer: true}, nil
	}

	parts := strings.Split(input, ",")
	if n := len(parts); n > 1 && strings.TrimSpace(parts[n-1]) == "" {
		parts = parts[:n-1]
	}

	x, ok := parseCoordinate(parts, 0)
	if !ok {
		return Position{}, &positionError{field: "X coordinate"}
	}
	y, ok := parseCoordinate(parts, 1)
	if !ok {
		return Position{}, &positionError{field: "Y/Z coordinate"}
	}

	switch len(parts) {
	case 2:
		return Position{Point: mgl32.Vec3{x, 0, y}}, nil
	case 3:
		z, ok := parseCoordinate(parts, 2)
		if !ok {
			return Position{}, &positionError{field: "Z coordinate"}
		}
		return Position{Point: mgl32.Vec3{x, y, z}}, nil
	default:
		return Position{}, &positionError{field: "position, too many coordinates"}
	}
}

func parseCoordinate(parts []string, i int) (float32, bool) {
	if i >= len(parts) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 32)
	if err != nil {
		return 0, false
	}
	return float32(v), true
}
