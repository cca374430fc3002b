package orientation

import (
	"fmt"
	"strings"
)

// Orientation is the physical orientation reported by the device.
type Orientation int

const (
	Unknown Orientation = iota
	Portrait
	PortraitUpsideDown
	LandscapeLeft
	LandscapeRight
)

// DefaultAngle is used for any orientation without an explicit mapping.
const DefaultAngle = 90

// RotationAngle maps a device orientation to the rotation, in degrees, applied
// to both the preview and the output frame stream.
func RotationAngle(o Orientation) int {
	switch o {
	case Portrait:
		return 90
	case PortraitUpsideDown:
		return 270
	case LandscapeLeft:
		return 0
	case LandscapeRight:
		return 180
	default:
		return DefaultAngle
	}
}

func (o Orientation) String() string {
	switch o {
	case Portrait:
		return "portrait"
	case PortraitUpsideDown:
		return "portrait-upside-down"
	case LandscapeLeft:
		return "landscape-left"
	case LandscapeRight:
		return "landscape-right"
	default:
		return "unknown"
	}
}

// Parse accepts the names produced by String. The empty string is Unknown.
func Parse(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unknown":
		return Unknown, nil
	case "portrait":
		return Portrait, nil
	case "portrait-upside-down":
		return PortraitUpsideDown, nil
	case "landscape-left":
		return LandscapeLeft, nil
	case "landscape-right":
		return LandscapeRight, nil
	}
	return Unknown, fmt.Errorf("unknown orientation %q", s)
}
