// Package camera turns the viewer's head displacement into an off-axis
// view/projection pair, so the display behaves like a window into the scene.
//
// Three coordinate spaces meet here:
//   - sensor space: metres, as reported by the skeleton stream
//   - window space: units of display height, eye relative to the window centre
//   - scene space: whatever units the rendered models use
package camera

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("invalid camera config")

// Config holds the viewing geometry. Fields are tunable at runtime through Manager.
type Config struct {
	// === Projection ===
	Aspect float64 `json:"aspect"` // Viewport width / height
	Near   float64 `json:"near"`   // Near plane distance (scene units)
	Far    float64 `json:"far"`    // Far plane distance (scene units)

	// === Physical window ===
	// WindowHeight is the display's visible height in metres.
	// Sensor displacement is divided by it to get window units.
	WindowHeight float64 `json:"window_height_m"`

	// ViewDistance is the neutral eye-to-window distance in window units.
	// A head at the anchor baseline sees the window from here.
	ViewDistance float64 `json:"view_distance"`

	// FallbackDistance replaces the eye distance when it is degenerate.
	FallbackDistance float64 `json:"fallback_distance"`

	// MirrorX flips lateral motion: the sensor faces the viewer, so its +X
	// is the viewer's left.
	MirrorX bool `json:"mirror_x"`

	// === Scene ===
	WorldScale float64    `json:"world_scale"` // Scene units per window unit
	Anchor     mgl64.Vec3 `json:"anchor"`      // Camera position at zero displacement
	Target     mgl64.Vec3 `json:"target"`      // Look-at point at zero displacement
}

// MinEyeDistance is the smallest eye-to-window distance the solver accepts.
const MinEyeDistance = 1e-6

// DefaultConfig returns geometry for a desktop monitor viewed from ~60cm.
func DefaultConfig() Config {
	return Config{
		Aspect: 1280.0 / 768.0,
		Near:   1,
		Far:    100000,

		WindowHeight:     0.3, // 0.3m tall monitor
		ViewDistance:     2.0, // 0.6m from the screen
		FallbackDistance: 2.0,
		MirrorX:          true,

		WorldScale: 150,
		Anchor:     mgl64.Vec3{0, 0, 0},
		Target:     mgl64.Vec3{0, 0, 200},
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errs []string

	if !positive(c.Aspect) {
		errs = append(errs, "aspect must be positive")
	}
	if !positive(c.Near) {
		errs = append(errs, "near must be positive")
	}
	if !(c.Far > c.Near) || math.IsInf(c.Far, 0) {
		errs = append(errs, "far must be finite and greater than near")
	}
	if !positive(c.WindowHeight) {
		errs = append(errs, "window_height_m must be positive")
	}
	if c.ViewDistance < 0 || math.IsNaN(c.ViewDistance) || math.IsInf(c.ViewDistance, 0) {
		errs = append(errs, "view_distance must be zero or positive")
	}
	if !(c.FallbackDistance > MinEyeDistance) || math.IsInf(c.FallbackDistance, 0) {
		errs = append(errs, "fallback_distance must be positive")
	}
	if !positive(c.WorldScale) {
		errs = append(errs, "world_scale must be positive")
	}
	if c.Anchor.ApproxEqual(c.Target) {
		errs = append(errs, "anchor and target must differ")
	}

	return errs
}

// Eye converts a sensor-space head displacement (metres) into the eye offset
// in window units: X/Y relative to the window centre, Z the distance to it.
func (c Config) Eye(displacement mgl64.Vec3) mgl64.Vec3 {
	x := displacement.X() / c.WindowHeight
	if c.MirrorX {
		x = -x
	}
	y := displacement.Y() / c.WindowHeight
	z := c.ViewDistance + displacement.Z()/c.WindowHeight
	return mgl64.Vec3{x, y, z}
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
