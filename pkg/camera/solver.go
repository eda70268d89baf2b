package camera

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// WorldUp is the up vector for every view matrix.
var WorldUp = mgl64.Vec3{0, 1, 0}

// Frustum is an off-center perspective volume at the near plane.
type Frustum struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Top    float64 `json:"top"`
	Near   float64 `json:"near"`
	Far    float64 `json:"far"`
}

// Matrix builds the off-center perspective projection.
func (f Frustum) Matrix() mgl64.Mat4 {
	return mgl64.Frustum(f.Left, f.Right, f.Bottom, f.Top, f.Near, f.Far)
}

// Symmetric reports whether the frustum is centered on the optical axis.
func (f Frustum) Symmetric() bool {
	return mgl64.FloatEqual(f.Left, -f.Right) && mgl64.FloatEqual(f.Bottom, -f.Top)
}

// OffAxis shears a frustum for an eye at (dx, dy, dz) in window units,
// where the window is 1 unit tall and aspect units wide.
// dz must be positive.
func OffAxis(eye mgl64.Vec3, aspect, near, far float64) Frustum {
	dx, dy, dz := eye.X(), eye.Y(), eye.Z()
	return Frustum{
		Left:   near * (-0.5*aspect + dx) / dz,
		Right:  near * (0.5*aspect + dx) / dz,
		Bottom: near * (-0.5 - dy) / dz,
		Top:    near * (0.5 - dy) / dz,
		Near:   near,
		Far:    far,
	}
}

// State is the solved camera for one tick.
type State struct {
	View       mgl64.Mat4 `json:"view"`
	Projection mgl64.Mat4 `json:"projection"`
	Frustum    Frustum    `json:"frustum"`

	Eye      mgl64.Vec3 `json:"eye"`      // Window units
	Position mgl64.Vec3 `json:"position"` // Scene units
	LookAt   mgl64.Vec3 `json:"look_at"`  // Scene units

	// Degenerate is set when the fallback eye replaced an unusable one.
	Degenerate bool `json:"degenerate"`
}

// Solver turns head displacement into view and projection matrices.
// Every Solve is computed from scratch; the only state is the config.
type Solver struct {
	mu     sync.RWMutex
	config Config
}

// NewSolver creates a solver for cfg.
func NewSolver(cfg Config) (*Solver, error) {
	s := &Solver{}
	if err := s.SetConfig(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Config returns the active config.
func (s *Solver) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// SetConfig swaps the geometry used by subsequent Solve calls.
func (s *Solver) SetConfig(cfg Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
	return nil
}

// Solve computes the camera for a sensor-space head displacement in metres.
func (s *Solver) Solve(displacement mgl64.Vec3) State {
	return Solve(s.Config(), displacement)
}

// Solve is the pure form of Solver.Solve.
func Solve(cfg Config, displacement mgl64.Vec3) State {
	eye := cfg.Eye(displacement)
	degenerate := !usable(eye)
	if degenerate {
		eye = mgl64.Vec3{0, 0, cfg.FallbackDistance}
	}

	position, lookAt := cfg.Anchor, cfg.Target
	if !degenerate {
		position, lookAt = place(cfg, eye)
		// Leaning past the target would flip the view.
		if lookAt.Sub(position).Dot(cfg.Target.Sub(cfg.Anchor)) <= 0 {
			degenerate = true
			eye = mgl64.Vec3{0, 0, cfg.FallbackDistance}
			position, lookAt = cfg.Anchor, cfg.Target
		}
	}

	st := build(cfg, eye, position, lookAt, degenerate)
	// A finite eye far enough off axis can still overflow the scene placement.
	if !degenerate && (!Finite(st.View) || !Finite(st.Projection)) {
		st = build(cfg, mgl64.Vec3{0, 0, cfg.FallbackDistance}, cfg.Anchor, cfg.Target, true)
	}
	return st
}

func build(cfg Config, eye, position, lookAt mgl64.Vec3, degenerate bool) State {
	frustum := OffAxis(eye, cfg.Aspect, cfg.Near, cfg.Far)
	return State{
		View:       mgl64.LookAtV(position, lookAt, WorldUp),
		Projection: frustum.Matrix(),
		Frustum:    frustum,
		Eye:        eye,
		Position:   position,
		LookAt:     lookAt,
		Degenerate: degenerate,
	}
}

// place moves the camera with the eye. Lateral motion translates both the
// position and the look-at point; depth motion moves only the position,
// along the anchor-to-target axis (closer to the window means closer to the scene).
func place(cfg Config, eye mgl64.Vec3) (position, lookAt mgl64.Vec3) {
	lateral := mgl64.Vec3{eye.X(), eye.Y(), 0}.Mul(cfg.WorldScale)
	forward := cfg.Target.Sub(cfg.Anchor).Normalize()
	depth := forward.Mul((cfg.ViewDistance - eye.Z()) * cfg.WorldScale)
	return cfg.Anchor.Add(lateral).Add(depth), cfg.Target.Add(lateral)
}

func usable(eye mgl64.Vec3) bool {
	for _, v := range eye {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return eye.Z() > MinEyeDistance
}

// Finite reports whether every entry of m is a real number.
func Finite(m mgl64.Mat4) bool {
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
