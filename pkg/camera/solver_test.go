package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const floatTolerance = 1e-9

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func TestOffAxis_CenteredEyeIsSymmetric(t *testing.T) {
	for _, dz := range []float64{0.25, 1, 2, 7.5} {
		f := OffAxis(mgl64.Vec3{0, 0, dz}, 1280.0/768.0, 1, 100000)
		if !floatEquals(f.Left, -f.Right) {
			t.Errorf("dz=%v: left %v != -right %v", dz, f.Left, f.Right)
		}
		if !floatEquals(f.Bottom, -f.Top) {
			t.Errorf("dz=%v: bottom %v != -top %v", dz, f.Bottom, f.Top)
		}
		if !f.Symmetric() {
			t.Errorf("dz=%v: Symmetric() = false", dz)
		}

		m := f.Matrix()
		if !floatEquals(m.At(0, 2), 0) || !floatEquals(m.At(1, 2), 0) {
			t.Errorf("dz=%v: projection has shear terms %v, %v", dz, m.At(0, 2), m.At(1, 2))
		}
	}
}

func TestOffAxis_Bounds(t *testing.T) {
	f := OffAxis(mgl64.Vec3{0.2, 0.1, 2}, 2, 1, 10)

	want := Frustum{
		Left:   (-1 + 0.2) / 2,
		Right:  (1 + 0.2) / 2,
		Bottom: (-0.5 - 0.1) / 2,
		Top:    (0.5 - 0.1) / 2,
		Near:   1,
		Far:    10,
	}
	if f != want {
		t.Errorf("OffAxis = %+v, want %+v", f, want)
	}
	if f.Symmetric() {
		t.Error("displaced eye should shear the frustum")
	}
}

func TestSolve_NeutralDisplacement(t *testing.T) {
	cfg := DefaultConfig()
	s := Solve(cfg, mgl64.Vec3{})

	if s.Degenerate {
		t.Fatal("neutral eye should not be degenerate")
	}
	if !s.Frustum.Symmetric() {
		t.Errorf("neutral eye should give a symmetric frustum: %+v", s.Frustum)
	}
	if !s.Position.ApproxEqual(cfg.Anchor) {
		t.Errorf("Position = %v, want anchor %v", s.Position, cfg.Anchor)
	}
	if !s.LookAt.ApproxEqual(cfg.Target) {
		t.Errorf("LookAt = %v, want target %v", s.LookAt, cfg.Target)
	}
	if !Finite(s.View) || !Finite(s.Projection) {
		t.Error("matrices must be finite")
	}
}

func TestSolve_DepthOnlyIsSymmetric(t *testing.T) {
	cfg := DefaultConfig()
	for _, dz := range []float64{-0.3, 0.1, 0.5} {
		s := Solve(cfg, mgl64.Vec3{0, 0, dz})
		if !s.Frustum.Symmetric() {
			t.Errorf("dz=%v: frustum should be symmetric: %+v", dz, s.Frustum)
		}
		if !floatEquals(s.LookAt.X(), cfg.Target.X()) || !floatEquals(s.LookAt.Y(), cfg.Target.Y()) {
			t.Errorf("dz=%v: depth must not move the look-at point, got %v", dz, s.LookAt)
		}
	}
}

func TestSolve_ZeroDepthUsesFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ViewDistance = 0

	s := Solve(cfg, mgl64.Vec3{})

	if !s.Degenerate {
		t.Error("zero eye distance should be flagged degenerate")
	}
	if !floatEquals(s.Eye.Z(), cfg.FallbackDistance) {
		t.Errorf("Eye.Z = %v, want fallback %v", s.Eye.Z(), cfg.FallbackDistance)
	}
	if !Finite(s.Projection) {
		t.Errorf("projection contains NaN/Inf: %v", s.Projection)
	}
	if !Finite(s.View) {
		t.Errorf("view contains NaN/Inf: %v", s.View)
	}
}

func TestSolve_NonFiniteDisplacement(t *testing.T) {
	cfg := DefaultConfig()
	for _, d := range []mgl64.Vec3{
		{math.NaN(), 0, 0},
		{0, math.Inf(1), 0},
		{0, 0, -cfg.ViewDistance * cfg.WindowHeight}, // eye on the window plane
		{0, 0, -10},                                  // eye behind the window
	} {
		s := Solve(cfg, d)
		if !s.Degenerate {
			t.Errorf("%v: expected degenerate", d)
		}
		if !Finite(s.Projection) || !Finite(s.View) {
			t.Errorf("%v: matrices must stay finite", d)
		}
	}
}

func TestSolve_LateralShiftsTargetAndShears(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MirrorX = false

	s := Solve(cfg, mgl64.Vec3{0.03, 0, 0}) // 3cm right

	wantShift := 0.03 / cfg.WindowHeight * cfg.WorldScale
	if !floatEquals(s.Position.X(), cfg.Anchor.X()+wantShift) {
		t.Errorf("Position.X = %v, want %v", s.Position.X(), wantShift)
	}
	if !floatEquals(s.LookAt.X(), cfg.Target.X()+wantShift) {
		t.Errorf("LookAt.X = %v, want %v", s.LookAt.X(), wantShift)
	}
	if !floatEquals(s.LookAt.Z(), cfg.Target.Z()) {
		t.Errorf("LookAt.Z = %v, want %v", s.LookAt.Z(), cfg.Target.Z())
	}
	if s.Frustum.Symmetric() {
		t.Error("lateral displacement should shear the frustum")
	}
	if !(s.Frustum.Right > -s.Frustum.Left) {
		t.Errorf("positive dx should widen the right side: %+v", s.Frustum)
	}
}

func TestSolve_MirrorX(t *testing.T) {
	cfg := DefaultConfig()
	d := mgl64.Vec3{0.05, 0.02, 0}

	cfg.MirrorX = true
	mirrored := Solve(cfg, d)
	cfg.MirrorX = false
	plain := Solve(cfg, d)

	if !floatEquals(mirrored.Eye.X(), -plain.Eye.X()) {
		t.Errorf("mirrored Eye.X = %v, want %v", mirrored.Eye.X(), -plain.Eye.X())
	}
	if !floatEquals(mirrored.Eye.Y(), plain.Eye.Y()) {
		t.Errorf("mirror must not touch Y: %v vs %v", mirrored.Eye.Y(), plain.Eye.Y())
	}
}

func TestSolve_LeaningInMovesTowardTarget(t *testing.T) {
	cfg := DefaultConfig()
	near := Solve(cfg, mgl64.Vec3{0, 0, -0.1})
	far := Solve(cfg, mgl64.Vec3{0, 0, 0.1})

	dNear := near.LookAt.Sub(near.Position).Len()
	dFar := far.LookAt.Sub(far.Position).Len()
	if !(dNear < dFar) {
		t.Errorf("closer head should put the camera closer to the target: near=%v far=%v", dNear, dFar)
	}
	// A closer eye sees a wider window.
	if !(near.Frustum.Top > far.Frustum.Top) {
		t.Errorf("closer eye should widen the frustum: near=%v far=%v", near.Frustum.Top, far.Frustum.Top)
	}
}

func TestSolve_Deterministic(t *testing.T) {
	cfg := DefaultConfig()
	d := mgl64.Vec3{0.04, -0.02, 0.05}
	a := Solve(cfg, d)
	b := Solve(cfg, d)
	if a != b {
		t.Error("Solve should be a pure function of its inputs")
	}
}

func TestNewSolver_RejectsInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Near = 0
	if _, err := NewSolver(cfg); err == nil {
		t.Error("expected error for zero near plane")
	}

	s, err := NewSolver(DefaultConfig())
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}
	if err := s.SetConfig(cfg); err == nil {
		t.Error("SetConfig should reject invalid config")
	}
	if s.Config().Near != DefaultConfig().Near {
		t.Error("rejected config must not be applied")
	}
}

func TestSolve_OverflowingPlacementFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	// The eye is finite but the scene offset overflows after WorldScale.
	s := Solve(cfg, mgl64.Vec3{1e306, 0, 0})

	if !s.Degenerate {
		t.Error("expected degenerate")
	}
	if !Finite(s.Projection) || !Finite(s.View) {
		t.Error("matrices must stay finite")
	}
	if s.Position != cfg.Anchor || s.LookAt != cfg.Target {
		t.Errorf("expected fallback placement, got position=%v look_at=%v", s.Position, s.LookAt)
	}
}
