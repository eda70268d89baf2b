package tracking

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/teslashibe/go-fishtank/pkg/skeleton"
)

// AnchorStatus describes what the head anchor did on a tick.
type AnchorStatus int

const (
	// AnchorIdle: no anchor and nothing to establish it from.
	AnchorIdle AnchorStatus = iota
	// AnchorEstablished: the baseline was set this tick.
	AnchorEstablished
	// AnchorTracking: displacement recomputed from a tracked head.
	AnchorTracking
	// AnchorHeld: head momentarily untracked, displacement held.
	AnchorHeld
)

func (s AnchorStatus) String() string {
	switch s {
	case AnchorEstablished:
		return "established"
	case AnchorTracking:
		return "tracking"
	case AnchorHeld:
		return "held"
	default:
		return "idle"
	}
}

// HeadAnchor keeps the neutral head position of the followed viewer and
// measures how far the head has moved from it.
//
// The baseline is only written on the unestablished → established
// transition. Recentering requires a selection change.
type HeadAnchor struct {
	logger *slog.Logger
	filter *HeadFilter

	baseline     mgl64.Vec3
	established  bool
	displacement mgl64.Vec3
}

// NewHeadAnchor creates an unestablished anchor.
func NewHeadAnchor(config Config, logger *slog.Logger) *HeadAnchor {
	if logger == nil {
		logger = slog.Default()
	}
	a := &HeadAnchor{logger: logger}
	if config.Smoothing {
		a.filter = NewHeadFilter(config)
	}
	return a
}

// Invalidate drops the baseline. The last displacement is kept.
func (a *HeadAnchor) Invalidate() {
	a.established = false
}

// Established reports whether a baseline is set.
func (a *HeadAnchor) Established() bool {
	return a.established
}

// Baseline returns the neutral head position and whether it is set.
func (a *HeadAnchor) Baseline() (mgl64.Vec3, bool) {
	return a.baseline, a.established
}

// Displacement returns the most recent head displacement.
func (a *HeadAnchor) Displacement() mgl64.Vec3 {
	return a.displacement
}

// Update runs one tick after selection and returns the displacement.
func (a *HeadAnchor) Update(sel Selection) (mgl64.Vec3, AnchorStatus) {
	if sel.Changed {
		a.Invalidate()
	}
	if !sel.Valid {
		return a.displacement, AnchorIdle
	}

	head := sel.Skeleton.Head()
	if head.State != skeleton.JointTracked {
		if a.established {
			return a.displacement, AnchorHeld
		}
		return a.displacement, AnchorIdle
	}

	if !a.established {
		a.baseline = head.Position
		a.established = true
		a.displacement = mgl64.Vec3{}
		if a.filter != nil {
			a.filter.Reset(head.Position)
		}
		a.logger.Debug("head anchor established",
			"skeleton", sel.ID,
			"x", head.Position.X(), "y", head.Position.Y(), "z", head.Position.Z())
		return a.displacement, AnchorEstablished
	}

	pos := head.Position
	if a.filter != nil {
		pos = a.filter.Filter(pos)
	}
	a.displacement = pos.Sub(a.baseline)
	return a.displacement, AnchorTracking
}
