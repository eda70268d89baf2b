package sensor

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/teslashibe/go-fishtank/pkg/skeleton"
)

// SimConfig describes the simulated room.
type SimConfig struct {
	Viewers   int           // People in view
	Depth     float64       // Depth of the nearest viewer (metres)
	Spacing   float64       // Extra depth per additional viewer (metres)
	HeadY     float64       // Head height relative to the sensor (metres)
	Sway      float64       // Lateral sway amplitude (metres)
	Period    time.Duration // Sway period
	FrameRate float64       // Frames per second of simulated time

	MaxAngle int // Tilt limit (degrees)
	// RejectAbove refuses tilt requests with |angle| greater than this.
	// 0 disables rejection.
	RejectAbove int
}

// DefaultSimConfig returns one viewer swaying gently at arm's length.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		Viewers:   1,
		Depth:     1.5,
		Spacing:   0.8,
		HeadY:     0.35,
		Sway:      0.12,
		Period:    6 * time.Second,
		FrameRate: 30,
		MaxAngle:  DefaultMaxAngle,
	}
}

// Sim is a deterministic skeleton source and tilt motor.
// Each PollSkeletons call advances simulated time by one frame.
type Sim struct {
	mu         sync.Mutex
	cfg        SimConfig
	frame      uint64
	start      time.Time
	restricted int
	hints      []int

	angle    int
	commands []int
	rejected int
}

// NewSim creates a simulator.
func NewSim(cfg SimConfig) *Sim {
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 30
	}
	if cfg.Period <= 0 {
		cfg.Period = DefaultSimConfig().Period
	}
	return &Sim{
		cfg:   cfg,
		start: time.Date(2012, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

// PollSkeletons produces the next simulated frame. Always returns true.
func (s *Sim) PollSkeletons() (skeleton.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frame++
	elapsed := time.Duration(float64(s.frame) / s.cfg.FrameRate * float64(time.Second))
	phase := 2 * math.Pi * elapsed.Seconds() / s.cfg.Period.Seconds()

	f := skeleton.Frame{
		Number:    s.frame,
		Timestamp: s.start.Add(elapsed),
		Skeletons: make([]skeleton.Skeleton, 0, s.cfg.Viewers),
	}
	for i := 0; i < s.cfg.Viewers; i++ {
		id := i + 1
		depth := s.cfg.Depth + float64(i)*s.cfg.Spacing
		sway := s.cfg.Sway * math.Sin(phase+float64(i))
		bob := 0.02 * math.Sin(2*phase)

		state := skeleton.Tracked
		if s.restricted != 0 && s.restricted != id {
			state = skeleton.PositionOnly
		}
		f.Skeletons = append(f.Skeletons, s.body(id, state, mgl64.Vec3{sway, bob, depth}))
	}
	return f, true
}

func (s *Sim) body(id int, state skeleton.TrackingState, pos mgl64.Vec3) skeleton.Skeleton {
	jointState := skeleton.JointTracked
	if state != skeleton.Tracked {
		jointState = skeleton.JointNotTracked
	}
	head := pos.Add(mgl64.Vec3{0, s.cfg.HeadY, -0.05})
	return skeleton.Skeleton{
		ID:       id,
		State:    state,
		Position: pos,
		Joints: map[skeleton.JointType]skeleton.Joint{
			skeleton.HipCenter:      {Type: skeleton.HipCenter, Position: pos.Sub(mgl64.Vec3{0, 0.3, 0}), State: jointState},
			skeleton.ShoulderCenter: {Type: skeleton.ShoulderCenter, Position: pos.Add(mgl64.Vec3{0, 0.15, 0}), State: jointState},
			skeleton.Head:           {Type: skeleton.Head, Position: head, State: jointState},
		},
	}
}

// RestrictTrackingTo fully tracks only id; others drop to PositionOnly.
func (s *Sim) RestrictTrackingTo(id int) {
	s.mu.Lock()
	s.restricted = id
	s.hints = append(s.hints, id)
	s.mu.Unlock()
}

// Hints returns every tracking hint received.
func (s *Sim) Hints() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.hints...)
}

// SetViewers changes how many people are in view.
func (s *Sim) SetViewers(n int) {
	s.mu.Lock()
	s.cfg.Viewers = n
	s.mu.Unlock()
}

// CurrentAngle returns the motor angle.
func (s *Sim) CurrentAngle() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.angle
}

// MaxAngle returns the tilt limit.
func (s *Sim) MaxAngle() int {
	return s.cfg.MaxAngle
}

// SetAngle moves the motor, or refuses per RejectAbove.
func (s *Sim) SetAngle(degrees int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commands = append(s.commands, degrees)
	if s.cfg.RejectAbove > 0 && (degrees > s.cfg.RejectAbove || degrees < -s.cfg.RejectAbove) {
		s.rejected++
		return fmt.Errorf("tilt %d outside motor range ±%d", degrees, s.cfg.RejectAbove)
	}
	s.angle = degrees
	return nil
}

// Rejections returns how many SetAngle calls were refused.
func (s *Sim) Rejections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rejected
}

// Commands returns every angle passed to SetAngle.
func (s *Sim) Commands() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.commands...)
}
