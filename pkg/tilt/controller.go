// Package tilt throttles tilt-angle commands to the sensor's motor.
// The motor has a mechanical settle time and tolerates only a few commands
// per minute, so user requests are accumulated and dispatched on a cooldown.
package tilt

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Device is the motorized sensor mount.
type Device interface {
	CurrentAngle() int
	MaxAngle() int
	SetAngle(degrees int) error
}

// Command is a user tilt request.
type Command int

const (
	Down Command = -1
	Up   Command = 1
)

func (c Command) String() string {
	switch c {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return fmt.Sprintf("command(%d)", int(c))
	}
}

// ParseCommand maps "up"/"down" to a Command.
func ParseCommand(s string) (Command, bool) {
	switch s {
	case "up":
		return Up, true
	case "down":
		return Down, true
	}
	return 0, false
}

// State of the throttling state machine.
type State int

const (
	Idle State = iota
	PendingRequest
	Cooldown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PendingRequest:
		return "pending"
	case Cooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

// OutcomeKind tags the result of one Tick.
type OutcomeKind int

const (
	OutcomeNone       OutcomeKind = iota // Nothing pending
	OutcomeThrottled                     // Pending, cooldown not expired
	OutcomeUnchanged                     // Pending target equals the commanded angle
	OutcomeDispatched                    // Angle sent to the device
	OutcomeRejected                      // Device refused or faulted
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNone:
		return "none"
	case OutcomeThrottled:
		return "throttled"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeDispatched:
		return "dispatched"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Outcome is the result of one Tick.
type Outcome struct {
	Kind  OutcomeKind
	Angle int   // Angle sent, for Dispatched and Rejected
	Err   error // Set for Rejected
}

// Config holds the rate-limit policy.
type Config struct {
	Cooldown    time.Duration // Minimum time between dispatches
	SettleDelay time.Duration // Delay before a command that arrives after an idle cooldown
	Step        int           // Degrees per Up/Down command
}

// DefaultConfig returns the policy for a Kinect-class motor.
func DefaultConfig() Config {
	return Config{
		Cooldown:    30 * time.Second,
		SettleDelay: 2 * time.Second,
		Step:        1,
	}
}

// Status is a read-only view of the controller for UIs.
type Status struct {
	State        State     `json:"-"`
	StateName    string    `json:"state"`
	Target       int       `json:"target"`
	Commanded    int       `json:"commanded"`
	MaxAngle     int       `json:"max_angle"`
	LastDispatch time.Time `json:"last_dispatch,omitzero"`
	NextEligible time.Time `json:"next_eligible,omitzero"`
	Dispatches   uint64    `json:"dispatches"`
	Rejections   uint64    `json:"rejections"`
}

// Controller rate-limits tilt commands to a Device.
// Command and Tick are safe to call from different goroutines.
type Controller struct {
	device Device
	config Config
	logger *slog.Logger

	mu        sync.Mutex
	target    int
	commanded int
	pending   bool

	// baseline is the time the cooldown is measured from.
	baseline   time.Time
	dispatched bool // false until the first dispatch; the first command is not throttled

	lastDispatch time.Time
	dispatches   uint64
	rejections   uint64
}

// NewController creates a controller for device. The current device angle
// seeds both the target and the last commanded angle.
func NewController(device Device, cfg Config, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Step <= 0 {
		cfg.Step = 1
	}
	angle := device.CurrentAngle()
	return &Controller{
		device:    device,
		config:    cfg,
		logger:    logger.With("component", "tilt"),
		target:    angle,
		commanded: angle,
	}
}

// Command adjusts the target by one step and marks it pending.
// Returns the new target.
func (c *Controller) Command(cmd Command, now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A new request steps from the angle the device reports now, which may
	// differ from the seed or from a refused dispatch.
	if !c.pending {
		angle := c.device.CurrentAngle()
		c.target, c.commanded = angle, angle
	}

	limit := c.device.MaxAngle()
	c.target = clamp(c.target+int(cmd)*c.config.Step, -limit, limit)
	c.pending = true

	// A command after a quiet period waits only for the settle delay.
	if c.dispatched && now.Sub(c.baseline) > c.config.Cooldown {
		c.baseline = now.Add(-c.config.Cooldown).Add(c.config.SettleDelay)
	}

	c.logger.Debug("tilt requested", "command", cmd, "target", c.target)
	return c.target
}

// Tick dispatches the pending target if the cooldown allows it.
func (c *Controller) Tick(now time.Time) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.pending {
		return Outcome{Kind: OutcomeNone}
	}
	if c.target == c.commanded {
		c.pending = false
		return Outcome{Kind: OutcomeUnchanged, Angle: c.target}
	}
	if c.dispatched && now.Sub(c.baseline) < c.config.Cooldown {
		return Outcome{Kind: OutcomeThrottled, Angle: c.target}
	}

	angle := c.target
	c.baseline = now
	c.lastDispatch = now
	c.dispatched = true
	c.pending = false

	if err := c.send(angle); err != nil {
		c.rejections++
		c.logger.Warn("tilt rejected", "angle", angle, "error", err, "rejections", c.rejections)
		return Outcome{Kind: OutcomeRejected, Angle: angle, Err: err}
	}

	c.commanded = angle
	c.dispatches++
	c.logger.Info("tilt dispatched", "angle", angle)
	return Outcome{Kind: OutcomeDispatched, Angle: angle}
}

// send calls the device, converting a panic into an error.
func (c *Controller) send(angle int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("device panic: %v", r)
		}
	}()
	return c.device.SetAngle(angle)
}

// State derives the state machine position at now.
func (c *Controller) State(now time.Time) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked(now)
}

func (c *Controller) stateLocked(now time.Time) State {
	switch {
	case c.pending:
		return PendingRequest
	case c.dispatched && now.Sub(c.lastDispatch) < c.config.Cooldown:
		return Cooldown
	default:
		return Idle
	}
}

// Target returns the requested angle.
func (c *Controller) Target() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// Commanded returns the last angle the device accepted.
func (c *Controller) Commanded() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commanded
}

// Status returns a snapshot for display.
func (c *Controller) Status(now time.Time) Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.stateLocked(now)
	s := Status{
		State:        st,
		StateName:    st.String(),
		Target:       c.target,
		Commanded:    c.commanded,
		MaxAngle:     c.device.MaxAngle(),
		LastDispatch: c.lastDispatch,
		Dispatches:   c.dispatches,
		Rejections:   c.rejections,
	}
	if c.pending {
		s.NextEligible = now
		if c.dispatched {
			if next := c.baseline.Add(c.config.Cooldown); next.After(now) {
				s.NextEligible = next
			}
		}
	}
	return s
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
