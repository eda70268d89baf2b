// Package pipeline runs the per-tick head-tracking loop:
// frame source → selector → head anchor → camera solver → renderer,
// with the tilt controller driven by the same clock.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/teslashibe/go-fishtank/pkg/camera"
	"github.com/teslashibe/go-fishtank/pkg/sensor"
	"github.com/teslashibe/go-fishtank/pkg/skeleton"
	"github.com/teslashibe/go-fishtank/pkg/tilt"
	"github.com/teslashibe/go-fishtank/pkg/tracking"
)

// Renderer consumes the solved camera once per tick. Render must not block.
type Renderer interface {
	Render(state camera.State)
}

// Observer receives a snapshot after every tick. Observe must not block.
type Observer interface {
	Observe(snap Snapshot)
}

// connectivity is implemented by sources that can be offline.
type connectivity interface {
	Connected() bool
}

// linkStats is implemented by sources that count their link traffic.
type linkStats interface {
	Stats() sensor.Stats
}

// Deps are the collaborators injected at construction.
type Deps struct {
	Source   skeleton.Source // Required
	Device   tilt.Device     // Required
	Cameras  *camera.Manager // Defaults to camera.NewManager()
	Renderer Renderer        // Optional
	Observer Observer        // Optional
}

// Config holds loop settings.
type Config struct {
	TickRate     time.Duration
	Tracking     tracking.Config
	Tilt         tilt.Config
	CommandQueue int // Buffered tilt commands between ticks
}

// DefaultConfig returns a 30Hz loop with raw head tracking.
func DefaultConfig() Config {
	return Config{
		TickRate:     33 * time.Millisecond,
		Tracking:     tracking.DefaultConfig(),
		Tilt:         tilt.DefaultConfig(),
		CommandQueue: 16,
	}
}

// Pipeline owns every piece of per-tick state. Only Tick mutates it.
type Pipeline struct {
	config Config
	logger *slog.Logger

	source   skeleton.Source
	cameras  *camera.Manager
	renderer Renderer
	observer Observer

	selector *tracking.Selector
	anchor   *tracking.HeadAnchor
	solver   *camera.Solver
	tilt     *tilt.Controller

	commands chan tilt.Command

	tickMu        sync.Mutex
	tick          uint64
	cameraVersion uint64
	frame         skeleton.Frame
	hasFrame      bool
	selection     tracking.Selection
	anchorStatus  tracking.AnchorStatus

	snapMu sync.RWMutex
	last   Snapshot
}

// New wires a pipeline.
func New(deps Deps, cfg Config, logger *slog.Logger) (*Pipeline, error) {
	if deps.Source == nil {
		return nil, errors.New("pipeline: frame source is required")
	}
	if deps.Device == nil {
		return nil, errors.New("pipeline: tilt device is required")
	}
	if cfg.TickRate <= 0 {
		return nil, errors.New("pipeline: tick rate must be positive")
	}
	if cfg.CommandQueue <= 0 {
		cfg.CommandQueue = DefaultConfig().CommandQueue
	}
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Cameras == nil {
		deps.Cameras = camera.NewManager()
	}

	camCfg, version := deps.Cameras.Snapshot()
	solver, err := camera.NewSolver(camCfg)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		config:        cfg,
		logger:        logger.With("component", "pipeline"),
		source:        deps.Source,
		cameras:       deps.Cameras,
		renderer:      deps.Renderer,
		observer:      deps.Observer,
		selector:      tracking.NewSelector(deps.Source, logger.With("component", "selector")),
		anchor:        tracking.NewHeadAnchor(cfg.Tracking, logger.With("component", "anchor")),
		solver:        solver,
		tilt:          tilt.NewController(deps.Device, cfg.Tilt, logger),
		commands:      make(chan tilt.Command, cfg.CommandQueue),
		cameraVersion: version,
	}
	return p, nil
}

// Submit queues a tilt command for the next tick.
// Returns false if the queue is full.
func (p *Pipeline) Submit(cmd tilt.Command) bool {
	select {
	case p.commands <- cmd:
		return true
	default:
		p.logger.Warn("tilt command dropped, queue full", "command", cmd)
		return false
	}
}

// Cameras returns the runtime camera tuning handle.
func (p *Pipeline) Cameras() *camera.Manager {
	return p.cameras
}

// Snapshot returns the result of the most recent tick.
func (p *Pipeline) Snapshot() Snapshot {
	p.snapMu.RLock()
	defer p.snapMu.RUnlock()
	return p.last
}

// Run ticks at the configured rate until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) {
	ticker := time.NewTicker(p.config.TickRate)
	defer ticker.Stop()

	p.logger.Info("pipeline started", "tick_rate", p.config.TickRate, "smoothing", p.config.Tracking.Smoothing)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopped", "ticks", p.Snapshot().Tick)
			return
		case now := <-ticker.C:
			p.Tick(now, nil)
		}
	}
}

// drain collects queued commands without blocking.
func (p *Pipeline) drain() []tilt.Command {
	var cmds []tilt.Command
	for {
		select {
		case cmd := <-p.commands:
			cmds = append(cmds, cmd)
		default:
			return cmds
		}
	}
}

// Tick runs one update. Queued commands from Submit are applied before cmds.
// now must not go backwards between calls.
func (p *Pipeline) Tick(now time.Time, cmds []tilt.Command) Snapshot {
	p.tickMu.Lock()
	defer p.tickMu.Unlock()

	cmds = append(p.drain(), cmds...)

	p.tick++
	p.applyCameraConfig()

	var displacement mgl64.Vec3
	if frame, ok := p.source.PollSkeletons(); ok {
		p.frame, p.hasFrame = frame, true
		p.selection = p.selector.Select(frame)
		displacement, p.anchorStatus = p.anchor.Update(p.selection)
	} else {
		// No frame: hold everything, recompute the camera from the held displacement.
		displacement = p.anchor.Displacement()
		p.selection.Changed = false
		if p.anchor.Established() {
			p.anchorStatus = tracking.AnchorHeld
		}
		p.logger.Debug("no skeleton frame", "tick", p.tick)
	}

	state := p.solver.Solve(displacement)
	if state.Degenerate {
		p.logger.Debug("degenerate eye, using fallback", "tick", p.tick, "displacement", displacement)
	}
	if p.renderer != nil {
		p.renderer.Render(state)
	}

	for _, cmd := range cmds {
		p.tilt.Command(cmd, now)
	}
	outcome := p.tilt.Tick(now)

	snap := p.snapshot(now, displacement, state, outcome)

	p.snapMu.Lock()
	p.last = snap
	p.snapMu.Unlock()

	if p.observer != nil {
		p.observer.Observe(snap)
	}
	return snap
}

// applyCameraConfig picks up tuning changes at the tick boundary.
func (p *Pipeline) applyCameraConfig() {
	cfg, version := p.cameras.Snapshot()
	if version == p.cameraVersion {
		return
	}
	if err := p.solver.SetConfig(cfg); err != nil {
		p.logger.Warn("camera config rejected", "error", err, "version", version)
	} else {
		p.logger.Info("camera config applied", "version", version)
	}
	p.cameraVersion = version
}

func (p *Pipeline) snapshot(now time.Time, displacement mgl64.Vec3, state camera.State, outcome tilt.Outcome) Snapshot {
	baseline, established := p.anchor.Baseline()
	snap := Snapshot{
		Tick:             p.tick,
		Time:             now,
		HasFrame:         p.hasFrame,
		Frame:            p.frame.Number,
		Candidates:       len(p.frame.Skeletons),
		TrackedPlayers:   p.frame.Followable(),
		Selected:         p.selection.ID,
		Selecting:        p.selection.Valid,
		SelectionChanged: p.selection.Changed,
		Session:          p.selection.Session,
		Anchor:           p.anchorStatus,
		AnchorState:      p.anchorStatus.String(),
		Established:      established,
		Baseline:         baseline,
		Displacement:     displacement,
		Camera:           state,
		CameraVersion:    p.cameraVersion,
		Tilt:             p.tilt.Status(now),
		TiltOutcome:      outcome,
		SensorConnected:  true,
	}
	if c, ok := p.source.(connectivity); ok {
		snap.SensorConnected = c.Connected()
	}
	if l, ok := p.source.(linkStats); ok {
		st := l.Stats()
		snap.Sensor = &st
	}
	return snap
}
