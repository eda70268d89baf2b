// Package fishtank wires the head-tracked window together: a skeleton
// source, the per-tick pipeline, and the web front end.
package fishtank

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/teslashibe/go-fishtank/internal/config"
	"github.com/teslashibe/go-fishtank/internal/log"
	"github.com/teslashibe/go-fishtank/pkg/camera"
	"github.com/teslashibe/go-fishtank/pkg/pipeline"
	"github.com/teslashibe/go-fishtank/pkg/sensor"
	"github.com/teslashibe/go-fishtank/pkg/skeleton"
	"github.com/teslashibe/go-fishtank/pkg/tilt"
	"github.com/teslashibe/go-fishtank/pkg/tracking"
	"github.com/teslashibe/go-fishtank/pkg/web"
)

// ConfigError reports a configuration value the app cannot start with.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

// device is what the app needs from a sensor: frames in, tilt out.
type device interface {
	skeleton.Source
	tilt.Device
}

// App is the fishtank application orchestrator.
// It owns every component and their lifecycle.
type App struct {
	config config.App
	base   *slog.Logger // handed to components, which tag themselves
	logger *slog.Logger

	cameras  *camera.Manager
	device   device
	bridge   *sensor.Bridge // nil when simulating
	server   *web.Server
	pipeline *pipeline.Pipeline
}

// New creates an app from cfg. Call Init before Run.
// Components log through the global logger; see internal/log.
func New(cfg config.App) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Field: "app", Message: err.Error()}
	}
	if camera.GetPreset(cfg.CameraPreset) == nil {
		return nil, &ConfigError{
			Field:   "CameraPreset",
			Message: fmt.Sprintf("unknown preset %q (have %v)", cfg.CameraPreset, camera.PresetNames()),
		}
	}
	return &App{
		config: cfg,
		base:   log.L(),
		logger: log.Component("app"),
	}, nil
}

// Init builds the components. Nothing runs until Run.
func (a *App) Init() error {
	cameras, err := a.initCameras()
	if err != nil {
		return fmt.Errorf("camera init: %w", err)
	}
	a.cameras = cameras

	if err := a.initSensor(); err != nil {
		return fmt.Errorf("sensor init: %w", err)
	}

	a.server = web.NewServer(a.config.HTTPPort, a.base)

	p, err := pipeline.New(pipeline.Deps{
		Source:   a.device,
		Device:   a.device,
		Cameras:  a.cameras,
		Renderer: a.server,
		Observer: a.server,
	}, a.pipelineConfig(), a.base)
	if err != nil {
		return fmt.Errorf("pipeline init: %w", err)
	}
	a.pipeline = p
	a.server.SetController(p)

	a.logger.Info("fishtank initialized",
		"preset", a.config.CameraPreset,
		"simulate", a.config.Simulate,
		"smoothing", a.config.HeadSmoothing,
	)
	return nil
}

func (a *App) initCameras() (*camera.Manager, error) {
	cfg := camera.GetPreset(a.config.CameraPreset)
	if a.config.WindowHeightM > 0 {
		cfg.WindowHeight = a.config.WindowHeightM
	}
	if a.config.ViewportAspect > 0 {
		cfg.Aspect = a.config.ViewportAspect
	}
	m := camera.NewManager()
	if err := m.SetConfig(*cfg); err != nil {
		return nil, err
	}
	m.OnConfigChange = a.cameraChanged
	return m, nil
}

// cameraChanged records tuning accepted at runtime.
func (a *App) cameraChanged(cfg camera.Config) error {
	a.logger.Info("camera tuning accepted",
		"aspect", cfg.Aspect,
		"window_height_m", cfg.WindowHeight,
		"view_distance", cfg.ViewDistance,
		"world_scale", cfg.WorldScale,
		"mirror_x", cfg.MirrorX,
	)
	return nil
}

func (a *App) initSensor() error {
	if a.config.Simulate {
		a.device = sensor.NewSim(sensor.DefaultSimConfig())
		return nil
	}
	cfg := sensor.DefaultConfig()
	cfg.URL = a.config.SensorURL
	cfg.ReconnectInterval = a.config.SensorRetry
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.bridge = sensor.NewBridge(cfg, a.base)
	a.device = a.bridge
	return nil
}

func (a *App) pipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.TickRate = a.config.TickRate
	if a.config.HeadSmoothing {
		cfg.Tracking = tracking.SmoothConfig()
	}
	cfg.Tilt.Cooldown = a.config.TiltCooldown
	cfg.Tilt.SettleDelay = a.config.TiltSettleDelay
	return cfg
}

// Run starts the sensor bridge, the tick loop and the web server.
// Blocks until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return errors.New("fishtank: Run called before Init")
	}

	if a.bridge != nil {
		go func() {
			err := a.bridge.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.ErrClosedPipe) {
				a.logger.Error("sensor bridge stopped", "error", err)
			}
		}()
	}
	go a.pipeline.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("web server: %w", err)
	}
}

// Shutdown stops the bridge and the web server.
func (a *App) Shutdown() {
	if a.bridge != nil {
		if err := a.bridge.Close(); err != nil {
			a.logger.Warn("sensor close failed", "error", err)
		}
	}
	if a.server != nil {
		if err := a.server.Shutdown(); err != nil {
			a.logger.Debug("web shutdown", "error", err)
		}
	}
	a.logger.Info("fishtank stopped")
}

// Pipeline returns the tick loop. Nil before Init.
func (a *App) Pipeline() *pipeline.Pipeline {
	return a.pipeline
}

// Server returns the web front end. Nil before Init.
func (a *App) Server() *web.Server {
	return a.server
}
