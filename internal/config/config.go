// Package config loads process configuration for go-fishtank commands.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Defaults used when the environment does not override them.
const (
	DefaultHTTPPort     = "8090"
	DefaultSensorURL    = "ws://127.0.0.1:8765/skeleton"
	DefaultTickRate     = 33 * time.Millisecond
	DefaultTiltCooldown = 30 * time.Second
	DefaultTiltSettle   = 2 * time.Second
)

// App is the process-level configuration, read from FISHTANK_* variables.
// Command-line flags override these values in cmd/fishtank.
type App struct {
	LogLevel  string `env:"FISHTANK_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"FISHTANK_LOG_FORMAT" envDefault:"text"`

	HTTPPort  string `env:"FISHTANK_HTTP_PORT"  envDefault:"8090"`
	SensorURL string `env:"FISHTANK_SENSOR_URL" envDefault:"ws://127.0.0.1:8765/skeleton"`
	Simulate  bool   `env:"FISHTANK_SIM"        envDefault:"false"`

	TickRate        time.Duration `env:"FISHTANK_TICK_RATE"       envDefault:"33ms"`
	TiltCooldown    time.Duration `env:"FISHTANK_TILT_COOLDOWN"   envDefault:"30s"`
	TiltSettleDelay time.Duration `env:"FISHTANK_TILT_SETTLE"     envDefault:"2s"`
	SensorRetry     time.Duration `env:"FISHTANK_SENSOR_RETRY"    envDefault:"2s"`
	HeadSmoothing   bool          `env:"FISHTANK_HEAD_SMOOTHING"  envDefault:"false"`
	WindowHeightM   float64       `env:"FISHTANK_WINDOW_HEIGHT_M"` // 0 keeps the preset's value
	ViewportAspect  float64       `env:"FISHTANK_VIEWPORT_ASPECT"` // 0 keeps the preset's value
	CameraPreset    string        `env:"FISHTANK_CAMERA_PRESET"   envDefault:"desk"`
}

// Load parses the environment into an App config.
func Load() (App, error) {
	var cfg App
	if err := env.Parse(&cfg); err != nil {
		return App{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return App{}, err
	}
	return cfg, nil
}

// Validate checks values that env parsing cannot.
func (c App) Validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("tick rate must be positive, got %v", c.TickRate)
	}
	if c.TiltCooldown < 0 {
		return fmt.Errorf("tilt cooldown must not be negative, got %v", c.TiltCooldown)
	}
	if c.TiltSettleDelay < 0 || c.TiltSettleDelay > c.TiltCooldown {
		return fmt.Errorf("tilt settle delay must be within [0, cooldown], got %v", c.TiltSettleDelay)
	}
	if c.WindowHeightM < 0 {
		return fmt.Errorf("window height must not be negative, got %v", c.WindowHeightM)
	}
	if c.ViewportAspect < 0 {
		return fmt.Errorf("viewport aspect must not be negative, got %v", c.ViewportAspect)
	}
	if c.HTTPPort == "" {
		return fmt.Errorf("http port is required")
	}
	return nil
}
