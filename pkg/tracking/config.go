// Package tracking follows one viewer through the skeleton stream: it picks
// the closest skeleton each tick and turns its head position into a
// displacement from a fixed baseline.
package tracking

import "time"

// Config holds the tunable parameters for head tracking.
type Config struct {
	// Smoothing runs the head position through a Kalman filter on the
	// lateral (X, Y) axes before the displacement is computed.
	Smoothing bool

	// Kalman filter parameters (only used when Smoothing is true)
	FrameInterval    time.Duration // Expected time between skeleton frames
	ProcessNoise     float64       // Std-dev of head acceleration (m/s²)
	MeasurementNoise float64       // Std-dev of joint position noise (m)
}

// DefaultConfig returns raw tracking: displacement follows the head joint exactly.
func DefaultConfig() Config {
	return Config{
		Smoothing:        false,
		FrameInterval:    time.Second / 30, // Skeleton stream runs at 30 fps
		ProcessNoise:     2.0,
		MeasurementNoise: 0.01,
	}
}

// SmoothConfig returns a configuration that filters joint jitter.
func SmoothConfig() Config {
	cfg := DefaultConfig()
	cfg.Smoothing = true
	return cfg
}
