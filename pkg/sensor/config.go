// Package sensor provides skeleton frame sources and tilt devices:
// a WebSocket bridge to an external depth-sensor process, and a
// simulator for running without hardware.
package sensor

import (
	"fmt"
	"net/url"
	"time"
)

// DefaultMaxAngle is the tilt range reported before the sensor says otherwise.
const DefaultMaxAngle = 27

// Config holds bridge connection settings.
type Config struct {
	// URL is the sensor bridge WebSocket endpoint.
	// Example: "ws://127.0.0.1:8765/skeleton"
	URL string `json:"url"`

	// ReconnectInterval is how long to wait between connection attempts.
	ReconnectInterval time.Duration `json:"reconnect_interval"`

	// MaxReconnectAttempts bounds consecutive failed dials.
	// 0 means unlimited.
	MaxReconnectAttempts int `json:"max_reconnect_attempts"`

	// HandshakeTimeout bounds the WebSocket handshake.
	HandshakeTimeout time.Duration `json:"handshake_timeout"`

	// WriteTimeout bounds each outgoing message.
	WriteTimeout time.Duration `json:"write_timeout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:                  "ws://127.0.0.1:8765/skeleton",
		ReconnectInterval:    2 * time.Second,
		MaxReconnectAttempts: 0, // Unlimited
		HandshakeTimeout:     5 * time.Second,
		WriteTimeout:         time.Second,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("url scheme must be ws or wss, got %q", u.Scheme)
	}
	if c.ReconnectInterval <= 0 {
		return fmt.Errorf("reconnect_interval must be positive")
	}
	if c.MaxReconnectAttempts < 0 {
		return fmt.Errorf("max_reconnect_attempts must not be negative")
	}
	return nil
}
