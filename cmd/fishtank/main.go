// Fishtank - head-coupled perspective window driven by a depth sensor.
// Tracks the closest viewer's head and serves the off-axis camera over HTTP/WebSocket.
package main

import (
	"context"
	"flag"
	stdlog "log"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-fishtank/internal/config"
	"github.com/teslashibe/go-fishtank/internal/log"
	"github.com/teslashibe/go-fishtank/pkg/fishtank"
)

func main() {
	cfg := parseFlags()

	log.Init(cfg.LogLevel, cfg.LogFormat)

	app, err := fishtank.New(cfg)
	if err != nil {
		stdlog.Fatalf("configuration error: %v", err)
	}

	if err := app.Init(); err != nil {
		stdlog.Fatalf("initialization failed: %v", err)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		log.Error("runtime error", "error", err)
	}
}

// parseFlags loads the environment and lets command line flags override it.
func parseFlags() config.App {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("configuration error: %v", err)
	}

	sim := flag.Bool("sim", cfg.Simulate, "Use the simulated sensor instead of the bridge")
	port := flag.String("port", cfg.HTTPPort, "HTTP port for the API and pose stream")
	sensorURL := flag.String("sensor-url", cfg.SensorURL, "Sensor bridge WebSocket URL")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	smooth := flag.Bool("smooth", cfg.HeadSmoothing, "Kalman-filter the head position")
	preset := flag.String("preset", cfg.CameraPreset, "Display preset: desk, laptop, tv, wall")
	cooldown := flag.Duration("tilt-cooldown", cfg.TiltCooldown, "Minimum time between tilt motor commands")
	flag.Parse()

	cfg.Simulate, cfg.HTTPPort, cfg.SensorURL = *sim, *port, *sensorURL
	cfg.LogLevel, cfg.HeadSmoothing, cfg.CameraPreset = *logLevel, *smooth, *preset
	cfg.TiltCooldown = *cooldown
	return cfg
}
