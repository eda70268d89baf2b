package fishtank

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-fishtank/internal/config"
	"github.com/teslashibe/go-fishtank/pkg/camera"
)

func testConfig() config.App {
	return config.App{
		LogLevel:     "info",
		LogFormat:    "text",
		HTTPPort:     "0",
		SensorURL:    config.DefaultSensorURL,
		Simulate:     true,
		TickRate:     5 * time.Millisecond,
		TiltCooldown: config.DefaultTiltCooldown,
		SensorRetry:  time.Second,
		CameraPreset: camera.PresetDesk,
	}
}

func TestNew_RejectsUnknownPreset(t *testing.T) {
	cfg := testConfig()
	cfg.CameraPreset = "cinema"

	_, err := New(cfg)
	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "CameraPreset", cerr.Field)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.TickRate = 0

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestInit_AppliesGeometryOverrides(t *testing.T) {
	cfg := testConfig()
	cfg.CameraPreset = camera.PresetTV
	cfg.WindowHeightM = 0.9

	app, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, app.Init())

	got := app.Pipeline().Cameras().GetConfig()
	assert.Equal(t, 0.9, got.WindowHeight)
	assert.Equal(t, camera.TVConfig().Aspect, got.Aspect)
}

func TestInit_RuntimeTuningReachesCallback(t *testing.T) {
	app, err := New(testConfig())
	require.NoError(t, err)
	require.NoError(t, app.Init())

	cameras := app.Pipeline().Cameras()
	require.NotNil(t, cameras.OnConfigChange)
	require.NoError(t, cameras.UpdateConfig(map[string]interface{}{"world_scale": 200.0}))
	assert.Equal(t, 200.0, cameras.GetConfig().WorldScale)
}

func TestInit_BridgeModeRequiresWebSocketURL(t *testing.T) {
	cfg := testConfig()
	cfg.Simulate = false
	cfg.SensorURL = "http://127.0.0.1:8765"

	app, err := New(cfg)
	require.NoError(t, err)
	assert.Error(t, app.Init())
}

func TestRun_BeforeInit(t *testing.T) {
	app, err := New(testConfig())
	require.NoError(t, err)
	assert.Error(t, app.Run(context.Background()))
}

func TestRun_SimulatedTicksUntilCancelled(t *testing.T) {
	app, err := New(testConfig())
	require.NoError(t, err)
	require.NoError(t, app.Init())
	defer app.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, app.Run(ctx))

	snap := app.Pipeline().Snapshot()
	assert.Greater(t, snap.Tick, uint64(0))
	assert.True(t, snap.HasFrame)
	assert.True(t, snap.Established)

	_, renders := app.Server().Rendered()
	assert.Greater(t, renders, uint64(0))
}
