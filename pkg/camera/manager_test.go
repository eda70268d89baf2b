package camera

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"default", func(*Config) {}, true},
		{"zero aspect", func(c *Config) { c.Aspect = 0 }, false},
		{"negative near", func(c *Config) { c.Near = -1 }, false},
		{"far not beyond near", func(c *Config) { c.Far = c.Near }, false},
		{"zero window height", func(c *Config) { c.WindowHeight = 0 }, false},
		{"negative view distance", func(c *Config) { c.ViewDistance = -1 }, false},
		{"zero view distance", func(c *Config) { c.ViewDistance = 0 }, true},
		{"zero fallback", func(c *Config) { c.FallbackDistance = 0 }, false},
		{"zero world scale", func(c *Config) { c.WorldScale = 0 }, false},
		{"anchor equals target", func(c *Config) { c.Target = c.Anchor }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			errs := cfg.Validate()
			if tt.valid {
				assert.Empty(t, errs)
			} else {
				assert.NotEmpty(t, errs)
			}
		})
	}
}

func TestPresetsAreValid(t *testing.T) {
	for _, name := range PresetNames() {
		cfg := GetPreset(name)
		require.NotNil(t, cfg, name)
		assert.Empty(t, cfg.Validate(), name)
	}
	assert.Nil(t, GetPreset("cinema"))
	assert.Len(t, Presets(), len(PresetNames()))
}

func TestManager_SetConfigBumpsVersion(t *testing.T) {
	m := NewManager()
	assert.Equal(t, uint64(0), m.Version())

	cfg := DefaultConfig()
	cfg.WorldScale = 42
	require.NoError(t, m.SetConfig(cfg))

	got, version := m.Snapshot()
	assert.Equal(t, uint64(1), version)
	assert.Equal(t, 42.0, got.WorldScale)
}

func TestManager_SetConfigRejectsInvalid(t *testing.T) {
	m := NewManager()
	cfg := DefaultConfig()
	cfg.Far = 0

	err := m.SetConfig(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Equal(t, uint64(0), m.Version())
	assert.Equal(t, DefaultConfig(), m.GetConfig())
}

func TestManager_UpdateConfig(t *testing.T) {
	m := NewManager()

	err := m.UpdateConfig(map[string]interface{}{
		"preset":      PresetTV,
		"world_scale": 200.0,
		"mirror_x":    false,
		"target":      []interface{}{0.0, 10.0, 300.0},
	})
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, TVConfig().WindowHeight, cfg.WindowHeight)
	assert.Equal(t, 200.0, cfg.WorldScale)
	assert.False(t, cfg.MirrorX)
	assert.Equal(t, mgl64.Vec3{0, 10, 300}, cfg.Target)
}

func TestManager_UpdateConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]interface{}
	}{
		{"unknown preset", map[string]interface{}{"preset": "cinema"}},
		{"unknown field", map[string]interface{}{"fov": 80.0}},
		{"wrong type", map[string]interface{}{"near": "close"}},
		{"short vector", map[string]interface{}{"anchor": []interface{}{1.0, 2.0}}},
		{"invalid result", map[string]interface{}{"near": 0.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager()
			err := m.UpdateConfig(tt.params)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Equal(t, uint64(0), m.Version())
		})
	}
}

func TestManager_OnConfigChange(t *testing.T) {
	m := NewManager()
	var seen []Config
	m.OnConfigChange = func(cfg Config) error {
		seen = append(seen, cfg)
		return nil
	}

	require.NoError(t, m.UpdateConfig(map[string]interface{}{"preset": PresetWall}))
	require.Len(t, seen, 1)
	assert.Equal(t, WallConfig(), seen[0])

	m.OnConfigChange = func(Config) error { return errors.New("disk full") }
	err := m.SetConfig(DefaultConfig())
	assert.ErrorContains(t, err, "failed to apply config")
}

func TestManager_GetConfigJSON(t *testing.T) {
	m := NewManager()
	out := m.GetConfigJSON()

	assert.Contains(t, out, "window_height_m")
	assert.Equal(t, true, out["mirror_x"])
	assert.Len(t, out["target"], 3)
}

func TestNewManagerWith_InvalidFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Aspect = -1
	m := NewManagerWith(cfg)
	assert.Equal(t, DefaultConfig(), m.GetConfig())
}
