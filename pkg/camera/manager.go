package camera

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Manager holds the current viewing geometry and handles runtime updates.
// Consumers poll Version to pick up changes at a tick boundary.
type Manager struct {
	config  Config
	version uint64
	mu      sync.RWMutex

	// Callback when config changes (for logging or persisting)
	OnConfigChange func(cfg Config) error
}

// NewManager creates a new camera manager with default config.
func NewManager() *Manager {
	return NewManagerWith(DefaultConfig())
}

// NewManagerWith creates a manager seeded with cfg. An invalid cfg falls back to defaults.
func NewManagerWith(cfg Config) *Manager {
	if errs := cfg.Validate(); len(errs) > 0 {
		cfg = DefaultConfig()
	}
	return &Manager{config: cfg}
}

// GetConfig returns the current camera configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Snapshot returns the config together with its version.
func (m *Manager) Snapshot() (Config, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config, m.version
}

// Version increments on every accepted SetConfig.
func (m *Manager) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// SetConfig replaces the camera configuration.
func (m *Manager) SetConfig(cfg Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}

	m.mu.Lock()
	m.config = cfg
	m.version++
	callback := m.OnConfigChange
	m.mu.Unlock()

	if callback != nil {
		if err := callback(cfg); err != nil {
			return fmt.Errorf("failed to apply config: %w", err)
		}
	}

	return nil
}

// UpdateConfig updates specific fields of the configuration.
// Accepts a map of field names to values, as decoded from JSON.
// A "preset" key is applied first; other keys override it.
func (m *Manager) UpdateConfig(params map[string]interface{}) error {
	cfg := m.GetConfig()

	if presetName, ok := params["preset"].(string); ok {
		preset := GetPreset(presetName)
		if preset == nil {
			return fmt.Errorf("%w: unknown preset: %s", ErrInvalidConfig, presetName)
		}
		cfg = *preset
	}

	for key, value := range params {
		var ok bool
		switch key {
		case "preset":
			continue
		case "aspect":
			cfg.Aspect, ok = toFloat(value)
		case "near":
			cfg.Near, ok = toFloat(value)
		case "far":
			cfg.Far, ok = toFloat(value)
		case "window_height_m":
			cfg.WindowHeight, ok = toFloat(value)
		case "view_distance":
			cfg.ViewDistance, ok = toFloat(value)
		case "fallback_distance":
			cfg.FallbackDistance, ok = toFloat(value)
		case "world_scale":
			cfg.WorldScale, ok = toFloat(value)
		case "mirror_x":
			cfg.MirrorX, ok = value.(bool)
		case "anchor":
			cfg.Anchor, ok = toVec3(value)
		case "target":
			cfg.Target, ok = toVec3(value)
		default:
			return fmt.Errorf("%w: unknown field: %s", ErrInvalidConfig, key)
		}
		if !ok {
			return fmt.Errorf("%w: bad value for %s: %v", ErrInvalidConfig, key, value)
		}
	}

	return m.SetConfig(cfg)
}

// GetConfigJSON returns the current config as a map for JSON serialization.
func (m *Manager) GetConfigJSON() map[string]interface{} {
	cfg := m.GetConfig()

	data, _ := json.Marshal(cfg)
	var result map[string]interface{}
	_ = json.Unmarshal(data, &result)

	return result
}

// Helper functions for type conversion

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		if err == nil {
			return f, true
		}
	}
	return 0, false
}

func toVec3(v interface{}) (mgl64.Vec3, bool) {
	var out mgl64.Vec3
	switch val := v.(type) {
	case mgl64.Vec3:
		return val, true
	case []float64:
		if len(val) != 3 {
			return out, false
		}
		copy(out[:], val)
		return out, true
	case []interface{}:
		if len(val) != 3 {
			return out, false
		}
		for i, e := range val {
			f, ok := toFloat(e)
			if !ok {
				return out, false
			}
			out[i] = f
		}
		return out, true
	}
	return out, false
}
