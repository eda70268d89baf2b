package camera

// Preset names for common display setups
const (
	PresetDesk   = "desk"
	PresetLaptop = "laptop"
	PresetTV     = "tv"
	PresetWall   = "wall"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDesk:   DefaultConfig(),
		PresetLaptop: LaptopConfig(),
		PresetTV:     TVConfig(),
		PresetWall:   WallConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDesk,
		PresetLaptop,
		PresetTV,
		PresetWall,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	presets := Presets()
	if cfg, ok := presets[name]; ok {
		return &cfg
	}
	return nil
}

// LaptopConfig returns geometry for a small 16:10 panel held close.
func LaptopConfig() Config {
	cfg := DefaultConfig()
	cfg.Aspect = 16.0 / 10.0
	cfg.WindowHeight = 0.2
	cfg.ViewDistance = 2.5 // 0.5m
	cfg.FallbackDistance = 2.5
	return cfg
}

// TVConfig returns geometry for a living-room TV viewed from the couch.
func TVConfig() Config {
	cfg := DefaultConfig()
	cfg.Aspect = 16.0 / 9.0
	cfg.WindowHeight = 0.7
	cfg.ViewDistance = 3.5 // ~2.5m
	cfg.FallbackDistance = 3.5
	return cfg
}

// WallConfig returns geometry for a projected wall.
// Depth motion is a smaller share of the window, so parallax is subtler.
func WallConfig() Config {
	cfg := DefaultConfig()
	cfg.Aspect = 16.0 / 9.0
	cfg.WindowHeight = 1.5
	cfg.ViewDistance = 2.0 // 3m
	cfg.FallbackDistance = 2.0
	cfg.WorldScale = 300
	return cfg
}
