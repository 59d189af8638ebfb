package camera

import "sort"

// Preset names for common capture sizes.
const (
	PresetDefault  = "default"
	PresetLegacy   = "legacy"
	Preset720p     = "720p"
	Preset1080p    = "1080p"
	PresetLowPower = "lowpower"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault:  DefaultConfig(),
		PresetLegacy:   LegacyConfig(),
		Preset720p:     DefaultConfig(),
		Preset1080p:    HD1080Config(),
		PresetLowPower: LowPowerConfig(),
	}
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets()))
	for name := range Presets() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	if cfg, ok := Presets()[name]; ok {
		return &cfg
	}
	return nil
}

// LegacyConfig returns 640x480, which every USB webcam supports.
func LegacyConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 640
	cfg.Height = 480
	return cfg
}

// HD1080Config returns 1080p. Detection cost grows with frame size, so
// only use it on a GPU-backed detector.
func HD1080Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1920
	cfg.Height = 1080
	return cfg
}

// LowPowerConfig trades cadence for battery on small boards.
func LowPowerConfig() Config {
	cfg := LegacyConfig()
	cfg.Framerate = 15
	return cfg
}
