package config

// Config holds application settings (in-memory representation).
// Persistence is handled by internal/db package.
type Config struct {
	// GalaxySource is the path last imported with `starmap import`.
	GalaxySource string  `json:"galaxy_source"`
	JumpRange    float64 `json:"jump_range"` // map units; neighbors for jump drives
	DefaultPilot string  `json:"default_pilot"`
	// DefaultOrigin is the system name used when a query names no origin.
	DefaultOrigin string `json:"default_origin"`
	Port          int    `json:"port"`
	CacheLimit    int    `json:"cache_limit"` // distance maps kept in memory
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		JumpRange:    100,
		DefaultPilot: "captain",
		Port:         13380,
		CacheLimit:   256,
	}
}
