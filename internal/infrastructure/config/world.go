package config

// WorldConfig points at the world layout
type WorldConfig struct {
	// Path of the YAML layout; empty selects the built-in layout
	Path string `mapstructure:"path"`
}
