package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "gangsim.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "gangsim"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "gangsim"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 25
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 5
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}

	// Metrics defaults
	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = "localhost"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// Economy defaults
	if cfg.Economy.BootstrapSharesPerUnit == "" {
		cfg.Economy.BootstrapSharesPerUnit = "100000000"
	}
	if cfg.Economy.DefaultProdDaily == "" {
		cfg.Economy.DefaultProdDaily = "1000"
	}
	if cfg.Economy.TravelTime == 0 {
		cfg.Economy.TravelTime = 4 * time.Hour
	}
	if cfg.Economy.AttackCooldown == 0 {
		cfg.Economy.AttackCooldown = 4 * time.Hour
	}
	if cfg.Economy.WinMinBps == 0 && cfg.Economy.WinMaxBps == 0 {
		cfg.Economy.WinMinBps = 1000
		cfg.Economy.WinMaxBps = 5000
	}
	if cfg.Economy.AttackCostBps == 0 {
		cfg.Economy.AttackCostBps = 200
	}
	if cfg.Economy.TickInterval == 0 {
		cfg.Economy.TickInterval = time.Minute
	}
	if cfg.Economy.Genesis == "" {
		cfg.Economy.Genesis = "2024-01-01T00:00:00Z"
	}
	if cfg.Economy.GenesisSeed == "" {
		cfg.Economy.GenesisSeed = "gangsim"
	}
}
