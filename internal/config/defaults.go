package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultGrowthRate        = 1.15
	DefaultStartClickYield   = 1.0
	DefaultIdleDivisor       = 10.0
	DefaultPrestigeThreshold = 10_000_000.0

	DefaultRollInterval    = 60 * time.Second
	DefaultTriggerChance   = 0.25
	DefaultEventDuration   = 30 * time.Second
	DefaultProductionBoost = 2.0
	DefaultClickBoost      = 3.0
	DefaultGambleWinChance = 0.5
	DefaultGambleWinFactor = 2.0
	DefaultGambleTimeout   = 15 * time.Second

	DefaultStorageDriver = "file"
	DefaultStoragePath   = "save"
	DefaultSlot          = "default"
	DefaultDBPort        = 5432
	DefaultDBSSLMode     = "prefer"
	DefaultMaxConns      = 4
	DefaultMinConns      = 1
)

func (c *Config) applyDefaults() {
	if c.Game.GrowthRate == 0 {
		c.Game.GrowthRate = DefaultGrowthRate
	}
	if c.Game.StartClickYield == 0 {
		c.Game.StartClickYield = DefaultStartClickYield
	}
	if c.Game.IdleDivisor == 0 {
		c.Game.IdleDivisor = DefaultIdleDivisor
	}
	if c.Game.PrestigeThreshold == 0 {
		c.Game.PrestigeThreshold = DefaultPrestigeThreshold
	}

	if c.Events.RollInterval == 0 {
		c.Events.RollInterval = DefaultRollInterval
	}
	if c.Events.TriggerChance == 0 {
		c.Events.TriggerChance = DefaultTriggerChance
	}
	if c.Events.Duration == 0 {
		c.Events.Duration = DefaultEventDuration
	}
	if c.Events.ProductionBoost == 0 {
		c.Events.ProductionBoost = DefaultProductionBoost
	}
	if c.Events.ClickBoost == 0 {
		c.Events.ClickBoost = DefaultClickBoost
	}
	if c.Events.GambleWinChance == 0 {
		c.Events.GambleWinChance = DefaultGambleWinChance
	}
	if c.Events.GambleWinFactor == 0 {
		c.Events.GambleWinFactor = DefaultGambleWinFactor
	}
	if c.Events.GambleTimeout == 0 {
		c.Events.GambleTimeout = DefaultGambleTimeout
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = DefaultStorageDriver
	}
	if c.Storage.Path == "" {
		c.Storage.Path = DefaultStoragePath
	}
	if c.Storage.Slot == "" {
		c.Storage.Slot = DefaultSlot
	}
	if c.Storage.Driver == "postgres" {
		applyDBDefaults(&c.Storage.Postgres)
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
