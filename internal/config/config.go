// Package config holds the economy tunables and the host settings, loaded
// from YAML with ${VAR} environment substitution.
package config

import "time"

type Config struct {
	Game        GameConfig    `yaml:"game"`
	Events      EventsConfig  `yaml:"events"`
	Storage     StorageConfig `yaml:"storage"`
	Audio       AudioConfig   `yaml:"audio"`
	CatalogPath string        `yaml:"catalog_path"`
}

// GameConfig holds the core economy constants.
type GameConfig struct {
	GrowthRate        float64 `yaml:"growth_rate"`
	StartClickYield   float64 `yaml:"start_click_yield"`
	IdleDivisor       float64 `yaml:"idle_divisor"`
	PrestigeThreshold float64 `yaml:"prestige_threshold"`
}

// EventsConfig tunes the random event modifiers.
type EventsConfig struct {
	Disabled        bool          `yaml:"disabled"`
	RollInterval    time.Duration `yaml:"roll_interval"`
	TriggerChance   float64       `yaml:"trigger_chance"`
	Duration        time.Duration `yaml:"duration"`
	ProductionBoost float64       `yaml:"production_boost"`
	ClickBoost      float64       `yaml:"click_boost"`
	GambleWinChance float64       `yaml:"gamble_win_chance"`
	GambleWinFactor float64       `yaml:"gamble_win_factor"`
	GambleTimeout   time.Duration `yaml:"gamble_timeout"`
}

type StorageConfig struct {
	Driver   string   `yaml:"driver"` // file, sqlite or postgres
	Path     string   `yaml:"path"`
	Slot     string   `yaml:"slot"`
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

type AudioConfig struct {
	SoundEnabled *bool `yaml:"sound_enabled"`
}

// Sound reports whether audio cues are on. Unset means on.
func (a AudioConfig) Sound() bool {
	return a.SoundEnabled == nil || *a.SoundEnabled
}

func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}
