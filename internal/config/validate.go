package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Game.GrowthRate <= 1 {
		return fmt.Errorf("game.growth_rate must be > 1, got %g", c.Game.GrowthRate)
	}
	if c.Game.StartClickYield <= 0 {
		return errors.New("game.start_click_yield must be > 0")
	}
	if c.Game.IdleDivisor <= 0 {
		return errors.New("game.idle_divisor must be > 0")
	}
	if c.Game.PrestigeThreshold <= 0 {
		return errors.New("game.prestige_threshold must be > 0")
	}

	if c.Events.RollInterval <= 0 {
		return errors.New("events.roll_interval must be > 0")
	}
	if c.Events.Duration <= 0 {
		return errors.New("events.duration must be > 0")
	}
	if c.Events.GambleTimeout <= 0 {
		return errors.New("events.gamble_timeout must be > 0")
	}
	if err := probability("events.trigger_chance", c.Events.TriggerChance); err != nil {
		return err
	}
	if err := probability("events.gamble_win_chance", c.Events.GambleWinChance); err != nil {
		return err
	}
	if c.Events.ProductionBoost <= 1 {
		return fmt.Errorf("events.production_boost must be > 1, got %g", c.Events.ProductionBoost)
	}
	if c.Events.ClickBoost <= 1 {
		return fmt.Errorf("events.click_boost must be > 1, got %g", c.Events.ClickBoost)
	}
	if c.Events.GambleWinFactor <= 1 {
		return fmt.Errorf("events.gamble_win_factor must be > 1, got %g", c.Events.GambleWinFactor)
	}

	switch c.Storage.Driver {
	case "file", "sqlite":
		if c.Storage.Path == "" {
			return errors.New("storage.path is required")
		}
	case "postgres":
		if err := c.Storage.Postgres.validate("storage.postgres"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("storage.driver must be one of file, sqlite, postgres, got %q", c.Storage.Driver)
	}
	if c.Storage.Slot == "" {
		return errors.New("storage.slot is required")
	}

	return nil
}

func probability(name string, p float64) error {
	if p <= 0 || p > 1 {
		return fmt.Errorf("%s must be in (0, 1], got %g", name, p)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
