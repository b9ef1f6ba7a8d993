package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Game.GrowthRate != 1.15 {
		t.Fatalf("GrowthRate: expected 1.15 got %g", cfg.Game.GrowthRate)
	}
	if cfg.Game.IdleDivisor != DefaultIdleDivisor {
		t.Fatalf("IdleDivisor: expected %g got %g", DefaultIdleDivisor, cfg.Game.IdleDivisor)
	}
	if cfg.Game.PrestigeThreshold != 10_000_000 {
		t.Fatalf("PrestigeThreshold: expected 10000000 got %g", cfg.Game.PrestigeThreshold)
	}
	if cfg.Storage.Driver != "file" {
		t.Fatalf("Storage.Driver: expected file got %s", cfg.Storage.Driver)
	}
	if !cfg.Audio.Sound() {
		t.Fatalf("expected sound enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
game:
  idle_divisor: 4
events:
  roll_interval: 90s
  click_boost: 7
audio:
  sound_enabled: false
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Game.IdleDivisor != 4 {
		t.Errorf("Game.IdleDivisor = %g, want 4", cfg.Game.IdleDivisor)
	}
	if cfg.Events.RollInterval != 90*time.Second {
		t.Errorf("Events.RollInterval = %v, want 90s", cfg.Events.RollInterval)
	}
	if cfg.Events.ClickBoost != 7 {
		t.Errorf("Events.ClickBoost = %g, want 7", cfg.Events.ClickBoost)
	}
	if cfg.Events.Duration != DefaultEventDuration {
		t.Errorf("Events.Duration = %v, want default %v", cfg.Events.Duration, DefaultEventDuration)
	}
	if cfg.Game.PrestigeThreshold != DefaultPrestigeThreshold {
		t.Errorf("Game.PrestigeThreshold = %g, want default %g", cfg.Game.PrestigeThreshold, DefaultPrestigeThreshold)
	}
	if cfg.Audio.Sound() {
		t.Errorf("expected sound disabled")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("CRUMBS_DB_PASSWORD", "secret123")

	yaml := `
storage:
  driver: postgres
  postgres:
    host: localhost
    name: crumbs
    user: baker
    password: ${CRUMBS_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}
	if cfg.Storage.Postgres.Password != "secret123" {
		t.Errorf("Storage.Postgres.Password = %q, want %q", cfg.Storage.Postgres.Password, "secret123")
	}
	if cfg.Storage.Postgres.Port != DefaultDBPort {
		t.Errorf("Storage.Postgres.Port = %d, want default %d", cfg.Storage.Postgres.Port, DefaultDBPort)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "growth rate not above one",
			mutate:  func(c *Config) { c.Game.GrowthRate = 1 },
			wantErr: "game.growth_rate must be > 1, got 1",
		},
		{
			name:    "negative idle divisor",
			mutate:  func(c *Config) { c.Game.IdleDivisor = -1 },
			wantErr: "game.idle_divisor must be > 0",
		},
		{
			name:    "trigger chance above one",
			mutate:  func(c *Config) { c.Events.TriggerChance = 1.5 },
			wantErr: "events.trigger_chance must be in (0, 1], got 1.5",
		},
		{
			name:    "click boost is not a boost",
			mutate:  func(c *Config) { c.Events.ClickBoost = 0.5 },
			wantErr: "events.click_boost must be > 1, got 0.5",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Storage.Driver = "redis" },
			wantErr: `storage.driver must be one of file, sqlite, postgres, got "redis"`,
		},
		{
			name: "postgres without host",
			mutate: func(c *Config) {
				c.Storage.Driver = "postgres"
				c.Storage.Postgres = DBConfig{Name: "db", User: "u", MaxConns: 1}
			},
			wantErr: "storage.postgres.host is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *Config) {
				c.Storage.Driver = "postgres"
				c.Storage.Postgres = DBConfig{Host: "h", Name: "db", User: "u", MaxConns: 2, MinConns: 5}
			},
			wantErr: "storage.postgres.min_conns (5) cannot exceed max_conns (2)",
		},
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
