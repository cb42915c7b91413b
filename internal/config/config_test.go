package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", "/tmp/board.db")
	t.Setenv("MIN_ACTIVITY_LENGTH", "5m")
	t.Setenv("MAX_ACTIVITY_LENGTH", "6h")
	t.Setenv("SWEEP_COOLDOWN", "30s")
	t.Setenv("ACTIVITY_ID_LENGTH", "10")
	t.Setenv("SAVE_RETRIES", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "9090" || cfg.DBPath != "/tmp/board.db" {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	if cfg.MinLength != 5*time.Minute || cfg.MaxLength != 6*time.Hour {
		t.Errorf("Unexpected length bounds: %+v", cfg)
	}
	if cfg.SweepCooldown != 30*time.Second || cfg.IDLength != 10 || cfg.SaveRetries != 3 {
		t.Errorf("Unexpected tuning values: %+v", cfg)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("MIN_ACTIVITY_LENGTH", "soon")
	t.Setenv("ACTIVITY_ID_LENGTH", "many")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MinLength != 10*time.Minute {
		t.Errorf("Expected fallback min length, got %v", cfg.MinLength)
	}
	if cfg.IDLength != 8 {
		t.Errorf("Expected fallback id length, got %d", cfg.IDLength)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		Port:          "8080",
		DBPath:        "./data/test.db",
		MinLength:     10 * time.Minute,
		MaxLength:     12 * time.Hour,
		SweepCooldown: time.Minute,
		IDLength:      8,
		SaveRetries:   5,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Port = "" }},
		{"empty db path", func(c *Config) { c.DBPath = "" }},
		{"zero min length", func(c *Config) { c.MinLength = 0 }},
		{"max below min", func(c *Config) { c.MaxLength = 5 * time.Minute }},
		{"negative cooldown", func(c *Config) { c.SweepCooldown = -time.Second }},
		{"zero id length", func(c *Config) { c.IDLength = 0 }},
		{"zero retries", func(c *Config) { c.SaveRetries = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestIsDevelopment(t *testing.T) {
	tests := []struct {
		frontendURL string
		want        bool
	}{
		{"", true},
		{"http://localhost:3000", true},
		{"http://127.0.0.1:3000", true},
		{"https://seuranhaku.example.com", false},
	}
	for _, tt := range tests {
		cfg := Config{FrontendURL: tt.frontendURL}
		if got := cfg.IsDevelopment(); got != tt.want {
			t.Errorf("IsDevelopment(%q) = %v, want %v", tt.frontendURL, got, tt.want)
		}
	}
}
