package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		SourceID:            "camera_0",
		ConfidenceThreshold: 65,
		CooldownSeconds:     2,
		MaxReadRetries:      30,
		DispatchWorkers:     3,
		DispatchQueueSize:   100,
		MaxJobAttempts:      3,
		AnalyticsWindow:     24 * time.Hour,
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SourceID != "camera_0" {
		t.Errorf("SourceID = %q", cfg.SourceID)
	}
	if cfg.ConfidenceThreshold != 65 {
		t.Errorf("ConfidenceThreshold = %v, expected 65", cfg.ConfidenceThreshold)
	}
	if cfg.CooldownSeconds != 2.0 {
		t.Errorf("CooldownSeconds = %v, expected 2", cfg.CooldownSeconds)
	}
	if cfg.OCRLanguages != "eng" {
		t.Errorf("OCRLanguages = %q", cfg.OCRLanguages)
	}
	if cfg.BlurSkipEnabled {
		t.Error("Blur skip should default to off")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should validate, got %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SOURCE_ID", "lab_bench_2")
	t.Setenv("CONFIDENCE_THRESHOLD", "72.5")
	t.Setenv("COOLDOWN_SECONDS", "0.5")
	t.Setenv("DISPATCH_WORKERS", "5")
	t.Setenv("AUTO_START", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SourceID != "lab_bench_2" {
		t.Errorf("SourceID = %q", cfg.SourceID)
	}
	if cfg.ConfidenceThreshold != 72.5 {
		t.Errorf("ConfidenceThreshold = %v", cfg.ConfidenceThreshold)
	}
	if cfg.CooldownSeconds != 0.5 {
		t.Errorf("CooldownSeconds = %v", cfg.CooldownSeconds)
	}
	if cfg.DispatchWorkers != 5 {
		t.Errorf("DispatchWorkers = %d", cfg.DispatchWorkers)
	}
	if cfg.AutoStart {
		t.Error("AutoStart override ignored")
	}
}

func TestLoad_MalformedEnvFails(t *testing.T) {
	t.Setenv("CONFIDENCE_THRESHOLD", "not-a-number")
	t.Setenv("DISPATCH_WORKERS", "many")

	_, err := Load()
	if err == nil {
		t.Fatal("Malformed env values should fail Load")
	}
	if !strings.Contains(err.Error(), "CONFIDENCE_THRESHOLD") || !strings.Contains(err.Error(), "DISPATCH_WORKERS") {
		t.Errorf("Error should name the offending keys, got %v", err)
	}
}

func TestLoad_MalformedBoolFails(t *testing.T) {
	t.Setenv("AUTO_START", "yes please")

	if _, err := Load(); err == nil {
		t.Fatal("Malformed bool should fail Load")
	}
}

func TestValidate_RejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty source id", func(c *Config) { c.SourceID = "" }},
		{"zero threshold", func(c *Config) { c.ConfidenceThreshold = 0 }},
		{"negative threshold", func(c *Config) { c.ConfidenceThreshold = -5 }},
		{"threshold above 100", func(c *Config) { c.ConfidenceThreshold = 100.1 }},
		{"negative cooldown", func(c *Config) { c.CooldownSeconds = -1 }},
		{"zero read retries", func(c *Config) { c.MaxReadRetries = 0 }},
		{"zero workers", func(c *Config) { c.DispatchWorkers = 0 }},
		{"zero queue size", func(c *Config) { c.DispatchQueueSize = 0 }},
		{"zero job attempts", func(c *Config) { c.MaxJobAttempts = 0 }},
		{"zero analytics window", func(c *Config) { c.AnalyticsWindow = 0 }},
		{"negative blur floor", func(c *Config) { c.BlurFloor = -10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected a validation error")
			}
		})
	}
}

func TestValidate_AcceptsBoundaryValues(t *testing.T) {
	cfg := validConfig()
	cfg.ConfidenceThreshold = 100 // inclusive upper bound
	cfg.CooldownSeconds = 0       // zero cooldown disables debouncing
	if err := cfg.Validate(); err != nil {
		t.Errorf("Boundary values should validate, got %v", err)
	}
}

func TestCooldown_Duration(t *testing.T) {
	cfg := validConfig()
	cfg.CooldownSeconds = 2.5
	if got := cfg.Cooldown(); got != 2500*time.Millisecond {
		t.Errorf("Cooldown() = %v, expected 2.5s", got)
	}
}
