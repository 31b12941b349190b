package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"review-responder/internal/humanize"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if err := config.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if config.Locator.MaxRetries != 3 {
		t.Errorf("Expected MaxRetries to be 3, got %d", config.Locator.MaxRetries)
	}
	if config.Locator.Thresholds.Rating != 0.95 {
		t.Errorf("Expected rating threshold 0.95, got %v", config.Locator.Thresholds.Rating)
	}
	if config.Responder.Discounts.Positive != 2 || config.Responder.Discounts.Neutral != 1 || config.Responder.Discounts.Apology != 5 {
		t.Errorf("Unexpected discounts %+v", config.Responder.Discounts)
	}
	if config.Session.Interval.Min != 4*time.Hour || config.Session.Interval.Max != 6*time.Hour {
		t.Errorf("Unexpected interval %v", config.Session.Interval)
	}
	if config.LedgerFile != "discount_tracker.json" {
		t.Errorf("Expected ledger file discount_tracker.json, got %s", config.LedgerFile)
	}
	if config.Log.MaxSizeMB != 5 || config.Log.MaxBackups != 5 {
		t.Errorf("Unexpected log rotation %+v", config.Log)
	}
	if len(config.TemplateFiles) != 11 {
		t.Errorf("Expected 11 template files, got %d", len(config.TemplateFiles))
	}
}

func TestLoadConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config was not written: %v", err)
	}
	if config.TemplateDir != "templates" {
		t.Errorf("Expected template dir 'templates', got %q", config.TemplateDir)
	}
}

func TestConfigSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	config := DefaultConfig()
	config.Locator.MaxRetries = 5
	config.Session.Interval = humanize.Between(time.Hour, 2*time.Hour)
	config.Responder.Discounts.Apology = 7
	config.Dashboard.Launch = true

	if err := config.Save(path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if loaded.Locator.MaxRetries != 5 {
		t.Errorf("Expected MaxRetries 5, got %d", loaded.Locator.MaxRetries)
	}
	if loaded.Session.Interval != humanize.Between(time.Hour, 2*time.Hour) {
		t.Errorf("Expected interval 1h-2h, got %v", loaded.Session.Interval)
	}
	if loaded.Responder.Discounts.Apology != 7 {
		t.Errorf("Expected apology discount 7, got %d", loaded.Responder.Discounts.Apology)
	}
	if !loaded.Dashboard.Launch {
		t.Error("Expected dashboard launch to be enabled")
	}
	if loaded.Session.Refresh.FallbackPoint != config.Session.Refresh.FallbackPoint {
		t.Errorf("Fallback point not preserved: %v", loaded.Session.Refresh.FallbackPoint)
	}
}

func TestDurationsAreHumanReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := DefaultConfig().Save(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "4h0m0s") {
		t.Errorf("expected durations written as strings, got:\n%s", data)
	}
}

func TestPartialConfigKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "locator:\n  max_retries: 4\nsession:\n  interval:\n    min: 30m\n    max: 45m\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Locator.MaxRetries != 4 {
		t.Errorf("Expected MaxRetries 4, got %d", config.Locator.MaxRetries)
	}
	if config.Session.Interval.Min != 30*time.Minute {
		t.Errorf("Expected interval min 30m, got %v", config.Session.Interval.Min)
	}
	if config.Locator.Thresholds.UI != 0.8 {
		t.Errorf("Expected default UI threshold to survive, got %v", config.Locator.Thresholds.UI)
	}
	if config.Responder.Replies.Positive == "" {
		t.Error("Expected default replies to survive")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		rangeErr bool
	}{
		{"inverted session interval", func(c *Config) { c.Session.Interval = humanize.Between(6*time.Hour, 4*time.Hour) }, true},
		{"inverted click timing", func(c *Config) { c.Timing.Press = humanize.Between(time.Second, time.Millisecond) }, true},
		{"inverted responder pause", func(c *Config) { c.Responder.Pauses.AfterSend = humanize.Between(3*time.Second, time.Second) }, true},
		{"threshold above one", func(c *Config) { c.Locator.Thresholds.UI = 1.2 }, false},
		{"zero threshold", func(c *Config) { c.Locator.Thresholds.Rating = 0 }, false},
		{"zero retries", func(c *Config) { c.Locator.MaxRetries = 0 }, false},
		{"negative discount", func(c *Config) { c.Responder.Discounts.Neutral = -1 }, false},
		{"missing template", func(c *Config) { delete(c.TemplateFiles, "send_button") }, false},
		{"missing ledger", func(c *Config) { c.LedgerFile = "" }, false},
		{"empty reply", func(c *Config) { c.Responder.Replies.Apology = "" }, false},
		{"zero upscale", func(c *Config) { c.OCR.Upscale = 0 }, false},
		{"zero polls", func(c *Config) { c.Session.Refresh.Polls = 0 }, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := DefaultConfig()
			test.mutate(config)
			err := config.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if test.rangeErr && !errors.Is(err, humanize.ErrInvalidRange) {
				t.Errorf("expected ErrInvalidRange, got %v", err)
			}
		})
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("locator:\n  thresholds:\n    rating: 2\n"), 0o644)

	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for out-of-range threshold")
	}
}
