// Package config loads the responder's YAML configuration.
//
// Every delay is a min/max range written as Go durations ("500ms", "4h").
// A missing config file is created with the defaults on first run so the
// merchant has something to edit.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"review-responder/internal/browser"
	"review-responder/internal/humanize"
	"review-responder/internal/ledger"
	"review-responder/internal/logging"
	"review-responder/internal/responder"
	"review-responder/internal/session"
	"review-responder/internal/vision"
)

// DefaultPath is where the config is looked up when -config is not given.
const DefaultPath = "config.yaml"

// Config is the full responder configuration.
type Config struct {
	TemplateDir   string            `yaml:"template_dir"`
	TemplateFiles map[string]string `yaml:"template_files"`

	Locator   vision.Settings    `yaml:"locator"`
	Timing    humanize.Timing    `yaml:"timing"`
	Session   session.Settings   `yaml:"session"`
	Responder responder.Settings `yaml:"responder"`

	LedgerFile string          `yaml:"ledger_file"`
	Log        logging.Options `yaml:"log"`
	OCR        OCRConfig       `yaml:"ocr"`
	Dashboard  browser.Options `yaml:"dashboard"`

	Tray     bool   `yaml:"tray"`
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// OCRConfig controls name extraction.
type OCRConfig struct {
	Language string  `yaml:"language"`
	Upscale  float64 `yaml:"upscale"`
}

// DefaultConfig returns a config with every field populated.
func DefaultConfig() *Config {
	return &Config{
		TemplateDir:   "templates",
		TemplateFiles: vision.DefaultTemplateFiles(),
		Locator:       vision.DefaultSettings(),
		Timing:        humanize.DefaultTiming(),
		Session:       session.DefaultSettings(vision.DefaultRefreshSettings()),
		Responder:     responder.DefaultSettings(),
		LedgerFile:    ledger.DefaultFile,
		Log:           logging.DefaultOptions(),
		OCR: OCRConfig{
			Language: "eng",
			Upscale:  1,
		},
		Dashboard: browser.DefaultOptions(),
		Tray:      true,
		Debug:     false,
		DebugDir:  "debug",
	}
}

// LoadConfig reads path over the defaults. When path does not exist the
// defaults are written there and returned.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := config.Save(path); err != nil {
			return nil, err
		}
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects inverted ranges, thresholds outside (0, 1] and missing
// paths.
func (c *Config) Validate() error {
	if c.TemplateDir == "" {
		return fmt.Errorf("template_dir is required")
	}
	for name := range vision.DefaultTemplateFiles() {
		if c.TemplateFiles[name] == "" {
			return fmt.Errorf("template_files.%s is required", name)
		}
	}
	if c.LedgerFile == "" {
		return fmt.Errorf("ledger_file is required")
	}

	if err := c.Locator.Validate(); err != nil {
		return err
	}
	if err := c.Timing.Validate(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateResponder(); err != nil {
		return err
	}
	if c.OCR.Upscale <= 0 {
		return fmt.Errorf("ocr.upscale must be positive, got %v", c.OCR.Upscale)
	}
	return c.Dashboard.Validate()
}

func (c *Config) validateSession() error {
	s := c.Session
	if err := s.Refresh.Validate(); err != nil {
		return err
	}
	if s.MaxReviewsPerCycle < 0 {
		return fmt.Errorf("session.max_reviews_per_cycle must not be negative")
	}
	return validateRanges("session", map[string]humanize.Range{
		"panel_wait":      s.PanelWait,
		"between_reviews": s.BetweenReviews,
		"after_failure":   s.AfterFailure,
		"interval":        s.Interval,
		"jitter":          s.Jitter,
	})
}

func (c *Config) validateResponder() error {
	r := c.Responder
	if r.Replies.Positive == "" || r.Replies.Neutral == "" || r.Replies.Apology == "" {
		return fmt.Errorf("responder.replies must all be set")
	}
	if err := r.Discounts.Validate(); err != nil {
		return err
	}
	p := r.Pauses
	return validateRanges("responder.pauses", map[string]humanize.Range{
		"after_rating":  p.AfterRating,
		"after_reply":   p.AfterReply,
		"before_amount": p.BeforeAmount,
		"before_send":   p.BeforeSend,
		"after_send":    p.AfterSend,
	})
}

func validateRanges(prefix string, ranges map[string]humanize.Range) error {
	for name, r := range ranges {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%s.%s: %w", prefix, name, err)
		}
	}
	return nil
}
