package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"github.com/Scarage1/API-Watch/internal/runner/retry"
)

var validate = validator.New()

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads the file when it exists and falls back to the built-in
// defaults when it does not. Other errors still surface.
func LoadOrDefault(path string) (*AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			d := Default()
			return &d, nil
		}
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() AppConfig {
	var cfg AppConfig
	cfg.applyDefaults()
	return cfg
}

func (cfg *AppConfig) applyDefaults() {
	if cfg.Defaults.Timeout == 0 {
		cfg.Defaults.Timeout = 10 * time.Second
	}

	// A fully absent retry block means the stock policy. A partial block
	// keeps max_retries as written (0 is a valid choice) and only fills the
	// delay knobs.
	if cfg.Retry == (retry.Config{}) {
		cfg.Retry = retry.DefaultConfig
	} else {
		cfg.Retry = cfg.Retry.Normalized()
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.History.Path == "" {
		cfg.History.Path = "apiwatch.db"
	}
	if cfg.History.Retention == 0 {
		cfg.History.Retention = 30 * 24 * time.Hour
	}

	if cfg.Webhook.Addr == "" {
		cfg.Webhook.Addr = ":9091"
	}
	if cfg.Webhook.CaptureDir == "" {
		cfg.Webhook.CaptureDir = "webhooks"
	}

	if cfg.Notify.Timeout == 0 {
		cfg.Notify.Timeout = 5 * time.Second
	}

	if cfg.Report.Dir == "" {
		cfg.Report.Dir = "reports"
	}
	if len(cfg.Report.Formats) == 0 {
		cfg.Report.Formats = []string{"json", "html"}
	}
}
