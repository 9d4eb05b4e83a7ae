package config

import (
	"time"

	"github.com/Scarage1/API-Watch/internal/infra/history"
	"github.com/Scarage1/API-Watch/internal/infra/notify"
	"github.com/Scarage1/API-Watch/internal/infra/webhook"
	"github.com/Scarage1/API-Watch/internal/runner/retry"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Defaults RequestDefaults `yaml:"defaults"`
	Retry    retry.Config    `yaml:"retry"`
	Auth     *AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig   `yaml:"logging"`
	History  history.Config  `yaml:"history"`
	Webhook  webhook.Config  `yaml:"webhook"`
	Notify   notify.Config   `yaml:"notify"`
	Report   ReportConfig    `yaml:"report"`
}

// RequestDefaults applies to every request that does not override them.
type RequestDefaults struct {
	Timeout          time.Duration `yaml:"timeout" validate:"gte=0"`
	Insecure         bool          `yaml:"insecure"`
	DisableRedirects bool          `yaml:"disable_redirects"`
}

// AuthConfig describes how outgoing requests authenticate. Secrets may be
// given literally or through the name of an environment variable.
type AuthConfig struct {
	Type        string `yaml:"type"         validate:"omitempty,oneof=bearer api_key basic"`
	Token       string `yaml:"token"`
	TokenEnv    string `yaml:"token_env"`
	Key         string `yaml:"key"`
	KeyEnv      string `yaml:"key_env"`
	Header      string `yaml:"header"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	PasswordEnv string `yaml:"password_env"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"  validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
}

// ReportConfig controls where suite reports land.
type ReportConfig struct {
	Dir     string   `yaml:"dir"`
	Formats []string `yaml:"formats" validate:"omitempty,dive,oneof=json html"`
}
