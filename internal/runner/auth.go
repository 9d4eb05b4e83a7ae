package runner

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/Scarage1/API-Watch/internal/core/config"
)

// Auth injects credentials into request headers before the first attempt.
// Implementations must be safe for concurrent use.
type Auth interface {
	Apply(headers map[string]string) error
}

// BearerAuth sets an Authorization: Bearer header. The token comes either
// literally or from the named environment variable.
type BearerAuth struct {
	Token    string
	TokenEnv string
}

func (b BearerAuth) Apply(headers map[string]string) error {
	token := b.Token
	if token == "" && b.TokenEnv != "" {
		token = os.Getenv(b.TokenEnv)
	}
	if token == "" {
		if b.TokenEnv != "" {
			return fmt.Errorf("bearer token env %s is empty", b.TokenEnv)
		}
		return fmt.Errorf("bearer token is empty")
	}
	headers["Authorization"] = "Bearer " + token
	return nil
}

// APIKeyAuth sets a key header, X-API-Key unless overridden.
type APIKeyAuth struct {
	Key    string
	KeyEnv string
	Header string
}

func (a APIKeyAuth) Apply(headers map[string]string) error {
	key := a.Key
	if key == "" && a.KeyEnv != "" {
		key = os.Getenv(a.KeyEnv)
	}
	if key == "" {
		if a.KeyEnv != "" {
			return fmt.Errorf("api key env %s is empty", a.KeyEnv)
		}
		return fmt.Errorf("api key is empty")
	}
	header := a.Header
	if header == "" {
		header = "X-API-Key"
	}
	headers[header] = key
	return nil
}

// BasicAuth sets an Authorization: Basic header.
type BasicAuth struct {
	Username    string
	Password    string
	PasswordEnv string
}

func (b BasicAuth) Apply(headers map[string]string) error {
	if b.Username == "" {
		return fmt.Errorf("basic auth username is empty")
	}
	password := b.Password
	if password == "" && b.PasswordEnv != "" {
		password = os.Getenv(b.PasswordEnv)
	}
	creds := base64.StdEncoding.EncodeToString([]byte(b.Username + ":" + password))
	headers["Authorization"] = "Basic " + creds
	return nil
}

// AuthFromConfig builds the Auth for a config block. A nil block or empty
// type means no authentication.
func AuthFromConfig(cfg *config.AuthConfig) (Auth, error) {
	if cfg == nil || cfg.Type == "" {
		return nil, nil
	}

	switch cfg.Type {
	case "bearer":
		return BearerAuth{Token: cfg.Token, TokenEnv: cfg.TokenEnv}, nil
	case "api_key":
		return APIKeyAuth{Key: cfg.Key, KeyEnv: cfg.KeyEnv, Header: cfg.Header}, nil
	case "basic":
		return BasicAuth{Username: cfg.Username, Password: cfg.Password, PasswordEnv: cfg.PasswordEnv}, nil
	default:
		return nil, fmt.Errorf("unsupported auth type %q", cfg.Type)
	}
}
