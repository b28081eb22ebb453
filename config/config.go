// Package config loads clubctl settings from defaults, an optional YAML file,
// a .env file and the process environment, in that order.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	signup "github.com/goliatone/go-signup"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "CLUBCTL_"

var _ signup.Config = Config{}

// Config is the client configuration.
type Config struct {
	BaseURL         string        `yaml:"base_url" env:"BASE_URL" json:"base_url"`
	TokenStore      string        `yaml:"token_store" env:"TOKEN_STORE" json:"token_store"`
	TokenPath       string        `yaml:"token_path" env:"TOKEN_PATH" json:"token_path"`
	StorageKey      string        `yaml:"storage_key" env:"STORAGE_KEY" json:"storage_key"`
	NotificationTTL time.Duration `yaml:"notification_ttl" env:"NOTIFICATION_TTL" json:"notification_ttl"`
	SendRequestID   bool          `yaml:"send_request_id" env:"SEND_REQUEST_ID" json:"send_request_id"`
	Debug           bool          `yaml:"debug" env:"DEBUG" json:"debug"`
}

// Default returns the built in settings.
func Default() Config {
	return Config{
		BaseURL:         "http://localhost:8000",
		TokenStore:      "file",
		StorageKey:      "authToken",
		NotificationTTL: signup.DefaultNotificationTTL,
		SendRequestID:   true,
	}
}

// Load builds a Config. yamlPath and envFile may be empty; missing files are
// skipped. Variables already set in the environment win over envFile.
func Load(yamlPath, envFile string) (Config, error) {
	cfg := Default()

	if yamlPath != "" {
		raw, err := os.ReadFile(yamlPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read config file")
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse config file")
			}
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to load env file")
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse environment")
	}

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.TokenStore = strings.ToLower(strings.TrimSpace(cfg.TokenStore))

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the loaded values.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.TokenStore, validation.Required, validation.In("memory", "file", "bolt", "sqlite")),
		validation.Field(&c.StorageKey, validation.Required),
		validation.Field(&c.NotificationTTL, validation.Min(time.Millisecond)),
	)
	if err != nil {
		return goerrors.New("invalid configuration", goerrors.CategoryValidation).
			WithTextCode("CONFIG_INVALID").
			WithMetadata(map[string]any{"fields": err.Error()})
	}
	return nil
}

// ResolveTokenPath returns TokenPath, or a per store default under the user
// config directory.
func (c Config) ResolveTokenPath() string {
	if c.TokenPath != "" {
		return c.TokenPath
	}

	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}

	name := "session.json"
	switch c.TokenStore {
	case "bolt":
		name = "session.bolt"
	case "sqlite":
		name = "session.sqlite"
	}
	return filepath.Join(base, "clubctl", name)
}

func (c Config) GetBaseURL() string {
	return c.BaseURL
}

func (c Config) GetStorageKey() string {
	return c.StorageKey
}

func (c Config) GetNotificationTTL() time.Duration {
	return c.NotificationTTL
}

func (c Config) GetSendRequestID() bool {
	return c.SendRequestID
}
