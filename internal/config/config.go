package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"getpocket/internal/crypto"
	"getpocket/internal/pocket"
)

const envPrefix = "POCKET_"

// envKeys maps the supported environment variables to config keys.
var envKeys = map[string]string{
	"POCKET_CONSUMER_KEY":        "pocket.consumer_key",
	"POCKET_ACCESS_TOKEN":        "pocket.access_token",
	"POCKET_SEALED_ACCESS_TOKEN": "pocket.sealed_access_token",
	"POCKET_PASSPHRASE":          "pocket.passphrase",
	"POCKET_ENDPOINT":            "pocket.endpoint",
	"POCKET_TIMEOUT":             "pocket.timeout",
	"POCKET_LOG_LEVEL":           "log_level",
}

// flagKeys maps command-line flags to config keys. Other flags are ignored.
var flagKeys = map[string]string{
	"endpoint":  "pocket.endpoint",
	"log-level": "log_level",
	"pretty":    "log_pretty",
}

type ConfigPocket struct {
	ConsumerKey       string        `koanf:"consumer_key" validate:"required"`
	AccessToken       string        `koanf:"access_token" validate:"required_without=SealedAccessToken,excluded_with=SealedAccessToken"`
	SealedAccessToken string        `koanf:"sealed_access_token" validate:"required_without=AccessToken"`
	Passphrase        string        `koanf:"passphrase" validate:"required_with=SealedAccessToken"`
	Endpoint          string        `koanf:"endpoint" validate:"required,url"`
	RedirectURI       string        `koanf:"redirect_uri" validate:"omitempty,url"`
	Timeout           time.Duration `koanf:"timeout" validate:"gte=0"`
}

type Config struct {
	Pocket    ConfigPocket `koanf:"pocket"`
	LogLevel  string       `koanf:"log_level" validate:"oneof=error warn info debug"`
	LogPretty bool         `koanf:"log_pretty"`
}

func (c *Config) Validate() error {
	validate := validator.New()
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return fmt.Errorf("configuration validation failed: %v", validationErrors)
	}

	return err
}

// Token returns the plain access token, opening the sealed one if needed.
func (c *Config) Token() (string, error) {
	if c.Pocket.SealedAccessToken == "" {
		return c.Pocket.AccessToken, nil
	}
	token, err := crypto.OpenToken(c.Pocket.SealedAccessToken, c.Pocket.Passphrase)
	if err != nil {
		return "", fmt.Errorf("failed to open sealed access token: %w", err)
	}
	return token, nil
}

// Load reads defaults, then the YAML file at path (skipped when path is
// empty), then POCKET_* environment variables, then changed flags.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := setDefaultValues(k); err != nil {
		return nil, err
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return envKeys[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaultValues(k *koanf.Koanf) error {
	return k.Load(confmap.Provider(map[string]any{
		"pocket.endpoint":     pocket.DefaultBaseURL,
		"pocket.redirect_uri": pocket.DefaultRedirectURI,
		"pocket.timeout":      "10s",
		"log_level":           "info",
		"log_pretty":          false,
	}, "."), nil)
}
