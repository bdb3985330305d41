// Package config loads the CLI configuration from YAML with FORMWISE_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FORMWISE_"

const (
	defaultTimeout  = 15 * time.Second
	defaultCacheTTL = 5 * time.Minute
	defaultLocale   = "en"
	defaultLogLevel = "info"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

type (
	Config struct {
		API          API      `yaml:"api"`
		Cache        Cache    `yaml:"cache"`
		Locale       string   `yaml:"locale"`
		// MessageFiles are extra go-i18n catalogues, for example
		// "locales/active.fr.toml".
		MessageFiles []string `yaml:"message_files"`
		Log          Log      `yaml:"log"`
		Theme        Theme    `yaml:"theme"`
	}

	API struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
		Token   string        `yaml:"token"`
	}

	Cache struct {
		// TTL is the definition freshness window. Zero disables caching.
		TTL time.Duration `yaml:"ttl"`
	}

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	}

	Theme struct {
		Name    string            `yaml:"name"`
		Variant string            `yaml:"variant"`
		CSSVars map[string]string `yaml:"css_vars"`
	}
)

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		API:    API{Timeout: defaultTimeout},
		Cache:  Cache{TTL: defaultCacheTTL},
		Locale: defaultLocale,
		Log:    Log{Level: defaultLogLevel},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s%s: %w", ErrInvalidConfig, EnvPrefix, key, err)
		}
		*dst = d
		return nil
	}

	str("API_BASE_URL", &c.API.BaseURL)
	str("API_TOKEN", &c.API.Token)
	str("LOCALE", &c.Locale)
	str("LOG_LEVEL", &c.Log.Level)
	str("THEME_NAME", &c.Theme.Name)
	str("THEME_VARIANT", &c.Theme.Variant)
	if err := dur("API_TIMEOUT", &c.API.Timeout); err != nil {
		return err
	}
	if err := dur("CACHE_TTL", &c.Cache.TTL); err != nil {
		return err
	}
	if v, ok := lookup(EnvPrefix + "LOG_DEVELOPMENT"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %sLOG_DEVELOPMENT: %w", ErrInvalidConfig, EnvPrefix, err)
		}
		c.Log.Development = b
	}
	return nil
}

// Validate reports every problem in the configuration at once.
func (c Config) Validate() error {
	var problems []string

	if c.API.BaseURL != "" {
		u, err := url.Parse(c.API.BaseURL)
		if err != nil || !u.IsAbs() || u.Host == "" {
			problems = append(problems, fmt.Sprintf("api.base_url %q must be an absolute URL", c.API.BaseURL))
		}
	}
	if c.API.Timeout < 0 {
		problems = append(problems, "api.timeout must not be negative")
	}
	if c.Cache.TTL < 0 {
		problems = append(problems, "cache.ttl must not be negative")
	}
	if _, err := language.Parse(c.Locale); err != nil {
		problems = append(problems, fmt.Sprintf("locale %q is not a language tag", c.Locale))
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}
