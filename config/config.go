// Package config loads application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envFile = ".env"

// ErrNotConfigured marks a missing or invalid organization/project
// setting. The run aborts before any page is touched.
var ErrNotConfigured = errors.New("organization and project are not configured")

// Allowed shape for organization and project names. Anything else is
// refused at the boundary instead of ending up percent-encoded in a URL.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Config holds application configuration.
type Config struct {
	Bitbucket BitbucketConfig `mapstructure:"bitbucket"`
	Scan      ScanConfig      `mapstructure:"scan"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// BitbucketConfig describes the hosting site and workspace to scan.
type BitbucketConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Organization string        `mapstructure:"organization"`
	Project      string        `mapstructure:"project"`
	Token        string        `mapstructure:"token"`
	HTTPTimeout  time.Duration `mapstructure:"http_timeout"`
}

// ScanConfig bounds the pagination loop and the page-ready wait.
type ScanConfig struct {
	MaxPages     int           `mapstructure:"max_pages"`
	FetchRetries int           `mapstructure:"fetch_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

// LoggingConfig contains logger preferences.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// New loads configuration from environment using viper with typed
// defaults and validation. A local .env file fills in variables that
// are not already set.
func New() (*Config, error) {
	v := viper.New()
	if envMap, err := godotenv.Read(envFile); err == nil {
		for key, value := range envMap {
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, value)
			}
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvs(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate ensures required fields are present and well-formed.
func (c Config) Validate() error {
	if c.Bitbucket.Organization == "" || c.Bitbucket.Project == "" {
		return ErrNotConfigured
	}
	if !namePattern.MatchString(c.Bitbucket.Organization) {
		return fmt.Errorf("%w: organization %q has invalid characters", ErrNotConfigured, c.Bitbucket.Organization)
	}
	if !namePattern.MatchString(c.Bitbucket.Project) {
		return fmt.Errorf("%w: project %q has invalid characters", ErrNotConfigured, c.Bitbucket.Project)
	}
	if c.Bitbucket.BaseURL == "" {
		return errors.New("bitbucket.base_url is required")
	}
	if c.Scan.MaxPages < 1 {
		return errors.New("scan.max_pages must be at least 1")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")

	v.SetDefault("bitbucket.base_url", "https://bitbucket.org")
	v.SetDefault("bitbucket.http_timeout", 30*time.Second)

	v.SetDefault("scan.max_pages", 20)
	v.SetDefault("scan.fetch_retries", 3)
	v.SetDefault("scan.retry_backoff", 500*time.Millisecond)
}

func bindEnvs(v *viper.Viper) {
	keys := []string{
		"logging.level",
		"bitbucket.base_url",
		"bitbucket.organization",
		"bitbucket.project",
		"bitbucket.token",
		"bitbucket.http_timeout",
		"scan.max_pages",
		"scan.fetch_retries",
		"scan.retry_backoff",
	}

	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}
