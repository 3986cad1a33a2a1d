// Package config loads the application configuration from defaults, an optional
// YAML file, a .env file, environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the application,
// e.g. PRSIZE_AUDIT_ORG. GITHUB_TOKEN is also honored for the token.
const EnvPrefix = "PRSIZE"

// Config is the full application configuration.
type Config struct {
	GitHub GitHubConfig `mapstructure:"github"`
	Audit  AuditConfig  `mapstructure:"audit"`
	Log    LogConfig    `mapstructure:"log"`
	Server ServerConfig `mapstructure:"server"`
}

// GitHubConfig controls access to the GitHub API.
type GitHubConfig struct {
	Token              string        `mapstructure:"token"`
	BaseURL            string        `mapstructure:"base_url"`
	GraphQLURL         string        `mapstructure:"graphql_url"`
	DetailAPI          string        `mapstructure:"detail_api"`
	Timeout            time.Duration `mapstructure:"timeout"`
	SecondaryLimitWait time.Duration `mapstructure:"secondary_limit_wait"`
}

// AuditConfig holds the deployment choices of the audit pipeline.
type AuditConfig struct {
	Org      string `mapstructure:"org"`
	Strategy string `mapstructure:"strategy"`
	Verdict  string `mapstructure:"verdict"`
	Buckets  string `mapstructure:"buckets"`
	PageSize int    `mapstructure:"page_size"`
	Workers  int    `mapstructure:"workers"`
}

// LogConfig configures the zap logger. An empty level disables logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig configures the HTTP server of the serve command.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	AuditTimeout time.Duration `mapstructure:"audit_timeout"`
}

// SetDefaults registers every key with its default so environment variables
// can override any of them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("github.token", "")
	v.SetDefault("github.base_url", "")
	v.SetDefault("github.graphql_url", "")
	v.SetDefault("github.detail_api", "rest")
	v.SetDefault("github.timeout", 30*time.Second)
	v.SetDefault("github.secondary_limit_wait", time.Duration(0))

	v.SetDefault("audit.org", "")
	v.SetDefault("audit.strategy", "labels")
	v.SetDefault("audit.verdict", "ratio")
	v.SetDefault("audit.buckets", "5")
	v.SetDefault("audit.page_size", 100)
	v.SetDefault("audit.workers", 8)

	v.SetDefault("log.level", "")
	v.SetDefault("log.format", "console")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.audit_timeout", 60*time.Second)
}

// Load reads the configuration into a validated Config. configFile may be empty.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	SetDefaults(v)
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("github.token", EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind token environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.GitHub.Token = strings.TrimSpace(c.GitHub.Token)
	c.GitHub.DetailAPI = strings.ToLower(strings.TrimSpace(c.GitHub.DetailAPI))
	c.Audit.Org = strings.TrimSpace(c.Audit.Org)
	c.Audit.Strategy = strings.ToLower(strings.TrimSpace(c.Audit.Strategy))
	c.Audit.Verdict = strings.ToLower(strings.TrimSpace(c.Audit.Verdict))
	c.Audit.Buckets = strings.TrimSpace(c.Audit.Buckets)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}

// Validate rejects unknown choices and out-of-range numbers.
func (c *Config) Validate() error {
	var errs []error
	switch c.Audit.Strategy {
	case "labels", "direct":
	default:
		errs = append(errs, fmt.Errorf("audit.strategy must be labels or direct, got %q", c.Audit.Strategy))
	}
	switch c.Audit.Verdict {
	case "ratio", "majority":
	default:
		errs = append(errs, fmt.Errorf("audit.verdict must be ratio or majority, got %q", c.Audit.Verdict))
	}
	switch c.Audit.Buckets {
	case "5", "6":
	default:
		errs = append(errs, fmt.Errorf("audit.buckets must be 5 or 6, got %q", c.Audit.Buckets))
	}
	switch c.Audit.PageSize {
	case 30, 100:
	default:
		errs = append(errs, fmt.Errorf("audit.page_size must be 30 or 100, got %d", c.Audit.PageSize))
	}
	if strings.ContainsFunc(c.Audit.Org, unicode.IsSpace) {
		errs = append(errs, fmt.Errorf("audit.org must be a single organization name, got %q", c.Audit.Org))
	}
	if c.Audit.Workers < 1 {
		errs = append(errs, fmt.Errorf("audit.workers must be positive, got %d", c.Audit.Workers))
	}
	switch c.GitHub.DetailAPI {
	case "rest":
	case "graphql":
		if c.GitHub.Token == "" {
			errs = append(errs, errors.New("github.detail_api=graphql requires a token (GITHUB_TOKEN)"))
		}
	default:
		errs = append(errs, fmt.Errorf("github.detail_api must be rest or graphql, got %q", c.GitHub.DetailAPI))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
