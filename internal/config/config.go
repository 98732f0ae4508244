package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted for the Gemini credential, in order.
var CredentialEnvVars = []string{"GEMINI_API_KEY", "API_KEY"}

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-3-pro-preview"

// Global configuration structure.
type Global struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	Model   string `mapstructure:"model" yaml:"model"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	HTTPTimeoutSec int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	MaxDataChars   int `mapstructure:"max_data_chars" yaml:"max_data_chars"`

	// Studio server
	ListenAddr      string `mapstructure:"listen_addr" yaml:"listen_addr"`
	CSRFKey         string `mapstructure:"csrf_key" yaml:"csrf_key"`
	CSRFSecure      bool   `mapstructure:"csrf_secure" yaml:"csrf_secure"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	RunsPerMinute   int    `mapstructure:"runs_per_minute" yaml:"runs_per_minute"`
	WorkspaceTTLMin int    `mapstructure:"workspace_ttl_min" yaml:"workspace_ttl_min"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Credential resolves the API key at call time. Environment variables win
// over the config file so a rotated key takes effect without a restart.
func (c *Global) Credential() string {
	for _, k := range CredentialEnvVars {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.APIKey)
}

// HTTPTimeout returns the outbound request timeout.
func (c *Global) HTTPTimeout() time.Duration {
	if c.HTTPTimeoutSec <= 0 {
		return 180 * time.Second
	}
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// WorkspaceTTL returns how long an idle studio workspace is kept.
func (c *Global) WorkspaceTTL() time.Duration {
	if c.WorkspaceTTLMin <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(c.WorkspaceTTLMin) * time.Minute
}

// DefaultPath returns ~/.datamind/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".datamind", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datamind/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from .env, environment, config file, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("DATAMIND")
	v.AutomaticEnv()

	v.SetDefault("api_key", "")
	v.SetDefault("model", DefaultModel)
	v.SetDefault("base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("http_timeout_sec", 180)
	v.SetDefault("max_data_chars", 100000)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("csrf_key", "")
	v.SetDefault("csrf_secure", false)
	v.SetDefault("max_upload_mb", 32)
	v.SetDefault("runs_per_minute", 10)
	v.SetDefault("workspace_ttl_min", 120)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".datamind"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
