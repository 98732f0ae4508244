package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/datamind-studio/datamind/internal/config"
	"github.com/datamind-studio/datamind/internal/logging"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set DataMind configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "api_key: %s\n", mask(cfg.APIKey))
		if cfg.APIKey == "" {
			if k := cfg.Credential(); k != "" {
				fmt.Fprintf(out, "api_key (env): %s\n", mask(k))
			}
		}
		fmt.Fprintf(out, "model: %s\n", cfg.Model)
		fmt.Fprintf(out, "base_url: %s\n", cfg.BaseURL)
		fmt.Fprintf(out, "http_timeout_sec: %d\n", cfg.HTTPTimeoutSec)
		fmt.Fprintf(out, "max_data_chars: %d\n", cfg.MaxDataChars)
		fmt.Fprintf(out, "listen_addr: %s\n", cfg.ListenAddr)
		fmt.Fprintf(out, "csrf_key: %s\n", mask(cfg.CSRFKey))
		fmt.Fprintf(out, "csrf_secure: %t\n", cfg.CSRFSecure)
		fmt.Fprintf(out, "max_upload_mb: %d\n", cfg.MaxUploadMB)
		fmt.Fprintf(out, "runs_per_minute: %d\n", cfg.RunsPerMinute)
		fmt.Fprintf(out, "workspace_ttl_min: %d\n", cfg.WorkspaceTTLMin)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", cfg.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "api_key":
			cfg.APIKey = val
		case "model":
			cfg.Model = val
		case "base_url":
			cfg.BaseURL = strings.TrimRight(val, "/")
		case "http_timeout_sec":
			i, err := positiveInt(key, val)
			if err != nil {
				return err
			}
			cfg.HTTPTimeoutSec = i
		case "max_data_chars":
			i, err := positiveInt(key, val)
			if err != nil {
				return err
			}
			cfg.MaxDataChars = i
		case "listen_addr":
			cfg.ListenAddr = val
		case "csrf_key":
			if len(val) < 32 {
				return fmt.Errorf("csrf_key must be at least 32 characters")
			}
			cfg.CSRFKey = val
		case "csrf_secure":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for csrf_secure: %w", err)
			}
			cfg.CSRFSecure = b
		case "max_upload_mb":
			i, err := positiveInt(key, val)
			if err != nil {
				return err
			}
			cfg.MaxUploadMB = i
		case "runs_per_minute":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for runs_per_minute: %v (0 disables the limit)", val)
			}
			cfg.RunsPerMinute = i
		case "workspace_ttl_min":
			i, err := positiveInt(key, val)
			if err != nil {
				return err
			}
			cfg.WorkspaceTTLMin = i
		case "log_level":
			switch strings.ToLower(val) {
			case "debug", "info", "warn", "error":
				cfg.LogLevel = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid log_level: %s (use debug|info|warn|error)", val)
			}
		case "log_format":
			switch strings.ToLower(val) {
			case logging.FormatConsole, logging.FormatJSON:
				cfg.LogFormat = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid log_format: %s (use console or json)", val)
			}
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func positiveInt(key, val string) (int, error) {
	i, err := strconv.Atoi(val)
	if err != nil || i <= 0 {
		return 0, fmt.Errorf("invalid int for %s: %v", key, val)
	}
	return i, nil
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
