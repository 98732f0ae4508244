package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	cfgpkg "github.com/datamind-studio/datamind/internal/config"
	"github.com/datamind-studio/datamind/internal/logging"
)

var (
	cfgFile            string
	debug              bool
	flagHTTPTimeoutSec int
	flagLogLevel       string
	flagLogFormat      string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "datamind",
	Short: "DataMind AI Studio: turn a dataset and a goal into a modeling report",
	Long: `DataMind sends a dataset (CSV, Excel, text) together with a goal and a
choice of models and metrics to Gemini, and renders the returned Python
script, KPI metrics, predictions, trend chart, and recommendations.

Run 'datamind serve' for the web studio or 'datamind analyze' for a headless run.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.datamind/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "Gemini request timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: console|json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = defaultConfig()
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("log-level") && flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if f.Changed("log-format") && flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)
}

func defaultConfig() *cfgpkg.Global {
	return &cfgpkg.Global{Model: cfgpkg.DefaultModel, LogLevel: "info", LogFormat: logging.FormatConsole}
}

// currentConfig returns the loaded config, or defaults when loading was skipped.
func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		return defaultConfig()
	}
	return cfg
}

// resolveModel picks the Gemini model: explicit flag, then tier preset, then config.
func resolveModel(c *cfgpkg.Global, flagModel, preset string) (string, error) {
	if m := strings.TrimSpace(flagModel); m != "" {
		return m, nil
	}
	if preset != "" {
		return recommendModel(preset)
	}
	if m := strings.TrimSpace(c.Model); m != "" {
		return m, nil
	}
	return cfgpkg.DefaultModel, nil
}

// resetLocalFlags restores cmd's own flags to their defaults. Cobra and pflag
// keep both bound values and the set-flag record between Execute calls, so
// commands defer this.
func resetLocalFlags(cmd *cobra.Command) {
	cmd.LocalNonPersistentFlags().VisitAll(func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	})
}
