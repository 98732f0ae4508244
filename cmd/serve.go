package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/datamind-studio/datamind/internal/ai"
	"github.com/datamind-studio/datamind/internal/logging"
	"github.com/datamind-studio/datamind/internal/web"
)

var (
	serveAddr        string
	serveModel       string
	serveModelPreset string
	serveOrigins     []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the DataMind studio web server",
	Example: `  datamind serve
  datamind serve --addr 127.0.0.1:9000 --model-preset balanced
  DATAMIND_CSRF_KEY=... datamind serve --addr :8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defer resetLocalFlags(cmd)
		c := currentConfig()
		addr := c.ListenAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		model, err := resolveModel(c, serveModel, serveModelPreset)
		if err != nil {
			return err
		}
		if c.Credential() == "" {
			logger := logging.Component("serve")
			logger.Warn().Msg("no API key configured; analysis runs will fail until GEMINI_API_KEY is set")
		}

		analyzer := ai.NewAnalyzer(newRuntime(c), model)
		srv, err := web.New(web.Options{
			Addr:            addr,
			ModelName:       model,
			CSRFKey:         c.CSRFKey,
			CSRFSecure:      c.CSRFSecure,
			TrustedOrigins:  serveOrigins,
			MaxUploadBytes:  int64(c.MaxUploadMB) << 20,
			RunsPerMinute:   c.RunsPerMinute,
			WorkspaceTTL:    c.WorkspaceTTL(),
			AnalysisTimeout: c.HTTPTimeout(),
			MaxDataChars:    c.MaxDataChars,
		}, analyzer)
		if err != nil {
			return fmt.Errorf("configure server: %w", err)
		}

		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(cmd.OutOrStdout(), "DataMind studio listening on %s (model=%s)\n", addr, model)
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config listen_addr)")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "Gemini model id (default from config)")
	serveCmd.Flags().StringVar(&serveModelPreset, "model-preset", "", "pick the Gemini model by tier: cheap|balanced|best")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "trusted-origin", nil, "extra origin allowed to post forms (repeatable, e.g. studio.example.com)")
}
