package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datamind-studio/datamind/internal/analysis"
	"github.com/datamind-studio/datamind/internal/utils"
)

var catalogJSON bool

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the selectable modeling approaches and metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer resetLocalFlags(cmd)
		out := cmd.OutOrStdout()
		if catalogJSON {
			b, err := utils.PrettyJSON(map[string]any{
				"models":          analysis.Models(),
				"metrics":         analysis.Metrics(),
				"default_models":  analysis.DefaultModels(),
				"default_metrics": analysis.DefaultMetrics(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		defModels := map[analysis.ModelType]bool{}
		for _, m := range analysis.DefaultModels() {
			defModels[m] = true
		}
		defMetrics := map[analysis.MetricType]bool{}
		for _, m := range analysis.DefaultMetrics() {
			defMetrics[m] = true
		}
		fmt.Fprintln(out, "Models:")
		for _, o := range analysis.Models() {
			fmt.Fprintf(out, "  %-11s %s%s\n", o.ID, o.Value, defaultMark(defModels[o.Value], o.Hint))
		}
		fmt.Fprintln(out, "\nMetrics:")
		for _, o := range analysis.Metrics() {
			fmt.Fprintf(out, "  %-11s %s%s\n", o.ID, o.Value, defaultMark(defMetrics[o.Value], o.Hint))
		}
		return nil
	},
}

func defaultMark(isDefault bool, hint string) string {
	var parts []string
	if hint != "" {
		parts = append(parts, hint)
	}
	if isDefault {
		parts = append(parts, "default")
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().BoolVar(&catalogJSON, "json", false, "emit the catalog as JSON")
}
