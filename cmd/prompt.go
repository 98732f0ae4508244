package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/datamind-studio/datamind/internal/analysis"
	"github.com/datamind-studio/datamind/internal/ingest"
)

var (
	promptGoal    string
	promptModels  []string
	promptMetrics []string
	promptSection string
)

var promptCmd = &cobra.Command{
	Use:   "prompt [file]",
	Short: "Print the system instruction and prompt an analysis would send",
	Example: `  datamind prompt sales.xlsx --goal "Forecast revenue"
  datamind prompt --goal "Predict churn from usage" --section instruction`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer resetLocalFlags(cmd)
		req := analysis.Request{Goal: analysis.DefaultGoal}
		if cmd.Flags().Changed("goal") {
			req.Goal = promptGoal
		}
		var err error
		if req.Models, err = parseModelIDs(promptModels); err != nil {
			return err
		}
		if req.Metrics, err = parseMetricIDs(promptMetrics); err != nil {
			return err
		}
		if len(args) == 1 {
			data, err := ingest.IngestFile(args[0])
			if err != nil {
				return fmt.Errorf("ingest %s: %w", args[0], err)
			}
			req.DataContext = data
			req.FileName = filepath.Base(args[0])
		}
		built := analysis.Builder{MaxDataChars: currentConfig().MaxDataChars}.Build(req)

		out := cmd.OutOrStdout()
		switch promptSection {
		case "", "all":
			fmt.Fprintln(out, "=== System instruction ===")
			fmt.Fprintln(out, built.Instruction)
			fmt.Fprintln(out, "\n=== Prompt ===")
			fmt.Fprintln(out, built.Prompt)
		case "instruction":
			fmt.Fprintln(out, built.Instruction)
		case "prompt":
			fmt.Fprintln(out, built.Prompt)
		default:
			return fmt.Errorf("invalid --section: %s (use all|instruction|prompt)", promptSection)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVarP(&promptGoal, "goal", "g", "", "analysis goal (default \""+analysis.DefaultGoal+"\")")
	promptCmd.Flags().StringSliceVar(&promptModels, "models", nil, "modeling approaches by id (default linear)")
	promptCmd.Flags().StringSliceVar(&promptMetrics, "metrics", nil, "evaluation metrics by id (default accuracy,mse)")
	promptCmd.Flags().StringVar(&promptSection, "section", "all", "what to print: all|instruction|prompt")
}
