package cmd

import (
	"context"
	"crypto/sha1"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datamind-studio/datamind/internal/ai"
	"github.com/datamind-studio/datamind/internal/analysis"
	"github.com/datamind-studio/datamind/internal/ingest"
	"github.com/datamind-studio/datamind/internal/utils"
)

var (
	anGoal        string
	anModel       string
	anModelPreset string
	anModels      []string
	anMetrics     []string
	anDryRun      bool
	anPrintPrompt bool
	anJSON        bool
	anQuiet       bool
	anOutputPath  string
	anChartPath   string
	anCodePath    string
	anShowCode    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Run one analysis from the terminal",
	Long: `Ingests an optional data file (Excel workbooks become CSV of their first
sheet), builds the prompt for the selected models and metrics, and makes a
single Gemini call. Without a file the goal must be at least 10 characters
and the model simulates data from the description.`,
	Example: `  datamind analyze sales.xlsx --goal "Forecast next quarter revenue"
  datamind analyze data.csv --models linear,trees --metrics r2,rmse --chart trend.html
  datamind analyze --goal "Predict house prices from size and location" --dry-run
  datamind analyze draws.csv --json --output result.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer resetLocalFlags(cmd)
		if anJSON {
			anQuiet = true
		}
		out := cmd.OutOrStdout()
		c := currentConfig()

		req := analysis.Request{Goal: anGoal}
		if !cmd.Flags().Changed("goal") {
			req.Goal = analysis.DefaultGoal
		}
		var err error
		if req.Models, err = parseModelIDs(anModels); err != nil {
			return err
		}
		if req.Metrics, err = parseMetricIDs(anMetrics); err != nil {
			return err
		}
		if len(args) == 1 {
			path := args[0]
			data, err := ingest.IngestFile(path)
			if err != nil {
				return fmt.Errorf("ingest %s: %w", path, err)
			}
			req.DataContext = data
			req.FileName = filepath.Base(path)
			if !anQuiet && ingest.IsSpreadsheet(path) {
				fmt.Fprintf(out, "Converted %s to CSV (%d chars)\n", req.FileName, len(data))
			}
		}
		if err := req.Validate(); err != nil {
			return fmt.Errorf("%s: %w", ai.UserMessage(err), err)
		}

		model, err := resolveModel(c, anModel, anModelPreset)
		if err != nil {
			return err
		}
		built := analysis.Builder{MaxDataChars: c.MaxDataChars}.Build(req)

		if !anQuiet {
			bd := utils.TokenBreakdown(map[string]string{
				"instruction": built.Instruction,
				"data":        built.Snippet,
				"prompt":      built.Prompt,
			})
			fmt.Fprintf(out, "Tokens: total≈%d (instruction≈%d, data≈%d, prompt≈%d)\n",
				built.PromptTokens, bd["instruction"], bd["data"], bd["prompt"])
			if built.Truncated {
				fmt.Fprintf(out, "⚠ Data exceeds %d characters and was truncated before sending\n", dataLimit(c.MaxDataChars))
			}
			if mi, ok := ai.LookupModel(model); ok {
				if !ai.FitsContext(model, built.PromptTokens) {
					fmt.Fprintf(out, "⚠ Prompt (≈%d tokens) exceeds %s context window (~%d tokens)\n", built.PromptTokens, mi.Name, mi.ContextTokens)
				}
				if cost, ok := ai.EstimateCostUSD(model, built.PromptTokens, expectedCompletionTokens); ok {
					fmt.Fprintf(out, "Estimated cost: ~$%.4f (in %.5f/out %.5f per 1K tokens)\n", cost, mi.InputPerK, mi.OutputPerK)
				}
			}
		}

		if anDryRun {
			if !anQuiet {
				// Deterministic dry-run request id for observability
				sum := sha1.Sum([]byte(built.Instruction + built.Prompt))
				fmt.Fprintln(out, "\n--dry-run: no API call will be made. Prompt preview below --")
				fmt.Fprintf(out, "Request ID (dry-run): sim_%x\n", sum[:6])
				fmt.Fprintf(out, "Model: %s\n\n", model)
			}
			fmt.Fprintln(out, built.Instruction)
			fmt.Fprintln(out)
			fmt.Fprintln(out, built.Prompt)
			return nil
		}

		if anPrintPrompt && !anQuiet {
			fmt.Fprintln(out, "\n--print-prompt: sending the following prompt --")
			fmt.Fprintln(out, built.Prompt)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, cancel := context.WithTimeout(ctx, c.HTTPTimeout())
		defer cancel()

		if !anQuiet {
			fmt.Fprintf(out, "⚙ Analyzing with model=%s (prompt tokens≈%d) ...\n", model, built.PromptTokens)
		}
		analyzer := ai.NewAnalyzer(newRuntime(c), model)
		res, err := analyzer.Analyze(ctx, built)
		if err != nil {
			return explainRunError(err, model, built.PromptTokens)
		}
		return writeAnalysisOutput(res, outputOptions{
			JSON:         anJSON,
			Quiet:        anQuiet,
			ShowCode:     anShowCode,
			FileName:     built.FileName,
			Model:        model,
			PromptTokens: built.PromptTokens,
			OutputPath:   anOutputPath,
			ChartPath:    anChartPath,
			CodePath:     anCodePath,
			Writer:       out,
		})
	},
}

// expectedCompletionTokens sizes the cost estimate for a typical reply.
const expectedCompletionTokens = 4096

func dataLimit(n int) int {
	if n <= 0 {
		return analysis.MaxDataChars
	}
	return n
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anGoal, "goal", "g", "", "what the analysis should achieve (default \""+analysis.DefaultGoal+"\")")
	analyzeCmd.Flags().StringVar(&anModel, "model", "", "Gemini model id (default from config)")
	analyzeCmd.Flags().StringVar(&anModelPreset, "model-preset", "", "pick the Gemini model by tier: "+strings.Join(ai.Tiers(), "|"))
	analyzeCmd.Flags().StringSliceVar(&anModels, "models", nil, "modeling approaches by id: linear|polynomial|trees|ann|svm (default linear)")
	analyzeCmd.Flags().StringSliceVar(&anMetrics, "metrics", nil, "evaluation metrics by id: accuracy|mse|rmse|mae|r2|f1|precision|recall (default accuracy,mse)")
	analyzeCmd.Flags().BoolVar(&anDryRun, "dry-run", false, "build the prompt and print the token breakdown without calling the API")
	analyzeCmd.Flags().BoolVar(&anPrintPrompt, "print-prompt", false, "print the prompt being sent to the API")
	analyzeCmd.Flags().BoolVar(&anJSON, "json", false, "emit the result as JSON to stdout")
	analyzeCmd.Flags().BoolVar(&anQuiet, "quiet", false, "suppress non-essential output")
	analyzeCmd.Flags().BoolVar(&anShowCode, "code", false, "include the generated Python script in text output")
	analyzeCmd.Flags().StringVar(&anOutputPath, "output", "", "write the result JSON to this path")
	analyzeCmd.Flags().StringVar(&anChartPath, "chart", "", "write the trend chart as a standalone HTML page")
	analyzeCmd.Flags().StringVar(&anCodePath, "code-out", "", "write the generated Python script to this path")
}
