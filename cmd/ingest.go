package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/datamind-studio/datamind/internal/analysis"
	"github.com/datamind-studio/datamind/internal/ingest"
	"github.com/datamind-studio/datamind/internal/utils"
)

var (
	ingestOutput  string
	ingestPreview bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Convert a data file to the text an analysis would embed",
	Long: `Excel workbooks (.xlsx, .xls) become CSV of their first sheet; any other
file is read verbatim. With --preview the output is cut the same way the
prompt builder cuts it.`,
	Example: `  datamind ingest sales.xlsx > sales.csv
  datamind ingest sales.xlsx --output sales.csv
  datamind ingest huge.csv --preview`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer resetLocalFlags(cmd)
		path := args[0]
		text, err := ingest.IngestFile(path)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", filepath.Base(path), err)
		}
		if ingestPreview {
			text, _ = analysis.Snippet(text, dataLimit(currentConfig().MaxDataChars))
		}
		if ingestOutput != "" {
			if err := utils.SafeWriteFile(ingestOutput, []byte(text)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "💾 Saved %d chars to %s\n", len(text), ingestOutput)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&ingestOutput, "output", "", "write the converted text to this path")
	ingestCmd.Flags().BoolVar(&ingestPreview, "preview", false, "apply the prompt data cap and truncation marker")
}
