package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datamind-studio/datamind/internal/analysis"
	"github.com/datamind-studio/datamind/internal/utils"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON response schema sent with every analysis",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := utils.PrettyJSON(map[string]any{
			"version": analysis.SchemaVersion,
			"schema":  analysis.ResponseSchema(),
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
