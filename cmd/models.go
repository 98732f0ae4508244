package cmd

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/datamind-studio/datamind/internal/ai"
	"github.com/datamind-studio/datamind/internal/utils"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect or update the Gemini model catalog and pricing",
	Example: `  datamind models show
  datamind models sync --file ./models.json
  datamind models sync --file ./models.json --merge
  datamind models fetch --url https://example.com/gemini-models.json --output models.json`,
}

var modelsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current model catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := ai.Catalog()
		keys := make([]string, 0, len(cat))
		for k := range cat {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := cmd.OutOrStdout()
		tiers := map[string]string{}
		for _, t := range ai.Tiers() {
			name, _ := ai.RecommendModel(t)
			tiers[name] = t
		}
		for _, k := range keys {
			mi := cat[k]
			fmt.Fprintf(out, "%-24s context≈%-8d in $%.5f/1K  out $%.5f/1K", k, mi.ContextTokens, mi.InputPerK, mi.OutputPerK)
			if t, ok := tiers[k]; ok {
				fmt.Fprintf(out, "  [%s]", t)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

var (
	syncPath  string
	syncMerge bool
)

var modelsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Load model catalog/pricing from a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer resetLocalFlags(cmd)
		if syncPath == "" {
			return fmt.Errorf("--file is required")
		}
		m, err := ai.LoadCatalogFromJSON(syncPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		applyCatalog(cmd.OutOrStdout(), m, syncMerge)
		return nil
	},
}

var (
	fetchURL    string
	fetchOutput string
	fetchMerge  bool
)

var modelsFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch model catalog/pricing JSON from a URL and apply it",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer resetLocalFlags(cmd)
		if fetchURL == "" {
			return fmt.Errorf("--url is required")
		}
		client := &http.Client{Timeout: 20 * time.Second}
		resp, err := client.Get(fetchURL)
		if err != nil {
			return fmt.Errorf("fetch: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
			return fmt.Errorf("fetch: unexpected status %s: %s", resp.Status, string(b))
		}
		var m map[string]ai.ModelInfo
		if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		if fetchOutput != "" {
			data, err := utils.PrettyJSON(m)
			if err != nil {
				return err
			}
			if err := utils.SafeWriteFile(fetchOutput, data); err != nil {
				return fmt.Errorf("write file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved catalog to %s\n", fetchOutput)
		}
		applyCatalog(cmd.OutOrStdout(), m, fetchMerge)
		return nil
	},
}

// applyCatalog updates the in-memory catalog for the rest of this process.
func applyCatalog(w io.Writer, m map[string]ai.ModelInfo, merge bool) {
	if merge {
		ai.MergeCatalog(m)
		fmt.Fprintf(w, "Merged %d models into the catalog\n", len(m))
		return
	}
	ai.OverrideCatalog(m)
	fmt.Fprintf(w, "Replaced the catalog with %d models\n", len(m))
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsShowCmd)
	modelsCmd.AddCommand(modelsSyncCmd)
	modelsCmd.AddCommand(modelsFetchCmd)

	modelsSyncCmd.Flags().StringVar(&syncPath, "file", "", "path to JSON catalog file")
	modelsSyncCmd.Flags().BoolVar(&syncMerge, "merge", false, "merge into existing catalog instead of replacing")

	modelsFetchCmd.Flags().StringVar(&fetchURL, "url", "", "URL to JSON catalog file")
	modelsFetchCmd.Flags().StringVar(&fetchOutput, "output", "", "optional path to save the fetched JSON")
	modelsFetchCmd.Flags().BoolVar(&fetchMerge, "merge", false, "merge into existing catalog instead of replacing")
}
