package analysis

import (
	"fmt"
	"strings"

	"github.com/datamind-studio/datamind/internal/ingest"
	"github.com/datamind-studio/datamind/internal/utils"
)

const (
	// MaxDataChars caps the data snippet embedded in the prompt.
	MaxDataChars = 100000
	// TruncationMarker is appended to a snippet that was cut.
	TruncationMarker = "...(truncated)"
	// NoFileContext replaces the snippet when no file was uploaded.
	NoFileContext = "No file was provided; use simulated data based on the description."
)

// Built is the ready-to-send material for one analysis call.
type Built struct {
	FileName     string
	Instruction  string
	Prompt       string
	Schema       *Schema
	Snippet      string
	Truncated    bool
	PromptTokens int
}

// Builder assembles instructions and prompts. The zero value uses
// MaxDataChars.
type Builder struct {
	MaxDataChars int
}

// Build assembles a request with the default data cap.
func Build(req Request) Built {
	return Builder{}.Build(req)
}

// Build assembles the instruction, prompt, and response schema for req.
func (b Builder) Build(req Request) Built {
	limit := b.MaxDataChars
	if limit <= 0 {
		limit = MaxDataChars
	}
	fileName := strings.TrimSpace(req.FileName)
	if fileName == "" {
		fileName = DefaultFileName
	}
	snippet, truncated := Snippet(req.DataContext, limit)
	if req.DataContext == "" {
		snippet = NoFileContext
	}
	modelsList := joinOrNone(req.Models)
	metricsList := joinOrNone(req.Metrics)

	instruction := buildInstruction(fileName, modelsList, metricsList)
	prompt := buildPrompt(fileName, snippet, strings.TrimSpace(req.Goal), modelsList, metricsList)
	return Built{
		FileName:     fileName,
		Instruction:  instruction,
		Prompt:       prompt,
		Schema:       ResponseSchema(),
		Snippet:      snippet,
		Truncated:    truncated,
		PromptTokens: utils.CountTokens(instruction) + utils.CountTokens(prompt),
	}
}

// Snippet cuts data to limit characters and appends TruncationMarker when
// anything was removed.
func Snippet(data string, limit int) (string, bool) {
	cut, truncated := utils.TruncateRunes(data, limit)
	if !truncated {
		return data, false
	}
	return cut + TruncationMarker, true
}

func joinOrNone[T ~string](vals []T) string {
	if len(vals) == 0 {
		return "none specified"
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

func readHint(fileName string) string {
	if ingest.IsSpreadsheet(fileName) {
		return fmt.Sprintf("The file is Excel: USE pd.read_excel(%q).", fileName)
	}
	return fmt.Sprintf("The file is delimited text: use pd.read_csv(%q).", fileName)
}

func buildInstruction(fileName, modelsList, metricsList string) string {
	var sb strings.Builder
	sb.WriteString("Act as an expert Data Engineer and Senior Data Scientist specialized in predictive analysis and time series.\n")
	sb.WriteString("Your goal is:\n")
	fmt.Fprintf(&sb, "1. Generate robust, professional Python code that reads the file '%s' and analyzes it.\n", fileName)
	fmt.Fprintf(&sb, "   - %s\n", readHint(fileName))
	sb.WriteString("   - Excel files (.xlsx/.xls) are read with pd.read_excel, CSV files with pd.read_csv.\n\n")

	sb.WriteString("CRITICAL INSTRUCTIONS FOR DRAW DATA (columns like N1, N2 ... N6):\n")
	sb.WriteString("- If you detect columns that suggest a draw (N1 to N6, Balls, Numbers, etc.):\n")
	sb.WriteString("  - Your absolute priority is to PREDICT THE NEXT COMBINATION OF 6 NUMBERS.\n")
	sb.WriteString("  - You must generate EXACTLY 5 DISTINCT likely COMBINATIONS.\n")
	sb.WriteString("  - The generated Python code MUST include an explicit function that computes and prints, for each predicted combination:\n")
	sb.WriteString("    * The total sum of the 6 numbers.\n")
	sb.WriteString("    * The count of even numbers.\n")
	sb.WriteString("    * The count of odd numbers.\n")
	sb.WriteString("  - The Python algorithm should use MultiOutputRegressor (e.g. RandomForest or LSTM) or frequency analysis to predict whole vectors.\n\n")

	sb.WriteString("EVALUATION METRICS:\n")
	fmt.Fprintf(&sb, "- You must explicitly compute and report the metrics selected by the user: %s.\n", metricsList)
	sb.WriteString("- Include the Python code that computes these metrics (using sklearn.metrics or other libraries).\n\n")

	sb.WriteString("The Python code must include:\n")
	sb.WriteString("- Correct data loading.\n")
	sb.WriteString("- Data cleaning.\n")
	fmt.Fprintf(&sb, "- Model training (%s).\n", modelsList)
	fmt.Fprintf(&sb, "- Metric computation: %s.\n", metricsList)
	sb.WriteString("- Clear prints of the 5 predictions formatted as \"N1 - N2 - N3...\" with their stats (Sum, Evens, Odds).\n")
	return sb.String()
}

func buildPrompt(fileName, snippet, goal, modelsList, metricsList string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "File name: %s\n\n", fileName)
	sb.WriteString("Data snippet:\n")
	sb.WriteString(snippet)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "User goal: %s\n\n", goal)
	fmt.Fprintf(&sb, "Requested models: %s\n", modelsList)
	fmt.Fprintf(&sb, "Requested metrics: %s\n\n", metricsList)

	sb.WriteString("Produce a JSON response with this strict structure:\n")
	sb.WriteString("1. \"pythonCode\": the complete Python script.\n")
	sb.WriteString("   - For draws, the script must print the 5 most likely combinations AND their stats (Sum, Evens, Odds).\n")
	sb.WriteString("2. \"metrics\": an object containing:\n")
	sb.WriteString("   - \"description\": a textual summary of performance.\n")
	sb.WriteString("   - \"items\": array of objects with \"label\" (metric name), \"value\" (number or formatted string), and \"type\" ('success' | 'warning' | 'info' | 'error').\n")
	sb.WriteString("3. \"predictions\": array of EXACTLY 5 objects.\n")
	sb.WriteString("   - FOR DRAWS/LOTTERY (N1...N6):\n")
	sb.WriteString("     - 'label': THE NUMBER SEQUENCE SEPARATED BY HYPHENS (string: \"N1 - N2 - N3 - N4 - N5 - N6\"). Make sure to use hyphens.\n")
	sb.WriteString("     - 'value': estimated probability (0-100).\n")
	sb.WriteString("     - 'sum': the arithmetic sum of the 6 numbers (number).\n")
	sb.WriteString("     - 'evens': count of even numbers (number).\n")
	sb.WriteString("     - 'odds': count of odd numbers (number).\n")
	sb.WriteString("   - OTHER CASES: 'label' is the variable, 'value' the value.\n")
	sb.WriteString("4. \"chartData\": array for visualization.\n")
	sb.WriteString("   - IMPORTANT: produce AT LEAST 50-100 real historical data points (taken from the snippet) so the chart is dense and useful.\n")
	sb.WriteString("   - Draws: plot the sum of each historical draw (Y axis) against its index/date (X axis) to show volatility.\n")
	sb.WriteString("5. \"recommendations\": list of 3 recommendations based on the data.\n")
	return sb.String()
}
