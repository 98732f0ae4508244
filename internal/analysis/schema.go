package analysis

// SchemaVersion identifies the response contract. Bump it whenever
// ResponseSchema or AnalysisResult changes shape; the renderer pins the
// version it understands.
const SchemaVersion = "1"

// Schema types, as accepted by the generateContent responseSchema field.
const (
	TypeObject  = "OBJECT"
	TypeArray   = "ARRAY"
	TypeString  = "STRING"
	TypeNumber  = "NUMBER"
	TypeInteger = "INTEGER"
	TypeBoolean = "BOOLEAN"
)

// Schema is the OpenAPI subset understood by the Gemini structured output
// feature.
type Schema struct {
	Type             string             `json:"type"`
	Description      string             `json:"description,omitempty"`
	Enum             []string           `json:"enum,omitempty"`
	Nullable         bool               `json:"nullable,omitempty"`
	Properties       map[string]*Schema `json:"properties,omitempty"`
	PropertyOrdering []string           `json:"propertyOrdering,omitempty"`
	Items            *Schema            `json:"items,omitempty"`
	Required         []string           `json:"required,omitempty"`
}

func str(desc string) *Schema { return &Schema{Type: TypeString, Description: desc} }

func num(desc string) *Schema { return &Schema{Type: TypeNumber, Description: desc} }

func object(order []string, props map[string]*Schema, required ...string) *Schema {
	return &Schema{Type: TypeObject, Properties: props, PropertyOrdering: order, Required: required}
}

func array(items *Schema) *Schema { return &Schema{Type: TypeArray, Items: items} }

// ResponseSchema returns a fresh copy of the strict output contract.
func ResponseSchema() *Schema {
	enum := make([]string, len(Categories))
	for i, c := range Categories {
		enum[i] = string(c)
	}
	metricItem := object([]string{"label", "value", "type"}, map[string]*Schema{
		"label": str("Metric name (e.g. RMSE)."),
		"value": str("Metric value."),
		"type":  {Type: TypeString, Enum: enum},
	}, "label", "value", "type")

	prediction := object([]string{"label", "value", "confidence", "sum", "evens", "odds"}, map[string]*Schema{
		"label":      str("The number combination (e.g. '10 - 20 - 30 - 40 - 50 - 60') or the predicted variable."),
		"value":      num("Probability score (0-100)."),
		"confidence": str("Confidence text (e.g. 'High')."),
		"sum":        num("Total of the numbers."),
		"evens":      num("Count of even numbers."),
		"odds":       num("Count of odd numbers."),
	}, "label", "value")

	point := object([]string{"name", "historical", "prediction"}, map[string]*Schema{
		"name":       {Type: TypeString},
		"historical": {Type: TypeNumber, Nullable: true},
		"prediction": {Type: TypeNumber, Nullable: true},
	}, "name")

	return object(
		[]string{"pythonCode", "metrics", "predictions", "chartData", "recommendations"},
		map[string]*Schema{
			"pythonCode": str("The complete Python script for analysis and prediction."),
			"metrics": object([]string{"description", "items"}, map[string]*Schema{
				"description": str("Summary of the model status."),
				"items":       array(metricItem),
			}, "description", "items"),
			"predictions":     array(prediction),
			"chartData":       array(point),
			"recommendations": array(&Schema{Type: TypeString}),
		},
		"pythonCode", "metrics", "predictions", "chartData", "recommendations",
	)
}
