package tool

// JSONSchema captures the subset of JSON Schema used to declare tool
// parameters to the model.
type JSONSchema struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Required   []string               `json:"required,omitempty"`
	Enum       []interface{}          `json:"enum,omitempty"`
	Items      *JSONSchema            `json:"items,omitempty"`
}
