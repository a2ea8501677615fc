package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// extractionSchema constrains the JSON a provider must return.
var extractionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"document_type": map[string]any{"type": "string"},
		"fields": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []string{"key", "value"},
				"properties": map[string]any{
					"key":        map[string]any{"type": "string", "minLength": 1},
					"value":      map[string]any{},
					"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
				},
			},
		},
	},
	"required": []string{"fields"},
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		b, err := json.Marshal(extractionSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("extraction.json", bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("extraction.json")
	})
	return compiledSchema, compileErr
}

// ValidateOutput checks a provider's JSON output against the extraction schema.
func ValidateOutput(data []byte) error {
	s, err := schema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
