package handler

import (
	"fmt"
	"strings"

	"docintake/internal/domain"
)

// FieldInput is a field supplied by a client, e.g. from on-device vision.
type FieldInput struct {
	Key        string   `json:"key"`
	Value      string   `json:"value"`
	Confidence *float64 `json:"confidence,omitempty"`
	Source     string   `json:"source,omitempty"`
}

// ClassifyRequest is the body of POST /classify and /card-details.
type ClassifyRequest struct {
	Text   string       `json:"text"`
	Fields []FieldInput `json:"fields"`
	Hint   string       `json:"hint"`
}

// ExtractRequest is the body of POST /extract.
type ExtractRequest struct {
	Text         string `json:"text" binding:"required"`
	DocumentType string `json:"document_type"`
}

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest struct {
	Text    string       `json:"text"`
	Fields  []FieldInput `json:"fields"`
	Hint    string       `json:"hint"`
	SkipLLM bool         `json:"skip_llm"`
}

// DeduplicateRequest is the body of POST /deduplicate.
type DeduplicateRequest struct {
	Fields []FieldInput `json:"fields" binding:"required"`
}

// AddFieldRequest is the body of POST /documents/:id/fields.
type AddFieldRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value"`
}

// EditFieldRequest is the body of PUT /documents/:id/fields/:fieldId.
type EditFieldRequest struct {
	Value string `json:"value"`
}

// ReanalyzeRequest is the optional body of POST /documents/:id/reanalyze.
type ReanalyzeRequest struct {
	Hint string `json:"hint"`
}

// TypeInfo describes one document type.
type TypeInfo struct {
	Type        domain.DocumentType `json:"type"`
	Description string              `json:"description"`
}

// toFields converts client fields to domain fields. A missing confidence
// means 1 and a missing source means vision.
func toFields(in []FieldInput) ([]domain.Field, error) {
	out := make([]domain.Field, 0, len(in))
	for i, fi := range in {
		conf := 1.0
		if fi.Confidence != nil {
			conf = *fi.Confidence
		}
		source := domain.FieldSourceVision
		if fi.Source != "" {
			source = domain.FieldSource(strings.ToLower(fi.Source))
		}
		f := domain.NewField(strings.TrimSpace(fi.Key), fi.Value, conf, source)
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("fields[%d]: %w", i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

// parseHint resolves an optional document type name.
func parseHint(s string) (*domain.DocumentType, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := domain.ParseDocumentType(s)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", s, err)
	}
	return &t, nil
}
