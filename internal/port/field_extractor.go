package port

import (
	"context"

	"docintake/internal/domain"
)

// ImageInput is one page image handed to a model.
type ImageInput struct {
	Bytes       []byte
	ContentType string
}

// ExtractInput carries the data an LLM backend needs to propose fields.
type ExtractInput struct {
	Text   string
	Images []ImageInput
	// DocumentType is the locally classified type, empty when unknown.
	DocumentType domain.DocumentType
}

// ExtractOutput contains the fields proposed by one or more LLM backends.
type ExtractOutput struct {
	Fields        []domain.Field
	SuggestedType domain.DocumentType
	ModelUsed     string
	// FieldProvenance records which backend produced each field key
	// (populated when several backends run together).
	FieldProvenance map[string]string
}

// FieldExtractor abstracts LLM-based field extraction.
type FieldExtractor interface {
	Extract(ctx context.Context, input ExtractInput) (*ExtractOutput, error)
}
