package domain

import (
	"time"

	"github.com/google/uuid"
)

// Field is one extracted key/value candidate for a document.
// Value may carry an opaque JSON array or object string.
type Field struct {
	ID            uuid.UUID   `db:"id" json:"id"`
	DocumentID    uuid.UUID   `db:"document_id" json:"document_id"`
	Key           string      `db:"key" json:"key"`
	Value         string      `db:"value" json:"value"`
	Confidence    float64     `db:"confidence" json:"confidence"`
	Source        FieldSource `db:"source" json:"source"`
	IsModified    bool        `db:"is_modified" json:"is_modified"`
	OriginalValue string      `db:"original_value" json:"original_value"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// NewField creates an unmodified field whose original value is its initial value.
func NewField(key, value string, confidence float64, source FieldSource) Field {
	return Field{
		ID:            uuid.New(),
		Key:           key,
		Value:         value,
		Confidence:    confidence,
		Source:        source,
		OriginalValue: value,
	}
}

// Edit replaces the current value. OriginalValue is left untouched.
func (f *Field) Edit(value string) {
	f.Value = value
	f.IsModified = f.Value != f.OriginalValue
}

// Reset restores the value captured at extraction time.
func (f *Field) Reset() {
	f.Value = f.OriginalValue
	f.IsModified = false
}

// Validate checks the invariants a field must hold before persistence.
func (f *Field) Validate() error {
	if f.Key == "" {
		return ErrEmptyFieldKey
	}
	if f.Confidence < 0 || f.Confidence > 1 {
		return ErrInvalidConfidence
	}
	if !f.Source.IsValid() {
		return ErrInvalidFieldSource
	}
	return nil
}
