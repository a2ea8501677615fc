package domain

import (
	"time"

	"github.com/google/uuid"
)

// Document is one ingested item: a set of page images, an audio recording, or raw text.
type Document struct {
	ID                       uuid.UUID        `db:"id" json:"id"`
	Title                    string           `db:"title" json:"title"`
	MediaKind                MediaKind        `db:"media_kind" json:"media_kind"`
	DocumentType             DocumentType     `db:"document_type" json:"document_type"`
	TypeHint                 *DocumentType    `db:"type_hint" json:"type_hint,omitempty"`
	ClassificationConfidence float64          `db:"classification_confidence" json:"classification_confidence"`
	RawText                  string           `db:"raw_text" json:"raw_text"`
	PageCount                int              `db:"page_count" json:"page_count"`
	Status                   ProcessingStatus `db:"status" json:"status"`
	StatusError              string           `db:"status_error" json:"status_error,omitempty"`
	Attempts                 int              `db:"attempts" json:"attempts"`
	RetryAfter               *time.Time       `db:"retry_after" json:"retry_after,omitempty"`
	ProcessedAt              *time.Time       `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt                time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt                time.Time        `db:"updated_at" json:"updated_at"`
}

// Page stores one uploaded image or audio object and the text recovered from it.
type Page struct {
	ID           uuid.UUID `db:"id" json:"id"`
	DocumentID   uuid.UUID `db:"document_id" json:"document_id"`
	PageNumber   int       `db:"page_number" json:"page_number"`
	OriginalName string    `db:"original_name" json:"original_name"`
	FileType     FileType  `db:"file_type" json:"file_type"`
	FileSize     int64     `db:"file_size" json:"file_size"`
	ContentType  string    `db:"content_type" json:"content_type"`
	S3Bucket     string    `db:"s3_bucket" json:"s3_bucket"`
	S3Key        string    `db:"s3_key" json:"s3_key"`
	Text         string    `db:"text" json:"text"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// CardDetails holds the payment card attributes mined from a document.
// Every attribute is optional.
type CardDetails struct {
	Holder *string `json:"holder,omitempty"`
	Issuer *string `json:"issuer,omitempty"`
	PAN    *string `json:"pan,omitempty"`
	Expiry *string `json:"expiry,omitempty"`
}

// IsEmpty reports whether no attribute was found.
func (c CardDetails) IsEmpty() bool {
	return c.Holder == nil && c.Issuer == nil && c.PAN == nil && c.Expiry == nil
}

// ClassificationResult is the outcome of classifying a document's text.
type ClassificationResult struct {
	Type       DocumentType `json:"document_type"`
	Confidence float64      `json:"confidence"`
	Signals    []string     `json:"signals"`
}

// AnalysisResult is the transient output of one pass of the pipeline over a document.
type AnalysisResult struct {
	RawText        string               `json:"raw_text"`
	Classification ClassificationResult `json:"classification"`
	Fields         []Field              `json:"fields"`
	Card           *CardDetails         `json:"card_details,omitempty"`
}

// DocumentWithFields bundles a document with its persisted fields.
type DocumentWithFields struct {
	Document
	Fields []Field `json:"fields"`
	Pages  []Page  `json:"pages,omitempty"`
}
