package domain

import "strings"

// FileType represents the allowed upload formats.
type FileType string

const (
	FileTypePNG  FileType = "png"
	FileTypeJPG  FileType = "jpg"
	FileTypeWEBP FileType = "webp"
	FileTypeGIF  FileType = "gif"

	FileTypeWAV  FileType = "wav"
	FileTypeMP3  FileType = "mp3"
	FileTypeM4A  FileType = "m4a"
	FileTypeOGG  FileType = "ogg"
	FileTypeFLAC FileType = "flac"
	FileTypeWEBM FileType = "webm"
	FileTypeMP4  FileType = "mp4"
)

// MediaKind groups file types by the collaborator that turns them into text.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindAudio MediaKind = "audio"
	MediaKindText  MediaKind = "text"
)

// AllowedImageTypes maps image FileType to its MIME content type.
var AllowedImageTypes = map[FileType]string{
	FileTypePNG:  "image/png",
	FileTypeJPG:  "image/jpeg",
	FileTypeWEBP: "image/webp",
	FileTypeGIF:  "image/gif",
}

// AllowedAudioTypes maps audio FileType to its MIME content type.
var AllowedAudioTypes = map[FileType]string{
	FileTypeWAV:  "audio/wav",
	FileTypeMP3:  "audio/mpeg",
	FileTypeM4A:  "audio/mp4",
	FileTypeOGG:  "audio/ogg",
	FileTypeFLAC: "audio/flac",
	FileTypeWEBM: "audio/webm",
	FileTypeMP4:  "video/mp4",
}

// AllowedImageExtensions maps file extensions (without dot) to image FileType.
var AllowedImageExtensions = map[string]FileType{
	"png":  FileTypePNG,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"webp": FileTypeWEBP,
	"gif":  FileTypeGIF,
}

// AllowedAudioExtensions maps file extensions (without dot) to audio FileType.
var AllowedAudioExtensions = map[string]FileType{
	"wav":  FileTypeWAV,
	"mp3":  FileTypeMP3,
	"m4a":  FileTypeM4A,
	"ogg":  FileTypeOGG,
	"flac": FileTypeFLAC,
	"webm": FileTypeWEBM,
	"mp4":  FileTypeMP4,
}

// DocumentType is the closed set of document classes the pipeline assigns.
type DocumentType string

const (
	DocumentTypeCreditCard    DocumentType = "creditCard"
	DocumentTypeInsuranceCard DocumentType = "insuranceCard"
	DocumentTypeIDCard        DocumentType = "idCard"
	DocumentTypeLetter        DocumentType = "letter"
	DocumentTypeBillStatement DocumentType = "billStatement"
	DocumentTypeReceipt       DocumentType = "receipt"
	DocumentTypeGeneric       DocumentType = "generic"
)

// DocumentTypes lists every DocumentType in display order.
var DocumentTypes = []DocumentType{
	DocumentTypeCreditCard,
	DocumentTypeInsuranceCard,
	DocumentTypeIDCard,
	DocumentTypeLetter,
	DocumentTypeBillStatement,
	DocumentTypeReceipt,
	DocumentTypeGeneric,
}

// DocumentTypeDescriptions holds human-readable descriptions served by the types endpoint.
var DocumentTypeDescriptions = map[DocumentType]string{
	DocumentTypeCreditCard:    "Payment card with card number, expiry and cardholder",
	DocumentTypeInsuranceCard: "Health or vehicle insurance card with member and group numbers",
	DocumentTypeIDCard:        "Driver license, passport or other identification card",
	DocumentTypeLetter:        "Correspondence with a salutation and closing",
	DocumentTypeBillStatement: "Bill or statement with an amount and due date",
	DocumentTypeReceipt:       "Proof of purchase with totals and payment details",
	DocumentTypeGeneric:       "Any other document",
}

// IsValid reports whether t is one of the known document types.
func (t DocumentType) IsValid() bool {
	_, ok := DocumentTypeDescriptions[t]
	return ok
}

// ParseDocumentType resolves a type name case-insensitively. Snake case
// spellings such as "credit_card" and "bill_statement" are accepted.
func ParseDocumentType(s string) (DocumentType, error) {
	norm := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.TrimSpace(s)))
	for _, t := range DocumentTypes {
		if strings.ToLower(string(t)) == norm {
			return t, nil
		}
	}
	switch norm {
	case "bill", "statement":
		return DocumentTypeBillStatement, nil
	case "insurance":
		return DocumentTypeInsuranceCard, nil
	case "id", "identification":
		return DocumentTypeIDCard, nil
	}
	return "", ErrInvalidDocumentType
}

// FieldSource identifies which extractor produced a field.
type FieldSource string

const (
	// FieldSourceVision covers on-device vision and local pattern extraction.
	FieldSourceVision       FieldSource = "vision"
	FieldSourceLLMPrimary   FieldSource = "llm_primary"
	FieldSourceLLMSecondary FieldSource = "llm_secondary"
	// FieldSourceFused marks merged or user-edited values.
	FieldSourceFused FieldSource = "fused"
)

// IsValid reports whether s is one of the known sources.
func (s FieldSource) IsValid() bool {
	switch s {
	case FieldSourceVision, FieldSourceLLMPrimary, FieldSourceLLMSecondary, FieldSourceFused:
		return true
	}
	return false
}

// IsBackend reports whether the source is a cloud or fused source.
func (s FieldSource) IsBackend() bool {
	switch s {
	case FieldSourceLLMPrimary, FieldSourceLLMSecondary, FieldSourceFused:
		return true
	}
	return false
}

// IsHigherPriority reports whether a outranks b when two fields tie on confidence.
// Backend sources outrank local ones; sources within the same tier are equal.
func IsHigherPriority(a, b FieldSource) bool {
	return a.IsBackend() && !b.IsBackend()
}

// ProcessingStatus represents the lifecycle of a document through the pipeline.
type ProcessingStatus string

const (
	ProcessingStatusQueued     ProcessingStatus = "queued"
	ProcessingStatusProcessing ProcessingStatus = "processing"
	ProcessingStatusCompleted  ProcessingStatus = "completed"
	ProcessingStatusFailed     ProcessingStatus = "failed"
)
