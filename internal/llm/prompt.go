package llm

import (
	"strings"

	"docintake/internal/domain"
)

// maxPromptTextLen caps the OCR text embedded in a prompt.
const maxPromptTextLen = 20000

// BuildExtractionPrompt returns the field extraction prompt for a document.
// docType may be empty when the document has not been classified yet.
func BuildExtractionPrompt(docType domain.DocumentType, text string) string {
	var b strings.Builder
	b.WriteString(`You are a document data extraction assistant. Read the provided document`)
	if docType != "" && docType != domain.DocumentTypeGeneric {
		b.WriteString(` (classified locally as "` + string(docType) + `")`)
	}
	b.WriteString(` and extract every labelled value into key/value fields.

IMPORTANT INSTRUCTIONS:
- Use short snake_case keys (e.g. "card_number", "due_date", "member_id", "total_amount").
- Copy values exactly as printed. Do not reformat numbers or dates.
- A value that is naturally a list or object may be a JSON array or object.
- Give each field a confidence between 0.0 and 1.0.
- Set "document_type" to one of: `)
	for i, t := range domain.DocumentTypes {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(string(t))
	}
	b.WriteString(`.

Return ONLY valid JSON with no markdown formatting and no explanation, shaped as:
{
  "document_type": "",
  "fields": [
    {"key": "", "value": "", "confidence": 0.0}
  ]
}
`)
	if text = strings.TrimSpace(text); text != "" {
		if len(text) > maxPromptTextLen {
			text = text[:maxPromptTextLen]
		}
		b.WriteString("\nText recognized from the document:\n<<<\n")
		b.WriteString(text)
		b.WriteString("\n>>>\n")
	}
	return b.String()
}

// RecognitionPrompt asks a vision model for a verbatim transcription of an image.
const RecognitionPrompt = `You are an expert OCR system. Extract ALL text from the image exactly as it appears, ` +
	`preserving line breaks. Include numbers, dates and amounts. Return only the extracted text.`
