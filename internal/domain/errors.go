package domain

import "errors"

var (
	ErrNotFound             = errors.New("resource not found")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrFieldNotFound        = errors.New("field not found")
	ErrFieldNotModified     = errors.New("field has no edits to reset")
	ErrNoPages              = errors.New("at least one image is required")
	ErrNoAudio              = errors.New("an audio file is required")
	ErrTooManyFiles         = errors.New("too many files in one upload")
	ErrNoTextExtracted      = errors.New("no text could be extracted from the upload")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrFileTooLarge         = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed         = errors.New("file upload to storage failed")
	ErrInvalidDocumentType  = errors.New("invalid document type")
	ErrInvalidFieldSource   = errors.New("invalid field source")
	ErrInvalidConfidence    = errors.New("confidence must be between 0 and 1")
	ErrEmptyFieldKey        = errors.New("field key must not be empty")
	ErrDocumentNotCompleted = errors.New("document has not finished processing")
	ErrRecognizerDisabled   = errors.New("image text recognition is not configured")
	ErrTranscriberDisabled  = errors.New("audio transcription is not configured")
	ErrExtractorUnavailable = errors.New("no field extractor is configured")
)
