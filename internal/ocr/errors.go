package ocr

import (
	"errors"
	"fmt"
)

var (
	// ErrOCRFailed is returned when a recognizer backend fails to process an image.
	ErrOCRFailed = errors.New("OCR processing failed")

	// ErrMissingCredentials is returned when Cloud Vision has neither a
	// credentials file nor GOOGLE_CREDENTIALS / GOOGLE_APPLICATION_CREDENTIALS.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set ocr.credentials_file, GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS")

	// ErrEmptyImage is returned for zero-length input.
	ErrEmptyImage = errors.New("image is empty")

	// ErrEmptyAudio is returned for zero-length audio input.
	ErrEmptyAudio = errors.New("audio is empty")
)

// OCRError wraps errors with the operation that failed.
type OCRError struct {
	Op      string
	Err     error
	Details string
}

func (e *OCRError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

func (e *OCRError) Unwrap() error {
	return e.Err
}

// WrapOCRError wraps err as an OCRError unless it already is one.
func WrapOCRError(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var ocrErr *OCRError
	if errors.As(err, &ocrErr) {
		return err
	}
	return &OCRError{Op: op, Err: err, Details: details}
}
