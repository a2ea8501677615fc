package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"docintake/internal/domain"
	"docintake/internal/llm"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondAccepted sends a 202 success response for queued work.
func RespondAccepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	var rlErr *llm.RateLimitError
	switch {
	case errors.As(err, &rlErr):
		return http.StatusTooManyRequests, "RATE_LIMITED", "field extraction backend is rate limited; retry later"
	case errors.Is(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound, "DOCUMENT_NOT_FOUND", "document not found"
	case errors.Is(err, domain.ErrFieldNotFound):
		return http.StatusNotFound, "FIELD_NOT_FOUND", "field not found"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrNoPages):
		return http.StatusBadRequest, "NO_PAGES", "at least one image is required"
	case errors.Is(err, domain.ErrNoAudio):
		return http.StatusBadRequest, "NO_AUDIO", "an audio file is required"
	case errors.Is(err, domain.ErrTooManyFiles):
		return http.StatusBadRequest, "TOO_MANY_FILES", err.Error()
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", err.Error()
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrNoTextExtracted):
		return http.StatusUnprocessableEntity, "NO_TEXT_EXTRACTED", "no text could be extracted from the upload"
	case errors.Is(err, domain.ErrInvalidDocumentType):
		return http.StatusBadRequest, "INVALID_DOCUMENT_TYPE", "invalid document type"
	case errors.Is(err, domain.ErrEmptyFieldKey):
		return http.StatusBadRequest, "INVALID_FIELD", "field key must not be empty"
	case errors.Is(err, domain.ErrInvalidConfidence):
		return http.StatusBadRequest, "INVALID_FIELD", "confidence must be between 0 and 1"
	case errors.Is(err, domain.ErrInvalidFieldSource):
		return http.StatusBadRequest, "INVALID_FIELD", "source must be one of vision, llm_primary, llm_secondary, fused"
	case errors.Is(err, domain.ErrFieldNotModified):
		return http.StatusConflict, "FIELD_NOT_MODIFIED", "field has no edits to reset"
	case errors.Is(err, domain.ErrDocumentNotCompleted):
		return http.StatusConflict, "DOCUMENT_NOT_COMPLETED", "document has not finished processing"
	case errors.Is(err, domain.ErrUploadFailed):
		return http.StatusInternalServerError, "UPLOAD_FAILED", "file upload to storage failed"
	case errors.Is(err, domain.ErrRecognizerDisabled):
		return http.StatusServiceUnavailable, "OCR_UNAVAILABLE", "image text recognition is not configured"
	case errors.Is(err, domain.ErrTranscriberDisabled):
		return http.StatusServiceUnavailable, "TRANSCRIPTION_UNAVAILABLE", "audio transcription is not configured"
	case errors.Is(err, domain.ErrExtractorUnavailable):
		return http.StatusServiceUnavailable, "EXTRACTOR_UNAVAILABLE", "no field extractor is configured"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
// Rate limits also set Retry-After.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Error().Err(err).Interface("request_id", requestID).Msg("handler: internal error")
	}
	if delay, ok := llm.RetryDelay(err); ok {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
	}
	RespondError(c, status, code, msg)
}

// parsePagination reads offset and limit query params, clamping limit to 1..100.
func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return offset, limit
}
