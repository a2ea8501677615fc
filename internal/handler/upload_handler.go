package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docintake/internal/domain"
	"docintake/internal/service"
)

// formOverheadBytes allows for multipart boundaries and text fields on top
// of the file payloads.
const formOverheadBytes = 1 << 20

// UploadLimits bounds upload sizes before any part is read. Zero disables a limit.
type UploadLimits struct {
	MaxImageBytes int64
	MaxAudioBytes int64
	MaxFiles      int
}

// UploadHandler handles image and audio ingestion.
type UploadHandler struct {
	ingestService service.IngestService
	limits        UploadLimits
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(ingestService service.IngestService, limits UploadLimits) *UploadHandler {
	return &UploadHandler{ingestService: ingestService, limits: limits}
}

// Images handles POST /api/v1/upload/image
// @Summary Upload page images
// @Description Upload one or more page images of a single document. Text is
// @Description recognized per page, then classified, extracted and stored.
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Page images (png, jpg, webp, gif); 'file' is also accepted"
// @Param title formData string false "Document title"
// @Param hint formData string false "Document type hint"
// @Param async formData bool false "Queue recognition instead of waiting"
// @Success 201 {object} APIResponse{data=service.IngestResult} "Document analyzed"
// @Success 202 {object} APIResponse{data=service.IngestResult} "Document queued"
// @Failure 400 {object} APIResponse "No images or unsupported type"
// @Failure 413 {object} APIResponse "File too large"
// @Failure 422 {object} APIResponse "No text recognized"
// @Router /upload/image [post]
func (h *UploadHandler) Images(c *gin.Context) {
	maxFiles := int64(h.limits.MaxFiles)
	if maxFiles <= 0 {
		maxFiles = 1
	}
	if !limitBody(c, h.limits.MaxImageBytes*maxFiles) {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		handleFormError(c, err, domain.ErrNoPages)
		return
	}
	headers := append(form.File["files"], form.File["file"]...)
	files, err := readUploads(headers, h.limits.MaxImageBytes)
	if err != nil {
		handleReadError(c, err)
		return
	}
	hint, err := parseHint(c.PostForm("hint"))
	if err != nil {
		HandleError(c, err)
		return
	}
	async, _ := strconv.ParseBool(c.DefaultPostForm("async", c.Query("async")))

	result, err := h.ingestService.IngestImages(c.Request.Context(), service.IngestImagesInput{
		Title: c.PostForm("title"),
		Hint:  hint,
		Files: files,
		Async: async,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	respondIngest(c, result)
}

// Audio handles POST /api/v1/upload/audio
// @Summary Upload an audio recording
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Recording (wav, mp3, m4a, ogg, flac, webm, mp4)"
// @Param title formData string false "Document title"
// @Param hint formData string false "Document type hint"
// @Success 201 {object} APIResponse{data=service.IngestResult}
// @Failure 400 {object} APIResponse "Missing file or unsupported type"
// @Failure 413 {object} APIResponse "File too large"
// @Router /upload/audio [post]
func (h *UploadHandler) Audio(c *gin.Context) {
	if !limitBody(c, h.limits.MaxAudioBytes) {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		handleFormError(c, err, domain.ErrNoAudio)
		return
	}
	files, err := readUploads([]*multipart.FileHeader{header}, h.limits.MaxAudioBytes)
	if err != nil {
		handleReadError(c, err)
		return
	}
	hint, err := parseHint(c.PostForm("hint"))
	if err != nil {
		HandleError(c, err)
		return
	}

	result, err := h.ingestService.IngestAudio(c.Request.Context(), service.IngestAudioInput{
		Title: c.PostForm("title"),
		Hint:  hint,
		File:  files[0],
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	respondIngest(c, result)
}

// respondIngest answers 202 for queued documents and 201 otherwise.
func respondIngest(c *gin.Context, result *service.IngestResult) {
	if result.Document != nil && result.Document.Status == domain.ProcessingStatusQueued {
		RespondAccepted(c, result)
		return
	}
	RespondCreated(c, result)
}

// limitBody rejects requests whose declared length exceeds payload plus form
// overhead and caps the body for the rest. It reports whether to continue.
func limitBody(c *gin.Context, payload int64) bool {
	if payload <= 0 {
		return true
	}
	limit := payload + formOverheadBytes
	if c.Request.ContentLength > limit {
		HandleError(c, domain.ErrFileTooLarge)
		return false
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	return true
}

func handleFormError(c *gin.Context, err, missing error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		HandleError(c, domain.ErrFileTooLarge)
		return
	}
	HandleError(c, missing)
}

func handleReadError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrFileTooLarge) {
		HandleError(c, err)
		return
	}
	RespondError(c, http.StatusBadRequest, "INVALID_FILE", err.Error())
}

// readUploads loads each part, refusing any whose declared size exceeds
// maxBytes before it is opened.
func readUploads(headers []*multipart.FileHeader, maxBytes int64) ([]service.UploadFile, error) {
	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		if maxBytes > 0 && fh.Size > maxBytes {
			return nil, fmt.Errorf("%s: %w", fh.Filename, domain.ErrFileTooLarge)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", fh.Filename, err)
		}
		files = append(files, service.UploadFile{FileName: fh.Filename, Data: data})
	}
	return files, nil
}
