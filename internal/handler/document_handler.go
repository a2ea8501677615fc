package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docintake/internal/domain"
	"docintake/internal/port"
	"docintake/internal/service"
)

// DocumentHandler handles stored document endpoints.
type DocumentHandler struct {
	documentService service.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// List handles GET /api/v1/documents
// @Summary List documents
// @Tags documents
// @Produce json
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Param document_type query string false "Filter by document type"
// @Param status query string false "Filter by processing status"
// @Success 200 {object} APIResponse{data=[]domain.Document,meta=PagMeta}
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)

	var filter port.DocumentFilter
	if raw := c.Query("document_type"); raw != "" {
		t, err := domain.ParseDocumentType(raw)
		if err != nil {
			HandleError(c, err)
			return
		}
		filter.DocumentType = &t
	}
	if raw := c.Query("status"); raw != "" {
		status := domain.ProcessingStatus(raw)
		switch status {
		case domain.ProcessingStatusQueued, domain.ProcessingStatusProcessing,
			domain.ProcessingStatusCompleted, domain.ProcessingStatusFailed:
		default:
			RespondError(c, http.StatusBadRequest, "INVALID_STATUS", "status must be queued, processing, completed or failed")
			return
		}
		filter.Status = &status
	}

	docs, total, err := h.documentService.List(c.Request.Context(), filter, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}

	RespondPaginated(c, docs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/documents/:id
// @Summary Get a document with its fields and pages
// @Tags documents
// @Produce json
// @Param id path string true "Document ID (UUID)"
// @Success 200 {object} APIResponse{data=domain.DocumentWithFields}
// @Failure 400 {object} APIResponse "Invalid ID"
// @Failure 404 {object} APIResponse "Document not found"
// @Router /documents/{id} [get]
func (h *DocumentHandler) GetByID(c *gin.Context) {
	docID, ok := parseDocumentID(c)
	if !ok {
		return
	}

	doc, err := h.documentService.Get(c.Request.Context(), docID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, doc)
}

// Delete handles DELETE /api/v1/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	docID, ok := parseDocumentID(c)
	if !ok {
		return
	}

	if err := h.documentService.Delete(c.Request.Context(), docID); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"message": "document deleted"})
}

// Reanalyze handles POST /api/v1/documents/:id/reanalyze
// @Summary Re-run analysis over the stored text and fields
// @Tags documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID (UUID)"
// @Param request body ReanalyzeRequest false "Optional type hint"
// @Success 200 {object} APIResponse{data=service.IngestResult}
// @Failure 404 {object} APIResponse "Document not found"
// @Failure 409 {object} APIResponse "Document not completed"
// @Failure 429 {object} APIResponse "LLM backend rate limited"
// @Router /documents/{id}/reanalyze [post]
func (h *DocumentHandler) Reanalyze(c *gin.Context) {
	docID, ok := parseDocumentID(c)
	if !ok {
		return
	}

	var req ReanalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	hint, err := parseHint(req.Hint)
	if err != nil {
		HandleError(c, err)
		return
	}

	result, err := h.documentService.Reanalyze(c.Request.Context(), docID, hint)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// Export handles GET /api/v1/documents/:id/export?format=csv|xlsx
func (h *DocumentHandler) Export(c *gin.Context) {
	docID, ok := parseDocumentID(c)
	if !ok {
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportCSV)))
	if format != service.ExportCSV && format != service.ExportXLSX {
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be csv or xlsx")
		return
	}

	out, err := h.documentService.Export(c.Request.Context(), docID, format)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, out.FileName))
	c.Data(http.StatusOK, out.ContentType, out.Data)
}

func parseDocumentID(c *gin.Context) (uuid.UUID, bool) {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid document ID")
		return uuid.Nil, false
	}
	return docID, true
}
