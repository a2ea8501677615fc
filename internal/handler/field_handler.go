package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docintake/internal/service"
)

// FieldHandler handles user edits to a document's fields.
type FieldHandler struct {
	fieldService service.FieldService
}

// NewFieldHandler creates a new FieldHandler.
func NewFieldHandler(fieldService service.FieldService) *FieldHandler {
	return &FieldHandler{fieldService: fieldService}
}

// Add handles POST /api/v1/documents/:id/fields
// @Summary Add a user field
// @Description The field is stored as fused with confidence 1 and the
// @Description document's fields are deduplicated again.
// @Tags fields
// @Accept json
// @Produce json
// @Param id path string true "Document ID (UUID)"
// @Param request body AddFieldRequest true "Key and value"
// @Success 201 {object} APIResponse{data=[]domain.Field} "Fields after deduplication"
// @Router /documents/{id}/fields [post]
func (h *FieldHandler) Add(c *gin.Context) {
	docID, ok := parseDocumentID(c)
	if !ok {
		return
	}
	var req AddFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "key is required")
		return
	}

	fields, err := h.fieldService.Add(c.Request.Context(), service.AddFieldInput{
		DocumentID: docID,
		Key:        req.Key,
		Value:      req.Value,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, fields)
}

// Edit handles PUT /api/v1/documents/:id/fields/:fieldId
func (h *FieldHandler) Edit(c *gin.Context) {
	docID, fieldID, ok := parseFieldIDs(c)
	if !ok {
		return
	}
	var req EditFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	fields, err := h.fieldService.Edit(c.Request.Context(), docID, fieldID, req.Value)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, fields)
}

// Reset handles POST /api/v1/documents/:id/fields/:fieldId/reset
func (h *FieldHandler) Reset(c *gin.Context) {
	docID, fieldID, ok := parseFieldIDs(c)
	if !ok {
		return
	}

	fields, err := h.fieldService.Reset(c.Request.Context(), docID, fieldID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, fields)
}

// Delete handles DELETE /api/v1/documents/:id/fields/:fieldId
func (h *FieldHandler) Delete(c *gin.Context) {
	docID, fieldID, ok := parseFieldIDs(c)
	if !ok {
		return
	}

	if err := h.fieldService.Delete(c.Request.Context(), docID, fieldID); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"message": "field deleted"})
}

func parseFieldIDs(c *gin.Context) (docID, fieldID uuid.UUID, ok bool) {
	docID, ok = parseDocumentID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	fieldID, err := uuid.Parse(c.Param("fieldId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid field ID")
		return uuid.Nil, uuid.Nil, false
	}
	return docID, fieldID, true
}
