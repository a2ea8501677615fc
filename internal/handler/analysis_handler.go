package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"docintake/internal/domain"
	"docintake/internal/service"
)

// AnalysisHandler exposes the stateless pipeline endpoints.
type AnalysisHandler struct {
	analysisService service.AnalysisService
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analysisService service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

// Types handles GET /api/v1/types
// @Summary List document types
// @Tags analysis
// @Produce json
// @Success 200 {object} APIResponse{data=[]TypeInfo}
// @Router /types [get]
func (h *AnalysisHandler) Types(c *gin.Context) {
	types := make([]TypeInfo, 0, len(domain.DocumentTypes))
	for _, t := range domain.DocumentTypes {
		types = append(types, TypeInfo{Type: t, Description: domain.DocumentTypeDescriptions[t]})
	}
	RespondOK(c, types)
}

// Classify handles POST /api/v1/classify
// @Summary Classify document text
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body ClassifyRequest true "Text, known fields and an optional hint"
// @Success 200 {object} APIResponse{data=domain.ClassificationResult}
// @Failure 400 {object} APIResponse "Invalid request"
// @Router /classify [post]
func (h *AnalysisHandler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	fields, hint, ok := bindFieldsAndHint(c, req.Fields, req.Hint)
	if !ok {
		return
	}
	RespondOK(c, h.analysisService.Classify(req.Text, fields, hint))
}

// Extract handles POST /api/v1/extract
// An empty document_type classifies the text first.
func (h *AnalysisHandler) Extract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "text is required")
		return
	}

	var docType domain.DocumentType
	if strings.TrimSpace(req.DocumentType) != "" {
		t, err := domain.ParseDocumentType(req.DocumentType)
		if err != nil {
			HandleError(c, err)
			return
		}
		docType = t
	} else {
		docType = h.analysisService.Classify(req.Text, nil, nil).Type
	}

	fields := h.analysisService.Deduplicate(h.analysisService.Extract(req.Text, docType))
	RespondOK(c, gin.H{"document_type": docType, "fields": fields})
}

// Analyze handles POST /api/v1/analyze
// @Summary Run the full pipeline without persisting
// @Description Classify, extract, mine card details and deduplicate. Configured
// @Description LLM backends are consulted unless skip_llm is set.
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body AnalyzeRequest true "Text and known fields"
// @Success 200 {object} APIResponse{data=service.AnalyzeOutput}
// @Failure 400 {object} APIResponse "Invalid request"
// @Failure 429 {object} APIResponse "LLM backend rate limited"
// @Router /analyze [post]
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	start := time.Now()
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" && len(req.Fields) == 0 {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "text or fields are required")
		return
	}
	fields, hint, ok := bindFieldsAndHint(c, req.Fields, req.Hint)
	if !ok {
		return
	}

	out, err := h.analysisService.Analyze(c.Request.Context(), service.AnalyzeInput{
		Text:    req.Text,
		Fields:  fields,
		Hint:    hint,
		SkipLLM: req.SkipLLM,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, struct {
		*service.AnalyzeOutput
		ProcessingTimeMs int64 `json:"processing_time_ms"`
	}{out, time.Since(start).Milliseconds()})
}

// Deduplicate handles POST /api/v1/deduplicate
func (h *AnalysisHandler) Deduplicate(c *gin.Context) {
	var req DeduplicateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "fields are required")
		return
	}
	fields, err := toFields(req.Fields)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"fields": h.analysisService.Deduplicate(fields)})
}

// CardDetails handles POST /api/v1/card-details
func (h *AnalysisHandler) CardDetails(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	fields, err := toFields(req.Fields)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, h.analysisService.CardDetails(req.Text, fields))
}

// bindFieldsAndHint converts request fields and hint, writing an error
// response when either is invalid.
func bindFieldsAndHint(c *gin.Context, in []FieldInput, rawHint string) ([]domain.Field, *domain.DocumentType, bool) {
	fields, err := toFields(in)
	if err != nil {
		HandleError(c, err)
		return nil, nil, false
	}
	hint, err := parseHint(rawHint)
	if err != nil {
		HandleError(c, err)
		return nil, nil, false
	}
	return fields, hint, true
}
