package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"docintake/internal/analysis"
	"docintake/internal/domain"
	"docintake/internal/llm"
	"docintake/internal/port"
)

// AnalyzeInput is the DTO for one pass of the pipeline.
type AnalyzeInput struct {
	Text   string
	Fields []domain.Field
	Hint   *domain.DocumentType
	// Images are handed to the LLM backends alongside the text.
	Images []port.ImageInput
	// SkipLLM restricts the pass to local extraction.
	SkipLLM bool
}

// AnalyzeOutput is the pipeline result plus LLM bookkeeping.
type AnalyzeOutput struct {
	domain.AnalysisResult
	ModelUsed       string            `json:"model_used,omitempty"`
	FieldProvenance map[string]string `json:"field_provenance,omitempty"`
}

// AnalysisService exposes the classifier, the extractors and the deduplicator.
type AnalysisService interface {
	Classify(text string, fields []domain.Field, hint *domain.DocumentType) domain.ClassificationResult
	Extract(text string, docType domain.DocumentType) []domain.Field
	CardDetails(text string, fields []domain.Field) domain.CardDetails
	Deduplicate(fields []domain.Field) []domain.Field
	// Analyze runs the full pipeline. LLM failures other than rate limits
	// degrade to local extraction; a rate limit is returned as an error
	// wrapping *llm.RateLimitError.
	Analyze(ctx context.Context, input AnalyzeInput) (*AnalyzeOutput, error)
}

type analysisService struct {
	analyzer  *analysis.Analyzer
	extractor port.FieldExtractor
}

// NewAnalysisService creates a new AnalysisService. extractor may be nil.
func NewAnalysisService(analyzer *analysis.Analyzer, extractor port.FieldExtractor) AnalysisService {
	return &analysisService{analyzer: analyzer, extractor: extractor}
}

func (s *analysisService) Classify(text string, fields []domain.Field, hint *domain.DocumentType) domain.ClassificationResult {
	return s.analyzer.Classifier().ClassifyDetailed(text, fields, hint, s.analyzer.DefaultType())
}

func (s *analysisService) Extract(text string, docType domain.DocumentType) []domain.Field {
	if !docType.IsValid() {
		return analysis.ExtractFields(text)
	}
	return analysis.ExtractForType(text, docType)
}

func (s *analysisService) CardDetails(text string, fields []domain.Field) domain.CardDetails {
	return s.analyzer.Cards().Extract(text, fields)
}

func (s *analysisService) Deduplicate(fields []domain.Field) []domain.Field {
	return analysis.Deduplicate(fields)
}

func (s *analysisService) Analyze(ctx context.Context, input AnalyzeInput) (*AnalyzeOutput, error) {
	out := &AnalyzeOutput{}
	known := input.Fields
	hint := input.Hint

	if s.extractor != nil && !input.SkipLLM && (input.Text != "" || len(input.Images) > 0) {
		local := s.Classify(input.Text, input.Fields, input.Hint)
		extracted, err := s.extractor.Extract(ctx, port.ExtractInput{
			Text:         input.Text,
			Images:       input.Images,
			DocumentType: local.Type,
		})
		switch {
		case err == nil:
			known = append(append([]domain.Field{}, input.Fields...), extracted.Fields...)
			out.ModelUsed = extracted.ModelUsed
			out.FieldProvenance = extracted.FieldProvenance
			if hint == nil && extracted.SuggestedType.IsValid() {
				suggested := extracted.SuggestedType
				hint = &suggested
			}
		case isRateLimited(err):
			return nil, fmt.Errorf("llm extraction: %w", err)
		default:
			log.Warn().Err(err).Msg("analysisService.Analyze: llm extraction failed, using local extraction only")
		}
	}

	out.AnalysisResult = s.analyzer.Analyze(input.Text, known, hint)
	return out, nil
}

func isRateLimited(err error) bool {
	var rlErr *llm.RateLimitError
	return errors.As(err, &rlErr)
}
