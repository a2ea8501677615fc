package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"docintake/internal/domain"
	"docintake/internal/export"
	"docintake/internal/port"
)

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// ExportOutput is a rendered export ready to stream.
type ExportOutput struct {
	Data        []byte
	ContentType string
	FileName    string
}

// DocumentService defines document lookup, deletion, reanalysis and export.
type DocumentService interface {
	List(ctx context.Context, filter port.DocumentFilter, offset, limit int) ([]domain.Document, int, error)
	Get(ctx context.Context, docID uuid.UUID) (*domain.DocumentWithFields, error)
	Delete(ctx context.Context, docID uuid.UUID) error
	// Reanalyze re-runs the pipeline over the stored text and fields.
	Reanalyze(ctx context.Context, docID uuid.UUID, hint *domain.DocumentType) (*IngestResult, error)
	Export(ctx context.Context, docID uuid.UUID, format ExportFormat) (*ExportOutput, error)
}

type documentService struct {
	docRepo   port.DocumentRepository
	fieldRepo port.FieldRepository
	pageRepo  port.PageRepository
	storage   port.ObjectStorage
	analysis  AnalysisService
	now       func() time.Time
}

// NewDocumentService creates a new DocumentService implementation.
func NewDocumentService(
	docRepo port.DocumentRepository,
	fieldRepo port.FieldRepository,
	pageRepo port.PageRepository,
	storage port.ObjectStorage,
	analysisSvc AnalysisService,
) DocumentService {
	return &documentService{
		docRepo:   docRepo,
		fieldRepo: fieldRepo,
		pageRepo:  pageRepo,
		storage:   storage,
		analysis:  analysisSvc,
		now:       time.Now,
	}
}

func (s *documentService) List(ctx context.Context, filter port.DocumentFilter, offset, limit int) ([]domain.Document, int, error) {
	return s.docRepo.List(ctx, filter, offset, limit)
}

func (s *documentService) Get(ctx context.Context, docID uuid.UUID) (*domain.DocumentWithFields, error) {
	doc, err := s.docRepo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	fields, err := s.fieldRepo.ListByDocument(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("listing fields: %w", err)
	}
	pages, err := s.pageRepo.ListByDocument(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	return &domain.DocumentWithFields{Document: *doc, Fields: fields, Pages: pages}, nil
}

func (s *documentService) Delete(ctx context.Context, docID uuid.UUID) error {
	if _, err := s.docRepo.GetByID(ctx, docID); err != nil {
		return err
	}
	pages, err := s.pageRepo.ListByDocument(ctx, docID)
	if err != nil {
		return fmt.Errorf("listing pages: %w", err)
	}

	if err := s.docRepo.Delete(ctx, docID); err != nil {
		return err
	}

	for _, p := range pages {
		if err := s.storage.Delete(ctx, p.S3Bucket, p.S3Key); err != nil {
			log.Warn().Err(err).Str("document_id", docID.String()).Str("key", p.S3Key).
				Msg("documentService.Delete: failed to delete stored page")
		}
	}
	log.Info().Str("document_id", docID.String()).Int("pages", len(pages)).Msg("documentService.Delete: document deleted")
	return nil
}

func (s *documentService) Reanalyze(ctx context.Context, docID uuid.UUID, hint *domain.DocumentType) (*IngestResult, error) {
	start := s.now()
	doc, err := s.docRepo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Status != domain.ProcessingStatusCompleted {
		return nil, domain.ErrDocumentNotCompleted
	}
	if hint != nil {
		doc.TypeHint = hint
	}

	existing, err := s.fieldRepo.ListByDocument(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("listing fields: %w", err)
	}

	out, err := s.analysis.Analyze(ctx, AnalyzeInput{
		Text:   doc.RawText,
		Fields: existing,
		Hint:   doc.TypeHint,
	})
	if err != nil {
		return nil, err
	}

	fields, err := saveAnalysis(ctx, s.docRepo, s.fieldRepo, doc, existing, out, s.now())
	if err != nil {
		return nil, err
	}
	log.Info().Str("document_id", docID.String()).Str("document_type", string(doc.DocumentType)).
		Int("fields", len(fields)).Msg("documentService.Reanalyze: document reanalyzed")

	return &IngestResult{
		Document:         &domain.DocumentWithFields{Document: *doc, Fields: fields},
		Classification:   out.Classification,
		Card:             out.Card,
		ModelUsed:        out.ModelUsed,
		FieldProvenance:  out.FieldProvenance,
		ProcessingTimeMs: s.now().Sub(start).Milliseconds(),
	}, nil
}

func (s *documentService) Export(ctx context.Context, docID uuid.UUID, format ExportFormat) (*ExportOutput, error) {
	doc, err := s.Get(ctx, docID)
	if err != nil {
		return nil, err
	}

	switch format {
	case ExportCSV, "":
		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, doc); err != nil {
			return nil, fmt.Errorf("writing csv: %w", err)
		}
		return &ExportOutput{
			Data:        buf.Bytes(),
			ContentType: "text/csv; charset=utf-8",
			FileName:    export.BuildFilename(doc.Title, "csv", s.now()),
		}, nil
	case ExportXLSX:
		data, err := export.XLSX(doc)
		if err != nil {
			return nil, err
		}
		return &ExportOutput{
			Data:        data,
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			FileName:    export.BuildFilename(doc.Title, "xlsx", s.now()),
		}, nil
	default:
		return nil, fmt.Errorf("export format %q: %w", format, domain.ErrUnsupportedFileType)
	}
}
