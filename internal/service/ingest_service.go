package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"docintake/internal/analysis"
	"docintake/internal/domain"
	"docintake/internal/llm"
	"docintake/internal/port"
	"docintake/internal/storage/s3"
)

// UploadFile is one uploaded file read into memory.
type UploadFile struct {
	FileName string
	Data     []byte
}

// IngestImagesInput is the DTO for page image uploads.
type IngestImagesInput struct {
	Title string
	Hint  *domain.DocumentType
	Files []UploadFile
	// Async stores the pages and leaves recognition to the queue worker.
	Async bool
}

// IngestAudioInput is the DTO for audio uploads.
type IngestAudioInput struct {
	Title string
	Hint  *domain.DocumentType
	File  UploadFile
}

// IngestResult is returned by uploads and reanalysis.
type IngestResult struct {
	Document         *domain.DocumentWithFields  `json:"document"`
	Classification   domain.ClassificationResult `json:"classification"`
	Card             *domain.CardDetails         `json:"card_details,omitempty"`
	ModelUsed        string                      `json:"model_used,omitempty"`
	FieldProvenance  map[string]string           `json:"field_provenance,omitempty"`
	ProcessingTimeMs int64                       `json:"processing_time_ms"`
}

// IngestConfig holds upload limits and processing settings.
type IngestConfig struct {
	Bucket         string
	MaxImageBytes  int64
	MaxAudioBytes  int64
	MaxFiles       int
	OCRConcurrency int
	// MaxAttempts bounds rate-limit retries of synchronous uploads.
	MaxAttempts int
}

// DocumentProcessor runs recognition and analysis for a claimed document.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, doc *domain.Document, maxAttempts int)
}

// IngestService turns uploads into analyzed, persisted documents.
type IngestService interface {
	DocumentProcessor
	IngestImages(ctx context.Context, input IngestImagesInput) (*IngestResult, error)
	IngestAudio(ctx context.Context, input IngestAudioInput) (*IngestResult, error)
}

type ingestService struct {
	docRepo     port.DocumentRepository
	fieldRepo   port.FieldRepository
	pageRepo    port.PageRepository
	storage     port.ObjectStorage
	recognizer  port.TextRecognizer
	transcriber port.Transcriber
	analysis    AnalysisService
	cfg         IngestConfig
	now         func() time.Time
}

// NewIngestService creates a new IngestService. recognizer and transcriber
// may be nil, which disables the matching upload kind.
func NewIngestService(
	docRepo port.DocumentRepository,
	fieldRepo port.FieldRepository,
	pageRepo port.PageRepository,
	storage port.ObjectStorage,
	recognizer port.TextRecognizer,
	transcriber port.Transcriber,
	analysisSvc AnalysisService,
	cfg IngestConfig,
) IngestService {
	if cfg.OCRConcurrency <= 0 {
		cfg.OCRConcurrency = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &ingestService{
		docRepo:     docRepo,
		fieldRepo:   fieldRepo,
		pageRepo:    pageRepo,
		storage:     storage,
		recognizer:  recognizer,
		transcriber: transcriber,
		analysis:    analysisSvc,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *ingestService) IngestImages(ctx context.Context, input IngestImagesInput) (*IngestResult, error) {
	start := s.now()
	if len(input.Files) == 0 {
		return nil, domain.ErrNoPages
	}
	if s.cfg.MaxFiles > 0 && len(input.Files) > s.cfg.MaxFiles {
		return nil, fmt.Errorf("%d files, limit %d: %w", len(input.Files), s.cfg.MaxFiles, domain.ErrTooManyFiles)
	}
	if s.recognizer == nil {
		return nil, domain.ErrRecognizerDisabled
	}

	types := make([]domain.FileType, len(input.Files))
	for i, f := range input.Files {
		ft, err := validateUpload(f, domain.AllowedImageExtensions, domain.AllowedImageTypes, s.cfg.MaxImageBytes)
		if err != nil {
			return nil, err
		}
		types[i] = ft
	}

	doc := s.newDocument(input.Title, domain.MediaKindImage, input.Hint, len(input.Files))
	if input.Async {
		doc.Status = domain.ProcessingStatusQueued
	}
	pages, err := s.store(ctx, doc, input.Files, types, domain.AllowedImageTypes)
	if err != nil {
		return nil, err
	}

	log.Info().Str("document_id", doc.ID.String()).Int("pages", len(pages)).Bool("async", input.Async).
		Msg("ingestService.IngestImages: stored upload")

	if input.Async {
		return &IngestResult{
			Document:         &domain.DocumentWithFields{Document: *doc, Fields: []domain.Field{}, Pages: pages},
			Classification:   domain.ClassificationResult{Type: doc.DocumentType, Signals: []string{}},
			ProcessingTimeMs: s.now().Sub(start).Milliseconds(),
		}, nil
	}

	data := make([][]byte, len(input.Files))
	for i, f := range input.Files {
		data[i] = f.Data
	}
	return s.processSync(ctx, doc, pages, data, start)
}

func (s *ingestService) IngestAudio(ctx context.Context, input IngestAudioInput) (*IngestResult, error) {
	start := s.now()
	if len(input.File.Data) == 0 {
		return nil, domain.ErrNoAudio
	}
	if s.transcriber == nil {
		return nil, domain.ErrTranscriberDisabled
	}
	ft, err := validateUpload(input.File, domain.AllowedAudioExtensions, domain.AllowedAudioTypes, s.cfg.MaxAudioBytes)
	if err != nil {
		return nil, err
	}

	doc := s.newDocument(input.Title, domain.MediaKindAudio, input.Hint, 1)
	pages, err := s.store(ctx, doc, []UploadFile{input.File}, []domain.FileType{ft}, domain.AllowedAudioTypes)
	if err != nil {
		return nil, err
	}
	return s.processSync(ctx, doc, pages, [][]byte{input.File.Data}, start)
}

// processSync runs the pipeline inline. A rate-limited run leaves the
// document queued for the worker and still returns it.
func (s *ingestService) processSync(ctx context.Context, doc *domain.Document, pages []domain.Page, data [][]byte, start time.Time) (*IngestResult, error) {
	doc.Attempts = 1
	result, err := s.run(ctx, doc, pages, data)
	if err != nil {
		if s.handleProcessError(ctx, doc, err, s.cfg.MaxAttempts) {
			return &IngestResult{
				Document:         &domain.DocumentWithFields{Document: *doc, Fields: []domain.Field{}, Pages: pages},
				Classification:   domain.ClassificationResult{Type: doc.DocumentType, Signals: []string{}},
				ProcessingTimeMs: s.now().Sub(start).Milliseconds(),
			}, nil
		}
		return nil, err
	}
	result.ProcessingTimeMs = s.now().Sub(start).Milliseconds()
	return result, nil
}

// ProcessDocument is the queue worker entry point. The document must already
// be claimed (status processing, attempts incremented).
func (s *ingestService) ProcessDocument(ctx context.Context, doc *domain.Document, maxAttempts int) {
	pages, err := s.pageRepo.ListByDocument(ctx, doc.ID)
	if err != nil {
		s.failProcessing(ctx, doc, fmt.Sprintf("loading pages: %v", err))
		return
	}
	if _, err := s.run(ctx, doc, pages, nil); err != nil {
		s.handleProcessError(ctx, doc, err, maxAttempts)
		return
	}
	log.Info().Str("document_id", doc.ID.String()).Int("attempt", doc.Attempts).
		Msg("ingestService.ProcessDocument: document processed")
}

// run recognizes any page without text, analyzes the combined text and
// persists the winning fields. data holds page bytes when the caller still
// has them; missing bytes are downloaded from storage.
func (s *ingestService) run(ctx context.Context, doc *domain.Document, pages []domain.Page, data [][]byte) (*IngestResult, error) {
	if len(data) != len(pages) {
		data = make([][]byte, len(pages))
	}
	if err := s.recognizePages(ctx, doc, pages, data); err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(pages))
	for _, p := range pages {
		if t := strings.TrimSpace(p.Text); t != "" {
			texts = append(texts, t)
		}
	}
	doc.RawText = strings.Join(texts, "\n\n")
	if doc.RawText == "" {
		return nil, domain.ErrNoTextExtracted
	}

	var images []port.ImageInput
	if doc.MediaKind == domain.MediaKindImage {
		for i, p := range pages {
			if data[i] != nil {
				images = append(images, port.ImageInput{Bytes: data[i], ContentType: p.ContentType})
			}
		}
	}

	existing, err := s.fieldRepo.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("loading fields: %w", err)
	}

	out, err := s.analysis.Analyze(ctx, AnalyzeInput{
		Text:   doc.RawText,
		Fields: existing,
		Hint:   doc.TypeHint,
		Images: images,
	})
	if err != nil {
		return nil, err
	}

	fields, err := saveAnalysis(ctx, s.docRepo, s.fieldRepo, doc, existing, out, s.now())
	if err != nil {
		return nil, err
	}

	return &IngestResult{
		Document:        &domain.DocumentWithFields{Document: *doc, Fields: fields, Pages: pages},
		Classification:  out.Classification,
		Card:            out.Card,
		ModelUsed:       out.ModelUsed,
		FieldProvenance: out.FieldProvenance,
	}, nil
}

// recognizePages fills in Page.Text for pages that have none, a bounded
// number at a time.
func (s *ingestService) recognizePages(ctx context.Context, doc *domain.Document, pages []domain.Page, data [][]byte) error {
	sem := make(chan struct{}, s.cfg.OCRConcurrency)
	errs := make([]error, len(pages))
	var wg sync.WaitGroup

	for i := range pages {
		if pages[i].Text != "" {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			p := &pages[i]
			if data[i] == nil {
				b, err := s.storage.Download(ctx, p.S3Bucket, p.S3Key)
				if err != nil {
					errs[i] = fmt.Errorf("downloading page %d: %w", p.PageNumber, err)
					return
				}
				data[i] = b
			}

			var text string
			var err error
			switch doc.MediaKind {
			case domain.MediaKindAudio:
				if s.transcriber == nil {
					err = domain.ErrTranscriberDisabled
					break
				}
				text, err = s.transcriber.Transcribe(ctx, port.AudioInput{Bytes: data[i], FileName: p.OriginalName, ContentType: p.ContentType})
			default:
				if s.recognizer == nil {
					err = domain.ErrRecognizerDisabled
					break
				}
				text, err = s.recognizer.Recognize(ctx, port.ImageInput{Bytes: data[i], ContentType: p.ContentType})
			}
			if err != nil {
				errs[i] = fmt.Errorf("recognizing page %d: %w", p.PageNumber, err)
				return
			}
			p.Text = text
			if text == "" {
				return
			}
			if err := s.pageRepo.UpdateText(ctx, p); err != nil {
				log.Warn().Err(err).Str("page_id", p.ID.String()).Msg("ingestService.recognizePages: failed to save page text")
			}
		}(i)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// saveAnalysis reconciles stored fields with the analysis winners and marks
// the document completed.
func saveAnalysis(ctx context.Context, docRepo port.DocumentRepository, fieldRepo port.FieldRepository,
	doc *domain.Document, existing []domain.Field, out *AnalyzeOutput, now time.Time) ([]domain.Field, error) {
	fields := out.Fields
	for i := range fields {
		fields[i].DocumentID = doc.ID
		if fields[i].ID == uuid.Nil {
			fields[i].ID = uuid.New()
		}
	}
	plan := analysis.PlanReconcile(existing, fields)
	if err := fieldRepo.Reconcile(ctx, doc.ID, plan.Insert, plan.Delete); err != nil {
		return nil, fmt.Errorf("saving fields: %w", err)
	}

	processed := now.UTC()
	doc.DocumentType = out.Classification.Type
	doc.ClassificationConfidence = out.Classification.Confidence
	doc.Status = domain.ProcessingStatusCompleted
	doc.StatusError = ""
	doc.RetryAfter = nil
	doc.ProcessedAt = &processed
	if err := docRepo.UpdateAnalysis(ctx, doc); err != nil {
		return nil, fmt.Errorf("saving analysis: %w", err)
	}
	if fields == nil {
		fields = []domain.Field{}
	}
	return fields, nil
}

// handleProcessError queues a rate-limited document for retry while under
// maxAttempts and otherwise marks it failed. It reports whether the document
// was queued.
func (s *ingestService) handleProcessError(ctx context.Context, doc *domain.Document, procErr error, maxAttempts int) bool {
	if delay, ok := llm.RetryDelay(procErr); ok && doc.Attempts < maxAttempts {
		retryAt := s.now().Add(delay).UTC()
		doc.Status = domain.ProcessingStatusQueued
		doc.StatusError = fmt.Sprintf("rate limited, queued for retry: %v", procErr)
		doc.RetryAfter = &retryAt
		if err := s.docRepo.UpdateStatus(ctx, doc); err != nil {
			log.Error().Err(err).Str("document_id", doc.ID.String()).Msg("ingestService.handleProcessError: failed to queue document")
			return false
		}
		log.Info().Str("document_id", doc.ID.String()).Time("retry_after", retryAt).
			Msg("ingestService.handleProcessError: document queued for retry")
		return true
	}
	s.failProcessing(ctx, doc, procErr.Error())
	return false
}

func (s *ingestService) failProcessing(ctx context.Context, doc *domain.Document, errMsg string) {
	log.Warn().Str("document_id", doc.ID.String()).Str("error", errMsg).Msg("ingestService.failProcessing: document failed")
	doc.Status = domain.ProcessingStatusFailed
	doc.StatusError = errMsg
	doc.RetryAfter = nil
	if err := s.docRepo.UpdateStatus(ctx, doc); err != nil {
		log.Error().Err(err).Str("document_id", doc.ID.String()).Msg("ingestService.failProcessing: failed to update status")
	}
}

func (s *ingestService) newDocument(title string, kind domain.MediaKind, hint *domain.DocumentType, pageCount int) *domain.Document {
	if title == "" {
		title = fmt.Sprintf("%s upload %s", kind, s.now().UTC().Format("2006-01-02 15:04"))
	}
	return &domain.Document{
		ID:           uuid.New(),
		Title:        title,
		MediaKind:    kind,
		DocumentType: domain.DocumentTypeGeneric,
		TypeHint:     hint,
		PageCount:    pageCount,
		Status:       domain.ProcessingStatusProcessing,
	}
}

// store creates the document row, uploads every file and records the pages.
func (s *ingestService) store(ctx context.Context, doc *domain.Document, files []UploadFile, types []domain.FileType,
	contentTypes map[domain.FileType]string) ([]domain.Page, error) {
	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}

	pages := make([]domain.Page, len(files))
	for i, f := range files {
		n := i + 1
		key := s3.PageKey(doc.ID, n, f.FileName)
		contentType := contentTypes[types[i]]
		_, err := s.storage.Upload(ctx, port.UploadInput{
			Bucket:      s.cfg.Bucket,
			Key:         key,
			Body:        bytes.NewReader(f.Data),
			ContentType: contentType,
			Size:        int64(len(f.Data)),
		})
		if err != nil {
			log.Error().Err(err).Str("document_id", doc.ID.String()).Int("page", n).Msg("ingestService.store: upload failed")
			s.failProcessing(ctx, doc, fmt.Sprintf("uploading page %d: %v", n, err))
			return nil, domain.ErrUploadFailed
		}
		pages[i] = domain.Page{
			ID:           uuid.New(),
			DocumentID:   doc.ID,
			PageNumber:   n,
			OriginalName: f.FileName,
			FileType:     types[i],
			FileSize:     int64(len(f.Data)),
			ContentType:  contentType,
			S3Bucket:     s.cfg.Bucket,
			S3Key:        key,
		}
	}

	if err := s.pageRepo.CreateBatch(ctx, pages); err != nil {
		s.failProcessing(ctx, doc, fmt.Sprintf("saving pages: %v", err))
		s.removeObjects(ctx, doc.ID, pages)
		return nil, fmt.Errorf("saving pages: %w", err)
	}
	return pages, nil
}

// removeObjects deletes stored page objects that no page row points at.
func (s *ingestService) removeObjects(ctx context.Context, docID uuid.UUID, pages []domain.Page) {
	for _, p := range pages {
		if err := s.storage.Delete(ctx, p.S3Bucket, p.S3Key); err != nil {
			log.Warn().Err(err).Str("document_id", docID.String()).Str("key", p.S3Key).
				Msg("ingestService.removeObjects: failed to delete stored page")
		}
	}
}

// validateUpload checks extension, size and magic bytes of one file.
func validateUpload(f UploadFile, extensions map[string]domain.FileType, contentTypes map[domain.FileType]string, maxBytes int64) (domain.FileType, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(f.FileName), "."))
	fileType, ok := extensions[ext]
	if !ok {
		return "", fmt.Errorf("%s: %w", f.FileName, domain.ErrUnsupportedFileType)
	}
	if len(f.Data) == 0 {
		return "", fmt.Errorf("%s is empty: %w", f.FileName, domain.ErrUnsupportedFileType)
	}
	if maxBytes > 0 && int64(len(f.Data)) > maxBytes {
		return "", fmt.Errorf("%s: %w", f.FileName, domain.ErrFileTooLarge)
	}
	expected := contentTypes[fileType]
	detected := mimetype.Detect(f.Data)
	switch {
	case strings.HasPrefix(expected, "image/"):
		if !detected.Is(expected) {
			return "", fmt.Errorf("%s: content is %s: %w", f.FileName, detected, domain.ErrUnsupportedFileType)
		}
	case expected != "":
		if !isMediaContent(detected) {
			return "", fmt.Errorf("%s: content is %s: %w", f.FileName, detected, domain.ErrUnsupportedFileType)
		}
	}
	return fileType, nil
}

// isMediaContent reports whether m or one of its parents is an audio or
// video container.
func isMediaContent(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		t := m.String()
		if strings.HasPrefix(t, "audio/") || strings.HasPrefix(t, "video/") || t == "application/ogg" {
			return true
		}
	}
	return false
}
