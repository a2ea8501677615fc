package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docintake/internal/domain"
	"docintake/internal/port"
	"docintake/internal/service"
)

// MockAnalysisService is a mock implementation of service.AnalysisService.
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Classify(text string, fields []domain.Field, hint *domain.DocumentType) domain.ClassificationResult {
	args := m.Called(text, fields, hint)
	return args.Get(0).(domain.ClassificationResult)
}

func (m *MockAnalysisService) Extract(text string, docType domain.DocumentType) []domain.Field {
	args := m.Called(text, docType)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.Field)
}

func (m *MockAnalysisService) CardDetails(text string, fields []domain.Field) domain.CardDetails {
	args := m.Called(text, fields)
	return args.Get(0).(domain.CardDetails)
}

func (m *MockAnalysisService) Deduplicate(fields []domain.Field) []domain.Field {
	args := m.Called(fields)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.Field)
}

func (m *MockAnalysisService) Analyze(ctx context.Context, input service.AnalyzeInput) (*service.AnalyzeOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AnalyzeOutput), args.Error(1)
}

// MockIngestService is a mock implementation of service.IngestService.
type MockIngestService struct {
	mock.Mock
}

func (m *MockIngestService) IngestImages(ctx context.Context, input service.IngestImagesInput) (*service.IngestResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestResult), args.Error(1)
}

func (m *MockIngestService) IngestAudio(ctx context.Context, input service.IngestAudioInput) (*service.IngestResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestResult), args.Error(1)
}

func (m *MockIngestService) ProcessDocument(ctx context.Context, doc *domain.Document, maxAttempts int) {
	m.Called(ctx, doc, maxAttempts)
}

// MockDocumentService is a mock implementation of service.DocumentService.
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) List(ctx context.Context, filter port.DocumentFilter, offset, limit int) ([]domain.Document, int, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Document), args.Int(1), args.Error(2)
}

func (m *MockDocumentService) Get(ctx context.Context, docID uuid.UUID) (*domain.DocumentWithFields, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentWithFields), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, docID uuid.UUID) error {
	args := m.Called(ctx, docID)
	return args.Error(0)
}

func (m *MockDocumentService) Reanalyze(ctx context.Context, docID uuid.UUID, hint *domain.DocumentType) (*service.IngestResult, error) {
	args := m.Called(ctx, docID, hint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestResult), args.Error(1)
}

func (m *MockDocumentService) Export(ctx context.Context, docID uuid.UUID, format service.ExportFormat) (*service.ExportOutput, error) {
	args := m.Called(ctx, docID, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportOutput), args.Error(1)
}

// MockFieldService is a mock implementation of service.FieldService.
type MockFieldService struct {
	mock.Mock
}

func (m *MockFieldService) Add(ctx context.Context, input service.AddFieldInput) ([]domain.Field, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Field), args.Error(1)
}

func (m *MockFieldService) Edit(ctx context.Context, docID, fieldID uuid.UUID, value string) ([]domain.Field, error) {
	args := m.Called(ctx, docID, fieldID, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Field), args.Error(1)
}

func (m *MockFieldService) Reset(ctx context.Context, docID, fieldID uuid.UUID) ([]domain.Field, error) {
	args := m.Called(ctx, docID, fieldID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Field), args.Error(1)
}

func (m *MockFieldService) Delete(ctx context.Context, docID, fieldID uuid.UUID) error {
	args := m.Called(ctx, docID, fieldID)
	return args.Error(0)
}
