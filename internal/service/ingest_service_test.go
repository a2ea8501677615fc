package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docintake/internal/domain"
	"docintake/internal/llm"
	"docintake/internal/port"
	"docintake/internal/service"
	"docintake/mocks"
)

const cardText = "VISA 4111 1111 1111 1111 VALID THRU 12/29\nJOHN DOE"

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

type ingestDeps struct {
	docRepo     *mocks.MockDocumentRepo
	fieldRepo   *mocks.MockFieldRepo
	pageRepo    *mocks.MockPageRepo
	storage     *mocks.MockObjectStorage
	recognizer  *mocks.MockTextRecognizer
	transcriber *mocks.MockTranscriber
	extractor   *mocks.MockFieldExtractor
}

func setupIngestService(withExtractor bool) (service.IngestService, *ingestDeps) {
	d := &ingestDeps{
		docRepo:     new(mocks.MockDocumentRepo),
		fieldRepo:   new(mocks.MockFieldRepo),
		pageRepo:    new(mocks.MockPageRepo),
		storage:     new(mocks.MockObjectStorage),
		recognizer:  new(mocks.MockTextRecognizer),
		transcriber: new(mocks.MockTranscriber),
		extractor:   new(mocks.MockFieldExtractor),
	}
	var extractor port.FieldExtractor
	if withExtractor {
		extractor = d.extractor
	}
	analysisSvc := service.NewAnalysisService(newTestAnalyzer(), extractor)
	svc := service.NewIngestService(d.docRepo, d.fieldRepo, d.pageRepo, d.storage, d.recognizer, d.transcriber,
		analysisSvc, service.IngestConfig{
			Bucket:         "test-bucket",
			MaxImageBytes:  1024,
			MaxAudioBytes:  1024,
			MaxFiles:       3,
			OCRConcurrency: 2,
			MaxAttempts:    3,
		})
	return svc, d
}

func (d *ingestDeps) expectStore(pages int) {
	d.docRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Document")).Return(nil).Once()
	d.storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "test-bucket" && in.ContentType == "image/png"
	})).Return(&port.UploadOutput{Location: "s3://test-bucket/key"}, nil).Times(pages)
	d.pageRepo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(p []domain.Page) bool {
		return len(p) == pages
	})).Return(nil).Once()
}

func pngUpload(name string) service.UploadFile {
	return service.UploadFile{FileName: name, Data: pngBytes}
}

func TestIngestService_IngestImages_Validation(t *testing.T) {
	tests := []struct {
		name  string
		files []service.UploadFile
		want  error
	}{
		{"no files", nil, domain.ErrNoPages},
		{"too many files", []service.UploadFile{pngUpload("a.png"), pngUpload("b.png"), pngUpload("c.png"), pngUpload("d.png")}, domain.ErrTooManyFiles},
		{"bad extension", []service.UploadFile{{FileName: "scan.pdf", Data: pngBytes}}, domain.ErrUnsupportedFileType},
		{"empty file", []service.UploadFile{{FileName: "scan.png"}}, domain.ErrUnsupportedFileType},
		{"content mismatch", []service.UploadFile{{FileName: "scan.png", Data: []byte("just some text")}}, domain.ErrUnsupportedFileType},
		{"too large", []service.UploadFile{{FileName: "scan.png", Data: append(append([]byte{}, pngBytes...), make([]byte, 2048)...)}}, domain.ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := setupIngestService(false)

			result, err := svc.IngestImages(context.Background(), service.IngestImagesInput{Files: tt.files})

			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.want)
			d.docRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestIngestService_IngestImages_RecognizerDisabled(t *testing.T) {
	analysisSvc := service.NewAnalysisService(newTestAnalyzer(), nil)
	svc := service.NewIngestService(new(mocks.MockDocumentRepo), new(mocks.MockFieldRepo), new(mocks.MockPageRepo),
		new(mocks.MockObjectStorage), nil, nil, analysisSvc, service.IngestConfig{})

	_, err := svc.IngestImages(context.Background(), service.IngestImagesInput{Files: []service.UploadFile{pngUpload("a.png")}})

	assert.ErrorIs(t, err, domain.ErrRecognizerDisabled)
}

func TestIngestService_IngestImages_Sync(t *testing.T) {
	svc, d := setupIngestService(false)
	d.expectStore(1)
	d.recognizer.On("Recognize", mock.Anything, mock.MatchedBy(func(in port.ImageInput) bool {
		return in.ContentType == "image/png" && len(in.Bytes) == len(pngBytes)
	})).Return(cardText, nil).Once()
	d.pageRepo.On("UpdateText", mock.Anything, mock.AnythingOfType("*domain.Page")).Return(nil).Once()
	d.fieldRepo.On("ListByDocument", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return([]domain.Field{}, nil).Once()
	d.fieldRepo.On("Reconcile", mock.Anything, mock.AnythingOfType("uuid.UUID"), mock.MatchedBy(func(f []domain.Field) bool {
		return len(f) > 0
	}), mock.Anything).Return(nil).Once()
	d.docRepo.On("UpdateAnalysis", mock.Anything, mock.MatchedBy(func(doc *domain.Document) bool {
		return doc.Status == domain.ProcessingStatusCompleted && doc.DocumentType == domain.DocumentTypeCreditCard
	})).Return(nil).Once()

	result, err := svc.IngestImages(context.Background(), service.IngestImagesInput{
		Title: "Wallet card",
		Files: []service.UploadFile{pngUpload("front.PNG")},
	})

	require.NoError(t, err)
	assert.Equal(t, "Wallet card", result.Document.Title)
	assert.Equal(t, domain.ProcessingStatusCompleted, result.Document.Status)
	assert.Equal(t, domain.DocumentTypeCreditCard, result.Classification.Type)
	assert.Equal(t, cardText, result.Document.RawText)
	require.NotNil(t, result.Card)
	assert.Equal(t, "4111111111111111", *result.Card.PAN)
	require.Len(t, result.Document.Pages, 1)
	assert.Equal(t, domain.FileTypePNG, result.Document.Pages[0].FileType)
	assert.Contains(t, result.Document.Pages[0].S3Key, "/pages/001.png")
	for _, f := range result.Document.Fields {
		assert.Equal(t, result.Document.ID, f.DocumentID)
	}
	d.docRepo.AssertExpectations(t)
	d.fieldRepo.AssertExpectations(t)
	d.storage.AssertExpectations(t)
}

func TestIngestService_IngestImages_Async(t *testing.T) {
	svc, d := setupIngestService(false)
	d.docRepo.On("Create", mock.Anything, mock.MatchedBy(func(doc *domain.Document) bool {
		return doc.Status == domain.ProcessingStatusQueued
	})).Return(nil).Once()
	d.storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil).Twice()
	d.pageRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(nil).Once()

	result, err := svc.IngestImages(context.Background(), service.IngestImagesInput{
		Files: []service.UploadFile{pngUpload("1.png"), pngUpload("2.png")},
		Async: true,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ProcessingStatusQueued, result.Document.Status)
	assert.Equal(t, 2, result.Document.PageCount)
	assert.Empty(t, result.Document.Fields)
	d.recognizer.AssertNotCalled(t, "Recognize", mock.Anything, mock.Anything)
}

func TestIngestService_IngestImages_UploadFailure(t *testing.T) {
	svc, d := setupIngestService(false)
	d.docRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	d.storage.On("Upload", mock.Anything, mock.Anything).Return(nil, errors.New("s3 down")).Once()
	d.docRepo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(doc *domain.Document) bool {
		return doc.Status == domain.ProcessingStatusFailed
	})).Return(nil).Once()

	_, err := svc.IngestImages(context.Background(), service.IngestImagesInput{Files: []service.UploadFile{pngUpload("a.png")}})

	assert.ErrorIs(t, err, domain.ErrUploadFailed)
	d.pageRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	d.docRepo.AssertExpectations(t)
}

func TestIngestService_IngestImages_PageSaveFailureFailsDocument(t *testing.T) {
	svc, d := setupIngestService(false)
	d.docRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	d.storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil).Twice()
	d.pageRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
	d.docRepo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(doc *domain.Document) bool {
		return doc.Status == domain.ProcessingStatusFailed && doc.StatusError != ""
	})).Return(nil).Once()
	d.storage.On("Delete", mock.Anything, "test-bucket", mock.AnythingOfType("string")).Return(nil).Twice()

	_, err := svc.IngestImages(context.Background(), service.IngestImagesInput{
		Files: []service.UploadFile{pngUpload("a.png"), pngUpload("b.png")},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	d.docRepo.AssertExpectations(t)
	d.storage.AssertExpectations(t)
	d.recognizer.AssertNotCalled(t, "Recognize", mock.Anything, mock.Anything)
}

func TestIngestService_IngestImages_NoTextFails(t *testing.T) {
	svc, d := setupIngestService(false)
	d.expectStore(1)
	d.recognizer.On("Recognize", mock.Anything, mock.Anything).Return("  \n ", nil).Once()
	d.pageRepo.On("UpdateText", mock.Anything, mock.Anything).Return(nil).Maybe()
	d.docRepo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(doc *domain.Document) bool {
		return doc.Status == domain.ProcessingStatusFailed && doc.StatusError != ""
	})).Return(nil).Once()

	_, err := svc.IngestImages(context.Background(), service.IngestImagesInput{Files: []service.UploadFile{pngUpload("a.png")}})

	assert.ErrorIs(t, err, domain.ErrNoTextExtracted)
	d.docRepo.AssertExpectations(t)
	d.fieldRepo.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestService_IngestImages_RateLimitQueues(t *testing.T) {
	svc, d := setupIngestService(true)
	d.expectStore(1)
	d.recognizer.On("Recognize", mock.Anything, mock.Anything).Return(cardText, nil).Once()
	d.pageRepo.On("UpdateText", mock.Anything, mock.Anything).Return(nil).Once()
	d.fieldRepo.On("ListByDocument", mock.Anything, mock.Anything).Return([]domain.Field{}, nil).Once()
	d.extractor.On("Extract", mock.Anything, mock.MatchedBy(func(in port.ExtractInput) bool {
		return len(in.Images) == 1
	})).Return(nil, llm.NewRateLimitError("openai", errors.New("429"), 20)).Once()
	d.docRepo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(doc *domain.Document) bool {
		return doc.Status == domain.ProcessingStatusQueued && doc.RetryAfter != nil && doc.Attempts == 1
	})).Return(nil).Once()

	result, err := svc.IngestImages(context.Background(), service.IngestImagesInput{Files: []service.UploadFile{pngUpload("a.png")}})

	require.NoError(t, err)
	assert.Equal(t, domain.ProcessingStatusQueued, result.Document.Status)
	require.NotNil(t, result.Document.RetryAfter)
	d.docRepo.AssertNotCalled(t, "UpdateAnalysis", mock.Anything, mock.Anything)
	d.docRepo.AssertExpectations(t)
}

func TestIngestService_IngestAudio(t *testing.T) {
	svc, d := setupIngestService(false)
	d.docRepo.On("Create", mock.Anything, mock.MatchedBy(func(doc *domain.Document) bool {
		return doc.MediaKind == domain.MediaKindAudio
	})).Return(nil).Once()
	d.storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.ContentType == "audio/mpeg"
	})).Return(&port.UploadOutput{}, nil).Once()
	d.pageRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(nil).Once()
	d.transcriber.On("Transcribe", mock.Anything, mock.MatchedBy(func(in port.AudioInput) bool {
		return in.FileName == "memo.mp3"
	})).Return("Call me back at test@example.com", nil).Once()
	d.pageRepo.On("UpdateText", mock.Anything, mock.Anything).Return(nil).Once()
	d.fieldRepo.On("ListByDocument", mock.Anything, mock.Anything).Return([]domain.Field{}, nil).Once()
	d.fieldRepo.On("Reconcile", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	d.docRepo.On("UpdateAnalysis", mock.Anything, mock.Anything).Return(nil).Once()

	result, err := svc.IngestAudio(context.Background(), service.IngestAudioInput{
		File: service.UploadFile{FileName: "memo.mp3", Data: []byte("ID3 fake audio frames")},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.MediaKindAudio, result.Document.MediaKind)
	assert.Equal(t, []string{"test@example.com"}, fieldValues(result.Document.Fields, "email"))
	d.recognizer.AssertNotCalled(t, "Recognize", mock.Anything, mock.Anything)
}

func TestIngestService_IngestAudio_Errors(t *testing.T) {
	svc, _ := setupIngestService(false)

	_, err := svc.IngestAudio(context.Background(), service.IngestAudioInput{File: service.UploadFile{FileName: "memo.mp3"}})
	assert.ErrorIs(t, err, domain.ErrNoAudio)

	_, err = svc.IngestAudio(context.Background(), service.IngestAudioInput{File: service.UploadFile{FileName: "memo.txt", Data: []byte("x")}})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)

	_, err = svc.IngestAudio(context.Background(), service.IngestAudioInput{File: service.UploadFile{FileName: "memo.mp3", Data: []byte("not a recording")}})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)

	analysisSvc := service.NewAnalysisService(newTestAnalyzer(), nil)
	noAudio := service.NewIngestService(new(mocks.MockDocumentRepo), new(mocks.MockFieldRepo), new(mocks.MockPageRepo),
		new(mocks.MockObjectStorage), nil, nil, analysisSvc, service.IngestConfig{})
	_, err = noAudio.IngestAudio(context.Background(), service.IngestAudioInput{File: service.UploadFile{FileName: "memo.mp3", Data: []byte("x")}})
	assert.ErrorIs(t, err, domain.ErrTranscriberDisabled)
}

func TestIngestService_IngestAudio_SniffsContainers(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
	}{
		{"m4a", "memo.m4a", append([]byte("\x00\x00\x00\x20ftypM4A \x00\x00\x00\x00M4A mp42isom"), make([]byte, 16)...)},
		{"flac", "memo.flac", append([]byte("fLaC\x00\x00\x00\x22"), make([]byte, 34)...)},
		{"ogg", "memo.ogg", append([]byte("OggS\x00\x02"), make([]byte, 40)...)},
		{"wav", "memo.wav", append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 24)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := setupIngestService(false)
			d.docRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

			_, err := svc.IngestAudio(context.Background(), service.IngestAudioInput{
				File: service.UploadFile{FileName: tt.file, Data: tt.data},
			})

			require.Error(t, err)
			assert.NotErrorIs(t, err, domain.ErrUnsupportedFileType)
			d.docRepo.AssertExpectations(t)
		})
	}
}

func TestIngestService_ProcessDocument_DownloadsMissingPages(t *testing.T) {
	svc, d := setupIngestService(false)
	doc := &domain.Document{
		ID:           uuid.New(),
		MediaKind:    domain.MediaKindImage,
		DocumentType: domain.DocumentTypeGeneric,
		Status:       domain.ProcessingStatusProcessing,
		Attempts:     2,
	}
	pages := []domain.Page{
		{ID: uuid.New(), DocumentID: doc.ID, PageNumber: 1, ContentType: "image/png", S3Bucket: "test-bucket", S3Key: "documents/x/pages/001.png", Text: "VISA 4111 1111 1111 1111"},
		{ID: uuid.New(), DocumentID: doc.ID, PageNumber: 2, ContentType: "image/png", S3Bucket: "test-bucket", S3Key: "documents/x/pages/002.png"},
	}
	d.pageRepo.On("ListByDocument", mock.Anything, doc.ID).Return(pages, nil).Once()
	d.storage.On("Download", mock.Anything, "test-bucket", "documents/x/pages/002.png").Return(pngBytes, nil).Once()
	d.recognizer.On("Recognize", mock.Anything, mock.Anything).Return("VALID THRU 12/29\nJOHN DOE", nil).Once()
	d.pageRepo.On("UpdateText", mock.Anything, mock.MatchedBy(func(p *domain.Page) bool { return p.PageNumber == 2 })).Return(nil).Once()
	d.fieldRepo.On("ListByDocument", mock.Anything, doc.ID).Return([]domain.Field{}, nil).Once()
	d.fieldRepo.On("Reconcile", mock.Anything, doc.ID, mock.Anything, mock.Anything).Return(nil).Once()
	d.docRepo.On("UpdateAnalysis", mock.Anything, mock.MatchedBy(func(doc *domain.Document) bool {
		return doc.Status == domain.ProcessingStatusCompleted && doc.ProcessedAt != nil
	})).Return(nil).Once()

	svc.ProcessDocument(context.Background(), doc, 3)

	assert.Equal(t, domain.DocumentTypeCreditCard, doc.DocumentType)
	assert.Equal(t, "VISA 4111 1111 1111 1111\n\nVALID THRU 12/29\nJOHN DOE", doc.RawText)
	d.storage.AssertExpectations(t)
	d.docRepo.AssertExpectations(t)
}

func TestIngestService_ProcessDocument_RateLimitAtMaxAttemptsFails(t *testing.T) {
	svc, d := setupIngestService(true)
	doc := &domain.Document{ID: uuid.New(), MediaKind: domain.MediaKindText, Status: domain.ProcessingStatusProcessing, Attempts: 3}
	pages := []domain.Page{{ID: uuid.New(), DocumentID: doc.ID, PageNumber: 1, Text: "Email: test@example.com"}}
	d.pageRepo.On("ListByDocument", mock.Anything, doc.ID).Return(pages, nil).Once()
	d.fieldRepo.On("ListByDocument", mock.Anything, doc.ID).Return([]domain.Field{}, nil).Once()
	d.extractor.On("Extract", mock.Anything, mock.Anything).
		Return(nil, llm.NewRateLimitError("gemini", errors.New("429"), 0)).Once()
	d.docRepo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(doc *domain.Document) bool {
		return doc.Status == domain.ProcessingStatusFailed && doc.RetryAfter == nil
	})).Return(nil).Once()

	svc.ProcessDocument(context.Background(), doc, 3)

	assert.Equal(t, domain.ProcessingStatusFailed, doc.Status)
	d.docRepo.AssertExpectations(t)
}

func TestIngestService_ProcessDocument_PageLoadErrorFails(t *testing.T) {
	svc, d := setupIngestService(false)
	doc := &domain.Document{ID: uuid.New(), Status: domain.ProcessingStatusProcessing, Attempts: 1}
	d.pageRepo.On("ListByDocument", mock.Anything, doc.ID).Return(nil, errors.New("db gone")).Once()
	d.docRepo.On("UpdateStatus", mock.Anything, mock.Anything).Return(nil).Once()

	svc.ProcessDocument(context.Background(), doc, 3)

	assert.Equal(t, domain.ProcessingStatusFailed, doc.Status)
	assert.Contains(t, doc.StatusError, "db gone")
}
