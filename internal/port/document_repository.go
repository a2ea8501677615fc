package port

import (
	"context"

	"github.com/google/uuid"

	"docintake/internal/domain"
)

// DocumentFilter narrows document listings. Nil members match everything.
type DocumentFilter struct {
	DocumentType *domain.DocumentType
	Status       *domain.ProcessingStatus
}

// DocumentRepository defines the contract for document persistence.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, docID uuid.UUID) (*domain.Document, error)
	List(ctx context.Context, filter DocumentFilter, offset, limit int) ([]domain.Document, int, error)
	UpdateAnalysis(ctx context.Context, doc *domain.Document) error
	UpdateStatus(ctx context.Context, doc *domain.Document) error
	// ClaimQueued atomically moves up to limit queued documents whose retry
	// time has passed into processing and returns them.
	ClaimQueued(ctx context.Context, maxRetries, limit int) ([]domain.Document, error)
	Delete(ctx context.Context, docID uuid.UUID) error
}

// FieldRepository defines the contract for extracted field persistence.
type FieldRepository interface {
	ListByDocument(ctx context.Context, docID uuid.UUID) ([]domain.Field, error)
	GetByID(ctx context.Context, docID, fieldID uuid.UUID) (*domain.Field, error)
	Create(ctx context.Context, field *domain.Field) error
	UpdateValue(ctx context.Context, field *domain.Field) error
	Delete(ctx context.Context, docID, fieldID uuid.UUID) error
	// Reconcile inserts and deletes fields of one document in a single transaction.
	Reconcile(ctx context.Context, docID uuid.UUID, insert []domain.Field, deleteIDs []uuid.UUID) error
}

// PageRepository defines the contract for page (uploaded object) persistence.
type PageRepository interface {
	CreateBatch(ctx context.Context, pages []domain.Page) error
	ListByDocument(ctx context.Context, docID uuid.UUID) ([]domain.Page, error)
	UpdateText(ctx context.Context, page *domain.Page) error
}
