package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"docintake/internal/domain"
	"docintake/internal/port"
)

type documentRepo struct {
	db *sqlx.DB
}

// NewDocumentRepo creates a new PostgreSQL-backed DocumentRepository.
func NewDocumentRepo(db *sqlx.DB) port.DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	query := `INSERT INTO documents (
		id, title, media_kind, document_type, type_hint,
		classification_confidence, raw_text, page_count,
		status, status_error, attempts, retry_after, processed_at,
		created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8,
		$9, $10, $11, $12, $13,
		$14, $15
	)`

	_, err := r.db.ExecContext(ctx, query,
		doc.ID, doc.Title, doc.MediaKind, doc.DocumentType, doc.TypeHint,
		doc.ClassificationConfidence, doc.RawText, doc.PageCount,
		doc.Status, doc.StatusError, doc.Attempts, doc.RetryAfter, doc.ProcessedAt,
		doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("documentRepo.Create: %w", err)
	}
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, docID uuid.UUID) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.GetContext(ctx, &doc, "SELECT * FROM documents WHERE id = $1", docID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("documentRepo.GetByID: %w", err)
	}
	return &doc, nil
}

func (r *documentRepo) List(ctx context.Context, filter port.DocumentFilter, offset, limit int) ([]domain.Document, int, error) {
	where, args := listWhere(filter)

	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM documents"+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("documentRepo.List count: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf("SELECT * FROM documents%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d", where, n+1, n+2)
	docs := []domain.Document{}
	err = r.db.SelectContext(ctx, &docs, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("documentRepo.List: %w", err)
	}
	return docs, total, nil
}

// listWhere renders the WHERE clause and its positional arguments for a filter.
func listWhere(filter port.DocumentFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if filter.DocumentType != nil {
		args = append(args, *filter.DocumentType)
		conds = append(conds, fmt.Sprintf("document_type = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *documentRepo) UpdateAnalysis(ctx context.Context, doc *domain.Document) error {
	doc.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE documents SET
			document_type = $1, type_hint = $2, classification_confidence = $3,
			raw_text = $4, page_count = $5,
			status = $6, status_error = $7, retry_after = $8, processed_at = $9, updated_at = $10
		 WHERE id = $11`,
		doc.DocumentType, doc.TypeHint, doc.ClassificationConfidence,
		doc.RawText, doc.PageCount,
		doc.Status, doc.StatusError, doc.RetryAfter, doc.ProcessedAt, doc.UpdatedAt,
		doc.ID)
	if err != nil {
		return fmt.Errorf("documentRepo.UpdateAnalysis: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *documentRepo) UpdateStatus(ctx context.Context, doc *domain.Document) error {
	doc.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE documents SET
			status = $1, status_error = $2, attempts = $3, retry_after = $4, updated_at = $5
		 WHERE id = $6`,
		doc.Status, doc.StatusError, doc.Attempts, doc.RetryAfter, doc.UpdatedAt,
		doc.ID)
	if err != nil {
		return fmt.Errorf("documentRepo.UpdateStatus: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *documentRepo) ClaimQueued(ctx context.Context, maxRetries, limit int) ([]domain.Document, error) {
	docs := []domain.Document{}
	err := r.db.SelectContext(ctx, &docs,
		`UPDATE documents SET status = $1, attempts = attempts + 1, updated_at = NOW()
		 WHERE id IN (
			SELECT id FROM documents
			WHERE status = $2 AND attempts < $3
			  AND (retry_after IS NULL OR retry_after <= NOW())
			ORDER BY created_at
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING *`,
		domain.ProcessingStatusProcessing, domain.ProcessingStatusQueued, maxRetries, limit)
	if err != nil {
		return nil, fmt.Errorf("documentRepo.ClaimQueued: %w", err)
	}
	return docs, nil
}

func (r *documentRepo) Delete(ctx context.Context, docID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = $1", docID)
	if err != nil {
		return fmt.Errorf("documentRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}
