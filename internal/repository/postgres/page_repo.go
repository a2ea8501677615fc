package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"docintake/internal/domain"
	"docintake/internal/port"
)

type pageRepo struct {
	db *sqlx.DB
}

// NewPageRepo creates a new PostgreSQL-backed PageRepository.
func NewPageRepo(db *sqlx.DB) port.PageRepository {
	return &pageRepo{db: db}
}

func (r *pageRepo) CreateBatch(ctx context.Context, pages []domain.Page) error {
	if len(pages) == 0 {
		return nil
	}

	now := time.Now().UTC()
	valueStrings := make([]string, 0, len(pages))
	valueArgs := make([]interface{}, 0, len(pages)*11)

	for i := range pages {
		p := &pages[i]
		p.CreatedAt = now
		base := i * 11
		valueStrings = append(valueStrings, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10, base+11))
		valueArgs = append(valueArgs, p.ID, p.DocumentID, p.PageNumber, p.OriginalName, p.FileType,
			p.FileSize, p.ContentType, p.S3Bucket, p.S3Key, p.Text, p.CreatedAt)
	}

	query := fmt.Sprintf(
		`INSERT INTO document_pages (
			id, document_id, page_number, original_name, file_type,
			file_size, content_type, s3_bucket, s3_key, text, created_at
		) VALUES %s`,
		strings.Join(valueStrings, ", "))

	if _, err := r.db.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("pageRepo.CreateBatch: %w", err)
	}
	return nil
}

func (r *pageRepo) ListByDocument(ctx context.Context, docID uuid.UUID) ([]domain.Page, error) {
	pages := []domain.Page{}
	err := r.db.SelectContext(ctx, &pages,
		"SELECT * FROM document_pages WHERE document_id = $1 ORDER BY page_number", docID)
	if err != nil {
		return nil, fmt.Errorf("pageRepo.ListByDocument: %w", err)
	}
	return pages, nil
}

func (r *pageRepo) UpdateText(ctx context.Context, page *domain.Page) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE document_pages SET text = $1 WHERE id = $2", page.Text, page.ID)
	if err != nil {
		return fmt.Errorf("pageRepo.UpdateText: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
