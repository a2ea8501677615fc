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

type fieldRepo struct {
	db *sqlx.DB
}

// NewFieldRepo creates a new PostgreSQL-backed FieldRepository.
func NewFieldRepo(db *sqlx.DB) port.FieldRepository {
	return &fieldRepo{db: db}
}

const fieldColumns = `id, document_id, key, value, confidence, source, is_modified, original_value, created_at, updated_at`

func (r *fieldRepo) ListByDocument(ctx context.Context, docID uuid.UUID) ([]domain.Field, error) {
	fields := []domain.Field{}
	err := r.db.SelectContext(ctx, &fields,
		"SELECT * FROM document_fields WHERE document_id = $1 ORDER BY LOWER(key), value",
		docID)
	if err != nil {
		return nil, fmt.Errorf("fieldRepo.ListByDocument: %w", err)
	}
	return fields, nil
}

func (r *fieldRepo) GetByID(ctx context.Context, docID, fieldID uuid.UUID) (*domain.Field, error) {
	var f domain.Field
	err := r.db.GetContext(ctx, &f,
		"SELECT * FROM document_fields WHERE id = $1 AND document_id = $2", fieldID, docID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrFieldNotFound
		}
		return nil, fmt.Errorf("fieldRepo.GetByID: %w", err)
	}
	return &f, nil
}

func (r *fieldRepo) Create(ctx context.Context, f *domain.Field) error {
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO document_fields (`+fieldColumns+`) VALUES (
			:id, :document_id, :key, :value, :confidence, :source, :is_modified, :original_value, :created_at, :updated_at
		)`, f)
	if err != nil {
		return fmt.Errorf("fieldRepo.Create: %w", err)
	}
	return nil
}

func (r *fieldRepo) UpdateValue(ctx context.Context, f *domain.Field) error {
	f.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE document_fields SET value = $1, is_modified = $2, confidence = $3, source = $4, updated_at = $5
		 WHERE id = $6 AND document_id = $7`,
		f.Value, f.IsModified, f.Confidence, f.Source, f.UpdatedAt, f.ID, f.DocumentID)
	if err != nil {
		return fmt.Errorf("fieldRepo.UpdateValue: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrFieldNotFound
	}
	return nil
}

func (r *fieldRepo) Delete(ctx context.Context, docID, fieldID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM document_fields WHERE id = $1 AND document_id = $2", fieldID, docID)
	if err != nil {
		return fmt.Errorf("fieldRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrFieldNotFound
	}
	return nil
}

func (r *fieldRepo) Reconcile(ctx context.Context, docID uuid.UUID, insert []domain.Field, deleteIDs []uuid.UUID) (err error) {
	if len(insert) == 0 && len(deleteIDs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("fieldRepo.Reconcile begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if len(deleteIDs) > 0 {
		query, args, qerr := sqlx.In("DELETE FROM document_fields WHERE document_id = ? AND id IN (?)", docID, deleteIDs)
		if qerr != nil {
			return fmt.Errorf("fieldRepo.Reconcile delete query: %w", qerr)
		}
		if _, err = tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("fieldRepo.Reconcile delete: %w", err)
		}
	}

	if len(insert) > 0 {
		query, args := batchInsertFields(docID, insert)
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("fieldRepo.Reconcile insert: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("fieldRepo.Reconcile commit: %w", err)
	}
	return nil
}

// batchInsertFields renders a multi-row INSERT for fields of one document.
func batchInsertFields(docID uuid.UUID, fields []domain.Field) (string, []interface{}) {
	const cols = 10
	now := time.Now().UTC()
	valueStrings := make([]string, 0, len(fields))
	valueArgs := make([]interface{}, 0, len(fields)*cols)

	for i, f := range fields {
		base := i * cols
		ph := make([]string, cols)
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ", ")+")")
		valueArgs = append(valueArgs,
			f.ID, docID, f.Key, f.Value, f.Confidence, f.Source, f.IsModified, f.OriginalValue, now, now)
	}

	query := fmt.Sprintf(`INSERT INTO document_fields (%s) VALUES %s`, fieldColumns, strings.Join(valueStrings, ", "))
	return query, valueArgs
}
