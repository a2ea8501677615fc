package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"docintake/internal/analysis"
	"docintake/internal/domain"
	"docintake/internal/port"
)

// AddFieldInput is the DTO for adding a user field.
type AddFieldInput struct {
	DocumentID uuid.UUID
	Key        string
	Value      string
}

// FieldService defines user edits to a document's fields. Every mutation
// re-runs deduplication over the document so at most one field remains per
// composite key.
type FieldService interface {
	Add(ctx context.Context, input AddFieldInput) ([]domain.Field, error)
	Edit(ctx context.Context, docID, fieldID uuid.UUID, value string) ([]domain.Field, error)
	Reset(ctx context.Context, docID, fieldID uuid.UUID) ([]domain.Field, error)
	Delete(ctx context.Context, docID, fieldID uuid.UUID) error
}

type fieldService struct {
	docRepo   port.DocumentRepository
	fieldRepo port.FieldRepository
}

// NewFieldService creates a new FieldService implementation.
func NewFieldService(docRepo port.DocumentRepository, fieldRepo port.FieldRepository) FieldService {
	return &fieldService{docRepo: docRepo, fieldRepo: fieldRepo}
}

func (s *fieldService) Add(ctx context.Context, input AddFieldInput) ([]domain.Field, error) {
	if _, err := s.docRepo.GetByID(ctx, input.DocumentID); err != nil {
		return nil, err
	}

	f := domain.NewField(strings.TrimSpace(input.Key), strings.TrimSpace(input.Value), 1.0, domain.FieldSourceFused)
	f.DocumentID = input.DocumentID
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if err := s.fieldRepo.Create(ctx, &f); err != nil {
		return nil, fmt.Errorf("creating field: %w", err)
	}
	return s.rededup(ctx, input.DocumentID)
}

func (s *fieldService) Edit(ctx context.Context, docID, fieldID uuid.UUID, value string) ([]domain.Field, error) {
	f, err := s.fieldRepo.GetByID(ctx, docID, fieldID)
	if err != nil {
		return nil, err
	}
	f.Edit(value)
	f.Source = domain.FieldSourceFused
	f.Confidence = 1.0
	if err := s.fieldRepo.UpdateValue(ctx, f); err != nil {
		return nil, err
	}
	return s.rededup(ctx, docID)
}

func (s *fieldService) Reset(ctx context.Context, docID, fieldID uuid.UUID) ([]domain.Field, error) {
	f, err := s.fieldRepo.GetByID(ctx, docID, fieldID)
	if err != nil {
		return nil, err
	}
	if !f.IsModified {
		return nil, domain.ErrFieldNotModified
	}
	f.Reset()
	if err := s.fieldRepo.UpdateValue(ctx, f); err != nil {
		return nil, err
	}
	return s.rededup(ctx, docID)
}

func (s *fieldService) Delete(ctx context.Context, docID, fieldID uuid.UUID) error {
	return s.fieldRepo.Delete(ctx, docID, fieldID)
}

// rededup collapses duplicates created by an edit and returns the surviving fields.
func (s *fieldService) rededup(ctx context.Context, docID uuid.UUID) ([]domain.Field, error) {
	fields, err := s.fieldRepo.ListByDocument(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("listing fields: %w", err)
	}
	winners := analysis.Deduplicate(fields)
	plan := analysis.PlanReconcile(fields, winners)
	if len(plan.Delete) > 0 {
		if err := s.fieldRepo.Reconcile(ctx, docID, nil, plan.Delete); err != nil {
			return nil, fmt.Errorf("removing duplicates: %w", err)
		}
		log.Debug().Str("document_id", docID.String()).Int("removed", len(plan.Delete)).
			Msg("fieldService.rededup: removed duplicate fields")
	}
	return winners, nil
}
