package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docintake/internal/domain"
)

// MockFieldRepo is a mock implementation of port.FieldRepository.
type MockFieldRepo struct {
	mock.Mock
}

func (m *MockFieldRepo) ListByDocument(ctx context.Context, docID uuid.UUID) ([]domain.Field, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Field), args.Error(1)
}

func (m *MockFieldRepo) GetByID(ctx context.Context, docID, fieldID uuid.UUID) (*domain.Field, error) {
	args := m.Called(ctx, docID, fieldID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Field), args.Error(1)
}

func (m *MockFieldRepo) Create(ctx context.Context, field *domain.Field) error {
	args := m.Called(ctx, field)
	return args.Error(0)
}

func (m *MockFieldRepo) UpdateValue(ctx context.Context, field *domain.Field) error {
	args := m.Called(ctx, field)
	return args.Error(0)
}

func (m *MockFieldRepo) Delete(ctx context.Context, docID, fieldID uuid.UUID) error {
	args := m.Called(ctx, docID, fieldID)
	return args.Error(0)
}

func (m *MockFieldRepo) Reconcile(ctx context.Context, docID uuid.UUID, insert []domain.Field, deleteIDs []uuid.UUID) error {
	args := m.Called(ctx, docID, insert, deleteIDs)
	return args.Error(0)
}

// MockPageRepo is a mock implementation of port.PageRepository.
type MockPageRepo struct {
	mock.Mock
}

func (m *MockPageRepo) CreateBatch(ctx context.Context, pages []domain.Page) error {
	args := m.Called(ctx, pages)
	return args.Error(0)
}

func (m *MockPageRepo) ListByDocument(ctx context.Context, docID uuid.UUID) ([]domain.Page, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Page), args.Error(1)
}

func (m *MockPageRepo) UpdateText(ctx context.Context, page *domain.Page) error {
	args := m.Called(ctx, page)
	return args.Error(0)
}
