package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docintake/internal/port"
)

// MockTextRecognizer is a mock implementation of port.TextRecognizer.
type MockTextRecognizer struct {
	mock.Mock
}

func (m *MockTextRecognizer) Recognize(ctx context.Context, image port.ImageInput) (string, error) {
	args := m.Called(ctx, image)
	return args.String(0), args.Error(1)
}

// MockTranscriber is a mock implementation of port.Transcriber.
type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audio port.AudioInput) (string, error) {
	args := m.Called(ctx, audio)
	return args.String(0), args.Error(1)
}
