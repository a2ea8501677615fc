package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docintake/internal/domain"
	"docintake/internal/llm"
	"docintake/internal/port"
	"docintake/mocks"
)

var testInput = port.ExtractInput{Text: "Member ID: XYZ123", DocumentType: domain.DocumentTypeInsuranceCard}

func output(model string, fields ...domain.Field) *port.ExtractOutput {
	return &port.ExtractOutput{ModelUsed: model, Fields: fields}
}

func TestFallbackExtractor_FirstSucceeds(t *testing.T) {
	e1 := new(mocks.MockFieldExtractor)
	e2 := new(mocks.MockFieldExtractor)
	e1.On("Extract", mock.Anything, testInput).Return(output("claude"), nil)

	fe := llm.NewFallbackExtractor([]port.FieldExtractor{e1, e2}, []string{"claude", "gemini"})

	result, err := fe.Extract(context.Background(), testInput)

	require.NoError(t, err)
	assert.Equal(t, "claude", result.ModelUsed)
	e2.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestFallbackExtractor_FirstFails_SecondSucceeds(t *testing.T) {
	e1 := new(mocks.MockFieldExtractor)
	e2 := new(mocks.MockFieldExtractor)
	e1.On("Extract", mock.Anything, testInput).Return(nil, errors.New("generic error"))
	e2.On("Extract", mock.Anything, testInput).Return(output("gemini"), nil)

	fe := llm.NewFallbackExtractor([]port.FieldExtractor{e1, e2}, []string{"claude", "gemini"})

	result, err := fe.Extract(context.Background(), testInput)

	require.NoError(t, err)
	assert.Equal(t, "gemini", result.ModelUsed)
}

func TestFallbackExtractor_AllRateLimited(t *testing.T) {
	e1 := new(mocks.MockFieldExtractor)
	e2 := new(mocks.MockFieldExtractor)
	e1.On("Extract", mock.Anything, testInput).Return(nil, llm.NewRateLimitError("claude", errors.New("429"), 60))
	e2.On("Extract", mock.Anything, testInput).Return(nil, llm.NewRateLimitError("gemini", errors.New("429"), 30))

	fe := llm.NewFallbackExtractor([]port.FieldExtractor{e1, e2}, []string{"claude", "gemini"})

	result, err := fe.Extract(context.Background(), testInput)

	assert.Nil(t, result)
	var rlErr *llm.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "all", rlErr.Provider)
	assert.InDelta(t, 30, rlErr.RetryAfter.Seconds(), 1)
}

func TestFallbackExtractor_AllFail_NonRateLimit(t *testing.T) {
	e1 := new(mocks.MockFieldExtractor)
	e2 := new(mocks.MockFieldExtractor)
	e1.On("Extract", mock.Anything, testInput).Return(nil, llm.NewRateLimitError("claude", errors.New("429"), 60))
	e2.On("Extract", mock.Anything, testInput).Return(nil, errors.New("boom"))

	fe := llm.NewFallbackExtractor([]port.FieldExtractor{e1, e2}, []string{"claude", "gemini"})

	_, err := fe.Extract(context.Background(), testInput)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "all providers failed")
	_, limited := llm.RetryDelay(err)
	assert.False(t, limited)
}

func TestFallbackExtractor_SkipsOpenCircuit(t *testing.T) {
	e1 := new(mocks.MockFieldExtractor)
	e2 := new(mocks.MockFieldExtractor)
	e1.On("Extract", mock.Anything, testInput).Return(nil, llm.NewRateLimitError("claude", errors.New("429"), 60)).Once()
	e2.On("Extract", mock.Anything, testInput).Return(output("gemini"), nil)

	fe := llm.NewFallbackExtractor([]port.FieldExtractor{e1, e2}, []string{"claude", "gemini"})

	_, err := fe.Extract(context.Background(), testInput)
	require.NoError(t, err)
	_, err = fe.Extract(context.Background(), testInput)
	require.NoError(t, err)

	e1.AssertNumberOfCalls(t, "Extract", 1)
}

func TestFallbackExtractor_CircuitAutoCloses(t *testing.T) {
	e1 := new(mocks.MockFieldExtractor)
	e2 := new(mocks.MockFieldExtractor)
	e1.On("Extract", mock.Anything, testInput).Return(nil, llm.NewRateLimitError("claude", errors.New("429"), 1)).Once()
	e2.On("Extract", mock.Anything, testInput).Return(output("gemini"), nil).Once()

	fe := llm.NewFallbackExtractor([]port.FieldExtractor{e1, e2}, []string{"claude", "gemini"})

	result, err := fe.Extract(context.Background(), testInput)
	require.NoError(t, err)
	assert.Equal(t, "gemini", result.ModelUsed)

	time.Sleep(1100 * time.Millisecond)

	e1.On("Extract", mock.Anything, testInput).Return(output("claude"), nil).Once()
	result, err = fe.Extract(context.Background(), testInput)
	require.NoError(t, err)
	assert.Equal(t, "claude", result.ModelUsed)
}

func TestRetryDelay(t *testing.T) {
	d, ok := llm.RetryDelay(errors.New("plain"))
	assert.False(t, ok)
	assert.Zero(t, d)

	wrapped := errors.Join(errors.New("ctx"), llm.NewRateLimitError("openai", errors.New("429"), 0))
	d, ok = llm.RetryDelay(wrapped)
	assert.True(t, ok)
	assert.Equal(t, 60*time.Second, d)
}

func TestParseRetryAfterHeader(t *testing.T) {
	assert.Equal(t, 0, llm.ParseRetryAfterHeader(""))
	assert.Equal(t, 0, llm.ParseRetryAfterHeader("soon"))
	assert.Equal(t, 12, llm.ParseRetryAfterHeader("12"))
}
