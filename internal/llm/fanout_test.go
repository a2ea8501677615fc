package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docintake/internal/domain"
	"docintake/internal/llm"
	"docintake/internal/port"
	"docintake/mocks"
)

func TestFanOutExtractor_PoolsAndBoostsAgreement(t *testing.T) {
	e1 := new(mocks.MockFieldExtractor)
	e2 := new(mocks.MockFieldExtractor)
	e1.On("Extract", mock.Anything, testInput).Return(output("claude",
		domain.NewField("member_id", "XYZ-123", 0.8, domain.FieldSourceLLMPrimary),
		domain.NewField("plan", "PPO", 0.7, domain.FieldSourceLLMPrimary),
	), nil)
	e2.On("Extract", mock.Anything, testInput).Return(output("gpt-4o-mini",
		domain.NewField("Member ID", "xyz 123", 0.6, domain.FieldSourceLLMSecondary),
	), nil)

	fo := llm.NewFanOutExtractor([]port.FieldExtractor{e1, e2}, []string{"primary", "secondary"})

	out, err := fo.Extract(context.Background(), testInput)

	require.NoError(t, err)
	require.Len(t, out.Fields, 3)
	assert.Equal(t, "claude+gpt-4o-mini", out.ModelUsed)
	assert.InDelta(t, 0.84, out.Fields[0].Confidence, 1e-9)
	assert.InDelta(t, 0.7, out.Fields[1].Confidence, 1e-9)
	assert.InDelta(t, 0.68, out.Fields[2].Confidence, 1e-9)
	assert.Equal(t, domain.FieldSourceLLMSecondary, out.Fields[2].Source)
	assert.Equal(t, "agree", out.FieldProvenance["member_id"])
	assert.Equal(t, "primary", out.FieldProvenance["plan"])
}

func TestFanOutExtractor_OneFails(t *testing.T) {
	e1 := new(mocks.MockFieldExtractor)
	e2 := new(mocks.MockFieldExtractor)
	e1.On("Extract", mock.Anything, testInput).Return(nil, errors.New("down"))
	e2.On("Extract", mock.Anything, testInput).Return(output("gemini",
		domain.NewField("plan", "PPO", 0.7, domain.FieldSourceLLMSecondary),
	), nil)

	fo := llm.NewFanOutExtractor([]port.FieldExtractor{e1, e2}, []string{"primary", "secondary"})

	out, err := fo.Extract(context.Background(), testInput)

	require.NoError(t, err)
	require.Len(t, out.Fields, 1)
	assert.Equal(t, "secondary_only", out.FieldProvenance["_source"])
}

func TestFanOutExtractor_AllRateLimited(t *testing.T) {
	e1 := new(mocks.MockFieldExtractor)
	e2 := new(mocks.MockFieldExtractor)
	e1.On("Extract", mock.Anything, testInput).Return(nil, llm.NewRateLimitError("claude", errors.New("429"), 10))
	e2.On("Extract", mock.Anything, testInput).Return(nil, llm.NewRateLimitError("gemini", errors.New("429"), 40))

	fo := llm.NewFanOutExtractor([]port.FieldExtractor{e1, e2}, []string{"primary", "secondary"})

	_, err := fo.Extract(context.Background(), testInput)

	d, limited := llm.RetryDelay(err)
	require.True(t, limited)
	assert.Equal(t, float64(40), d.Seconds())
}

func TestFanOutExtractor_AllFail(t *testing.T) {
	e1 := new(mocks.MockFieldExtractor)
	e2 := new(mocks.MockFieldExtractor)
	e1.On("Extract", mock.Anything, testInput).Return(nil, errors.New("a"))
	e2.On("Extract", mock.Anything, testInput).Return(nil, llm.NewRateLimitError("gemini", errors.New("429"), 40))

	fo := llm.NewFanOutExtractor([]port.FieldExtractor{e1, e2}, []string{"primary", "secondary"})

	_, err := fo.Extract(context.Background(), testInput)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "all backends failed")
	_, limited := llm.RetryDelay(err)
	assert.False(t, limited)
}
