package llm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docintake/internal/config"
	"docintake/internal/domain"
	"docintake/internal/llm"
	"docintake/internal/port"
)

func TestDecodeOutput_Values(t *testing.T) {
	text := "```json\n" + `{
		"document_type": "insurance_card",
		"fields": [
			{"key": "member_id", "value": "XYZ123", "confidence": 0.92},
			{"key": "copay", "value": 25, "confidence": 0.8},
			{"key": "dependents", "value": ["Ann", "Bo"]},
			{"key": "empty", "value": "  "},
			{"key": "missing", "value": null}
		]
	}` + "\n```"

	out, err := llm.DecodeOutput(text, "model-x", domain.FieldSourceLLMSecondary)

	require.NoError(t, err)
	assert.Equal(t, "model-x", out.ModelUsed)
	assert.Equal(t, domain.DocumentTypeInsuranceCard, out.SuggestedType)
	require.Len(t, out.Fields, 3)
	assert.Equal(t, "XYZ123", out.Fields[0].Value)
	assert.Equal(t, 0.92, out.Fields[0].Confidence)
	assert.Equal(t, "25", out.Fields[1].Value)
	assert.Equal(t, `["Ann","Bo"]`, out.Fields[2].Value)
	assert.Equal(t, 0.5, out.Fields[2].Confidence)
	for _, f := range out.Fields {
		assert.Equal(t, domain.FieldSourceLLMSecondary, f.Source)
		assert.NoError(t, f.Validate())
	}
}

func TestDecodeOutput_ProseAroundJSON(t *testing.T) {
	out, err := llm.DecodeOutput(`Here you go: {"fields":[{"key":"a","value":"b"}]} Thanks!`, "m", domain.FieldSourceLLMPrimary)

	require.NoError(t, err)
	require.Len(t, out.Fields, 1)
	assert.Empty(t, out.SuggestedType)
}

func TestDecodeOutput_SchemaViolations(t *testing.T) {
	cases := []string{
		`not json`,
		`{"document_type":"receipt"}`,
		`{"fields":[{"key":"a","value":"b","confidence":1.5}]}`,
		`{"fields":[{"value":"b"}]}`,
	}
	for _, c := range cases {
		_, err := llm.DecodeOutput(c, "m", domain.FieldSourceLLMPrimary)
		assert.Error(t, err, c)
	}
}

func TestBuildExtractionPrompt(t *testing.T) {
	p := llm.BuildExtractionPrompt(domain.DocumentTypeReceipt, "Total $5.00")

	assert.Contains(t, p, `"receipt"`)
	assert.Contains(t, p, "Total $5.00")
	assert.Contains(t, p, "creditCard, insuranceCard")

	p = llm.BuildExtractionPrompt("", "")
	assert.NotContains(t, p, "classified locally")
	assert.NotContains(t, p, "<<<")
}

func TestFactory_RegisterAndCreate(t *testing.T) {
	llm.RegisterProvider("test-provider", func(cfg *config.LLMProviderConfig, source domain.FieldSource) (port.FieldExtractor, error) {
		return &stubExtractor{model: cfg.DefaultModel}, nil
	})

	e, err := llm.NewExtractor(&config.LLMProviderConfig{Provider: "test-provider", DefaultModel: "m"}, domain.FieldSourceLLMPrimary)

	require.NoError(t, err)
	out, err := e.Extract(context.Background(), port.ExtractInput{})
	require.NoError(t, err)
	assert.Equal(t, "m", out.ModelUsed)
}

func TestFactory_UnknownProvider(t *testing.T) {
	e, err := llm.NewExtractor(&config.LLMProviderConfig{Provider: "nonexistent-provider-xyz"}, domain.FieldSourceLLMPrimary)

	assert.Nil(t, e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown llm provider")
}

func TestBuild_Tiers(t *testing.T) {
	llm.RegisterProvider("stub", func(cfg *config.LLMProviderConfig, source domain.FieldSource) (port.FieldExtractor, error) {
		return &stubExtractor{model: cfg.DefaultModel, source: source}, nil
	})

	e, err := llm.Build(&config.LLMConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, e)

	e, err = llm.Build(&config.LLMConfig{
		Primary:   config.LLMProviderConfig{Provider: "stub", DefaultModel: "p"},
		Secondary: config.LLMProviderConfig{Provider: "stub", DefaultModel: "s"},
	}, llm.NewLimiter(0, 1))
	require.NoError(t, err)

	out, err := e.Extract(context.Background(), port.ExtractInput{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "p+s", out.ModelUsed)
	require.Len(t, out.Fields, 2)
	assert.Equal(t, domain.FieldSourceLLMPrimary, out.Fields[0].Source)
	assert.Equal(t, domain.FieldSourceLLMSecondary, out.Fields[1].Source)
}

// stubExtractor returns one field tagged with its source.
type stubExtractor struct {
	model  string
	source domain.FieldSource
}

func (s *stubExtractor) Extract(_ context.Context, _ port.ExtractInput) (*port.ExtractOutput, error) {
	out := &port.ExtractOutput{ModelUsed: s.model}
	if s.source != "" {
		out.Fields = []domain.Field{domain.NewField("k_"+s.model, "v", 0.5, s.source)}
	}
	return out, nil
}
