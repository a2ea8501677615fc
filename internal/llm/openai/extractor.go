package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"docintake/internal/config"
	"docintake/internal/domain"
	"docintake/internal/llm"
	"docintake/internal/port"
)

// Extractor implements port.FieldExtractor using the OpenAI Chat Completions API.
type Extractor struct {
	client  *goopenai.Client
	model   string
	source  domain.FieldSource
	timeout time.Duration
}

// NewExtractor creates an OpenAI-based field extractor from a provider config.
func NewExtractor(cfg *config.LLMProviderConfig, source domain.FieldSource) *Extractor {
	model := cfg.DefaultModel
	if model == "" {
		model = goopenai.GPT4oMini
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Extractor{
		client:  NewClient(cfg.APIKey, cfg.BaseURL),
		model:   model,
		source:  source,
		timeout: timeout,
	}
}

// Factory adapts NewExtractor to llm.ProviderFactory.
func Factory(cfg *config.LLMProviderConfig, source domain.FieldSource) (port.FieldExtractor, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	return NewExtractor(cfg, source), nil
}

func (e *Extractor) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	prompt := llm.BuildExtractionPrompt(input.DocumentType, input.Text)

	parts := make([]goopenai.ChatMessagePart, 0, len(input.Images)+1)
	for _, img := range input.Images {
		parts = append(parts, goopenai.ChatMessagePart{
			Type: goopenai.ChatMessagePartTypeImageURL,
			ImageURL: &goopenai.ChatMessageImageURL{
				URL:    DataURI(img),
				Detail: goopenai.ImageURLDetailHigh,
			},
		})
	}
	parts = append(parts, goopenai.ChatMessagePart{Type: goopenai.ChatMessagePartTypeText, Text: prompt})

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: e.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, MultiContent: parts},
		},
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
		MaxCompletionTokens: 4096,
	})
	if err != nil {
		return nil, fmt.Errorf("calling openai API: %w", MapError(err))
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from API: no choices")
	}
	if resp.Choices[0].FinishReason == goopenai.FinishReasonLength {
		return nil, fmt.Errorf("output truncated (finish_reason: length): response exceeded output token limit")
	}
	return llm.DecodeOutput(resp.Choices[0].Message.Content, e.model, e.source)
}

// DataURI encodes an image as a base64 data URI.
func DataURI(img port.ImageInput) string {
	return fmt.Sprintf("data:%s;base64,%s", img.ContentType, base64.StdEncoding.EncodeToString(img.Bytes))
}
