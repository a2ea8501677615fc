package ocr

import (
	"context"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"docintake/internal/config"
	"docintake/internal/llm"
	llmopenai "docintake/internal/llm/openai"
	"docintake/internal/port"
)

// VisionRecognizer implements port.TextRecognizer with an OpenAI vision model.
type VisionRecognizer struct {
	client  *goopenai.Client
	model   string
	timeout time.Duration
}

// NewVisionRecognizer creates a VisionRecognizer from the OCR config.
func NewVisionRecognizer(cfg *config.OCRConfig) *VisionRecognizer {
	model := cfg.Model
	if model == "" {
		model = goopenai.GPT4o
	}
	return &VisionRecognizer{
		client:  llmopenai.NewClient(cfg.APIKey, cfg.BaseURL),
		model:   model,
		timeout: timeoutOf(cfg),
	}
}

func (r *VisionRecognizer) Recognize(ctx context.Context, image port.ImageInput) (string, error) {
	const op = "VisionRecognizer.Recognize"
	if len(image.Bytes) == 0 {
		return "", WrapOCRError(op, ErrEmptyImage, "")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: r.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: llm.RecognitionPrompt},
			{
				Role: goopenai.ChatMessageRoleUser,
				MultiContent: []goopenai.ChatMessagePart{
					{Type: goopenai.ChatMessagePartTypeText, Text: "Extract all text from this image."},
					{
						Type: goopenai.ChatMessagePartTypeImageURL,
						ImageURL: &goopenai.ChatMessageImageURL{
							URL:    llmopenai.DataURI(image),
							Detail: goopenai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
		MaxCompletionTokens: 4096,
	})
	if err != nil {
		return "", WrapOCRError(op, llmopenai.MapError(err), "vision API call failed")
	}
	if len(resp.Choices) == 0 {
		return "", WrapOCRError(op, ErrOCRFailed, "no choices in response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func timeoutOf(cfg *config.OCRConfig) time.Duration {
	if cfg.TimeoutSecs <= 0 {
		return 60 * time.Second
	}
	return time.Duration(cfg.TimeoutSecs) * time.Second
}

var _ port.TextRecognizer = (*VisionRecognizer)(nil)

