package ocr

import (
	"bytes"
	"context"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"docintake/internal/config"
	llmopenai "docintake/internal/llm/openai"
	"docintake/internal/port"
)

// WhisperTranscriber implements port.Transcriber with the OpenAI audio API.
type WhisperTranscriber struct {
	client  *goopenai.Client
	model   string
	timeout time.Duration
}

// NewWhisperTranscriber creates a WhisperTranscriber from the OCR config.
func NewWhisperTranscriber(cfg *config.OCRConfig) *WhisperTranscriber {
	model := cfg.TranscribeModel
	if model == "" {
		model = goopenai.Whisper1
	}
	return &WhisperTranscriber{
		client:  llmopenai.NewClient(cfg.APIKey, cfg.BaseURL),
		model:   model,
		timeout: timeoutOf(cfg),
	}
}

func (t *WhisperTranscriber) Transcribe(ctx context.Context, audio port.AudioInput) (string, error) {
	const op = "WhisperTranscriber.Transcribe"
	if len(audio.Bytes) == 0 {
		return "", WrapOCRError(op, ErrEmptyAudio, "")
	}
	name := audio.FileName
	if name == "" {
		name = "audio.wav"
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    t.model,
		FilePath: name,
		Reader:   bytes.NewReader(audio.Bytes),
		Format:   goopenai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", WrapOCRError(op, llmopenai.MapError(err), "transcription API call failed")
	}
	return strings.TrimSpace(resp.Text), nil
}

var _ port.Transcriber = (*WhisperTranscriber)(nil)
