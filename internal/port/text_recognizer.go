package port

import "context"

// TextRecognizer turns a page image into text.
type TextRecognizer interface {
	Recognize(ctx context.Context, image ImageInput) (string, error)
}

// AudioInput is one recording handed to a transcriber.
type AudioInput struct {
	Bytes       []byte
	FileName    string
	ContentType string
}

// Transcriber turns an audio recording into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio AudioInput) (string, error)
}
