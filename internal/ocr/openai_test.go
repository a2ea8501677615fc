package ocr_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docintake/internal/config"
	"docintake/internal/llm"
	"docintake/internal/ocr"
	"docintake/internal/port"
)

func TestVisionRecognizer_Recognize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content any    `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, llm.RecognitionPrompt, req.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  THALES\n4111 1111 1111 1111\n"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	r := ocr.NewVisionRecognizer(&config.OCRConfig{APIKey: "sk", BaseURL: srv.URL + "/v1", Model: "gpt-4o"})
	text, err := r.Recognize(context.Background(), port.ImageInput{Bytes: []byte("png"), ContentType: "image/png"})

	require.NoError(t, err)
	assert.Equal(t, "THALES\n4111 1111 1111 1111", text)
}

func TestVisionRecognizer_EmptyImage(t *testing.T) {
	r := ocr.NewVisionRecognizer(&config.OCRConfig{APIKey: "sk", BaseURL: "http://unused/v1"})
	_, err := r.Recognize(context.Background(), port.ImageInput{})

	assert.ErrorIs(t, err, ocr.ErrEmptyImage)
	var ocrErr *ocr.OCRError
	assert.True(t, errors.As(err, &ocrErr))
}

func TestWhisperTranscriber_Transcribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "memo.m4a", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":" Call the dentist at 555-123-4567. "}`))
	}))
	defer srv.Close()

	tr := ocr.NewWhisperTranscriber(&config.OCRConfig{APIKey: "sk", BaseURL: srv.URL + "/v1"})
	text, err := tr.Transcribe(context.Background(), port.AudioInput{Bytes: []byte("audio"), FileName: "memo.m4a"})

	require.NoError(t, err)
	assert.Equal(t, "Call the dentist at 555-123-4567.", text)
}

func TestWhisperTranscriber_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit_error"}}`))
	}))
	defer srv.Close()

	tr := ocr.NewWhisperTranscriber(&config.OCRConfig{APIKey: "sk", BaseURL: srv.URL + "/v1"})
	_, err := tr.Transcribe(context.Background(), port.AudioInput{Bytes: []byte("audio"), FileName: "a.wav"})

	_, limited := llm.RetryDelay(err)
	assert.True(t, limited)
}

func TestNew_SelectsBackends(t *testing.T) {
	c, err := ocr.New(context.Background(), &config.OCRConfig{Provider: "openai", APIKey: "sk"}, &config.CacheConfig{Enabled: true})
	require.NoError(t, err)
	assert.IsType(t, &ocr.CachedRecognizer{}, c.Recognizer)
	assert.NotNil(t, c.Transcriber)
	assert.NoError(t, c.Close())

	c, err = ocr.New(context.Background(), &config.OCRConfig{Provider: "openai"}, nil)
	require.NoError(t, err)
	assert.Nil(t, c.Recognizer)
	assert.Nil(t, c.Transcriber)

	_, err = ocr.New(context.Background(), &config.OCRConfig{Provider: "tesseract"}, nil)
	assert.Error(t, err)
}
