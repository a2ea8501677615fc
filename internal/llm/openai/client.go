package openai

import (
	"errors"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"

	"docintake/internal/llm"
)

// NewClient creates a go-openai client. baseURL overrides the API root, which
// also allows OpenAI-compatible servers.
func NewClient(apiKey, baseURL string) *goopenai.Client {
	clientConfig := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	return goopenai.NewClientWithConfig(clientConfig)
}

// MapError converts HTTP 429 responses into llm.RateLimitError.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return llm.NewRateLimitError("openai", err, 0)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return llm.NewRateLimitError("openai", err, 0)
	}
	return err
}
