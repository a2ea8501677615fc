// Package ocr turns page images and audio recordings into text.
package ocr

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"docintake/internal/config"
	"docintake/internal/port"
)

// Collaborators groups the text sources built from configuration. Either
// field may be nil when its backend is not configured.
type Collaborators struct {
	Recognizer  port.TextRecognizer
	Transcriber port.Transcriber
	closers     []func() error
}

// Close releases backend clients.
func (c *Collaborators) Close() error {
	var first error
	for _, fn := range c.closers {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// New builds the recognizer and transcriber selected by cfg. The recognizer is
// wrapped in a CachedRecognizer when cache.Enabled is set.
func New(ctx context.Context, cfg *config.OCRConfig, cache *config.CacheConfig) (*Collaborators, error) {
	c := &Collaborators{}

	switch cfg.Provider {
	case "google":
		g, err := NewGoogleVisionRecognizer(ctx, cfg)
		if err != nil {
			return nil, err
		}
		c.Recognizer = g
		c.closers = append(c.closers, g.Close)
	case "openai", "":
		if cfg.APIKey != "" || cfg.BaseURL != "" {
			c.Recognizer = NewVisionRecognizer(cfg)
		}
	default:
		return nil, fmt.Errorf("unknown ocr provider: %s", cfg.Provider)
	}

	if cfg.APIKey != "" || cfg.BaseURL != "" {
		c.Transcriber = NewWhisperTranscriber(cfg)
	}

	if c.Recognizer == nil {
		log.Warn().Msg("ocr.New: no text recognizer configured; image uploads are disabled")
	} else if cache != nil && cache.Enabled {
		c.Recognizer = NewCachedRecognizer(c.Recognizer, cache.TTL, cache.CleanupInterval)
	}
	if c.Transcriber == nil {
		log.Warn().Msg("ocr.New: no transcriber configured; audio uploads are disabled")
	}
	return c, nil
}
