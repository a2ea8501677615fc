package ocr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"docintake/internal/port"
)

// CachedRecognizer memoizes recognized text by image content hash, so
// re-uploads and reanalysis skip the OCR call.
type CachedRecognizer struct {
	next  port.TextRecognizer
	cache *gocache.Cache
}

// NewCachedRecognizer wraps next with an in-memory cache.
func NewCachedRecognizer(next port.TextRecognizer, ttl, cleanupInterval time.Duration) *CachedRecognizer {
	return &CachedRecognizer{
		next:  next,
		cache: gocache.New(ttl, cleanupInterval),
	}
}

func (c *CachedRecognizer) Recognize(ctx context.Context, image port.ImageInput) (string, error) {
	key := contentKey(image.Bytes)
	if v, found := c.cache.Get(key); found {
		log.Debug().Str("key", key[:12]).Msg("ocr.CachedRecognizer: cache hit")
		return v.(string), nil
	}
	text, err := c.next.Recognize(ctx, image)
	if err != nil {
		return "", err
	}
	c.cache.SetDefault(key, text)
	return text, nil
}

// Len returns the number of cached entries.
func (c *CachedRecognizer) Len() int {
	return c.cache.ItemCount()
}

// Flush drops every cached entry.
func (c *CachedRecognizer) Flush() {
	c.cache.Flush()
}

func contentKey(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

var _ port.TextRecognizer = (*CachedRecognizer)(nil)
