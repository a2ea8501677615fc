package s3

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// PageKey returns the object key for page n (1-based) of a document.
// The extension is taken from the original file name.
func PageKey(docID uuid.UUID, n int, originalName string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(originalName), "."))
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("documents/%s/pages/%03d.%s", docID, n, ext)
}
