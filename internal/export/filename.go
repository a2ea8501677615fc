package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename makes name safe for a Content-Disposition header. Runs of
// other characters become one underscore and the result is capped at 100
// bytes. An empty result becomes "document".
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		return "document"
	}
	return s
}

// BuildFilename returns {sanitized_title}_{YYYY-MM-DD}.{ext}.
func BuildFilename(title, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(title), now.Format("2006-01-02"), ext)
}
