package converters

import (
	"regexp"
	"strings"

	"github.com/feichai0017/correspondence-tracker/internal/models"
)

var (
	trailingSpace = regexp.MustCompile(`[ \t]+\n`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes line endings and collapses runs of blank lines left
// by PDF text extraction. Characters inside lines are kept as they are.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = trailingSpace.ReplaceAllString(text, "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// JoinChunks concatenates page chunks in order, one blank line between
// non-empty pages.
func JoinChunks(chunks []models.DocumentChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if s := strings.TrimSpace(c.Content); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}
