package converters

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/feichai0017/correspondence-tracker/internal/models"
)

func TestCleanText(t *testing.T) {
	in := "OFICIO N° 00035-2026  \r\n\r\n\r\n\r\nSeñor Juan\r\n"
	assert.Equal(t, "OFICIO N° 00035-2026\n\nSeñor Juan", CleanText(in))
	assert.Empty(t, CleanText(" \n\n "))
}

func TestJoinChunks(t *testing.T) {
	chunks := []models.DocumentChunk{
		{Content: "page one"},
		{Content: "   "},
		{},
		{Content: "page three\n"},
	}
	assert.Equal(t, "page one\n\npage three", JoinChunks(chunks))
	assert.Empty(t, JoinChunks(nil))
}
