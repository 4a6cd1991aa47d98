package document

import (
	"context"
	"io"

	"github.com/feichai0017/correspondence-tracker/internal/models"
)

// Processor turns an uploaded file into page chunks.
type Processor interface {
	// CanProcess reports whether files of mimeType are handled.
	CanProcess(mimeType string) bool

	// Process returns one chunk per page, in page order.
	Process(ctx context.Context, reader io.Reader) ([]models.DocumentChunk, error)

	ExtractMetadata(ctx context.Context, reader io.Reader) (models.FileMetadata, error)

	Close() error
}

// OCREngine recognizes the first page of a scanned PDF. The number of an
// oficio is always on its first page.
type OCREngine interface {
	Name() string
	// Available is false when the engine's toolchain is missing. Callers
	// skip OCR entirely in that case.
	Available() bool
	RecognizeFirstPage(ctx context.Context, pdfPath string) (string, error)
}
