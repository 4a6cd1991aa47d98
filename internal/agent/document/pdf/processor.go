package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/correspondence-tracker/internal/models"
	"github.com/feichai0017/correspondence-tracker/pkg/converters"
	"github.com/feichai0017/correspondence-tracker/pkg/logger"
)

const maxWorkers = 4

// Processor reads the digital text layer of a PDF.
type Processor struct {
	logger logger.Logger
}

func NewProcessor(logger logger.Logger) *Processor {
	return &Processor{
		logger: logger,
	}
}

func (p *Processor) CanProcess(mimeType string) bool {
	return mimeType == "application/pdf"
}

func (p *Processor) Process(ctx context.Context, file io.Reader) ([]models.DocumentChunk, error) {
	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}

	reader := bytes.NewReader(content)
	pdfReader, err := openReader(reader)
	if err != nil {
		return nil, err
	}

	numPages := pdfReader.NumPage()
	// Indexed by page so the text keeps reading order.
	chunks := make([]models.DocumentChunk, numPages)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for i := 1; i <= numPages; i++ {
		pageNum := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			page := pdfReader.Page(pageNum)
			if page.V.IsNull() {
				return nil
			}

			text, err := plainText(page)
			if err != nil {
				return fmt.Errorf("failed to get text from page %d: %w", pageNum, err)
			}

			chunks[pageNum-1] = models.DocumentChunk{
				Content: converters.CleanText(text),
				Metadata: map[string]interface{}{
					"page":    pageNum,
					"section": fmt.Sprintf("page_%d", pageNum),
				},
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.logger.Debug("PDF text extracted",
		logger.Int("pages", numPages),
		logger.Int("bytes", len(content)),
	)
	return chunks, nil
}

// ExtractText returns the digital text of the PDF at path, pages joined in
// order. Scanned PDFs yield little or no text.
func (p *Processor) ExtractText(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	chunks, err := p.Process(ctx, f)
	if err != nil {
		return "", err
	}
	return converters.JoinChunks(chunks), nil
}

func (p *Processor) ExtractMetadata(ctx context.Context, file io.Reader) (models.FileMetadata, error) {
	content, err := io.ReadAll(file)
	if err != nil {
		return models.FileMetadata{}, fmt.Errorf("failed to read pdf: %w", err)
	}

	pdfReader, err := openReader(bytes.NewReader(content))
	if err != nil {
		return models.FileMetadata{}, err
	}

	return models.FileMetadata{
		FileType:  models.PDF,
		FileSize:  int64(len(content)),
		MimeType:  "application/pdf",
		Pages:     pdfReader.NumPage(),
		CreatedAt: time.Now(),
	}, nil
}

func (p *Processor) Close() error {
	return nil
}

// The pdf package panics on some malformed files.
func openReader(r *bytes.Reader) (reader *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("failed to parse pdf: %v", rec)
		}
	}()
	reader, err = pdf.NewReader(r, r.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pdf: %w", err)
	}
	return reader, nil
}

func plainText(page pdf.Page) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed page content: %v", rec)
		}
	}()
	return page.GetPlainText(nil)
}
