package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/feichai0017/correspondence-tracker/pkg/logger"
)

// ErrOCRUnavailable is returned when the OCR toolchain is not installed.
var ErrOCRUnavailable = errors.New("ocr unavailable")

type ProcessOptions struct {
	Language    []string
	DPI         int
	PageSegMode gosseract.PageSegMode
	// Pdftoppm is the poppler rasterizer binary.
	Pdftoppm string
	TempDir  string
}

// Processor renders the first page of a PDF with pdftoppm and reads it with
// tesseract.
type Processor struct {
	logger        logger.Logger
	preprocessors []ImagePreprocessor
	config        *ProcessOptions
	runner        Runner
	recognize     func(ctx context.Context, png []byte) (string, error)
}

func NewProcessor(log logger.Logger, opts *ProcessOptions) (*Processor, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if opts == nil {
		opts = &ProcessOptions{}
	}
	if len(opts.Language) == 0 {
		opts.Language = []string{"eng"}
	}
	if opts.DPI <= 0 {
		opts.DPI = 300
	}
	if opts.PageSegMode == 0 {
		opts.PageSegMode = gosseract.PSM_AUTO
	}
	if opts.Pdftoppm == "" {
		opts.Pdftoppm = "pdftoppm"
	}

	p := &Processor{
		logger:        log,
		preprocessors: DefaultPreprocessors(),
		config:        opts,
		runner:        execRunner{},
	}
	p.recognize = p.tesseract
	return p, nil
}

func (p *Processor) Name() string { return "tesseract" }

// Available reports whether the rasterizer can be found.
func (p *Processor) Available() bool {
	_, err := p.runner.LookPath(p.config.Pdftoppm)
	return err == nil
}

// RecognizeFirstPage returns the OCR text of page 1 of the PDF at pdfPath.
func (p *Processor) RecognizeFirstPage(ctx context.Context, pdfPath string) (string, error) {
	if !p.Available() {
		return "", ErrOCRUnavailable
	}

	tmpDir, err := os.MkdirTemp(p.config.TempDir, "ocr-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			p.logger.Warn("Failed to remove OCR temp dir", logger.String("dir", tmpDir), logger.Error(err))
		}
	}()

	pagePath, err := p.renderFirstPage(ctx, pdfPath, tmpDir)
	if err != nil {
		return "", err
	}

	img, err := imaging.Open(pagePath)
	if err != nil {
		return "", fmt.Errorf("failed to open rendered page: %w", err)
	}

	processed, err := p.applyPreprocessing(img)
	if err != nil {
		return "", err
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, processed, imaging.PNG); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	text, err := p.recognize(ctx, buf.Bytes())
	if err != nil {
		return "", err
	}

	p.logger.Debug("OCR finished",
		logger.String("file", filepath.Base(pdfPath)),
		logger.Int("chars", len(text)),
	)
	return text, nil
}

func (p *Processor) renderFirstPage(ctx context.Context, pdfPath, dir string) (string, error) {
	prefix := filepath.Join(dir, "page")
	// pdftoppm -r 300 -png -f 1 -l 1 <in.pdf> <dir/page>
	_, _, err := p.runner.Run(ctx, p.config.Pdftoppm,
		"-r", strconv.Itoa(p.config.DPI), "-png", "-f", "1", "-l", "1", pdfPath, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to render pdf: %w", err)
	}

	// pdftoppm pads the page suffix depending on the page count.
	matches, _ := filepath.Glob(prefix + "-*.png")
	if len(matches) == 0 {
		return "", fmt.Errorf("failed to render pdf: no pages rendered")
	}
	sort.Strings(matches)
	return matches[0], nil
}

func (p *Processor) applyPreprocessing(img image.Image) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	var err error
	result := img
	for _, processor := range p.preprocessors {
		result, err = processor.Process(result)
		if err != nil {
			return nil, fmt.Errorf("preprocessing failed: %w", err)
		}
		if result == nil {
			return nil, fmt.Errorf("preprocessor returned nil image")
		}
	}
	return result, nil
}

// tesseract runs in its own goroutine because the cgo call cannot be
// interrupted; a cancelled ctx abandons the result.
func (p *Processor) tesseract(ctx context.Context, png []byte) (string, error) {
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		client := gosseract.NewClient()
		defer client.Close()

		if err := client.SetLanguage(p.config.Language...); err != nil {
			done <- result{err: fmt.Errorf("failed to set language: %w", err)}
			return
		}
		if err := client.SetPageSegMode(p.config.PageSegMode); err != nil {
			done <- result{err: fmt.Errorf("failed to set page segmentation mode: %w", err)}
			return
		}
		if err := client.SetImageFromBytes(png); err != nil {
			done <- result{err: fmt.Errorf("failed to set image: %w", err)}
			return
		}
		text, err := client.Text()
		if err != nil {
			done <- result{err: fmt.Errorf("failed to get text: %w", err)}
			return
		}
		done <- result{text: strings.TrimSpace(text)}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *Processor) Close() error {
	return nil
}
