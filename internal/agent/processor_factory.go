package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	cfg "github.com/feichai0017/correspondence-tracker/config"
	"github.com/feichai0017/correspondence-tracker/internal/agent/document"
	"github.com/feichai0017/correspondence-tracker/internal/agent/document/image"
	"github.com/feichai0017/correspondence-tracker/internal/agent/document/pdf"
	"github.com/feichai0017/correspondence-tracker/pkg/logger"
)

var extToMIME = map[string]string{
	".pdf": "application/pdf",
}

// ProcessorFactory owns the text processors and the configured OCR engine.
type ProcessorFactory struct {
	processors map[string]document.Processor
	pdf        *pdf.Processor
	ocr        document.OCREngine
	logger     logger.Logger
}

func NewProcessorFactory(ctx context.Context, ocrCfg *cfg.OCRConfig, textractCfg *cfg.TextractConfig, log logger.Logger) (*ProcessorFactory, error) {
	factory := &ProcessorFactory{
		processors: make(map[string]document.Processor),
		logger:     log,
	}

	factory.pdf = pdf.NewProcessor(log.Named("pdf"))
	factory.processors["application/pdf"] = factory.pdf

	engine, err := newOCREngine(ctx, ocrCfg, textractCfg, log.Named("ocr"))
	if err != nil {
		return nil, err
	}
	factory.ocr = engine

	log.Info("OCR engine selected",
		logger.String("engine", engine.Name()),
		logger.Bool("available", engine.Available()),
	)
	return factory, nil
}

func newOCREngine(ctx context.Context, ocrCfg *cfg.OCRConfig, textractCfg *cfg.TextractConfig, log logger.Logger) (document.OCREngine, error) {
	switch strings.ToLower(ocrCfg.Engine) {
	case cfg.OCREngineTesseract, "":
		p, err := image.NewProcessor(log, &image.ProcessOptions{
			Language: strings.Split(ocrCfg.Language, "+"),
			DPI:      ocrCfg.DPI,
			Pdftoppm: ocrCfg.PdftoppmPath,
			TempDir:  ocrCfg.TempDir,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create tesseract processor: %w", err)
		}
		return p, nil
	case cfg.OCREngineTextract:
		p, err := image.NewTextractProcessor(ctx, &image.TextractConfig{
			Region:    textractCfg.Region,
			Endpoint:  textractCfg.Endpoint,
			AccessKey: textractCfg.AccessKey,
			SecretKey: textractCfg.SecretKey,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create textract processor: %w", err)
		}
		return p, nil
	case cfg.OCREngineNone:
		return image.NoopEngine{}, nil
	default:
		return nil, fmt.Errorf("unknown ocr engine: %s", ocrCfg.Engine)
	}
}

// GetProcessor returns the processor for a file name or extension.
func (f *ProcessorFactory) GetProcessor(fileType string) (document.Processor, error) {
	ext := strings.ToLower(fileType)
	if !strings.HasPrefix(ext, ".") {
		ext = strings.ToLower(filepath.Ext(fileType))
	}

	mimeType, ok := extToMIME[ext]
	if !ok {
		f.logger.Warn("Unsupported file type", logger.String("fileType", fileType))
		return nil, fmt.Errorf("unsupported file type: %s", fileType)
	}

	processor, ok := f.processors[mimeType]
	if !ok {
		return nil, fmt.Errorf("no processor found for mime type: %s", mimeType)
	}
	return processor, nil
}

// PDF returns the digital text extractor.
func (f *ProcessorFactory) PDF() *pdf.Processor { return f.pdf }

// OCR returns the configured engine; never nil.
func (f *ProcessorFactory) OCR() document.OCREngine { return f.ocr }
