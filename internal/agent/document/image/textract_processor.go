package image

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/feichai0017/correspondence-tracker/pkg/logger"
)

// textractAPI is the part of the Textract client used here.
type textractAPI interface {
	DetectDocumentText(ctx context.Context, params *textract.DetectDocumentTextInput, optFns ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error)
}

type TextractConfig struct {
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	MinConfidence float32
}

// TextractProcessor sends page 1 of a PDF to AWS Textract. The synchronous
// API only accepts single-page documents, so the page is cut out first.
type TextractProcessor struct {
	client    textractAPI
	logger    logger.Logger
	config    *TextractConfig
	firstPage func(path string) ([]byte, error)
}

func NewTextractProcessor(ctx context.Context, cfg *TextractConfig, log logger.Logger) (*TextractProcessor, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	client := textract.NewFromConfig(awsCfg, func(o *textract.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return newTextractProcessor(client, cfg, log), nil
}

func newTextractProcessor(client textractAPI, cfg *TextractConfig, log logger.Logger) *TextractProcessor {
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 50
	}
	return &TextractProcessor{
		client:    client,
		logger:    log,
		config:    cfg,
		firstPage: extractFirstPage,
	}
}

func (p *TextractProcessor) Name() string { return "textract" }

func (p *TextractProcessor) Available() bool { return p.client != nil }

func (p *TextractProcessor) RecognizeFirstPage(ctx context.Context, pdfPath string) (string, error) {
	data, err := p.firstPage(pdfPath)
	if err != nil {
		return "", err
	}

	result, err := p.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: data},
	})
	if err != nil {
		return "", fmt.Errorf("failed to detect document text: %w", err)
	}

	lines := p.processBlocks(result.Blocks)
	p.logger.Debug("Textract finished",
		logger.Int("blocks", len(result.Blocks)),
		logger.Int("lines", len(lines)),
	)
	return strings.Join(lines, "\n"), nil
}

func (p *TextractProcessor) Close() error {
	return nil
}

// processBlocks keeps LINE blocks at or above the confidence threshold.
func (p *TextractProcessor) processBlocks(blocks []types.Block) []string {
	var texts []string
	for _, block := range blocks {
		if block.BlockType == types.BlockTypeLine &&
			block.Text != nil &&
			block.Confidence != nil &&
			*block.Confidence >= p.config.MinConfidence {
			texts = append(texts, *block.Text)
		}
	}
	return texts
}

func extractFirstPage(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := api.Trim(f, &buf, []string{"1"}, model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to extract first page: %w", err)
	}
	return buf.Bytes(), nil
}
