// Package analysis fills in the fields of an oficio from its text, its
// file name and, when the digital text cannot be trusted, OCR of the first
// page.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/feichai0017/correspondence-tracker/internal/agent/document"
	"github.com/feichai0017/correspondence-tracker/internal/agent/llm"
	"github.com/feichai0017/correspondence-tracker/internal/models"
	"github.com/feichai0017/correspondence-tracker/internal/numbering"
	"github.com/feichai0017/correspondence-tracker/pkg/logger"
)

const (
	minTextLength = 50
	maxAsunto     = 500
	filenameLine  = "NOMBRE DEL ARCHIVO: "
)

const (
	MsgNotConfigured = "API de IA no configurada. Configure OPENAI_API_KEY en .env"
	MsgTooShort      = "El texto es muy corto para analizar. Se requieren al menos 50 caracteres."
	MsgSuccess       = "Análisis completado exitosamente"
	MsgSuccessOCR    = "Análisis completado (número extraído con OCR)"
	MsgNoPDFText     = "No se pudo extraer suficiente texto del PDF"
)

var (
	ErrFileNotFound  = errors.New("file not found")
	ErrUnreadablePDF = errors.New("unreadable pdf")
)

// TextExtractor returns the digital text layer of a PDF on disk.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

type AnalyzeFileRequest struct {
	Path string
	// OriginalName is the name the user uploaded. Derived from Path when
	// empty.
	OriginalName string
}

type Service struct {
	analyzer   llm.Analyzer
	pdf        TextExtractor
	ocr        document.OCREngine
	extractor  *numbering.Extractor
	ocrTimeout time.Duration
	logger     logger.Logger
}

func NewService(
	analyzer llm.Analyzer,
	pdf TextExtractor,
	ocr document.OCREngine,
	extractor *numbering.Extractor,
	ocrTimeout time.Duration,
	log logger.Logger,
) *Service {
	return &Service{
		analyzer:   analyzer,
		pdf:        pdf,
		ocr:        ocr,
		extractor:  extractor,
		ocrTimeout: ocrTimeout,
		logger:     log.Named("analysis"),
	}
}

// OCRAvailable reports whether the configured engine can run.
func (s *Service) OCRAvailable() bool {
	return s.ocr != nil && s.ocr.Available()
}

// AnalyzeText asks the model for the fields of text and lets the numbering
// heuristics override the number and the reference. It never fails: every
// problem is reported through Exito and Mensaje.
func (s *Service) AnalyzeText(ctx context.Context, text string) models.AnalysisResult {
	result, _ := s.analyzeText(ctx, text)
	return result
}

// analyzeText also returns the number the OCR fallback decision is made on:
// the heuristic number when one was found, otherwise the model's answer as
// given, before it is normalized.
func (s *Service) analyzeText(ctx context.Context, text string) (models.AnalysisResult, string) {
	if !s.analyzer.Configured() {
		return models.AnalysisResult{Mensaje: MsgNotConfigured}, ""
	}
	if len([]rune(strings.TrimSpace(text))) < minTextLength {
		return models.AnalysisResult{Mensaje: MsgTooShort}, ""
	}

	fields, err := s.analyzer.Analyze(ctx, text)
	if err != nil {
		return s.failure(err), ""
	}

	numero, steps := s.extractor.Extract(numbering.RawContext{DigitalText: text})
	for _, step := range steps {
		s.logger.Debug("Numbering strategy",
			logger.String("strategy", step.Strategy),
			logger.Bool("matched", step.Matched),
			logger.String("correlative", step.Candidate.Correlative),
		)
	}
	candidate := numero
	if numero == "" {
		candidate = fields.NumeroOficio
		numero = s.extractor.Normalizer().NormalizeText(fields.NumeroOficio)
	}

	referencia := numbering.ExtractReference(text)
	if referencia == "" {
		referencia = strings.TrimSpace(fields.OficioReferencia)
	}

	asunto := truncate(fields.Asunto, maxAsunto)
	return models.AnalysisResult{
		NumeroOficio:     numero,
		Fecha:            fields.Fecha,
		Remitente:        fields.Remitente,
		Destinatario:     fields.Destinatario,
		Asunto:           asunto,
		Resumen:          fields.Resumen,
		MensajeWhatsapp:  models.WhatsappMessage(numero, asunto, fields.Resumen),
		OficioReferencia: referencia,
		Exito:            true,
		Mensaje:          MsgSuccess,
	}, candidate
}

func (s *Service) failure(err error) models.AnalysisResult {
	var malformed *llm.MalformedResponseError
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		return models.AnalysisResult{Mensaje: MsgNotConfigured}
	case errors.As(err, &malformed):
		s.logger.Warn("Model answer rejected", logger.Error(err))
		return models.AnalysisResult{Mensaje: "Error al procesar respuesta de IA: " + err.Error()}
	default:
		s.logger.Error("Model call failed", logger.Error(err))
		return models.AnalysisResult{Mensaje: "Error en análisis IA: " + err.Error()}
	}
}

// AnalyzeFile reads the PDF at req.Path and analyzes it. OCR runs first
// when the file name or the text show the digital sources are broken, and
// as a fallback when the number found is not plausible. Errors are
// returned only when the file cannot be read at all.
func (s *Service) AnalyzeFile(ctx context.Context, req AnalyzeFileRequest) (models.AnalysisResult, error) {
	if _, err := os.Stat(req.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.AnalysisResult{}, ErrFileNotFound
		}
		return models.AnalysisResult{}, fmt.Errorf("failed to stat file: %w", err)
	}

	text, err := s.pdf.ExtractText(ctx, req.Path)
	if err != nil {
		s.logger.Warn("Failed to read PDF", logger.String("path", req.Path), logger.Error(err))
		return models.AnalysisResult{}, fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
	}
	if len([]rune(strings.TrimSpace(text))) < minTextLength {
		return models.AnalysisResult{Mensaje: MsgNoPDFText}, nil
	}

	name := req.OriginalName
	if name == "" {
		name = OriginalName(filepath.Base(req.Path))
	}

	var ocrNumero string
	if numbering.NeedsOCRPriority(name, text) && s.OCRAvailable() {
		s.logger.Info("Digital sources unreliable, running OCR first", logger.String("file", name))
		ocrNumero = s.recognizeNumber(ctx, req.Path)
	}

	result, candidate := s.analyzeText(ctx, filenameLine+name+"\n\n"+text)

	if ocrNumero == "" && !numbering.IsPlausibleNumber(candidate) && s.OCRAvailable() {
		s.logger.Info("Number missing or incomplete, trying OCR",
			logger.String("file", name),
			logger.String("numero", candidate),
		)
		ocrNumero = s.recognizeNumber(ctx, req.Path)
	}
	if ocrNumero != "" {
		applyOCRNumber(&result, ocrNumero)
	}

	s.logger.Info("File analyzed",
		logger.String("file", name),
		logger.Bool("exito", result.Exito),
		logger.String("numero", result.NumeroOficio),
	)
	return result, nil
}

// recognizeNumber never fails; an unusable OCR result is "".
func (s *Service) recognizeNumber(ctx context.Context, path string) string {
	if s.ocrTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.ocrTimeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.ocr.RecognizeFirstPage(ctx, path)
	if err != nil {
		s.logger.Warn("OCR failed",
			logger.String("engine", s.ocr.Name()),
			logger.Error(err),
		)
		return ""
	}

	numero := s.extractor.ExtractFromOCR(text)
	s.logger.Info("OCR finished",
		logger.String("engine", s.ocr.Name()),
		logger.String("numero", numero),
		logger.Duration("elapsed", time.Since(start)),
	)
	return numero
}

func applyOCRNumber(r *models.AnalysisResult, numero string) {
	r.NumeroOficio = numero
	r.MensajeWhatsapp = models.WhatsappMessage(numero, r.Asunto, r.Resumen)
	if r.Exito {
		r.Mensaje = MsgSuccessOCR
	}
}

// OriginalName strips the "<prefix>_<date>_<time>_" part that stored
// uploads carry.
func OriginalName(stored string) string {
	parts := strings.SplitN(stored, "_", 4)
	return parts[len(parts)-1]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
