package validator

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/feichai0017/correspondence-tracker/pkg/logger"
)

const pdfMime = "application/pdf"

// DocumentValidator checks uploads before they are stored.
type DocumentValidator struct {
	logger logger.Logger
	config *ValidatorConfig
}

type ValidatorConfig struct {
	MaxFileSize  int64
	MaxPageCount int
}

type ValidationResult struct {
	IsValid  bool              `json:"isValid"`
	Errors   []ValidationError `json:"errors,omitempty"`
	FileInfo FileInfo          `json:"fileInfo"`
}

type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type FileInfo struct {
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mimeType"`
	Extension string `json:"extension"`
	Pages     int    `json:"pages"`
}

// Messages returns the error messages joined for an HTTP response.
func (r *ValidationResult) Messages() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

func NewDocumentValidator(logger logger.Logger, config *ValidatorConfig) *DocumentValidator {
	if config == nil {
		config = &ValidatorConfig{}
	}
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = 20 << 20
	}
	if config.MaxPageCount <= 0 {
		config.MaxPageCount = 200
	}
	return &DocumentValidator{
		logger: logger,
		config: config,
	}
}

// ValidateFile validates a multipart upload.
func (v *DocumentValidator) ValidateFile(file *multipart.FileHeader) (*ValidationResult, error) {
	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return v.Validate(file.Filename, file.Size, f)
}

// Validate checks that r is a readable PDF within the size and page limits.
// Only I/O failures are returned as errors; everything else is reported in
// the result.
func (v *DocumentValidator) Validate(filename string, size int64, r io.ReadSeeker) (*ValidationResult, error) {
	result := &ValidationResult{
		IsValid: true,
		FileInfo: FileInfo{
			Filename:  filename,
			Size:      size,
			Extension: strings.ToLower(filepath.Ext(filename)),
		},
	}

	if result.FileInfo.Extension != ".pdf" {
		result.add("INVALID_FILE_TYPE", "Solo se permiten archivos PDF", "extension")
	}
	if size > v.config.MaxFileSize {
		result.add("FILE_TOO_LARGE",
			fmt.Sprintf("El archivo supera el tamaño máximo de %d MB", v.config.MaxFileSize>>20), "size")
	}
	if !result.IsValid {
		return result, nil
	}

	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to detect mime type: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to reset file pointer: %w", err)
	}
	result.FileInfo.MimeType = mtype.String()

	if !mtype.Is(pdfMime) {
		result.add("INVALID_MIME_TYPE",
			fmt.Sprintf("El contenido no es un PDF (%s)", mtype.String()), "mimeType")
		return result, nil
	}

	pages, err := pageCount(r)
	if err == nil && pages < 1 {
		err = fmt.Errorf("no pages")
	}
	if err != nil {
		v.logger.Warn("PDF rejected by parser",
			logger.String("filename", filename),
			logger.Error(err),
		)
		result.add("INVALID_PDF", "El PDF está dañado o protegido con contraseña", "content")
		return result, nil
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to reset file pointer: %w", err)
	}
	result.FileInfo.Pages = pages

	if pages > v.config.MaxPageCount {
		result.add("TOO_MANY_PAGES",
			fmt.Sprintf("El PDF tiene %d páginas, el máximo es %d", pages, v.config.MaxPageCount), "pages")
	}
	return result, nil
}

// ValidateBytes is Validate for content already in memory.
func (v *DocumentValidator) ValidateBytes(filename string, data []byte) (*ValidationResult, error) {
	return v.Validate(filename, int64(len(data)), bytes.NewReader(data))
}

func (r *ValidationResult) add(code, msg, field string) {
	r.IsValid = false
	r.Errors = append(r.Errors, ValidationError{Code: code, Message: msg, Field: field})
}

func pageCount(rs io.ReadSeeker) (n int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdfcpu: %v", rec)
		}
	}()
	return api.PageCount(rs, model.NewDefaultConfiguration())
}
