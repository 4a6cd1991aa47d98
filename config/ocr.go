package config

import (
	"sync"
	"time"
)

var (
	ocrOnce   sync.Once
	ocrConfig *OCRConfig
)

const (
	OCREngineTesseract = "tesseract"
	OCREngineTextract  = "textract"
	OCREngineNone      = "none"
)

type OCRConfig struct {
	// Engine is one of tesseract, textract or none.
	Engine   string
	Language string
	DPI      int
	// PdftoppmPath is the rasterizer used before tesseract.
	PdftoppmPath string
	Timeout      time.Duration
	TempDir      string
}

func GetOCRConfig() *OCRConfig {
	ocrOnce.Do(func() {
		loadDotEnv()
		ocrConfig = LoadOCRConfig(osLookup)
	})
	return ocrConfig
}

func LoadOCRConfig(env Lookup) *OCRConfig {
	return &OCRConfig{
		Engine:       envString(env, "OCR_ENGINE", OCREngineTesseract),
		Language:     envString(env, "OCR_LANGUAGE", "eng"),
		DPI:          envInt(env, "OCR_DPI", 300),
		PdftoppmPath: envString(env, "PDFTOPPM_PATH", "pdftoppm"),
		Timeout:      envDuration(env, "OCR_TIMEOUT", 90*time.Second),
		TempDir:      env("OCR_TEMP_DIR"),
	}
}
