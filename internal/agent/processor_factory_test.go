package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/feichai0017/correspondence-tracker/config"
	"github.com/feichai0017/correspondence-tracker/pkg/logger"
)

func TestProcessorFactory(t *testing.T) {
	f, err := NewProcessorFactory(context.Background(),
		&cfg.OCRConfig{Engine: cfg.OCREngineNone}, &cfg.TextractConfig{}, logger.NewTestLogger())
	require.NoError(t, err)

	assert.Equal(t, "none", f.OCR().Name())
	assert.False(t, f.OCR().Available())
	assert.NotNil(t, f.PDF())

	p, err := f.GetProcessor("OFICIO 00035-2026.PDF")
	require.NoError(t, err)
	assert.True(t, p.CanProcess("application/pdf"))

	_, err = f.GetProcessor(".pdf")
	assert.NoError(t, err)

	_, err = f.GetProcessor("scan.png")
	assert.Error(t, err)
}

func TestProcessorFactoryEngines(t *testing.T) {
	f, err := NewProcessorFactory(context.Background(),
		&cfg.OCRConfig{Engine: "Tesseract", Language: "spa+eng", DPI: 200}, &cfg.TextractConfig{}, logger.NewTestLogger())
	require.NoError(t, err)
	assert.Equal(t, "tesseract", f.OCR().Name())

	_, err = NewProcessorFactory(context.Background(),
		&cfg.OCRConfig{Engine: "abbyy"}, &cfg.TextractConfig{}, logger.NewTestLogger())
	assert.Error(t, err)
}
