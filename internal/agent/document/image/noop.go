package image

import "context"

// NoopEngine is used when OCR is switched off.
type NoopEngine struct{}

func (NoopEngine) Name() string { return "none" }

func (NoopEngine) Available() bool { return false }

func (NoopEngine) RecognizeFirstPage(context.Context, string) (string, error) {
	return "", ErrOCRUnavailable
}
