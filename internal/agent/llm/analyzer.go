// Package llm asks a chat model to read an oficio and return its fields.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConfigured means no API key was provided.
var ErrNotConfigured = errors.New("llm: api key not configured")

// Fields is the structured answer of the model. Every field may be empty.
type Fields struct {
	NumeroOficio     string `json:"numero_oficio"`
	Fecha            string `json:"fecha"`
	Remitente        string `json:"remitente"`
	Destinatario     string `json:"destinatario"`
	Asunto           string `json:"asunto"`
	Resumen          string `json:"resumen"`
	MensajeWhatsapp  string `json:"mensaje_whatsapp"`
	OficioReferencia string `json:"oficio_referencia"`
}

// Analyzer extracts Fields from document text.
type Analyzer interface {
	Configured() bool
	Analyze(ctx context.Context, text string) (Fields, error)
}

// MalformedResponseError wraps an answer that is not the expected JSON.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return e.Err.Error()
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func malformed(format string, args ...any) error {
	return &MalformedResponseError{Err: fmt.Errorf(format, args...)}
}
