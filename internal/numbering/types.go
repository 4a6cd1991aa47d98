// Package numbering determines the canonical identifier of an oficio or carta
// from its file name, its digital PDF text or its OCR text.
//
// Canonical forms:
//
//	OFICIO N°00035-2026-MIDIS/FONCODES/UGPE   (standard, 5-digit correlative)
//	Carta N° 007-2026-NEMAEC/PRESIDENCIA      (NEMAEC, 3-digit correlative)
//
// An empty string means the number could not be determined.
package numbering

// Kind is the document keyword found in front of the number.
type Kind string

const (
	KindOficio Kind = "OFICIO"
	KindCarta  Kind = "CARTA"
)

// Scheme selects the numbering convention, and with it the padding width.
type Scheme int

const (
	SchemeStandard Scheme = iota
	SchemeNemaec
)

func (s Scheme) String() string {
	if s == SchemeNemaec {
		return "nemaec"
	}
	return "standard"
}

const (
	standardWidth = 5
	nemaecWidth   = 3

	nemaecSuffix = "NEMAEC/PRESIDENCIA"

	DefaultSuffix       = "MIDIS/FONCODES/UGPE"
	DefaultFallbackYear = "2026"
)

// CandidateMatch is a number located in some text, before formatting.
// Correlative holds the digits exactly as found.
type CandidateMatch struct {
	Correlative string
	Year        string
	Suffix      string
	Kind        Kind
	Scheme      Scheme
}

// Options carries the organisation-specific defaults.
type Options struct {
	// FallbackYear is used only when no source yields a year.
	FallbackYear string
	// DefaultSuffix completes standard numbers found without a suffix.
	DefaultSuffix string
}

func (o Options) withDefaults() Options {
	if o.FallbackYear == "" {
		o.FallbackYear = DefaultFallbackYear
	}
	if o.DefaultSuffix == "" {
		o.DefaultSuffix = DefaultSuffix
	}
	return o
}

// RawContext is everything known about one document at analysis time.
type RawContext struct {
	// Filename is the original upload name. When empty it is recovered from
	// a "NOMBRE DEL ARCHIVO:" line at the top of DigitalText.
	Filename    string
	DigitalText string
}
