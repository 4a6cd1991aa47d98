package numbering

import (
	"fmt"
	"regexp"
	"strings"
)

// Normalizer formats candidates into canonical numbers.
type Normalizer struct {
	opts Options
}

func NewNormalizer(opts Options) *Normalizer {
	return &Normalizer{opts: opts.withDefaults()}
}

// Normalize pads the correlative for the candidate's scheme and assembles
// the canonical string.
func (n *Normalizer) Normalize(m CandidateMatch) string {
	if m.Correlative == "" {
		return ""
	}
	year := m.Year
	if year == "" {
		year = n.opts.FallbackYear
	}

	if m.Scheme == SchemeNemaec {
		return fmt.Sprintf("Carta N° %s-%s-%s", zfill(m.Correlative, nemaecWidth), year, nemaecSuffix)
	}

	suffix := cleanSuffix(m.Suffix)
	if suffix == "" {
		suffix = n.opts.DefaultSuffix
	}
	kind := m.Kind
	if kind == "" {
		kind = KindOficio
	}
	return fmt.Sprintf("%s N°%s-%s-%s", kind, zfill(m.Correlative, standardWidth), year, suffix)
}

// Lenient shapes for numbers typed by people or returned by the model,
// which often drop leading zeros.
var (
	lenientNemaec   = regexp.MustCompile(`(?i)Carta\s*N[°º]?\s*(\d{1,3})\s*-\s*(\d{4})\s*-\s*NEMAEC/PRESIDENCIA`)
	lenientStandard = regexp.MustCompile(`(?i)(OFICIO|CARTA)\s*N[°º]?\s*(\d{1,6})\s*-\s*(\d{4})(?:\s*-\s*(\S+))?`)
)

// NormalizeText canonicalizes a free-form number string. The strict rule
// table is tried first; short correlatives are accepted after that. Input
// that does not look like a number at all is returned trimmed.
func (n *Normalizer) NormalizeText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if m, ok := MatchNumber(raw); ok {
		return n.Normalize(m)
	}
	if g := lenientNemaec.FindStringSubmatch(raw); g != nil {
		return n.Normalize(CandidateMatch{Correlative: g[1], Year: g[2], Kind: KindCarta, Scheme: SchemeNemaec})
	}
	if g := lenientStandard.FindStringSubmatch(raw); g != nil {
		m := CandidateMatch{
			Correlative: g[2],
			Year:        g[3],
			Suffix:      cleanSuffix(g[4]),
			Kind:        Kind(strings.ToUpper(g[1])),
		}
		if strings.Contains(strings.ToUpper(m.Suffix), "NEMAEC") {
			m.Scheme = SchemeNemaec
		}
		return n.Normalize(m)
	}
	return raw
}

func zfill(digits string, width int) string {
	if len(digits) >= width {
		return digits
	}
	return strings.Repeat("0", width-len(digits)) + digits
}
