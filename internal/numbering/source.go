package numbering

import (
	"regexp"
	"strings"
)

// shortNameMarker shows up in truncated 8.3 file names (OFICIO~1.PDF).
const shortNameMarker = "~"

var (
	filenameNumber  = regexp.MustCompile(`(\d{5,6})[- ]?(\d{4})`)
	emptyNumberSlot = regexp.MustCompile(`(?i)OFICIO\s*N[°º]?\s*-\s*\d{4}`)
	yearNearSuffix  = regexp.MustCompile(`-\s*(20\d\d)\s*-\s*MIDIS`)
	filenameMarker  = regexp.MustCompile(`(?i)NOMBRE DEL ARCHIVO:\s*(.+?)\.pdf`)

	plausibleStandard = regexp.MustCompile(`\d{5,6}`)
	plausibleNemaec   = regexp.MustCompile(`\d{3}`)
)

// Strategy is one source of a candidate number. Strategies are tried in
// order and the first success decides.
type Strategy interface {
	Name() string
	Extract(rc RawContext) (CandidateMatch, bool)
}

// FilenameStrategy reads the number positionally from a full file name.
type FilenameStrategy struct{}

func (FilenameStrategy) Name() string { return "filename" }

func (FilenameStrategy) Extract(rc RawContext) (CandidateMatch, bool) {
	if rc.Filename == "" || strings.Contains(rc.Filename, shortNameMarker) {
		return CandidateMatch{}, false
	}
	g := filenameNumber.FindStringSubmatch(rc.Filename)
	if g == nil {
		return CandidateMatch{}, false
	}
	return CandidateMatch{
		Correlative: g[1],
		Year:        g[2],
		Kind:        KindOficio,
		Scheme:      SchemeStandard,
	}, true
}

// HeaderStrategy matches the rule table against the document's own header.
type HeaderStrategy struct{}

func (HeaderStrategy) Name() string { return "header" }

func (HeaderStrategy) Extract(rc RawContext) (CandidateMatch, bool) {
	return MatchNumber(IsolateHeader(rc.DigitalText))
}

// DefaultStrategies is filename first, then header text.
func DefaultStrategies() []Strategy {
	return []Strategy{FilenameStrategy{}, HeaderStrategy{}}
}

// NeedsOCRPriority reports whether the digital sources are known to be
// unreliable, so OCR must run before anything else.
func NeedsOCRPriority(filename, digitalText string) bool {
	if strings.Contains(filename, shortNameMarker) {
		return true
	}
	return emptyNumberSlot.MatchString(digitalText)
}

// IsPlausibleNumber is the sanity check applied to the model's own answer.
func IsPlausibleNumber(n string) bool {
	if plausibleStandard.MatchString(n) {
		return true
	}
	return strings.Contains(strings.ToUpper(n), "NEMAEC") && plausibleNemaec.MatchString(n)
}

// FilenameFromText recovers the name carried by a "NOMBRE DEL ARCHIVO:"
// line, without the .pdf extension.
func FilenameFromText(text string) string {
	g := filenameMarker.FindStringSubmatch(text)
	if g == nil {
		return ""
	}
	return strings.TrimSpace(g[1])
}

func recoverYear(text string) string {
	if g := yearNearSuffix.FindStringSubmatch(text); g != nil {
		return g[1]
	}
	return ""
}
