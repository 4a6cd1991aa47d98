package numbering

import (
	"regexp"
	"strings"
)

func referencedOficio(suffix string) string {
	return `OFICIO\s*N[°º]?\s*(\d{5,6})\s*-\s*(\d{4})\s*-\s*(` + suffix + `)`
}

var referencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Referencia[:\s]+(?:[a-z]\)\s*)?` + referencedOficio(`\S+`)),
	regexp.MustCompile(`(?i)Ref[.:\s]+(?:[a-z]\)\s*)?` + referencedOficio(`\S+`)),
	regexp.MustCompile(`(?i)Referencia[^O]*` + referencedOficio(`[A-Z/]+`)),
}

// ExtractReference returns the oficio a document replies to, taken from its
// "Referencia" section, or "" when there is none. The correlative keeps the
// digits as written.
func ExtractReference(text string) string {
	for _, p := range referencePatterns {
		g := p.FindStringSubmatch(text)
		if g == nil {
			continue
		}
		suffix := strings.Join(strings.Fields(cleanSuffix(g[3])), "")
		return "OFICIO N°" + g[1] + "-" + g[2] + "-" + suffix
	}
	return ""
}
