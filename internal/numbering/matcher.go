package numbering

import (
	"regexp"
	"strings"
)

// Rule is one entry of the matcher's priority table.
type Rule struct {
	Name      string
	Pattern   *regexp.Regexp
	Kind      Kind
	Scheme    Scheme
	HasSuffix bool
}

// rules is evaluated top to bottom and the first rule that matches wins.
// Rules with an explicit suffix come before their loose counterparts even
// though the digit ranges overlap; a later rule is never consulted once an
// earlier one matched.
var rules = []Rule{
	{
		Name:      "nemaec",
		Pattern:   regexp.MustCompile(`(?i)Carta\s*N[°º]?\s*(\d{3})\s*-\s*(\d{4})\s*-\s*NEMAEC/PRESIDENCIA`),
		Kind:      KindCarta,
		Scheme:    SchemeNemaec,
		HasSuffix: false,
	},
	{
		Name:      "oficio-suffix",
		Pattern:   regexp.MustCompile(`(?i)OFICIO\s*N[°º]?\s*(\d{5,6})\s*-\s*(\d{4})\s*-\s*(\S+)`),
		Kind:      KindOficio,
		Scheme:    SchemeStandard,
		HasSuffix: true,
	},
	{
		Name:      "carta-suffix",
		Pattern:   regexp.MustCompile(`(?i)CARTA\s*N[°º]?\s*(\d{5,6})\s*-\s*(\d{4})\s*-\s*(\S+)`),
		Kind:      KindCarta,
		Scheme:    SchemeStandard,
		HasSuffix: true,
	},
	{
		Name:    "oficio-loose",
		Pattern: regexp.MustCompile(`(?i)OFICIO\s*N[°º]?\s*(\d{3,6})\s*-\s*(\d{4})`),
		Kind:    KindOficio,
		Scheme:  SchemeStandard,
	},
	{
		Name:    "carta-loose",
		Pattern: regexp.MustCompile(`(?i)CARTA\s*N[°º]?\s*(\d{3,6})\s*-\s*(\d{4})`),
		Kind:    KindCarta,
		Scheme:  SchemeStandard,
	},
}

// Rules returns a copy of the priority table.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// MatchNumber returns the first rule match in text.
func MatchNumber(text string) (CandidateMatch, bool) {
	m, _, ok := matchWithRule(text)
	return m, ok
}

func matchWithRule(text string) (CandidateMatch, string, bool) {
	for _, r := range rules {
		groups := r.Pattern.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		m := CandidateMatch{
			Correlative: groups[1],
			Year:        groups[2],
			Kind:        r.Kind,
			Scheme:      r.Scheme,
		}
		if r.Scheme == SchemeNemaec {
			m.Suffix = nemaecSuffix
		}
		if r.HasSuffix {
			m.Suffix = cleanSuffix(groups[3])
			// A NEMAEC suffix behind a long correlative still belongs to the
			// NEMAEC convention.
			if strings.Contains(strings.ToUpper(m.Suffix), "NEMAEC") {
				m.Scheme = SchemeNemaec
			}
		}
		return m, r.Name, true
	}
	return CandidateMatch{}, "", false
}

func cleanSuffix(s string) string {
	return strings.TrimRight(s, ".,;:")
}
