package numbering

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	sortCorrelative = regexp.MustCompile(`\d{3,6}`)
	sortYear        = regexp.MustCompile(`20[2-9]\d`)
	legacyLedger    = regexp.MustCompile(`(?i)^OFICIO[- ]*(\d+)[- ]*(\d{4})[- ]*UGPE`)
)

// legacyWidth is the padding used by the historical ledger.
const legacyWidth = 6

// SortKey extracts the year and correlative used to order the inbox.
func SortKey(numero string) (year, correlative int, ok bool) {
	c := sortCorrelative.FindString(numero)
	y := sortYear.FindString(numero)
	if c == "" && y == "" {
		return 0, 0, false
	}
	correlative, _ = strconv.Atoi(c)
	year, _ = strconv.Atoi(y)
	return year, correlative, true
}

// NormalizeLegacy rewrites ledger numbers such as "OFICIO-000291-2025-UGPE"
// into the canonical form. Values already canonical are returned unchanged.
func NormalizeLegacy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "OFICIO N°") {
		return raw
	}
	if g := legacyLedger.FindStringSubmatch(raw); g != nil {
		return fmt.Sprintf("OFICIO N°%s-%s-%s", zfill(g[1], legacyWidth), g[2], DefaultSuffix)
	}
	return strings.Join(strings.Fields(raw), " ")
}
