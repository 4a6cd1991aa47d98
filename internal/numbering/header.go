package numbering

import "regexp"

// Section markers that end a document's own header. Anything after them is
// salutation or references, which quote other documents' numbers.
var headerMarkers = regexp.MustCompile(`(?i)Referencia|Señora|Señor|De mi consideración`)

// IsolateHeader returns text up to the first section marker found at a
// positive offset. A marker at offset 0 never truncates. The result is
// always a prefix of text.
func IsolateHeader(text string) string {
	for _, loc := range headerMarkers.FindAllStringIndex(text, -1) {
		if loc[0] > 0 {
			return text[:loc[0]]
		}
	}
	return text
}
