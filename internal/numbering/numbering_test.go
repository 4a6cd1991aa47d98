package numbering

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const canonicalStandard = "OFICIO N°00035-2026-MIDIS/FONCODES/UGPE"

func TestIsolateHeader(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "truncates at salutation",
			in:   "OFICIO N° 00035-2026-MIDIS/FONCODES/UGPE\nSeñor Juan Pérez\nReferencia: OFICIO N° 00012-2025-MIDIS/FONCODES/UGPE",
			want: "OFICIO N° 00035-2026-MIDIS/FONCODES/UGPE\n",
		},
		{
			name: "marker at offset zero is ignored",
			in:   "Referencia: abc Señor x",
			want: "Referencia: abc ",
		},
		{
			name: "all caps markers",
			in:   "CARTA N° 012-2026-NEMAEC/PRESIDENCIA\nSEÑORA ANA",
			want: "CARTA N° 012-2026-NEMAEC/PRESIDENCIA\n",
		},
		{
			name: "greeting",
			in:   "Lima, 3 de marzo\nDE MI CONSIDERACIÓN:\ntexto",
			want: "Lima, 3 de marzo\n",
		},
		{
			name: "no marker",
			in:   "OFICIO N° 00035-2026-MIDIS/FONCODES/UGPE",
			want: "OFICIO N° 00035-2026-MIDIS/FONCODES/UGPE",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsolateHeader(tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, strings.HasPrefix(tt.in, got))
			assert.Equal(t, got, IsolateHeader(got), "isolation must be idempotent")
		})
	}
}

func TestIsolateHeaderNeverAddsMatches(t *testing.T) {
	texts := []string{
		"Lima\nSeñor director\nReferencia: OFICIO N° 00012-2025-MIDIS/FONCODES/UGPE",
		"OFICIO N° 00035-2026-MIDIS/FONCODES/UGPE\nReferencia: CARTA N° 00099-2024-ABC",
		"sin número alguno",
	}
	for _, text := range texts {
		header := IsolateHeader(text)
		if m, ok := MatchNumber(header); ok {
			_, fullOK := MatchNumber(text)
			assert.True(t, fullOK)
			assert.Contains(t, header, m.Correlative)
		}
	}

	_, ok := MatchNumber(IsolateHeader(texts[0]))
	assert.False(t, ok, "a number quoted in the reference section is not the document's own")
}

func TestMatchNumber(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want CandidateMatch
	}{
		{
			name: "nemaec",
			in:   "CARTA N° 012-2026-NEMAEC/PRESIDENCIA",
			want: CandidateMatch{Correlative: "012", Year: "2026", Suffix: "NEMAEC/PRESIDENCIA", Kind: KindCarta, Scheme: SchemeNemaec},
		},
		{
			name: "oficio with suffix and trailing period",
			in:   "OFICIO N° 00035 - 2026 - MIDIS/FONCODES/UGPE.",
			want: CandidateMatch{Correlative: "00035", Year: "2026", Suffix: "MIDIS/FONCODES/UGPE", Kind: KindOficio},
		},
		{
			name: "carta with suffix",
			in:   "carta n 45678-2024-ABC",
			want: CandidateMatch{Correlative: "45678", Year: "2024", Suffix: "ABC", Kind: KindCarta},
		},
		{
			name: "loose oficio",
			in:   "OFICIO Nº123-2025",
			want: CandidateMatch{Correlative: "123", Year: "2025", Kind: KindOficio},
		},
		{
			name: "no suffix after year",
			in:   "OFICIO N° 00035-2026 firmado",
			want: CandidateMatch{Correlative: "00035", Year: "2026", Kind: KindOficio},
		},
		{
			name: "suffix rule outranks earlier loose number",
			in:   "OFICIO N° 123-2025 y luego OFICIO N° 00035-2026-MIDIS/FONCODES/UGPE",
			want: CandidateMatch{Correlative: "00035", Year: "2026", Suffix: "MIDIS/FONCODES/UGPE", Kind: KindOficio},
		},
		{
			name: "long correlative with nemaec suffix",
			in:   "CARTA N° 00012-2026-NEMAEC/PRESIDENCIA",
			want: CandidateMatch{Correlative: "00012", Year: "2026", Suffix: "NEMAEC/PRESIDENCIA", Kind: KindCarta, Scheme: SchemeNemaec},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchNumber(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := MatchNumber("Lima, 12 de enero de 2026")
	assert.False(t, ok)
}

func TestRulesOrder(t *testing.T) {
	names := make([]string, 0)
	for _, r := range Rules() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"nemaec", "oficio-suffix", "carta-suffix", "oficio-loose", "carta-loose"}, names)

	r := Rules()
	r[0] = Rule{}
	assert.Equal(t, "nemaec", Rules()[0].Name)
}

func TestNormalize(t *testing.T) {
	n := NewNormalizer(Options{})

	assert.Equal(t, "Carta N° 007-2026-NEMAEC/PRESIDENCIA",
		n.Normalize(CandidateMatch{Correlative: "7", Year: "2026", Kind: KindCarta, Scheme: SchemeNemaec}))
	assert.Equal(t, canonicalStandard,
		n.Normalize(CandidateMatch{Correlative: "35", Year: "2026", Kind: KindOficio}))
	assert.Equal(t, "OFICIO N°000291-2025-MIDIS/FONCODES/UGPE",
		n.Normalize(CandidateMatch{Correlative: "000291", Year: "2025", Kind: KindOficio}))
	assert.Equal(t, "CARTA N°45678-2024-ABC",
		n.Normalize(CandidateMatch{Correlative: "45678", Year: "2024", Suffix: "ABC;", Kind: KindCarta}))
	assert.Equal(t, "OFICIO N°00035-2026-MIDIS/FONCODES/UGPE",
		n.Normalize(CandidateMatch{Correlative: "35"}))
	assert.Empty(t, n.Normalize(CandidateMatch{Year: "2026"}))

	custom := NewNormalizer(Options{FallbackYear: "2030", DefaultSuffix: "PNUD/UE"})
	assert.Equal(t, "OFICIO N°00035-2030-PNUD/UE", custom.Normalize(CandidateMatch{Correlative: "35", Kind: KindOficio}))
}

func TestNormalizeText(t *testing.T) {
	n := NewNormalizer(Options{})

	assert.Equal(t, "Carta N° 007-2026-NEMAEC/PRESIDENCIA", n.NormalizeText("Carta N° 7-2026-NEMAEC/PRESIDENCIA"))
	assert.Equal(t, canonicalStandard, n.NormalizeText("OFICIO N° 35-2026-MIDIS/FONCODES/UGPE"))
	assert.Equal(t, canonicalStandard, n.NormalizeText("  OFICIO N° 00035-2026-MIDIS/FONCODES/UGPE "))
	assert.Equal(t, "CARTA N°00042-2025-MIDIS/FONCODES/UGPE", n.NormalizeText("carta n° 42-2025"))
	assert.Equal(t, "sin número", n.NormalizeText("sin número"))
	assert.Empty(t, n.NormalizeText("   "))
}

func TestNormalizeRoundTrip(t *testing.T) {
	n := NewNormalizer(Options{})
	candidates := []CandidateMatch{
		{Correlative: "35", Year: "2026", Kind: KindOficio},
		{Correlative: "291", Year: "2024", Suffix: "X/Y", Kind: KindOficio},
		{Correlative: "123456", Year: "2024", Suffix: "ABC", Kind: KindCarta},
		{Correlative: "7", Year: "2026", Kind: KindCarta, Scheme: SchemeNemaec},
	}

	for _, c := range candidates {
		formatted := n.Normalize(c)
		got, ok := MatchNumber(formatted)
		require.True(t, ok, formatted)

		want, _ := strconv.Atoi(c.Correlative)
		value, err := strconv.Atoi(got.Correlative)
		require.NoError(t, err)
		assert.Equal(t, want, value, formatted)
		assert.Equal(t, c.Year, got.Year, formatted)
		assert.Equal(t, c.Scheme, got.Scheme, formatted)
	}
}

func TestNeedsOCRPriority(t *testing.T) {
	assert.True(t, NeedsOCRPriority("OFICIO~1.PDF", ""))
	assert.True(t, NeedsOCRPriority("Oficio 00035-2026.pdf", "OFICIO N° -2026"))
	assert.True(t, NeedsOCRPriority("", "oficio nº - 2026-MIDIS"))
	assert.False(t, NeedsOCRPriority("Oficio 00035-2026.pdf", "OFICIO N° 00035-2026-MIDIS/FONCODES/UGPE"))
	assert.False(t, NeedsOCRPriority("", ""))
}

func TestIsPlausibleNumber(t *testing.T) {
	assert.True(t, IsPlausibleNumber(canonicalStandard))
	assert.True(t, IsPlausibleNumber("Carta N° 007-2026-NEMAEC/PRESIDENCIA"))
	assert.False(t, IsPlausibleNumber("OFICIO N° 35-2026-MIDIS"))
	assert.False(t, IsPlausibleNumber("Carta 007-2026"))
	assert.False(t, IsPlausibleNumber(""))
}

func TestFilenameFromText(t *testing.T) {
	assert.Equal(t, "carta 123", FilenameFromText("NOMBRE DEL ARCHIVO: carta 123.PDF\n\ntexto"))
	assert.Empty(t, FilenameFromText("texto sin cabecera"))
}

type fixedStrategy struct {
	m CandidateMatch
}

func (fixedStrategy) Name() string { return "fixed" }

func (s fixedStrategy) Extract(RawContext) (CandidateMatch, bool) { return s.m, true }

func TestExtractDocumentNumber(t *testing.T) {
	e := NewExtractor(Options{})
	body := "OFICIO N° 00035-2026-MIDIS/FONCODES/UGPE\nSeñor director\nReferencia: OFICIO N° 00012-2025-MIDIS/FONCODES/UGPE"

	tests := []struct {
		name string
		rc   RawContext
		want string
	}{
		{
			name: "filename wins",
			rc:   RawContext{Filename: "OFICIO-000291-2025-UGPE.pdf", DigitalText: body},
			want: "OFICIO N°000291-2025-MIDIS/FONCODES/UGPE",
		},
		{
			name: "short filename is never parsed",
			rc:   RawContext{Filename: "OFICIO~00412-2025.PDF", DigitalText: body},
			want: canonicalStandard,
		},
		{
			name: "filename recovered from marker line",
			rc:   RawContext{DigitalText: "NOMBRE DEL ARCHIVO: OFICIO 00412-2025.pdf\n\n" + body},
			want: "OFICIO N°00412-2025-MIDIS/FONCODES/UGPE",
		},
		{
			name: "header only",
			rc:   RawContext{Filename: "scan.pdf", DigitalText: body},
			want: canonicalStandard,
		},
		{
			name: "reference number is not taken",
			rc:   RawContext{DigitalText: "OFICIO N° -2026-MIDIS/FONCODES/UGPE\nReferencia: OFICIO N° 00012-2025-MIDIS/FONCODES/UGPE"},
			want: "",
		},
		{
			name: "nemaec header",
			rc:   RawContext{DigitalText: "CARTA N° 015-2026-NEMAEC/PRESIDENCIA\nSeñora Ana"},
			want: "Carta N° 015-2026-NEMAEC/PRESIDENCIA",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.ExtractDocumentNumber(tt.rc))
		})
	}
}

func TestExtractorRecoversYear(t *testing.T) {
	e := NewExtractor(Options{}).WithStrategies(fixedStrategy{m: CandidateMatch{Correlative: "35", Kind: KindOficio}})

	assert.Equal(t, "OFICIO N°00035-2024-MIDIS/FONCODES/UGPE",
		e.ExtractDocumentNumber(RawContext{DigitalText: "OFICIO N° - 2024 - MIDIS/FONCODES/UGPE"}))
	assert.Equal(t, canonicalStandard, e.ExtractDocumentNumber(RawContext{DigitalText: "nada"}))
}

func TestTrace(t *testing.T) {
	e := NewExtractor(Options{})
	steps := e.Trace(RawContext{Filename: "OFICIO~1.PDF", DigitalText: "OFICIO N° 00035-2026-MIDIS/FONCODES/UGPE"})

	require.Len(t, steps, 2)
	assert.Equal(t, "filename", steps[0].Strategy)
	assert.False(t, steps[0].Matched)
	assert.Equal(t, "header", steps[1].Strategy)
	assert.True(t, steps[1].Matched)
	assert.Equal(t, "00035", steps[1].Candidate.Correlative)
}

func TestExtractStopsAtFirstMatch(t *testing.T) {
	e := NewExtractor(Options{})
	rc := RawContext{Filename: "OFICIO 00321-2025.pdf", DigitalText: "OFICIO N° 00035-2026-MIDIS/FONCODES/UGPE"}

	numero, steps := e.Extract(rc)
	assert.Equal(t, "OFICIO N°00321-2025-MIDIS/FONCODES/UGPE", numero)
	assert.Equal(t, e.ExtractDocumentNumber(rc), numero)
	require.Len(t, steps, 1)
	assert.Equal(t, "filename", steps[0].Strategy)
	assert.True(t, steps[0].Matched)

	numero, steps = e.Extract(RawContext{DigitalText: "sin número"})
	assert.Empty(t, numero)
	assert.Len(t, steps, 2)
}

func TestExtractFromOCR(t *testing.T) {
	e := NewExtractor(Options{})
	ocr := "MINISTERIO DE DESARROLLO\nCARTA N° 015-2026-NEMAEC/PRESIDENCIA\nSeñor\nReferencia: OFICIO N° 00012-2025-MIDIS/FONCODES/UGPE"

	assert.Equal(t, "Carta N° 015-2026-NEMAEC/PRESIDENCIA", e.ExtractFromOCR(ocr))
	assert.Empty(t, e.ExtractFromOCR("texto ilegible"))
	assert.Empty(t, e.ExtractFromOCR(""))
}

func TestExtractReference(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Referencia: a) OFICIO N° 000336-2025-MIDIS/FONCODES/UGPE", "OFICIO N°000336-2025-MIDIS/FONCODES/UGPE"},
		{"Ref.: OFICIO Nº 00123 - 2024 - MIDIS/FONCODES/UGPE", "OFICIO N°00123-2024-MIDIS/FONCODES/UGPE"},
		{"REFERENCIA - EXPEDIENTE\nOFICIO N° 00077-2025-MIDIS/FONCODES/UGPE", "OFICIO N°00077-2025-MIDIS/FONCODES/UGPE"},
		{"Referencia: sin oficio", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractReference(tt.in), tt.in)
	}
}

func TestSortKey(t *testing.T) {
	year, corr, ok := SortKey(canonicalStandard)
	require.True(t, ok)
	assert.Equal(t, 2026, year)
	assert.Equal(t, 35, corr)

	year, corr, ok = SortKey("Carta N° 007-2026-NEMAEC/PRESIDENCIA")
	require.True(t, ok)
	assert.Equal(t, 2026, year)
	assert.Equal(t, 7, corr)

	_, _, ok = SortKey("sin numero")
	assert.False(t, ok)
}

func TestNormalizeLegacy(t *testing.T) {
	assert.Equal(t, "OFICIO N°000291-2025-MIDIS/FONCODES/UGPE", NormalizeLegacy("OFICIO-000291-2025-UGPE"))
	assert.Equal(t, "OFICIO N°000291-2025-MIDIS/FONCODES/UGPE", NormalizeLegacy("oficio 291 2025 ugpe"))
	assert.Equal(t, canonicalStandard, NormalizeLegacy(canonicalStandard))
	assert.Equal(t, "CARTA 12", NormalizeLegacy("  CARTA  12  "))
	assert.Empty(t, NormalizeLegacy(""))
}
