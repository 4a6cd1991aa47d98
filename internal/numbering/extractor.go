package numbering

// StepResult records what one strategy produced.
type StepResult struct {
	Strategy  string
	Matched   bool
	Candidate CandidateMatch
}

// Extractor runs the strategies and formats the winner.
type Extractor struct {
	normalizer *Normalizer
	strategies []Strategy
}

// NewExtractor uses the default strategies.
func NewExtractor(opts Options) *Extractor {
	return &Extractor{
		normalizer: NewNormalizer(opts),
		strategies: DefaultStrategies(),
	}
}

// WithStrategies returns a copy of e using the given strategy order.
func (e *Extractor) WithStrategies(strategies ...Strategy) *Extractor {
	return &Extractor{normalizer: e.normalizer, strategies: strategies}
}

func (e *Extractor) Normalizer() *Normalizer { return e.normalizer }

// ExtractDocumentNumber returns the canonical number of the document or ""
// when no strategy found one.
func (e *Extractor) ExtractDocumentNumber(rc RawContext) string {
	numero, _ := e.Extract(rc)
	return numero
}

// Extract is ExtractDocumentNumber plus the steps that ran. Strategies after
// the first match are not run and do not appear in the steps.
func (e *Extractor) Extract(rc RawContext) (string, []StepResult) {
	rc = e.complete(rc)
	steps := make([]StepResult, 0, len(e.strategies))
	for _, s := range e.strategies {
		m, ok := s.Extract(rc)
		steps = append(steps, StepResult{Strategy: s.Name(), Matched: ok, Candidate: m})
		if ok {
			return e.format(m, rc.DigitalText), steps
		}
	}
	return "", steps
}

// Trace runs every strategy and reports each outcome, in order.
func (e *Extractor) Trace(rc RawContext) []StepResult {
	rc = e.complete(rc)
	out := make([]StepResult, 0, len(e.strategies))
	for _, s := range e.strategies {
		m, ok := s.Extract(rc)
		out = append(out, StepResult{Strategy: s.Name(), Matched: ok, Candidate: m})
	}
	return out
}

// ExtractFromOCR applies header isolation and the rule table to OCR text.
func (e *Extractor) ExtractFromOCR(ocrText string) string {
	m, ok := MatchNumber(IsolateHeader(ocrText))
	if !ok {
		return ""
	}
	return e.format(m, ocrText)
}

func (e *Extractor) complete(rc RawContext) RawContext {
	if rc.Filename == "" {
		rc.Filename = FilenameFromText(rc.DigitalText)
	}
	return rc
}

func (e *Extractor) format(m CandidateMatch, fullText string) string {
	if m.Year == "" {
		m.Year = recoverYear(fullText)
	}
	return e.normalizer.Normalize(m)
}
