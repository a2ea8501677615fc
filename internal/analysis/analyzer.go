package analysis

import (
	"time"

	"docintake/internal/domain"
)

// AnalyzerConfig holds settings for an Analyzer.
type AnalyzerConfig struct {
	DefaultType domain.DocumentType
	// MinConfidence drops merged fields below this confidence. User edits
	// (source fused) are always kept.
	MinConfidence float64
	// Now overrides the clock used to judge card expiry dates.
	Now func() time.Time
}

// Analyzer runs the classifier, the extractors and the deduplicator over one document.
type Analyzer struct {
	classifier *Classifier
	cards      *CardDetailsExtractor
	cfg        AnalyzerConfig
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	if !cfg.DefaultType.IsValid() {
		cfg.DefaultType = domain.DocumentTypeGeneric
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Analyzer{
		classifier: NewClassifier(),
		cards:      NewCardDetailsExtractorAt(cfg.Now),
		cfg:        cfg,
	}
}

// Classifier returns the classifier used by the analyzer.
func (a *Analyzer) Classifier() *Classifier { return a.classifier }

// Cards returns the card details extractor used by the analyzer.
func (a *Analyzer) Cards() *CardDetailsExtractor { return a.cards }

// DefaultType returns the type assigned when no rule or hint applies.
func (a *Analyzer) DefaultType() domain.DocumentType { return a.cfg.DefaultType }

// Analyze classifies text, extracts pattern and type-specific fields, and
// merges them with the known fields into one deduplicated list.
func (a *Analyzer) Analyze(text string, known []domain.Field, hint *domain.DocumentType) domain.AnalysisResult {
	cls := a.classifier.ClassifyDetailed(text, known, hint, a.cfg.DefaultType)

	extracted := ExtractForType(text, cls.Type)
	var card *domain.CardDetails
	if cls.Type == domain.DocumentTypeCreditCard {
		d := a.cards.Extract(text, known)
		card = &d
		extracted = append(extracted, CardFields(d)...)
	}

	merged := MergeSources(known, extracted)
	if a.cfg.MinConfidence > 0 {
		kept := merged[:0]
		for _, f := range merged {
			if f.Confidence >= a.cfg.MinConfidence || f.Source == domain.FieldSourceFused {
				kept = append(kept, f)
			}
		}
		merged = kept
	}

	return domain.AnalysisResult{
		RawText:        text,
		Classification: cls,
		Fields:         merged,
		Card:           card,
	}
}
