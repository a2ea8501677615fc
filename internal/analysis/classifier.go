package analysis

import (
	"strings"

	"docintake/internal/domain"
)

// Classifier assigns a DocumentType from OCR text and any known fields.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct{}

// NewClassifier creates a Classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify returns the document type. Textual rules are tried in priority
// order and the first match wins. A non-nil hint is returned only when no
// rule fires; otherwise defaultType is returned.
func (c *Classifier) Classify(text string, fields []domain.Field, hint *domain.DocumentType, defaultType domain.DocumentType) domain.DocumentType {
	return c.ClassifyDetailed(text, fields, hint, defaultType).Type
}

// ClassifyDetailed is Classify plus a confidence score and the signals that fired.
func (c *Classifier) ClassifyDetailed(text string, fields []domain.Field, hint *domain.DocumentType, defaultType domain.DocumentType) domain.ClassificationResult {
	in := newClassifierInput(text, fields)

	promo := detectPromotional(in.haystack)
	var signals []string
	if promo.hit {
		signals = append(signals, "promotional")
	}

	if r := detectCreditCard(in); r.hit {
		conf := 0.75
		if r.issuer {
			conf = 0.9
		}
		return result(domain.DocumentTypeCreditCard, conf, append(signals, r.signals...))
	}
	if r := detectInsuranceCard(in.haystack); r.hit {
		conf := signalConfidence(r.count, 4)
		if r.rxBin {
			conf = 0.95
		}
		return result(domain.DocumentTypeInsuranceCard, conf, append(signals, r.signals...))
	}
	if r := detectIDCard(in.haystack); r.hit {
		return result(domain.DocumentTypeIDCard, 0.85, append(signals, r.signals...))
	}
	if r := detectBill(in.haystack); r.hit {
		conf := 0.75
		if r.billingTerm {
			conf = 0.9
		}
		return result(domain.DocumentTypeBillStatement, conf, append(signals, r.signals...))
	}
	if r := detectReceipt(in.haystack, promo.hit); r.hit {
		return result(domain.DocumentTypeReceipt, r.confidence, append(signals, r.signals...))
	}
	if r := detectLetter(in.haystack, promo.hit); r.hit {
		return result(domain.DocumentTypeLetter, 0.8, append(signals, r.signals...))
	}

	if hint != nil && hint.IsValid() {
		return result(*hint, 0.5, append(signals, "hint"))
	}
	if !defaultType.IsValid() {
		defaultType = domain.DocumentTypeGeneric
	}
	return result(defaultType, 0.3, signals)
}

func result(t domain.DocumentType, conf float64, signals []string) domain.ClassificationResult {
	if signals == nil {
		signals = []string{}
	}
	return domain.ClassificationResult{Type: t, Confidence: conf, Signals: signals}
}

// signalConfidence scales a confidence from how many of total signals fired.
func signalConfidence(count, total int) float64 {
	switch {
	case count >= total:
		return 0.95
	case count >= total-1:
		return 0.85
	case count >= 2:
		return 0.75
	default:
		return 0.6
	}
}

type classifierInput struct {
	// haystack is the lowercased text plus field values.
	haystack  string
	tokens    []token
	fieldKeys []string
}

func newClassifierInput(text string, fields []domain.Field) classifierInput {
	var b strings.Builder
	b.WriteString(text)
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		b.WriteByte('\n')
		b.WriteString(f.Value)
		keys = append(keys, NormalizeKey(f.Key))
	}
	full := b.String()
	return classifierInput{
		haystack:  strings.ToLower(full),
		tokens:    tokenize(full),
		fieldKeys: keys,
	}
}
