package analysis

import (
	"strings"
	"time"
	"unicode"

	"docintake/internal/domain"
)

// CardDetailsExtractor mines payment card attributes from OCR text.
type CardDetailsExtractor struct {
	now func() time.Time
}

// NewCardDetailsExtractor creates an extractor that judges expiry dates
// against the wall clock.
func NewCardDetailsExtractor() *CardDetailsExtractor {
	return &CardDetailsExtractor{now: time.Now}
}

// NewCardDetailsExtractorAt creates an extractor with a fixed clock.
func NewCardDetailsExtractorAt(now func() time.Time) *CardDetailsExtractor {
	return &CardDetailsExtractor{now: now}
}

// Extract returns the holder, issuer, PAN and expiry found in text. A
// structured field with a recognized key wins over text mining.
func (e *CardDetailsExtractor) Extract(text string, fields []domain.Field) domain.CardDetails {
	var details domain.CardDetails
	details.PAN = structuredValue(fields, cardKeyPAN)
	details.Expiry = structuredValue(fields, cardKeyExpiry)
	details.Holder = structuredValue(fields, cardKeyHolder)
	details.Issuer = structuredValue(fields, cardKeyIssuer)

	toks := tokenize(text)
	lines := splitLines(text)

	lastLine := -1
	exclude := map[int]struct{}{}
	pan, ok := bestCardNumber(toks)
	if ok {
		for _, t := range pan.block.tokens {
			exclude[t.pos] = struct{}{}
		}
		lastLine = pan.block.lastLine()
		if details.PAN == nil {
			details.PAN = strPtr(pan.digits)
		}
	}

	if exp, found := pickExpiry(findExpiryCandidates(toks, lines, exclude), e.now()); found {
		if exp.line > lastLine {
			lastLine = exp.line
		}
		if details.Expiry == nil {
			details.Expiry = strPtr(exp.String())
		}
	}

	if details.Holder == nil {
		details.Holder = findHolder(lines, lastLine+1)
	}

	if details.Issuer == nil {
		if issuer, found := matchIssuer(strings.ToLower(text)); found {
			details.Issuer = strPtr(issuer)
		} else if details.PAN != nil {
			details.Issuer = issuerFromBIN(onlyDigits(*details.PAN))
		}
	}

	return details
}

// structuredValue returns the value of the highest-confidence field whose
// normalized key is in keys. The first such field wins ties.
func structuredValue(fields []domain.Field, keys map[string]struct{}) *string {
	var best *domain.Field
	for i := range fields {
		f := &fields[i]
		if _, ok := keys[NormalizeKey(f.Key)]; !ok {
			continue
		}
		if strings.TrimSpace(f.Value) == "" {
			continue
		}
		if best == nil || f.Confidence > best.Confidence {
			best = f
		}
	}
	if best == nil {
		return nil
	}
	return strPtr(best.Value)
}

// findHolder returns the first name-shaped line at or after start, falling
// back to the lines before start.
func findHolder(lines []string, start int) *string {
	if start < 0 || start > len(lines) {
		start = 0
	}
	for i := start; i < len(lines); i++ {
		if name, ok := holderCandidate(lines[i]); ok {
			return strPtr(name)
		}
	}
	for i := 0; i < start; i++ {
		if name, ok := holderCandidate(lines[i]); ok {
			return strPtr(name)
		}
	}
	return nil
}

const (
	minHolderLen = 4
	maxHolderLen = 26
)

func holderCandidate(line string) (string, bool) {
	line = strings.Join(strings.Fields(line), " ")
	if len(line) < minHolderLen || len(line) > maxHolderLen {
		return "", false
	}
	lower := strings.ToLower(line)
	if looksLikeWeb(lower) {
		return "", false
	}
	for _, r := range line {
		if !unicode.IsLetter(r) && r != ' ' && r != '.' && r != '\'' && r != '-' {
			return "", false
		}
	}
	words := strings.Fields(lower)
	if len(words) < 2 || len(words) > 4 {
		return "", false
	}
	for _, w := range words {
		if _, stop := holderStopWords[strings.Trim(w, ".'-")]; stop {
			return "", false
		}
	}
	if _, isIssuer := matchIssuer(lower); isIssuer {
		return "", false
	}
	return line, true
}

func looksLikeWeb(lower string) bool {
	return strings.Contains(lower, "www") || strings.Contains(lower, ".com") ||
		strings.Contains(lower, "http") || strings.Contains(lower, "@")
}

// matchIssuer returns the canonical name of the first issuer table entry found in lower.
func matchIssuer(lower string) (string, bool) {
	for _, e := range cardIssuers {
		if containsWord(lower, e.fragment) {
			return e.canonical, true
		}
	}
	return "", false
}

// issuerFromBIN infers the card network from the leading digits of a PAN.
func issuerFromBIN(pan string) *string {
	if len(pan) < 4 {
		return nil
	}
	two := atoiPrefix(pan, 2)
	four := atoiPrefix(pan, 4)
	switch {
	case pan[0] == '4':
		return strPtr("Visa")
	case two >= 51 && two <= 55, four >= 2221 && four <= 2720:
		return strPtr("Mastercard")
	case two == 34 || two == 37:
		return strPtr("American Express")
	case four == 6011 || two == 65:
		return strPtr("Discover")
	case four >= 3528 && four <= 3589:
		return strPtr("JCB")
	}
	return nil
}

func atoiPrefix(s string, n int) int {
	v := 0
	for i := 0; i < n && i < len(s); i++ {
		v = v*10 + int(s[i]-'0')
	}
	return v
}

func strPtr(s string) *string { return &s }

// CardFields converts card details into fields for persistence.
func CardFields(details domain.CardDetails) []domain.Field {
	var out []domain.Field
	add := func(key string, v *string, conf float64) {
		if v != nil {
			out = append(out, domain.NewField(key, *v, conf, domain.FieldSourceVision))
		}
	}
	add("card_number", details.PAN, 0.9)
	add("expiry", details.Expiry, 0.9)
	add("cardholder", details.Holder, 0.8)
	add("issuer", details.Issuer, 0.85)
	return out
}
