package analysis

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"docintake/internal/domain"
)

// Field keys produced by the pattern extractor.
const (
	KeyEmail  = "email"
	KeyURL    = "url"
	KeyPhone  = "phone"
	KeyAmount = "amount"
	KeyDate   = "date"
)

// Fixed confidences per pattern family.
const (
	confEmail  = 0.95
	confURL    = 0.9
	confPhone  = 0.85
	confAmount = 0.85
	confDate   = 0.9
)

// All patterns are RE2, so matching is linear in the input length.
var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	urlPattern   = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s<>"']+`)
	phonePattern = regexp.MustCompile(`\+?[0-9(][0-9 ().-]{8,22}[0-9]`)

	amountSymbolPattern = regexp.MustCompile(`([$€£¥₹])\s?([0-9]{1,3}(?:,[0-9]{3})+|[0-9]+)(\.[0-9]{1,2})?`)
	amountCodePattern   = regexp.MustCompile(`\b(USD|EUR|GBP|INR|CAD|AUD|JPY)\s?([0-9]{1,3}(?:,[0-9]{3})+|[0-9]+)(\.[0-9]{1,2})?\b`)

	dateNumericPattern = regexp.MustCompile(`\b[0-9]{1,2}[/-][0-9]{1,2}[/-](?:[0-9]{4}|[0-9]{2})\b`)
	dateISOPattern     = regexp.MustCompile(`\b[0-9]{4}-[0-9]{2}-[0-9]{2}\b`)
	dateMonthFirst     = regexp.MustCompile(`(?i)\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+[0-9]{1,2}(?:st|nd|rd|th)?,?\s+[0-9]{4}\b`)
	dateDayFirst       = regexp.MustCompile(`(?i)\b[0-9]{1,2}(?:st|nd|rd|th)?\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?,?\s+[0-9]{4}\b`)
)

const urlTrailing = ".,;:!?)]}'\""

type span struct{ start, end int }

func (s span) overlaps(o span) bool { return s.start < o.end && o.start < s.end }

type match struct {
	span
	key   string
	value string
	conf  float64
}

// matcher collects non-overlapping matches. Earlier families claim text
// first, so an email's domain is never reported again as a URL.
type matcher struct {
	text    string
	claimed []span
	out     []match
}

func (m *matcher) free(s span) bool {
	for _, c := range m.claimed {
		if c.overlaps(s) {
			return false
		}
	}
	return true
}

func (m *matcher) add(s span, key, value string, conf float64) {
	m.claimed = append(m.claimed, s)
	m.out = append(m.out, match{span: s, key: key, value: value, conf: conf})
}

func (m *matcher) scan(re *regexp.Regexp, key string, conf float64, normalize func(string) (string, bool)) {
	for _, loc := range re.FindAllStringIndex(m.text, -1) {
		s := span{loc[0], loc[1]}
		raw := m.text[s.start:s.end]
		value, ok := normalize(raw)
		if !ok || !m.free(s) {
			continue
		}
		m.add(s, key, value, conf)
	}
}

// ExtractFields scans text for emails, URLs, dates, currency amounts and
// phone numbers. Repeated identical values within one family are reported
// once. Results are ordered by position in text.
func ExtractFields(text string) []domain.Field {
	m := &matcher{text: text}
	m.scan(emailPattern, KeyEmail, confEmail, keepAsIs)
	m.scan(urlPattern, KeyURL, confURL, trimURL)
	for _, re := range []*regexp.Regexp{dateISOPattern, dateNumericPattern, dateMonthFirst, dateDayFirst} {
		m.scan(re, KeyDate, confDate, keepAsIs)
	}
	m.scanAmounts()
	m.scanPhones()

	sort.SliceStable(m.out, func(i, j int) bool { return m.out[i].start < m.out[j].start })

	seen := make(map[string]struct{}, len(m.out))
	fields := make([]domain.Field, 0, len(m.out))
	for _, mt := range m.out {
		id := mt.key + ":" + familyValue(mt.key, mt.value)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		fields = append(fields, domain.NewField(mt.key, mt.value, mt.conf, domain.FieldSourceVision))
	}
	return fields
}

func keepAsIs(s string) (string, bool) { return strings.TrimSpace(s), true }

func trimURL(s string) (string, bool) {
	s = strings.TrimRight(s, urlTrailing)
	return s, len(s) > len("www.")
}

// familyValue is the comparison form used to drop repeats within a family.
func familyValue(key, value string) string {
	switch key {
	case KeyPhone:
		return normalizePhone(value)
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (m *matcher) scanAmounts() {
	for _, loc := range amountSymbolPattern.FindAllStringSubmatchIndex(m.text, -1) {
		s := span{loc[0], loc[1]}
		symbol := m.text[loc[2]:loc[3]]
		value, ok := formatAmount(symbol, "", m.text[loc[4]:loc[5]], submatch(m.text, loc, 3))
		if ok && m.free(s) {
			m.add(s, KeyAmount, value, confAmount)
		}
	}
	for _, loc := range amountCodePattern.FindAllStringSubmatchIndex(m.text, -1) {
		s := span{loc[0], loc[1]}
		code := m.text[loc[2]:loc[3]]
		value, ok := formatAmount("", code, m.text[loc[4]:loc[5]], submatch(m.text, loc, 3))
		if ok && m.free(s) {
			m.add(s, KeyAmount, value, confAmount)
		}
	}
}

func submatch(text string, loc []int, group int) string {
	if loc[2*group] < 0 {
		return ""
	}
	return text[loc[2*group]:loc[2*group+1]]
}

// formatAmount renders an amount with two decimals, e.g. "$1234.50" or "EUR 12.00".
func formatAmount(symbol, code, whole, frac string) (string, bool) {
	d, err := decimal.NewFromString(strings.ReplaceAll(whole, ",", "") + frac)
	if err != nil {
		return "", false
	}
	if code != "" {
		return code + " " + d.StringFixed(2), true
	}
	return symbol + d.StringFixed(2), true
}

// scanPhones keeps matches of 10-15 digits that stand alone and are grouped
// like a phone number.
func (m *matcher) scanPhones() {
	for _, loc := range phonePattern.FindAllStringIndex(m.text, -1) {
		if s, ok := m.phoneSpan(span{loc[0], loc[1]}); ok {
			m.add(s, KeyPhone, m.text[s.start:s.end], confPhone)
		}
	}
}

// phoneSpan returns the longest prefix of s, cut at the end of a digit group,
// that reads as a standalone phone number. Trailing groups such as the "24"
// of "24 hours" or the start of a date are dropped. A match that opens with
// a card number yields nothing.
func (m *matcher) phoneSpan(s span) (span, bool) {
	raw := m.text[s.start:s.end]
	groups := digitRuns(raw)
	for k := len(groups); k > 0; k-- {
		if cardShaped(raw[:groups[k-1].end], groups[:k]) {
			return span{}, false
		}
	}
	for k := len(groups); k > 0; k-- {
		c := span{s.start, s.start + groups[k-1].end}
		candidate := m.text[c.start:c.end]
		if len(onlyDigits(candidate)) < minPhoneDigits {
			break
		}
		if m.free(c) && isStandalone(m.text, c) && plausiblePhone(candidate) {
			return c, true
		}
	}
	return span{}, false
}

// digitRuns returns the offsets of each run of ASCII digits in s.
func digitRuns(s string) []span {
	var runs []span
	start := -1
	for i := 0; i <= len(s); i++ {
		digit := i < len(s) && s[i] >= '0' && s[i] <= '9'
		switch {
		case digit && start < 0:
			start = i
		case !digit && start >= 0:
			runs = append(runs, span{start, i})
			start = -1
		}
	}
	return runs
}

// cardShaped reports whether raw, split into groups, is printed like a
// payment card number: one Luhn-valid run of 13-19 digits, or groups of at
// least four digits led by a four-digit group.
func cardShaped(raw string, groups []span) bool {
	digits := onlyDigits(raw)
	if len(digits) < minPANDigits || len(digits) > maxPANDigits {
		return false
	}
	if len(groups) == 1 {
		return luhnValid(digits)
	}
	if groups[0].end-groups[0].start != 4 {
		return false
	}
	for _, g := range groups {
		if g.end-g.start < 4 {
			return false
		}
	}
	return true
}

func isStandalone(text string, s span) bool {
	return !isWordByte(text, s.start-1) && !isWordByte(text, s.end) &&
		!(s.start > 0 && text[s.start-1] == '/') && !(s.end < len(text) && text[s.end] == '/')
}

const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
	maxPhoneGroups = 6
)

func plausiblePhone(raw string) bool {
	digits := onlyDigits(raw)
	if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits {
		return false
	}
	if strings.Count(raw, "(") != strings.Count(raw, ")") {
		return false
	}
	groups := strings.FieldsFunc(raw, func(r rune) bool { return r < '0' || r > '9' })
	if len(groups) > maxPhoneGroups {
		return false
	}
	if len(groups) > 1 && len(groups[len(groups)-1]) < 3 {
		return false
	}
	international := strings.HasPrefix(raw, "+")
	for i, g := range groups {
		if len(g) >= 2 {
			continue
		}
		// A single leading digit is a country or trunk code: "+1 ..." or "1-800-...".
		if i == 0 && (international || g == "1") {
			continue
		}
		return false
	}
	return true
}

// Type-specific patterns. Captured values must contain a digit.
var (
	transactionIDPattern = regexp.MustCompile(`(?i)\b(?:receipt|transaction|order|confirmation)\s*(?:#|no\.?|number)\s*:?\s*([A-Z0-9][A-Z0-9-]{2,})`)
	totalAmountPattern   = regexp.MustCompile(`(?i)\btotal\s*:?\s*\$\s?([0-9]{1,3}(?:,[0-9]{3})+|[0-9]+)(\.[0-9]{2})`)
	dueDatePattern       = regexp.MustCompile(`(?i)\b(?:due\s*date|payment\s*due|pay\s*by|due\s*by)\s*:?\s*([0-9]{1,2}/[0-9]{1,2}/[0-9]{2,4}|[A-Za-z]{3,9}\.?\s+[0-9]{1,2},?\s+[0-9]{4})`)
	accountNumberPattern = regexp.MustCompile(`(?i)\baccount\s*(?:#|no\.?|number)?\s*:?\s*([A-Z0-9][A-Z0-9-]{3,})`)
	memberIDPattern      = regexp.MustCompile(`(?i)\b(?:member|subscriber)\s*(?:id|#|no\.?|number)\s*:?\s*([A-Z0-9][A-Z0-9-]{3,})`)
	groupNumberPattern   = regexp.MustCompile(`(?i)\b(?:group|grp)\s*(?:#|no\.?|number|num)?\s*:?\s*([A-Z0-9][A-Z0-9-]{2,})`)
	policyNumberPattern  = regexp.MustCompile(`(?i)\bpolicy\s*(?:#|no\.?|number)\s*:?\s*([A-Z0-9][A-Z0-9-]{3,})`)
	rxBinPattern         = regexp.MustCompile(`(?i)\brx\s*bin\s*:?\s*([0-9]{6})\b`)
	licenseNumberPattern = regexp.MustCompile(`(?i)\b(?:dl|lic|license|licence)\s*(?:#|no\.?|number)?\s*:?\s*([A-Z0-9][A-Z0-9-]{4,})`)
	birthDatePattern     = regexp.MustCompile(`(?i)\b(?:dob|date\s+of\s+birth)\s*:?\s*([0-9]{1,2}[/-][0-9]{1,2}[/-][0-9]{2,4})`)
)

type typedPattern struct {
	key  string
	re   *regexp.Regexp
	conf float64
}

var typedPatterns = map[domain.DocumentType][]typedPattern{
	domain.DocumentTypeReceipt: {
		{"transaction_id", transactionIDPattern, 0.95},
	},
	domain.DocumentTypeBillStatement: {
		{"due_date", dueDatePattern, 0.95},
		{"account_number", accountNumberPattern, 0.9},
	},
	domain.DocumentTypeInsuranceCard: {
		{"member_id", memberIDPattern, 0.9},
		{"group_number", groupNumberPattern, 0.85},
		{"policy_number", policyNumberPattern, 0.9},
		{"rx_bin", rxBinPattern, 0.95},
	},
	domain.DocumentTypeIDCard: {
		{"license_number", licenseNumberPattern, 0.85},
		{"date_of_birth", birthDatePattern, 0.9},
	},
}

// ExtractForType runs ExtractFields, relabels fields for the document type
// and adds type-specific fields such as a receipt's transaction id.
func ExtractForType(text string, docType domain.DocumentType) []domain.Field {
	fields := ExtractFields(text)
	if docType == domain.DocumentTypeBillStatement {
		for i := range fields {
			if fields[i].Key == KeyAmount {
				fields[i].Key = "amount_due"
				fields[i].Confidence *= 0.9
			}
		}
	}

	for _, p := range typedPatterns[docType] {
		for _, sub := range p.re.FindAllStringSubmatch(text, -1) {
			value := strings.TrimSpace(sub[1])
			if !strings.ContainsAny(value, "0123456789") {
				continue
			}
			fields = append(fields, domain.NewField(p.key, value, p.conf, domain.FieldSourceVision))
			break
		}
	}

	if docType == domain.DocumentTypeReceipt {
		if loc := totalAmountPattern.FindStringSubmatchIndex(text); loc != nil {
			if value, ok := formatAmount("$", "", text[loc[2]:loc[3]], submatch(text, loc, 2)); ok {
				fields = append(fields, domain.NewField("total_amount", value, 0.95, domain.FieldSourceVision))
			}
		}
	}
	return fields
}
