package analysis

import (
	"strings"
	"unicode"
)

// token is one whitespace-delimited word of the input with its position.
type token struct {
	text string
	line int
	pos  int
}

// tokenize splits text into tokens. Whitespace and the separators ":;,()"
// delimit tokens; sentence punctuation is trimmed from token ends. Slashes
// and dashes stay inside tokens so dates and grouped digits survive.
func tokenize(text string) []token {
	var toks []token
	pos := 0
	for lineNo, line := range splitLines(text) {
		for _, word := range strings.FieldsFunc(line, isTokenSeparator) {
			word = strings.Trim(word, ".!?'\"[]{}<>*")
			if word == "" {
				continue
			}
			toks = append(toks, token{text: word, line: lineNo, pos: pos})
			pos++
		}
	}
	return toks
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

func isTokenSeparator(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case ':', ';', ',', '(', ')':
		return true
	}
	return false
}

// isDigitGroup reports whether s is digits optionally joined by single dashes,
// e.g. "4111" or "4111-1111". Tokens containing letters never qualify.
func isDigitGroup(s string) bool {
	if s == "" || s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}
	prevDash := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			prevDash = false
		case c == '-':
			if prevDash {
				return false
			}
			prevDash = true
		default:
			return false
		}
	}
	return true
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// luhnValid reports whether digits passes the Luhn checksum.
func luhnValid(digits string) bool {
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		n := int(digits[i] - '0')
		if n < 0 || n > 9 {
			return false
		}
		if double {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		double = !double
	}
	return sum%10 == 0
}

// digitBlock is a run of consecutive digit-group tokens.
type digitBlock struct {
	tokens []token
}

func (b digitBlock) firstLine() int { return b.tokens[0].line }
func (b digitBlock) lastLine() int  { return b.tokens[len(b.tokens)-1].line }

// cardCandidate is a 13-19 digit window inside a block.
type cardCandidate struct {
	digits     string
	block      digitBlock
	wholeBlock bool
	luhn       bool
}

const (
	minPANDigits = 13
	maxPANDigits = 19
)

// collectBlocks groups consecutive digit-group tokens. When sameLine is true a
// block never spans a line break; otherwise only blocks spanning more than
// one line are returned.
func collectBlocks(toks []token, sameLine bool) []digitBlock {
	var blocks []digitBlock
	var cur []token
	flush := func() {
		if len(cur) > 0 {
			b := digitBlock{tokens: cur}
			if sameLine || b.firstLine() != b.lastLine() {
				blocks = append(blocks, b)
			}
		}
		cur = nil
	}
	for _, t := range toks {
		if !isDigitGroup(t.text) {
			flush()
			continue
		}
		if sameLine && len(cur) > 0 && cur[len(cur)-1].line != t.line {
			flush()
		}
		cur = append(cur, t)
	}
	flush()
	return blocks
}

// windows returns every contiguous run of groups holding 13-19 digits.
func (b digitBlock) windows() []cardCandidate {
	var out []cardCandidate
	for i := range b.tokens {
		var digits strings.Builder
		for j := i; j < len(b.tokens); j++ {
			digits.WriteString(onlyDigits(b.tokens[j].text))
			n := digits.Len()
			if n > maxPANDigits {
				break
			}
			if n >= minPANDigits {
				d := digits.String()
				out = append(out, cardCandidate{
					digits:     d,
					block:      digitBlock{tokens: b.tokens[i : j+1]},
					wholeBlock: i == 0 && j == len(b.tokens)-1,
					luhn:       luhnValid(d),
				})
			}
		}
	}
	return out
}

// scanCardNumbers returns card-number candidates: same-line blocks first,
// then blocks that continue across line breaks.
func scanCardNumbers(toks []token) (sameLine, crossLine []cardCandidate) {
	for _, b := range collectBlocks(toks, true) {
		sameLine = append(sameLine, b.windows()...)
	}
	for _, b := range collectBlocks(toks, false) {
		crossLine = append(crossLine, b.windows()...)
	}
	return sameLine, crossLine
}

// bestCardNumber picks the most plausible PAN. Luhn-valid candidates win,
// then candidates covering a whole block, then the first seen. Same-line
// candidates are preferred within each tier.
func bestCardNumber(toks []token) (cardCandidate, bool) {
	sameLine, crossLine := scanCardNumbers(toks)
	tiers := []func(cardCandidate) bool{
		func(c cardCandidate) bool { return c.luhn },
		func(c cardCandidate) bool { return c.wholeBlock },
		func(cardCandidate) bool { return true },
	}
	for _, accept := range tiers {
		for _, group := range [][]cardCandidate{sameLine, crossLine} {
			for _, c := range group {
				if accept(c) {
					return c, true
				}
			}
		}
	}
	return cardCandidate{}, false
}

// containsAny reports whether haystack contains any of the needles.
func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// countAny returns how many of the needles occur in haystack.
func countAny(haystack string, needles []string) int {
	n := 0
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			n++
		}
	}
	return n
}

// containsWord reports whether phrase occurs in haystack bounded by
// non-alphanumeric characters on both sides.
func containsWord(haystack, phrase string) bool {
	if phrase == "" {
		return false
	}
	from := 0
	for {
		i := strings.Index(haystack[from:], phrase)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(phrase)
		if !isWordByte(haystack, start-1) && !isWordByte(haystack, end) {
			return true
		}
		from = start + 1
	}
}

func isWordByte(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	c := s[i]
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func containsAnyWord(haystack string, phrases []string) bool {
	for _, p := range phrases {
		if containsWord(haystack, p) {
			return true
		}
	}
	return false
}
