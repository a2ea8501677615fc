package analysis

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	// expirySeparated matches MM/YY, MM-YY, MM/YYYY and MM-YYYY as a whole token.
	expirySeparated = regexp.MustCompile(`^(0[1-9]|1[0-2])[/-]([0-9]{2}|[0-9]{4})$`)
	// expiryBare matches MMYY as a whole token.
	expiryBare = regexp.MustCompile(`^(0[1-9]|1[0-2])([0-9]{2})$`)
)

type expiryCandidate struct {
	month     int
	year      int
	pos       int
	line      int
	separated bool
	keyword   bool
}

func (c expiryCandidate) String() string {
	return fmt.Sprintf("%02d/%02d", c.month, c.year%100)
}

// notPast reports whether the card is still valid at now. A card is valid
// through the last day of its expiry month.
func (c expiryCandidate) notPast(now time.Time) bool {
	y, m := now.Year(), int(now.Month())
	return c.year > y || (c.year == y && c.month >= m)
}

func (c expiryCandidate) before(o expiryCandidate) bool {
	if c.year != o.year {
		return c.year < o.year
	}
	return c.month < o.month
}

// findExpiryCandidates returns every expiry-shaped token. Tokens listed in
// exclude (positions of the card number block) are skipped. Tokens mixing
// letters and digits never match because matching is on the whole token.
func findExpiryCandidates(toks []token, lines []string, exclude map[int]struct{}) []expiryCandidate {
	var out []expiryCandidate
	for _, t := range toks {
		if _, skip := exclude[t.pos]; skip {
			continue
		}
		var month, year int
		var separated bool
		if m := expirySeparated.FindStringSubmatch(t.text); m != nil {
			month, _ = strconv.Atoi(m[1])
			year = expandYear(m[2])
			separated = true
		} else if m := expiryBare.FindStringSubmatch(t.text); m != nil {
			month, _ = strconv.Atoi(m[1])
			year = expandYear(m[2])
		} else {
			continue
		}
		keyword := false
		if t.line < len(lines) {
			keyword = containsAnyWord(strings.ToLower(lines[t.line]), expiryKeywords)
		}
		out = append(out, expiryCandidate{
			month:     month,
			year:      year,
			pos:       t.pos,
			line:      t.line,
			separated: separated,
			keyword:   keyword,
		})
	}
	return out
}

func expandYear(s string) int {
	y, _ := strconv.Atoi(s)
	if len(s) == 2 {
		return 2000 + y
	}
	return y
}

// pickExpiry chooses among candidates. Dates not yet past beat past dates;
// then a line carrying an expiry keyword wins, then an explicit separator,
// then the earliest position. When every candidate is past, the latest date
// wins, earliest position breaking ties.
func pickExpiry(cands []expiryCandidate, now time.Time) (expiryCandidate, bool) {
	if len(cands) == 0 {
		return expiryCandidate{}, false
	}
	var live []expiryCandidate
	for _, c := range cands {
		if c.notPast(now) {
			live = append(live, c)
		}
	}
	if len(live) > 0 {
		sort.SliceStable(live, func(i, j int) bool {
			a, b := live[i], live[j]
			if a.keyword != b.keyword {
				return a.keyword
			}
			if a.separated != b.separated {
				return a.separated
			}
			return a.pos < b.pos
		})
		return live[0], true
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if best.before(c) {
			best = c
		}
	}
	return best, true
}

// hasExpiryPattern reports whether any token is a separated MM/YY style date.
func hasExpiryPattern(toks []token) bool {
	for _, t := range toks {
		if expirySeparated.MatchString(t.text) {
			return true
		}
	}
	return false
}
