package analysis

import (
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"docintake/internal/domain"
)

// NormalizeKey lowercases key and strips underscores, hyphens and spaces.
func NormalizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, key)
}

type keyClass int

const (
	keyClassPlain keyClass = iota
	keyClassPhone
	keyClassIdentifier
)

// classifyKey derives the value class from the normalized key only, so keys
// that differ in case or separators always compare values the same way.
func classifyKey(rawKey string) keyClass {
	norm := NormalizeKey(rawKey)
	for _, frag := range phoneKeyFragments {
		if strings.Contains(norm, frag) {
			return keyClassPhone
		}
	}
	if strings.HasPrefix(norm, "tel") || strings.HasPrefix(norm, "cell") {
		return keyClassPhone
	}
	for _, frag := range identifierKeyFragments {
		if strings.Contains(norm, frag) {
			return keyClassIdentifier
		}
	}
	for _, suffix := range notIdentifierSuffixes {
		if strings.HasSuffix(norm, suffix) {
			return keyClassPlain
		}
	}
	if strings.HasSuffix(norm, "id") || strings.HasPrefix(norm, "idn") {
		return keyClassIdentifier
	}
	return keyClassPlain
}

// NormalizeValue returns the comparison form of value for the class of key.
// Phone-like keys keep digits and a leading '+'; identifier-like keys keep
// lowercased letters and digits; everything else is lowercased and trimmed.
// JSON-encoded values are treated as opaque strings.
func NormalizeValue(key, value string) string {
	switch classifyKey(key) {
	case keyClassPhone:
		return normalizePhone(value)
	case keyClassIdentifier:
		return strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, value)
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func normalizePhone(value string) string {
	value = strings.TrimSpace(value)
	var b strings.Builder
	if strings.HasPrefix(value, "+") {
		b.WriteByte('+')
	}
	b.WriteString(onlyDigits(value))
	return b.String()
}

// CompositeKey identifies fields that describe the same datum.
func CompositeKey(f domain.Field) string {
	return NormalizeKey(f.Key) + ":" + NormalizeValue(f.Key, f.Value)
}

// beats reports whether candidate should replace incumbent.
func beats(candidate, incumbent domain.Field) bool {
	if candidate.Confidence != incumbent.Confidence {
		return candidate.Confidence > incumbent.Confidence
	}
	return domain.IsHigherPriority(candidate.Source, incumbent.Source)
}

// Deduplicate collapses fields sharing a composite key into one winner.
// A higher confidence wins; on equal confidence a backend source beats a
// local one; otherwise the first seen is kept. The result is sorted by
// case-insensitive key. The input slice is not modified.
func Deduplicate(fields []domain.Field) []domain.Field {
	winners := make([]domain.Field, 0, len(fields))
	normValues := make([]string, 0, len(fields))
	index := make(map[string]int, len(fields))
	for _, f := range fields {
		ck := CompositeKey(f)
		if i, ok := index[ck]; ok {
			if beats(f, winners[i]) {
				winners[i] = f
				normValues[i] = NormalizeValue(f.Key, f.Value)
			}
			continue
		}
		index[ck] = len(winners)
		winners = append(winners, f)
		normValues = append(normValues, NormalizeValue(f.Key, f.Value))
	}

	order := make([]int, len(winners))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		fa, fb := winners[order[a]], winners[order[b]]
		ka, kb := strings.ToLower(fa.Key), strings.ToLower(fb.Key)
		if ka != kb {
			return ka < kb
		}
		va, vb := normValues[order[a]], normValues[order[b]]
		if va != vb {
			return va < vb
		}
		return fa.Key < fb.Key
	})

	out := make([]domain.Field, len(winners))
	for i, idx := range order {
		out[i] = winners[idx]
	}
	return out
}

// MergeSources flattens the candidate lists from several extraction passes
// and deduplicates them.
func MergeSources(passes ...[]domain.Field) []domain.Field {
	var all []domain.Field
	for _, p := range passes {
		all = append(all, p...)
	}
	return Deduplicate(all)
}

// ReconcilePlan lists the changes that bring a persisted field set in line
// with a deduplicated winner set.
type ReconcilePlan struct {
	Insert []domain.Field
	Delete []uuid.UUID
	Keep   []domain.Field
}

// PlanReconcile compares persisted fields against winners by ID. Winners
// already persisted are kept, new winners are inserted, and persisted
// fields that lost are deleted.
func PlanReconcile(existing, winners []domain.Field) ReconcilePlan {
	persisted := make(map[uuid.UUID]struct{}, len(existing))
	for _, f := range existing {
		persisted[f.ID] = struct{}{}
	}
	won := make(map[uuid.UUID]struct{}, len(winners))
	var plan ReconcilePlan
	for _, f := range winners {
		won[f.ID] = struct{}{}
		if _, ok := persisted[f.ID]; ok && f.ID != uuid.Nil {
			plan.Keep = append(plan.Keep, f)
		} else {
			plan.Insert = append(plan.Insert, f)
		}
	}
	for _, f := range existing {
		if _, ok := won[f.ID]; !ok {
			plan.Delete = append(plan.Delete, f.ID)
		}
	}
	return plan
}
