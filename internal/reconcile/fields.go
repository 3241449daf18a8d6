package reconcile

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Row is one raw record from the external feed. Key names vary across
// feed versions ("I.I.B." vs "IIB"), so lookups go through NormalizeKey
// and the versioned alias lists in aliases.yaml.
type Row map[string]any

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeKey decomposes accents, lowercases and strips everything
// that is not a letter or digit, so "I.Í.B." and "iib" collide.
func NormalizeKey(key string) string {
	stripped, _, err := transform.String(accentStripper, key)
	if err != nil {
		stripped = key
	}

	var b strings.Builder
	for _, r := range strings.ToLower(stripped) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizedRow(row Row) map[string]any {
	m := make(map[string]any, len(row))
	for k, v := range row {
		m[NormalizeKey(k)] = v
	}
	return m
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// ResolveValue tries the candidate keys in priority order and returns
// the first present, non-empty value parsed as a number. 0 when none
// match.
func ResolveValue(row Row, candidates []string) float64 {
	normalized := normalizedRow(row)
	for _, candidate := range candidates {
		if v, ok := normalized[NormalizeKey(candidate)]; ok && !isEmptyValue(v) {
			return ParseNumber(v)
		}
	}
	return 0
}

// ResolveString is ResolveValue for textual fields (station label,
// product name).
func ResolveString(row Row, candidates []string) string {
	normalized := normalizedRow(row)
	for _, candidate := range candidates {
		v, ok := normalized[NormalizeKey(candidate)]
		if !ok || isEmptyValue(v) {
			continue
		}
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
		return strings.TrimSpace(fmt.Sprint(v))
	}
	return ""
}

// HasAnyKey reports whether any candidate key is present with a
// non-empty value. It distinguishes "field present but zero" from
// "field absent", which matters for oils: zero is a legitimate value
// there.
func HasAnyKey(row Row, candidates []string) bool {
	normalized := normalizedRow(row)
	for _, candidate := range candidates {
		if v, ok := normalized[NormalizeKey(candidate)]; ok && !isEmptyValue(v) {
			return true
		}
	}
	return false
}
