// Package isbn validates ISBN identifiers harvested from upstream documents.
// The inputs come from regex searches over PDFs, so they arrive with hyphens,
// spaces, "ISBN"/"ISBN-10"/"ISBN-13" prefixes, and the occasional placeholder
// token that is not an ISBN at all.
package isbn

import (
	"regexp"
	"strings"
)

// Placeholder is the token upstream harvesting inserts for course readers
// that have no ISBN. It is dropped before validation.
const Placeholder = "syllabus"

var prefixRe = regexp.MustCompile(`^ISBN(?:-1[03])?:?`)

// Normalize strips hyphens, spaces, and a leading ISBN prefix from a raw
// identifier. It does not validate the result.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = prefixRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}

// Validate normalizes a raw identifier and checks its ISBN-10 or ISBN-13
// check character. It returns the normalized identifier and whether it is a
// valid ISBN. The placeholder token and anything that is not 10 or 13
// characters after normalization are rejected.
func Validate(raw string) (string, bool) {
	s := Normalize(raw)
	if s == "" || strings.EqualFold(s, Placeholder) {
		return "", false
	}

	last := s[len(s)-1]
	digits := s[:len(s)-1]

	switch len(digits) {
	case 9:
		check, ok := checkDigit10(digits)
		return s, ok && check == last
	case 12:
		check, ok := checkDigit13(digits)
		return s, ok && check == last
	default:
		return s, false
	}
}

// checkDigit10 computes the ISBN-10 check character for nine digits.
// The sum weights digits by position+2 counting from the right, and the
// check is 11 - (sum mod 11), with 10 rendered as 'X' and 11 as '0'.
func checkDigit10(digits string) (byte, bool) {
	sum := 0
	for i := 0; i < len(digits); i++ {
		d := digits[len(digits)-1-i]
		if d < '0' || d > '9' {
			return 0, false
		}
		sum += (i + 2) * int(d-'0')
	}

	check := 11 - (sum % 11)
	switch check {
	case 10:
		return 'X', true
	case 11:
		return '0', true
	default:
		return byte('0' + check), true
	}
}

// checkDigit13 computes the ISBN-13 check character for twelve digits,
// with alternating weights 1 and 3 starting at 1. A computed value of 10
// renders as '0'.
func checkDigit13(digits string) (byte, bool) {
	sum := 0
	for i := 0; i < len(digits); i++ {
		d := digits[i]
		if d < '0' || d > '9' {
			return 0, false
		}
		sum += (i%2*2 + 1) * int(d-'0')
	}

	check := 10 - (sum % 10)
	if check == 10 {
		return '0', true
	}
	return byte('0' + check), true
}

// Dedupe removes later duplicates from a list of identifiers, preserving
// first-seen order. The catalog API is billed per call, so each identifier
// is looked up at most once.
func Dedupe(identifiers []string) []string {
	seen := make(map[string]struct{}, len(identifiers))
	out := make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
