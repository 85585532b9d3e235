// Package roundtrip helps compare two NSS renderings of the same script —
// typically the Emitter's output for a script against a hand-written or
// previously-known-good reference — without tripping over superficial
// differences a reference compiler would not care about. Actually invoking
// an external reference compiler is out of scope (spec §1, Non-goals); this
// package only normalizes and diffs text a caller already has in hand.
package roundtrip

import (
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

var (
	lineCommentRe  = regexp.MustCompile(`//[^\n]*`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	floatSuffixRe  = regexp.MustCompile(`(\d)[fF]\b`)
	wsRunRe        = regexp.MustCompile(`[ \t]+`)
)

// Normalize reduces an NSS source to a canonical form so two renderings
// that differ only in comments, incidental whitespace, or the spelling of
// a handful of interchangeable literals (spec §6, constant folding) compare
// equal. It is not a parser: it is the same kind of surface-level folding
// the Emitter itself performs on literals (lang/ast's litText), applied in
// reverse to the text of an already-rendered script.
func Normalize(nss string) string {
	s := blockCommentRe.ReplaceAllString(nss, "")
	s = lineCommentRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "TRUE", "1")
	s = strings.ReplaceAll(s, "FALSE", "0")
	s = floatSuffixRe.ReplaceAllString(s, "$1")

	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, ln := range lines {
		ln = wsRunRe.ReplaceAllString(strings.TrimSpace(ln), " ")
		if ln != "" {
			out = append(out, ln)
		}
	}
	return strings.Join(out, "\n")
}

// Equal reports whether a and b normalize to the same text.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Diff returns a unified diff between the normalized forms of a and b,
// labeled "want"/"got"; it returns the empty string when they normalize
// equal.
func Diff(want, got string) (string, error) {
	wantNorm, gotNorm := Normalize(want), Normalize(got)
	if wantNorm == gotNorm {
		return "", nil
	}
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(wantNorm),
		B:        difflib.SplitLines(gotNorm),
		FromFile: "want",
		ToFile:   "got",
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(ud)
}
