// Package similarity compares free-text statement descriptions.
package similarity

import (
	"math"
	"regexp"
	"strings"
)

var (
	whitespace  = regexp.MustCompile(`\s+`)
	punctuation = regexp.MustCompile(`[[:punct:]]`)
	wordToken   = regexp.MustCompile(`[\p{L}\p{N}]+`)
	digitRun    = regexp.MustCompile(`\d+`)
)

// Options tunes Similar. The zero value is a non-strict, one-way
// containment check that ignores ASCII punctuation.
type Options struct {
	Strict                  bool
	DropPattern             *regexp.Regexp // nil drops ASCII punctuation
	AllowReverseContainment bool
}

// Clean collapses whitespace runs, removes matches of drop and trims.
func Clean(s string, drop *regexp.Regexp) string {
	if drop == nil {
		drop = punctuation
	}
	s = whitespace.ReplaceAllString(s, " ")
	s = drop.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Similar reports whether b matches a after cleaning both. Strict requires
// equality; otherwise b must be contained in a, or either way round when
// AllowReverseContainment is set.
func Similar(a, b string, opts Options) bool {
	a = Clean(a, opts.DropPattern)
	b = Clean(b, opts.DropPattern)
	if opts.Strict {
		return a == b
	}
	if strings.Contains(a, b) {
		return true
	}
	return opts.AllowReverseContainment && strings.Contains(b, a)
}

// MatchScore returns a 0.0-1.0 score, rounded to one decimal, of how likely
// a and b describe the same operation. Word overlap is weighted on a sine
// curve so near-identical word sets score high; reference numbers weigh as
// much as all the prose.
func MatchScore(a, b string) float64 {
	if Similar(a, b, Options{AllowReverseContainment: true}) {
		return 1.0
	}

	wordsA, wordsB := wordSet(a), wordSet(b)
	var wMax float64
	switch {
	case len(wordsA) == 0:
		wMax = 0
	case len(wordsA) < 2:
		wMax = 0.3
	default:
		wMax = 0.5
	}

	var wordScore float64
	maxW := max(len(wordsA), len(wordsB))
	if maxW > 0 {
		diffW := max(len(difference(wordsA, wordsB)), len(difference(wordsB, wordsA)))
		wordScore = math.Sin(math.Pi/2*float64(maxW-diffW)/float64(maxW)) * wMax
	}

	digitsA, digitsB := digitRun.FindAllString(a, -1), digitRun.FindAllString(b, -1)
	var dMax float64
	switch n := len(strings.Join(digitsA, "")); {
	case n == 0:
		dMax = 0
	case n < 3:
		dMax = 0.3
	default:
		dMax = 0.5
	}
	var digitScore float64
	if equalStrings(digitsA, digitsB) {
		digitScore = dMax
	}

	if wMax+dMax == 0 {
		return 0
	}
	return math.Round((wordScore+digitScore)/(wMax+dMax)*10) / 10
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range wordToken.FindAllString(s, -1) {
		set[w] = struct{}{}
	}
	return set
}

// difference returns the elements of a missing from b.
func difference(a, b map[string]struct{}) []string {
	var out []string
	for w := range a {
		if _, ok := b[w]; !ok {
			out = append(out, w)
		}
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
