package similarity

import (
	"regexp"
	"testing"
)

func TestSimilar(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		opts Options
		want bool
	}{
		{"punctuation ignored", "INMO, S.L.", "INMO S.L", Options{}, true},
		{"strict requires equality", "INMO, S.L.", "INMO S.", Options{Strict: true}, false},
		{"strict equal after cleaning", "INMO,  S.L.", "INMO S.L", Options{Strict: true}, true},
		{"b contained in a", "TRANSFER FROM ACME LTD", "ACME", Options{}, true},
		{"a in b needs reverse", "ACME", "TRANSFER FROM ACME LTD", Options{}, false},
		{"a in b with reverse", "ACME", "TRANSFER FROM ACME LTD", Options{AllowReverseContainment: true}, true},
		{"whitespace runs collapsed", "CARD\t\tPAYMENT   SHOP", "CARD PAYMENT SHOP", Options{Strict: true}, true},
		{"custom drop pattern", "REF-001", "REF001", Options{Strict: true, DropPattern: regexp.MustCompile(`-`)}, true},
		{"case sensitive", "acme", "ACME", Options{AllowReverseContainment: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similar(tt.a, tt.b, tt.opts); got != tt.want {
				t.Errorf("Similar(%q, %q, %+v) = %v, want %v", tt.a, tt.b, tt.opts, got, tt.want)
			}
		})
	}
}

func TestMatchScore(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "PAYMENT CARD 4321 SHOP", "PAYMENT CARD 4321 SHOP", 1.0},
		{"containment", "TRANSFER 12345 ACME", "TRANSFER 12345 ACME LTD", 1.0},
		{"one word differs same reference", "PAYMENT CARD 4321 SHOP", "PAYMENT CARD 4321 STORE", 1.0},
		{"reference differs", "PAYMENT CARD 4321 SHOP", "PAYMENT CARD 9999 STORE", 0.4},
		{"prose only", "RENT MAY", "RENT JUNE", 0.7},
		{"single disjoint word", "ABC", "XYZ", 0.0},
		{"short reference differs", "REF 12", "REF 13", 0.4},
		{"nothing to compare", "...", "!!", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchScore(tt.a, tt.b); got != tt.want {
				t.Errorf("MatchScore(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestMatchScore_SelfIsOne(t *testing.T) {
	for _, s := range []string{"x", "SEPA DIRECT DEBIT 0099 GAS", "Ñandú café 7"} {
		if got := MatchScore(s, s); got != 1.0 {
			t.Errorf("MatchScore(%q, itself) = %v, want 1.0", s, got)
		}
	}
}

func TestMatchScore_NoWordsNoDigits(t *testing.T) {
	// Symbols survive cleaning but yield neither words nor digits.
	if got := MatchScore("€", "£"); got != 0 {
		t.Errorf("MatchScore(€, £) = %v, want 0", got)
	}
}

func TestMatchScore_BlankDescriptionMatchesAnything(t *testing.T) {
	// A description that cleans to "" is contained in every other one.
	for _, blank := range []string{"", "   ", "*** -- ..."} {
		for _, other := range []string{"GROCERY STORE", "TRANSFER 0042", ""} {
			if got := MatchScore(blank, other); got != 1.0 {
				t.Errorf("MatchScore(%q, %q) = %v, want 1.0", blank, other, got)
			}
			if got := MatchScore(other, blank); got != 1.0 {
				t.Errorf("MatchScore(%q, %q) = %v, want 1.0", other, blank, got)
			}
		}
	}
	if Similar("", "GROCERY STORE", Options{Strict: true}) {
		t.Error("strict comparison must not treat a blank description as equal")
	}
}
