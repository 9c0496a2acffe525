// Package textnorm folds free text into the ASCII token form used for matching.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var umlautFolds = strings.NewReplacer(
	"ä", "ae",
	"ö", "oe",
	"ü", "ue",
	"ß", "ss",
)

// Normalize lowercases text, folds German umlauts to ASCII digraphs, drops
// everything that is not [a-z0-9] or whitespace and collapses whitespace runs.
// The result contains only [a-z0-9 ], so Normalize is idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	folded := umlautFolds.Replace(LowerRaw(text))

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			pendingSpace = true
		}
	}
	return b.String()
}

// LowerRaw lowercases text without folding or stripping anything. Topic
// vocabularies are written with native umlauts and match against this form.
func LowerRaw(text string) string {
	// Casers carry state and must not be shared between goroutines.
	return cases.Lower(language.German).String(norm.NFC.String(text))
}

// Tokens splits normalized text on single spaces, skipping empty tokens.
func Tokens(normalized string) []string {
	if normalized == "" {
		return nil
	}
	parts := strings.Split(normalized, " ")
	tokens := parts[:0]
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// LongTokens returns the distinct tokens of normalized text with at least minLen bytes.
func LongTokens(normalized string, minLen int) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Tokens(normalized) {
		if len(tok) >= minLen {
			set[tok] = struct{}{}
		}
	}
	return set
}

// Bigrams returns the set of adjacent word pairs ("w1 w2") of normalized text.
func Bigrams(normalized string) map[string]struct{} {
	tokens := Tokens(normalized)
	set := make(map[string]struct{}, len(tokens))
	for i := 0; i+1 < len(tokens); i++ {
		set[tokens[i]+" "+tokens[i+1]] = struct{}{}
	}
	return set
}
