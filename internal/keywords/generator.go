// Package keywords derives keyword lists for FAQ authoring from a question and its answer.
package keywords

import (
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/hyperjump/kotae/internal/textnorm"
)

const (
	minTokenLength = 3
	maxAnswerTerms = 5
	maxKeywords    = 20
	shortWordLimit = 6
)

var markupTag = regexp.MustCompile(`<[^>]*>`)

// questionWords are interrogatives and auxiliaries that never make useful keywords.
var questionWords = []string{
	"wie", "was", "wo", "wann", "warum", "wer", "wen", "wem", "wessen",
	"welche", "welcher", "welches", "welchen", "welchem",
	"wieso", "weshalb", "woher", "wohin", "womit", "wozu", "wieviel", "wieviele",
	"kann", "koennen", "gibt", "habt", "darf", "muss",
}

// Generator extracts keyword candidates. It is stateless after construction.
type Generator struct {
	stopwords textnorm.Stopwords
}

// New returns a Generator filtering the default German stopwords plus extra.
func New(extra ...string) *Generator {
	return &Generator{stopwords: textnorm.DefaultStopwords().With(questionWords...).With(extra...)}
}

var defaultGenerator = New()

// Generate returns up to 20 comma-separated keywords for an FAQ entry.
func Generate(question, answer string) string {
	return defaultGenerator.Generate(question, answer)
}

// Generate returns up to 20 comma-separated keywords for an FAQ entry.
func (g *Generator) Generate(question, answer string) string {
	return strings.Join(g.GenerateList(question, answer), ", ")
}

// GenerateList returns the keywords ordered by descending length.
// All question terms are kept; the answer contributes its most frequent terms.
func (g *Generator) GenerateList(question, answer string) []string {
	base := dedupe(append(g.terms(question), topTerms(g.terms(StripMarkup(answer)), maxAnswerTerms)...))

	expanded := make([]string, 0, len(base)*3)
	for _, w := range base {
		expanded = append(expanded, w)
		expanded = append(expanded, Variants(w)...)
	}
	expanded = dedupe(expanded)

	sort.SliceStable(expanded, func(i, j int) bool {
		return len(expanded[i]) > len(expanded[j])
	})
	if len(expanded) > maxKeywords {
		expanded = expanded[:maxKeywords]
	}
	return expanded
}

// terms returns the filtered tokens of text in order, duplicates included.
func (g *Generator) terms(text string) []string {
	tokens := textnorm.Tokens(textnorm.RemoveStopwords(textnorm.Normalize(text), g.stopwords))
	out := tokens[:0]
	for _, tok := range tokens {
		if len(tok) >= minTokenLength {
			out = append(out, tok)
		}
	}
	return out
}

func dedupe(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := words[:0]
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// topTerms returns at most n distinct tokens by frequency; ties keep first occurrence order.
func topTerms(tokens []string, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, tok := range tokens {
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

// StripMarkup removes HTML tags and decodes entities.
func StripMarkup(s string) string {
	return html.UnescapeString(markupTag.ReplaceAllString(s, " "))
}

// Variants returns German singular/plural and umlaut spellings of a
// normalized word. The word itself is not included; variants shorter than
// three characters are dropped.
func Variants(w string) []string {
	var out []string
	push := func(v string) {
		if len(v) >= minTokenLength && v != w {
			out = append(out, v)
		}
	}

	switch {
	case strings.HasSuffix(w, "en"):
		push(w[:len(w)-2])
		push(w[:len(w)-1])
	case strings.HasSuffix(w, "e"):
		push(w + "n")
	case endsInConsonant(w):
		push(w + "en")
	}
	if strings.HasSuffix(w, "s") {
		push(w[:len(w)-1])
	}
	if strings.HasSuffix(w, "er") {
		push(w[:len(w)-2])
	}

	if len(w) <= shortWordLimit {
		if folded := foldDigraphs(w); folded != w {
			push(folded)
		} else if i := strings.IndexAny(w, "aou"); i >= 0 {
			push(w[:i+1] + "e" + w[i+1:])
		}
	}
	return out
}

var digraphFolder = strings.NewReplacer("ae", "a", "oe", "o", "ue", "u")

func foldDigraphs(w string) string {
	return digraphFolder.Replace(w)
}

func endsInConsonant(w string) bool {
	if w == "" {
		return false
	}
	c := w[len(w)-1]
	return c >= 'a' && c <= 'z' && !strings.ContainsRune("aeiou", rune(c))
}
