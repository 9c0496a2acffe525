package textnorm

import "strings"

// defaultStopwords is the German function-word list applied to queries and
// FAQ questions before scoring. Entries are normalized on load, so umlaut
// spellings and their digraph forms are equivalent.
var defaultStopwords = []string{
	"der", "die", "das", "den", "dem", "des",
	"ein", "eine", "einer", "eines", "einem", "einen",
	"und", "oder", "aber", "sowie", "auch", "noch", "nur", "schon", "so",
	"ist", "sind", "war", "waren", "wird", "werden", "wurde", "sein", "seid",
	"bin", "bist", "habe", "hast", "hat", "haben", "habt", "hatte",
	"kann", "kannst", "koennen", "könnt", "muss", "musst", "muessen", "soll",
	"darf", "duerfen", "moechte", "möchten", "will", "wollen",
	"ich", "du", "er", "sie", "es", "wir", "ihr", "man",
	"mich", "mir", "dich", "dir", "uns", "euch", "ihnen", "sich",
	"mein", "meine", "meinen", "meinem", "dein", "deine", "euer", "eure", "euren", "unser", "unsere",
	"wie", "was", "wo", "wann", "warum", "wer", "wen", "wem", "welche", "welcher", "welches",
	"wieso", "weshalb", "woher", "wohin", "womit",
	"mit", "von", "zu", "zum", "zur", "im", "in", "am", "an", "auf", "aus", "bei",
	"für", "über", "um", "nach", "vor", "bis", "ab", "durch", "gegen", "ohne",
	"nicht", "kein", "keine", "keinen", "da", "dass", "denn", "wenn", "ob", "als",
	"gibt", "bitte", "mal", "hallo", "hi", "danke", "eigentlich", "dort", "hier",
}

// Stopwords is a set of normalized tokens dropped by RemoveStopwords.
type Stopwords map[string]struct{}

// NewStopwords builds a set from words, normalizing each entry.
func NewStopwords(words ...string) Stopwords {
	sw := make(Stopwords, len(words))
	sw.add(words)
	return sw
}

// DefaultStopwords returns a fresh copy of the built-in German list.
func DefaultStopwords() Stopwords {
	return NewStopwords(defaultStopwords...)
}

// With returns a copy of sw extended by extra.
func (sw Stopwords) With(extra ...string) Stopwords {
	out := make(Stopwords, len(sw)+len(extra))
	for w := range sw {
		out[w] = struct{}{}
	}
	out.add(extra)
	return out
}

// Contains reports whether the normalized token is a stopword.
func (sw Stopwords) Contains(token string) bool {
	_, ok := sw[token]
	return ok
}

func (sw Stopwords) add(words []string) {
	for _, w := range words {
		// Multi-word entries normalize to several tokens; each one is a stopword.
		for _, tok := range Tokens(Normalize(w)) {
			sw[tok] = struct{}{}
		}
	}
}

// RemoveStopwords drops stopword tokens from normalized text and rejoins the
// remainder with single spaces.
func RemoveStopwords(normalized string, sw Stopwords) string {
	tokens := Tokens(normalized)
	kept := tokens[:0]
	for _, tok := range tokens {
		if !sw.Contains(tok) {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}
