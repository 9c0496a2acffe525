package matcher

import (
	"math"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/similarity"
	"github.com/hyperjump/kotae/internal/textnorm"
)

// Score computes the additive relevance of faq for a prepared query.
//
// Signals, all summed:
//   - topic gate: bonus when the FAQ text mentions a topic of the query
//   - exact keyword containment, per keyword
//   - fuzzy keyword match, at most once per keyword
//   - shared word bigrams with the question
//   - global similar_text percentage with the question
//   - shared long words with the question
func (m *Matcher) Score(q *Query, faq *models.FAQ) ScoreResult {
	cfg := m.config
	var res ScoreResult

	// An empty topic set carries no signal to penalize against.
	if len(q.Topics) == 0 {
		res.TopicMatch = true
	} else {
		text := textnorm.LowerRaw(faq.Question + " " + faq.Answer + " " + faq.Keywords)
		if m.vocab.MatchesAny(text, q.Topics) {
			res.Score += cfg.TopicBonus
			res.TopicMatch = true
		}
	}

	keywords := m.normalizeKeywords(faq.Keywords)
	for _, kw := range keywords {
		if strings.Contains(q.Normalized, kw) {
			res.Score += cfg.KeywordBonus
			res.KeywordMatch = true
		}
	}

	if cfg.FuzzyEnabled() {
		res.Score += m.fuzzyScore(q.Tokens, keywords)
	}

	question := m.NormalizeQuestion(faq.Question)

	if len(q.bigrams) > 0 {
		shared := 0
		for b := range textnorm.Bigrams(question) {
			if _, ok := q.bigrams[b]; ok {
				shared++
			}
		}
		res.Score += shared * cfg.BigramBonus
	}

	percent := similarity.SimilarPercent(q.Normalized, question)
	res.Score += int(math.Round(percent / 100 * float64(cfg.SimilarityWeight)))

	if len(q.longWords) > 0 {
		shared := 0
		for w := range textnorm.LongTokens(question, cfg.LongWordMinLength) {
			if _, ok := q.longWords[w]; ok {
				shared++
			}
		}
		res.Score += shared * cfg.LongWordBonus
	}

	return res
}

// fuzzyScore awards one bonus per keyword that some query token is close to
// without being equal.
func (m *Matcher) fuzzyScore(tokens, keywords []string) int {
	cfg := m.config
	score := 0
	for _, kw := range keywords {
		if len(kw) < cfg.FuzzyMinLength {
			continue
		}
		for _, tok := range tokens {
			if len(tok) < cfg.FuzzyMinLength {
				continue
			}
			if similarity.WithinDistance(tok, kw, cfg.LevenshteinThreshold) {
				score += cfg.FuzzyBonus
				break
			}
		}
	}
	return score
}

// normalizeKeywords normalizes and rewrites each comma-separated keyword on
// its own and drops the ones that normalize to nothing.
func (m *Matcher) normalizeKeywords(keywords string) []string {
	list := models.SplitKeywords(keywords)
	out := list[:0]
	for _, kw := range list {
		if n := m.rewrite(textnorm.Normalize(kw)); n != "" {
			out = append(out, n)
		}
	}
	return out
}
