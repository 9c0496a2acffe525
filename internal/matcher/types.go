// Package matcher ranks FAQ entries against free-text questions and decides
// whether the best candidate can be answered directly, needs a choice list, or
// should fall back to the contact path.
package matcher

import (
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/topic"
)

// ScoreResult is the relevance of one FAQ for one query.
type ScoreResult struct {
	Score        int  `json:"score"`
	KeywordMatch bool `json:"keyword_match"`
	TopicMatch   bool `json:"topic_match"`
}

// RankedCandidate is an FAQ with its score, as ordered by the ranker.
type RankedCandidate struct {
	FAQ          *models.FAQ `json:"faq"`
	Score        int         `json:"score"`
	KeywordMatch bool        `json:"keyword_match"`
	TopicMatch   bool        `json:"topic_match"`
}

// MatchOutcome is the ranker's decision for one query. A nil *MatchOutcome
// means no candidate reached the minimum score.
type MatchOutcome struct {
	Best  *models.FAQ `json:"best"`
	Score int         `json:"score"`
	// Alternatives are the other candidates within the alternative window of
	// Best, score descending. Best is never among them.
	Alternatives        []RankedCandidate `json:"alternatives"`
	NeedsDisambiguation bool              `json:"needs_disambiguation"`
	LowConfidence       bool              `json:"low_confidence"`
	KeywordMatch        bool              `json:"keyword_match"`
	TopicMatch          bool              `json:"topic_match"`
}

// Query is a question prepared once for scoring against many candidates.
type Query struct {
	// Raw is the original input.
	Raw string
	// Lowered is Raw lowercased only; topic triggers match against it.
	Lowered string
	// Normalized is the folded, stopword-free and rewritten form.
	Normalized string
	// Tokens are the tokens of Normalized.
	Tokens []string
	// Topics are the topic labels detected in Lowered.
	Topics topic.Set

	bigrams   map[string]struct{}
	longWords map[string]struct{}
}

// Quality labels returned by MatchQuality.
const (
	QualityHigh   = "high"
	QualityMedium = "medium"
	QualityLow    = "low"
)

// MatchQuality maps a score to a presentational label.
func MatchQuality(score int) string {
	switch {
	case score >= 80:
		return QualityHigh
	case score >= 60:
		return QualityMedium
	default:
		return QualityLow
	}
}
