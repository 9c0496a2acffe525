package matcher

import (
	"strings"

	"github.com/hyperjump/kotae/internal/textnorm"
	"github.com/hyperjump/kotae/internal/topic"
)

// Matcher scores and ranks FAQs. It holds only read-only configuration and is
// safe for concurrent use.
type Matcher struct {
	config    *Config
	stopwords textnorm.Stopwords
	synonyms  map[string]string
	vocab     *topic.Vocabulary
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithVocabulary replaces the built-in topic vocabulary.
func WithVocabulary(v *topic.Vocabulary) Option {
	return func(m *Matcher) {
		if v != nil {
			m.vocab = v
		}
	}
}

// New creates a Matcher. A nil config uses DefaultConfig; zero fields are
// filled with defaults. The config is copied, so later changes by the caller
// do not affect the matcher.
func New(cfg *Config, opts ...Option) *Matcher {
	c := DefaultConfig()
	if cfg != nil {
		copied := *cfg
		c = &copied
	}
	c.ApplyDefaults()

	m := &Matcher{
		config:    c,
		stopwords: textnorm.DefaultStopwords().With(c.Stopwords...),
		synonyms:  buildSynonyms(c.Synonyms),
		vocab:     topic.DefaultVocabulary(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// buildSynonyms merges overrides over the defaults and normalizes both sides.
func buildSynonyms(overrides map[string]string) map[string]string {
	merged := DefaultSynonyms()
	for k, v := range overrides {
		merged[k] = v
	}
	out := make(map[string]string, len(merged))
	for k, v := range merged {
		key, val := textnorm.Normalize(k), textnorm.Normalize(v)
		if key == "" || val == "" || strings.Contains(key, " ") {
			continue
		}
		out[key] = val
	}
	return out
}

// Config returns a copy of the effective configuration.
func (m *Matcher) Config() Config {
	return *m.config
}

// Vocabulary returns the topic vocabulary in use.
func (m *Matcher) Vocabulary() *topic.Vocabulary {
	return m.vocab
}

// PrepareQuery normalizes, strips, rewrites and classifies a raw question.
// The result can be scored against any number of candidates.
func (m *Matcher) PrepareQuery(raw string) *Query {
	lowered := textnorm.LowerRaw(raw)
	normalized := m.rewrite(textnorm.RemoveStopwords(textnorm.Normalize(raw), m.stopwords))
	return &Query{
		Raw:        raw,
		Lowered:    lowered,
		Normalized: normalized,
		Tokens:     textnorm.Tokens(normalized),
		Topics:     m.vocab.Classify(lowered),
		bigrams:    textnorm.Bigrams(normalized),
		longWords:  textnorm.LongTokens(normalized, m.config.LongWordMinLength),
	}
}

// NormalizeQuestion returns the form of an FAQ question that queries are
// compared with. It goes through the same rewrite as queries.
func (m *Matcher) NormalizeQuestion(question string) string {
	return m.rewrite(textnorm.RemoveStopwords(textnorm.Normalize(question), m.stopwords))
}

// rewrite replaces colloquial tokens by their canonical FAQ vocabulary.
func (m *Matcher) rewrite(normalized string) string {
	if len(m.synonyms) == 0 || normalized == "" {
		return normalized
	}
	tokens := textnorm.Tokens(normalized)
	changed := false
	for i, tok := range tokens {
		if canonical, ok := m.synonyms[tok]; ok {
			tokens[i] = canonical
			changed = true
		}
	}
	if !changed {
		return normalized
	}
	return strings.Join(tokens, " ")
}
