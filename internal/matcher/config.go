package matcher

// Config holds every threshold, bonus and toggle of the matcher. The numeric
// defaults are the tuned production values; changing them shifts the
// confidence and disambiguation behavior.
type Config struct {
	// Acceptance and confidence thresholds
	MinScore                  int `yaml:"min_score"`                    // default: 60
	ConfidentScore            int `yaml:"confident_score"`              // default: 85
	LowConfidenceTopicCeiling int `yaml:"low_confidence_topic_ceiling"` // default: 100

	// Disambiguation policy
	AlternativeWindow   int `yaml:"alternative_window"`    // default: 20
	DisambiguationScore int `yaml:"disambiguation_score"`  // default: 85
	AlternativeMinScore int `yaml:"alternative_min_score"` // default: 70

	// Fuzzy keyword matching
	FuzzyMatching        *bool `yaml:"fuzzy_matching"`        // default: true
	LevenshteinThreshold int   `yaml:"levenshtein_threshold"` // default: 3
	FuzzyMinLength       int   `yaml:"fuzzy_min_length"`      // default: 4

	// Signal weights
	TopicBonus        int `yaml:"topic_bonus"`         // default: 40
	KeywordBonus      int `yaml:"keyword_bonus"`       // default: 30
	FuzzyBonus        int `yaml:"fuzzy_bonus"`         // default: 15
	BigramBonus       int `yaml:"bigram_bonus"`        // default: 8
	SimilarityWeight  int `yaml:"similarity_weight"`   // default: 20
	LongWordBonus     int `yaml:"long_word_bonus"`     // default: 3
	LongWordMinLength int `yaml:"long_word_min_length"` // default: 4

	// Vocabulary extensions
	Stopwords []string          `yaml:"stopwords"` // appended to the built-in German list
	Synonyms  map[string]string `yaml:"synonyms"`  // merged over DefaultSynonyms; empty value disables an entry

	// Parallel scoring for large corpora
	ParallelThreshold int `yaml:"parallel_threshold"` // default: 512
	Workers           int `yaml:"workers"`            // default: 0, resolved to GOMAXPROCS when scoring
}

// DefaultConfig returns the default matcher configuration.
func DefaultConfig() *Config {
	fuzzy := true
	return &Config{
		MinScore:                  60,
		ConfidentScore:            85,
		LowConfidenceTopicCeiling: 100,

		AlternativeWindow:   20,
		DisambiguationScore: 85,
		AlternativeMinScore: 70,

		FuzzyMatching:        &fuzzy,
		LevenshteinThreshold: 3,
		FuzzyMinLength:       4,

		TopicBonus:        40,
		KeywordBonus:      30,
		FuzzyBonus:        15,
		BigramBonus:       8,
		SimilarityWeight:  20,
		LongWordBonus:     3,
		LongWordMinLength: 4,

		ParallelThreshold: 512,
	}
}

// FuzzyEnabled returns whether fuzzy keyword matching is on; defaults to true when unset.
func (c *Config) FuzzyEnabled() bool {
	if c.FuzzyMatching != nil {
		return *c.FuzzyMatching
	}
	return true
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()

	// Thresholds
	if c.MinScore == 0 {
		c.MinScore = defaults.MinScore
	}
	if c.ConfidentScore == 0 {
		c.ConfidentScore = defaults.ConfidentScore
	}
	if c.LowConfidenceTopicCeiling == 0 {
		c.LowConfidenceTopicCeiling = defaults.LowConfidenceTopicCeiling
	}

	// Disambiguation
	if c.AlternativeWindow == 0 {
		c.AlternativeWindow = defaults.AlternativeWindow
	}
	if c.DisambiguationScore == 0 {
		c.DisambiguationScore = defaults.DisambiguationScore
	}
	if c.AlternativeMinScore == 0 {
		c.AlternativeMinScore = defaults.AlternativeMinScore
	}

	// Fuzzy
	if c.FuzzyMatching == nil {
		c.FuzzyMatching = defaults.FuzzyMatching
	}
	if c.LevenshteinThreshold == 0 {
		c.LevenshteinThreshold = defaults.LevenshteinThreshold
	}
	if c.FuzzyMinLength == 0 {
		c.FuzzyMinLength = defaults.FuzzyMinLength
	}

	// Weights
	if c.TopicBonus == 0 {
		c.TopicBonus = defaults.TopicBonus
	}
	if c.KeywordBonus == 0 {
		c.KeywordBonus = defaults.KeywordBonus
	}
	if c.FuzzyBonus == 0 {
		c.FuzzyBonus = defaults.FuzzyBonus
	}
	if c.BigramBonus == 0 {
		c.BigramBonus = defaults.BigramBonus
	}
	if c.SimilarityWeight == 0 {
		c.SimilarityWeight = defaults.SimilarityWeight
	}
	if c.LongWordBonus == 0 {
		c.LongWordBonus = defaults.LongWordBonus
	}
	if c.LongWordMinLength == 0 {
		c.LongWordMinLength = defaults.LongWordMinLength
	}

	// Parallelism
	if c.ParallelThreshold == 0 {
		c.ParallelThreshold = defaults.ParallelThreshold
	}
}

// DefaultSynonyms returns the built-in query rewrite table. Keys and values
// are normalized tokens; a query token equal to a key is replaced by the value
// before scoring.
func DefaultSynonyms() map[string]string {
	return map[string]string{
		"kostet":    "preis",
		"offen":     "oeffnungszeiten",
		"geoeffnet": "oeffnungszeiten",
		"leihen":    "ausleihen",
		"mieten":    "ausleihen",
	}
}
