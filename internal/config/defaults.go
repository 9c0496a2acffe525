package config

import "time"

// Default reply texts (German, matching the default stopword and topic vocabulary).
const (
	DefaultFallbackMessage       = "Dazu habe ich leider keine passende Antwort gefunden. Schreib uns gern über das Kontaktformular."
	DefaultLowConfidenceMessage  = "Ich bin mir nicht ganz sicher, ob das deine Frage beantwortet. Falls nicht, hilft dir unser Team weiter."
	DefaultDisambiguationMessage = "Meintest du eine dieser Fragen?"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/kotae/data/db/kotae.db"
	}
	cfg.Matcher.ApplyDefaults()
	if cfg.Chat.MaxChoices == 0 {
		cfg.Chat.MaxChoices = 3
	}
	if cfg.Chat.FallbackMessage == "" {
		cfg.Chat.FallbackMessage = DefaultFallbackMessage
	}
	if cfg.Chat.LowConfidenceMessage == "" {
		cfg.Chat.LowConfidenceMessage = DefaultLowConfidenceMessage
	}
	if cfg.Chat.DisambiguationMessage == "" {
		cfg.Chat.DisambiguationMessage = DefaultDisambiguationMessage
	}
	if cfg.Chat.MatchTimeout == 0 {
		cfg.Chat.MatchTimeout = 2 * time.Second
	}
	// Watch defaults to true when files are configured.
	if len(cfg.Corpus.Files) > 0 && cfg.Corpus.Watch == nil {
		t := true
		cfg.Corpus.Watch = &t
	}
}
