// Package topic tags text with labels from a closed, hand-curated topic vocabulary.
package topic

import "strings"

// Labels of the built-in vocabulary.
const (
	Hours      = "hours"
	Pricing    = "pricing"
	Vouchers   = "vouchers"
	Equipment  = "equipment"
	Courses    = "courses"
	Events     = "events"
	Sharpening = "sharpening"
	Sizing     = "sizing"
)

// Topic is one vocabulary entry: a label and the literal substrings that
// signal it. Triggers are lowercase and may contain umlauts.
type Topic struct {
	Label    string   `yaml:"label" json:"label"`
	Triggers []string `yaml:"triggers" json:"triggers"`
}

// Vocabulary is an ordered topic table shared by query classification and
// candidate matching.
type Vocabulary struct {
	topics []Topic
	index  map[string]int
}

// Set is an ordered list of detected topic labels, in vocabulary order.
type Set []string

// Contains reports whether label is in the set.
func (s Set) Contains(label string) bool {
	for _, l := range s {
		if l == label {
			return true
		}
	}
	return false
}

// NewVocabulary builds a vocabulary from topics. Triggers are lowercased;
// empty triggers are dropped. A repeated label merges into the first entry.
func NewVocabulary(topics []Topic) *Vocabulary {
	v := &Vocabulary{index: make(map[string]int, len(topics))}
	for _, t := range topics {
		label := strings.TrimSpace(t.Label)
		if label == "" {
			continue
		}
		i, ok := v.index[label]
		if !ok {
			i = len(v.topics)
			v.index[label] = i
			v.topics = append(v.topics, Topic{Label: label})
		}
		for _, trig := range t.Triggers {
			trig = strings.ToLower(strings.TrimSpace(trig))
			if trig != "" {
				v.topics[i].Triggers = append(v.topics[i].Triggers, trig)
			}
		}
	}
	return v
}

// DefaultVocabulary returns the built-in vocabulary of an ice rink / skate
// rental FAQ: opening hours, prices, vouchers, rental equipment, courses,
// events, blade sharpening and skate sizes.
func DefaultVocabulary() *Vocabulary {
	return NewVocabulary(DefaultTopics())
}

// DefaultTopics returns a copy of the built-in topic table.
func DefaultTopics() []Topic {
	return []Topic{
		{Label: Hours, Triggers: []string{
			"öffnungszeit", "oeffnungszeit", "geöffnet", "geoeffnet", "offen",
			"uhrzeit", "schließ", "schliess", "feiertag", "ruhetag",
		}},
		{Label: Pricing, Triggers: []string{
			"preis", "kost", "eintritt", "gebühr", "gebuehr", "tarif", "euro", "€",
			"bezahl", "ermäßig", "ermaessig", "rabatt", "günstig", "guenstig", "teuer",
		}},
		{Label: Vouchers, Triggers: []string{
			"gutschein", "geschenk", "verschenk", "einlösen", "einloesen",
		}},
		{Label: Equipment, Triggers: []string{
			"ausleih", "verleih", "leihgebühr", "miete", "mieten", "helm",
			"schlittschuh", "ausrüstung", "ausruestung", "schoner",
		}},
		{Label: Courses, Triggers: []string{
			"kurs", "unterricht", "lernen", "training", "trainer", "anfänger", "anfaenger",
		}},
		{Label: Events, Triggers: []string{
			"veranstaltung", "event", "party", "geburtstag", "disco", "feiern",
		}},
		{Label: Sharpening, Triggers: []string{
			"schleif", "schärf", "schaerf", "kufe",
		}},
		{Label: Sizing, Triggers: []string{
			"größe", "groesse", "grösse", "schuhgr", "passt", "passen",
		}},
	}
}

// Topics returns a copy of the vocabulary table.
func (v *Vocabulary) Topics() []Topic {
	out := make([]Topic, len(v.topics))
	for i, t := range v.topics {
		out[i] = Topic{Label: t.Label, Triggers: append([]string(nil), t.Triggers...)}
	}
	return out
}

// Classify tags lowercased raw text with every topic that has at least one
// trigger contained in it. Text must be lowercased but not otherwise
// normalized, since triggers carry umlauts. An empty result is topic-neutral.
func (v *Vocabulary) Classify(lowered string) Set {
	var set Set
	for _, t := range v.topics {
		for _, trig := range t.Triggers {
			if strings.Contains(lowered, trig) {
				set = append(set, t.Label)
				break
			}
		}
	}
	return set
}

// MatchesAny reports whether lowered text contains any trigger of any topic in
// topics. Labels unknown to the vocabulary are ignored.
func (v *Vocabulary) MatchesAny(lowered string, topics Set) bool {
	for _, label := range topics {
		i, ok := v.index[label]
		if !ok {
			continue
		}
		for _, trig := range v.topics[i].Triggers {
			if strings.Contains(lowered, trig) {
				return true
			}
		}
	}
	return false
}
