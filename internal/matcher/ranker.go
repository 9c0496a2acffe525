package matcher

import (
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/hyperjump/kotae/internal/models"
)

// FindBestMatch ranks the active FAQs of corpus against rawQuery and applies
// the confidence and disambiguation policy. It returns nil when the query is
// blank, the corpus has no active entry, or no candidate reaches MinScore.
func (m *Matcher) FindBestMatch(rawQuery string, corpus []*models.FAQ) *MatchOutcome {
	if strings.TrimSpace(rawQuery) == "" {
		return nil
	}
	active := activeOnly(corpus)
	if len(active) == 0 {
		return nil
	}

	cfg := m.config
	scored := m.scoreAll(m.PrepareQuery(rawQuery), active)

	passed := scored[:0]
	for _, c := range scored {
		if c.Score >= cfg.MinScore {
			passed = append(passed, c)
		}
	}
	if len(passed) == 0 {
		return nil
	}
	sortByScore(passed)

	best := passed[0]
	outcome := &MatchOutcome{
		Best:         best.FAQ,
		Score:        best.Score,
		KeywordMatch: best.KeywordMatch,
		TopicMatch:   best.TopicMatch,
	}

	outcome.LowConfidence = (best.Score < cfg.ConfidentScore && !best.KeywordMatch) ||
		(!best.TopicMatch && best.Score < cfg.LowConfidenceTopicCeiling)

	for _, c := range passed[1:] {
		if best.Score-c.Score < cfg.AlternativeWindow {
			outcome.Alternatives = append(outcome.Alternatives, c)
		}
	}

	if len(passed) >= 2 && len(outcome.Alternatives) > 0 {
		outcome.NeedsDisambiguation = best.Score < cfg.DisambiguationScore ||
			outcome.Alternatives[0].Score >= cfg.AlternativeMinScore
	}

	return outcome
}

// RankAll scores every active FAQ and returns them score descending, without
// applying MinScore. Used to explain a decision.
func (m *Matcher) RankAll(rawQuery string, corpus []*models.FAQ) []RankedCandidate {
	if strings.TrimSpace(rawQuery) == "" {
		return nil
	}
	active := activeOnly(corpus)
	if len(active) == 0 {
		return nil
	}
	ranked := m.scoreAll(m.PrepareQuery(rawQuery), active)
	sortByScore(ranked)
	return ranked
}

// scoreAll scores candidates in corpus order. Large corpora are split across
// workers; each worker writes only its own index range, so the result order
// does not depend on scheduling.
func (m *Matcher) scoreAll(q *Query, corpus []*models.FAQ) []RankedCandidate {
	out := make([]RankedCandidate, len(corpus))
	score := func(i int) {
		r := m.Score(q, corpus[i])
		out[i] = RankedCandidate{
			FAQ:          corpus[i],
			Score:        r.Score,
			KeywordMatch: r.KeywordMatch,
			TopicMatch:   r.TopicMatch,
		}
	}

	workers := m.config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers <= 1 || len(corpus) < m.config.ParallelThreshold {
		for i := range corpus {
			score(i)
		}
		return out
	}

	chunk := (len(corpus) + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < len(corpus); start += chunk {
		end := min(start+chunk, len(corpus))
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				score(i)
			}
		}(start, end)
	}
	wg.Wait()
	return out
}

// sortByScore orders candidates score descending; equal scores keep corpus order.
func sortByScore(c []RankedCandidate) {
	sort.SliceStable(c, func(i, j int) bool {
		return c[i].Score > c[j].Score
	})
}

func activeOnly(corpus []*models.FAQ) []*models.FAQ {
	out := make([]*models.FAQ, 0, len(corpus))
	for _, f := range corpus {
		if f != nil && f.Active {
			out = append(out, f)
		}
	}
	return out
}
