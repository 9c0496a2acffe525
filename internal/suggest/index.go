// Package suggest provides question autocomplete over the active FAQ corpus using an in-memory Bleve index.
package suggest

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/textnorm"
)

const (
	textField    = "text"
	defaultLimit = 5
	fuzziness    = 2
)

// Suggestion is one autocomplete candidate.
type Suggestion struct {
	FAQID    string  `json:"faq_id"`
	Question string  `json:"question"`
	Score    float64 `json:"score"`
}

// Index is a rebuildable autocomplete index. Safe for concurrent use.
type Index struct {
	mu        sync.RWMutex
	index     bleve.Index
	questions map[string]string
	stopwords textnorm.Stopwords
}

// NewIndex returns an empty index. extraStopwords extend the default German
// list; pass the matcher's configured stopwords so both tokenize alike.
func NewIndex(extraStopwords ...string) (*Index, error) {
	idx, err := newMemIndex()
	if err != nil {
		return nil, err
	}
	return &Index{
		index:     idx,
		questions: map[string]string{},
		stopwords: textnorm.DefaultStopwords().With(extraStopwords...),
	}, nil
}

func newMemIndex() (bleve.Index, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Text is pre-normalized; the standard analyzer only tokenizes and lowercases.
	textFieldMapping.Analyzer = standard.Name
	textFieldMapping.Store = false
	docMapping.AddFieldMappingsAt(textField, textFieldMapping)
	im.DefaultMapping = docMapping

	idx, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return idx, nil
}

// Rebuild replaces the indexed corpus with faqs. Inactive entries are skipped.
func (s *Index) Rebuild(faqs []*models.FAQ) error {
	idx, err := newMemIndex()
	if err != nil {
		return err
	}
	questions := make(map[string]string, len(faqs))
	batch := idx.NewBatch()
	for _, f := range faqs {
		if f == nil || !f.Active {
			continue
		}
		text := textnorm.RemoveStopwords(textnorm.Normalize(f.Question+" "+f.Keywords), s.stopwords)
		if err := batch.Index(f.ID, map[string]interface{}{textField: text}); err != nil {
			_ = idx.Close()
			return fmt.Errorf("failed to index faq %s: %w", f.ID, err)
		}
		questions[f.ID] = f.Question
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return fmt.Errorf("failed to index corpus: %w", err)
	}

	s.mu.Lock()
	old := s.index
	s.index = idx
	s.questions = questions
	s.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Suggest returns FAQ questions for partially typed text. The last token is
// matched as a prefix, earlier tokens as whole words. When nothing matches,
// every token is retried with typo tolerance.
func (s *Index) Suggest(ctx context.Context, text string, limit int) ([]Suggestion, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	terms := textnorm.Tokens(textnorm.RemoveStopwords(textnorm.Normalize(text), s.stopwords))
	if len(terms) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits, err := s.search(ctx, prefixQuery(terms), limit)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		if hits, err = s.search(ctx, fuzzyQuery(terms), limit); err != nil {
			return nil, err
		}
	}
	return hits, nil
}

func (s *Index) search(ctx context.Context, q blevequery.Query, limit int) ([]Suggestion, error) {
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]Suggestion, 0, len(results.Hits))
	for _, hit := range results.Hits {
		out = append(out, Suggestion{FAQID: hit.ID, Question: s.questions[hit.ID], Score: hit.Score})
	}
	return out, nil
}

// DocCount returns the number of indexed FAQs.
func (s *Index) DocCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Close releases the index.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

func prefixQuery(terms []string) blevequery.Query {
	last := bleve.NewPrefixQuery(terms[len(terms)-1])
	last.SetField(textField)
	if len(terms) == 1 {
		return last
	}
	queries := []blevequery.Query{last}
	for _, t := range terms[:len(terms)-1] {
		mq := bleve.NewMatchQuery(t)
		mq.SetField(textField)
		queries = append(queries, mq)
	}
	return bleve.NewConjunctionQuery(queries...)
}

// fuzzyQuery matches any term within the edit distance (OR semantics).
func fuzzyQuery(terms []string) blevequery.Query {
	queries := make([]blevequery.Query, 0, len(terms))
	for _, t := range terms {
		fq := bleve.NewFuzzyQuery(t)
		fq.SetFuzziness(fuzziness)
		fq.SetField(textField)
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}
