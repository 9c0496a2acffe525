package corpus

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/faqid"
	"github.com/hyperjump/kotae/internal/keywords"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
)

// Importer loads corpus files into storage.
type Importer struct {
	storage   storage.Storage
	generator *keywords.Generator
	logger    *zap.Logger // optional; when set, logs debug events
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithLogger sets a logger for debug output (file imported, keywords generated).
func WithLogger(l *zap.Logger) ImporterOption {
	return func(im *Importer) { im.logger = l }
}

// WithGenerator replaces the keyword generator used for rows without keywords.
func WithGenerator(g *keywords.Generator) ImporterOption {
	return func(im *Importer) {
		if g != nil {
			im.generator = g
		}
	}
}

// NewImporter creates an importer writing to store.
func NewImporter(store storage.Storage, opts ...ImporterOption) *Importer {
	im := &Importer{
		storage:   store,
		generator: keywords.New(),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import loads the corpus file at path and upserts its entries. It returns
// the number of FAQs written. A file with an invalid row writes nothing.
func (im *Importer) Import(ctx context.Context, path string) (int, error) {
	inputs, err := Load(path)
	if err != nil {
		return 0, fmt.Errorf("failed to load corpus %s: %w", path, err)
	}
	faqs, err := im.Prepare(inputs)
	if err != nil {
		return 0, fmt.Errorf("failed to import %s: %w", path, err)
	}
	if len(faqs) == 0 {
		return 0, nil
	}
	if err := im.storage.UpsertFAQs(ctx, faqs); err != nil {
		return 0, fmt.Errorf("failed to store corpus %s: %w", path, err)
	}
	if im.logger != nil {
		im.logger.Debug("corpus imported", zap.String("path", path), zap.Int("faqs", len(faqs)))
	}
	return len(faqs), nil
}

// Prepare validates inputs and converts them to FAQs. Blank ids are derived
// from the question; blank keyword lists are generated.
func (im *Importer) Prepare(inputs []*models.FAQInput) ([]*models.FAQ, error) {
	faqs := make([]*models.FAQ, 0, len(inputs))
	seen := make(map[string]int, len(inputs))
	for i, in := range inputs {
		if in == nil {
			continue
		}
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		id := in.ID
		if id == "" {
			id = faqid.FromQuestion(in.Question)
		}
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("entry %d: duplicate id %s (first seen in entry %d)", i+1, id, prev)
		}
		seen[id] = i + 1

		faq := in.ToFAQ(id)
		if faq.Keywords == "" {
			faq.Keywords = im.generator.Generate(faq.Question, faq.Answer)
			if im.logger != nil {
				im.logger.Debug("keywords generated", zap.String("id", id), zap.String("keywords", faq.Keywords))
			}
		}
		faqs = append(faqs, faq)
	}
	return faqs, nil
}
