// Package chat turns visitor messages into answers, choice lists or the contact fallback.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/matcher"
	"github.com/hyperjump/kotae/internal/metrics"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/suggest"
)

// ErrEmptyMessage is returned by Ask for a blank message.
var ErrEmptyMessage = errors.New("message cannot be empty")

// Service answers chat messages from the active FAQ corpus. Safe for concurrent use.
type Service struct {
	storage storage.Storage
	matcher *matcher.Matcher
	config  *config.ChatConfig
	suggest *suggest.Index   // optional
	metrics *metrics.Metrics // optional
	logger  *zap.Logger      // optional; when set, logs debug events

	mu         sync.RWMutex
	corpus     []*models.FAQ
	loaded     bool
	generation uint64 // bumped by Invalidate
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics records chat turns and reloads.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithSuggestIndex keeps an autocomplete index in sync with the corpus.
func WithSuggestIndex(idx *suggest.Index) Option {
	return func(s *Service) { s.suggest = idx }
}

// NewService creates a chat service. A nil cfg uses the defaults.
func NewService(store storage.Storage, m *matcher.Matcher, cfg *config.ChatConfig, opts ...Option) *Service {
	if cfg == nil {
		var full config.Config
		config.ApplyDefaults(&full)
		cfg = &full.Chat
	}
	s := &Service{
		storage: store,
		matcher: m,
		config:  cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask answers one message. The session id is kept from the request or
// assigned when absent.
func (s *Service) Ask(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	start := time.Now()
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	corpus, err := s.activeCorpus(ctx)
	if err != nil {
		return nil, err
	}
	outcome, err := s.match(ctx, req.Message, corpus)
	if err != nil {
		return nil, err
	}

	resp := &models.ChatResponse{SessionID: sessionID}
	switch {
	case outcome == nil:
		s.fallback(resp)
	case outcome.NeedsDisambiguation:
		s.disambiguate(resp, outcome)
	default:
		s.answer(resp, outcome.Best, outcome.Score, outcome.LowConfidence)
		if err := s.storage.IncrementViews(ctx, outcome.Best.ID); err != nil {
			s.logError("failed to increment views", err, zap.String("faq_id", outcome.Best.ID))
		}
	}
	resp.QueryTime = time.Since(start).Milliseconds()

	s.record(ctx, req.Message, resp, time.Since(start))
	return resp, nil
}

// Choose answers a pick from a disambiguation list.
func (s *Service) Choose(ctx context.Context, req *models.ChooseRequest) (*models.ChatResponse, error) {
	start := time.Now()
	if strings.TrimSpace(req.FAQID) == "" {
		return nil, fmt.Errorf("faq_id cannot be empty")
	}
	faq, err := s.storage.GetFAQ(ctx, req.FAQID)
	if err != nil {
		return nil, err
	}
	if !faq.Active {
		return nil, fmt.Errorf("faq %s: %w", faq.ID, storage.ErrNotFound)
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	resp := &models.ChatResponse{SessionID: sessionID}
	s.answer(resp, faq, 0, false)
	if err := s.storage.IncrementViews(ctx, faq.ID); err != nil {
		s.logError("failed to increment views", err, zap.String("faq_id", faq.ID))
	}
	resp.QueryTime = time.Since(start).Milliseconds()

	s.record(ctx, faq.Question, resp, time.Since(start))
	return resp, nil
}

// Explain ranks the whole active corpus for message without thresholds.
func (s *Service) Explain(ctx context.Context, message string) ([]matcher.RankedCandidate, error) {
	corpus, err := s.activeCorpus(ctx)
	if err != nil {
		return nil, err
	}
	return s.matcher.RankAll(message, corpus), nil
}

// Suggest returns autocomplete suggestions for partially typed text. Without
// a suggest index it returns nil.
func (s *Service) Suggest(ctx context.Context, text string, limit int) ([]suggest.Suggestion, error) {
	if s.suggest == nil {
		return nil, nil
	}
	if _, err := s.activeCorpus(ctx); err != nil {
		return nil, err
	}
	return s.suggest.Suggest(ctx, text, limit)
}

// Reload re-reads the active corpus from storage and rebuilds the suggest index.
// When Invalidate runs while the rows are being read, the result is kept but
// still marked stale, so the next request reads again.
func (s *Service) Reload(ctx context.Context) error {
	s.mu.RLock()
	generation := s.generation
	s.mu.RUnlock()

	corpus, err := s.storage.ListActiveFAQs(ctx)
	if err == nil && s.suggest != nil {
		err = s.suggest.Rebuild(corpus)
	}
	if s.metrics != nil {
		s.metrics.RecordReload(len(corpus), err)
	}
	if err != nil {
		return fmt.Errorf("failed to reload corpus: %w", err)
	}

	s.mu.Lock()
	s.corpus = corpus
	s.loaded = s.generation == generation
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Debug("corpus reloaded", zap.Int("faqs", len(corpus)))
	}
	return nil
}

// Invalidate drops the cached corpus; the next request reloads it.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.loaded = false
	s.generation++
	s.mu.Unlock()
}

// CorpusSize returns the number of cached active FAQs.
func (s *Service) CorpusSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.corpus)
}

func (s *Service) activeCorpus(ctx context.Context) ([]*models.FAQ, error) {
	s.mu.RLock()
	corpus, loaded := s.corpus, s.loaded
	s.mu.RUnlock()
	if loaded {
		return corpus, nil
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.corpus, nil
}

// match runs the matcher bounded by the configured timeout. The matcher
// itself is not cancellable; on timeout its result is discarded.
func (s *Service) match(ctx context.Context, message string, corpus []*models.FAQ) (*matcher.MatchOutcome, error) {
	if s.config.MatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.MatchTimeout)
		defer cancel()
	}

	done := make(chan *matcher.MatchOutcome, 1)
	go func() {
		done <- s.matcher.FindBestMatch(message, corpus)
	}()

	select {
	case outcome := <-done:
		return outcome, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to match message: %w", ctx.Err())
	}
}

func (s *Service) fallback(resp *models.ChatResponse) {
	resp.Type = models.ResponseFallback
	resp.Message = s.config.FallbackMessage
	resp.OfferContact = true
	resp.ContactURL = s.config.ContactURL
}

func (s *Service) disambiguate(resp *models.ChatResponse, outcome *matcher.MatchOutcome) {
	resp.Type = models.ResponseDisambiguation
	resp.Message = s.config.DisambiguationMessage
	resp.Score = outcome.Score
	resp.Quality = matcher.MatchQuality(outcome.Score)
	resp.Choices = append(resp.Choices, models.Choice{
		FAQID:    outcome.Best.ID,
		Question: outcome.Best.Question,
		Score:    outcome.Score,
	})
	for i, alt := range outcome.Alternatives {
		if i >= s.config.MaxChoices {
			break
		}
		resp.Choices = append(resp.Choices, models.Choice{
			FAQID:    alt.FAQ.ID,
			Question: alt.FAQ.Question,
			Score:    alt.Score,
		})
	}
	resp.LowConfidence = outcome.LowConfidence
	resp.OfferContact = outcome.LowConfidence
	if resp.OfferContact {
		resp.ContactURL = s.config.ContactURL
	}
}

// answer fills a direct answer. A zero score marks an explicit pick.
func (s *Service) answer(resp *models.ChatResponse, faq *models.FAQ, score int, lowConfidence bool) {
	resp.Type = models.ResponseAnswer
	resp.FAQID = faq.ID
	resp.Question = faq.Question
	resp.Answer = faq.Answer
	resp.Score = score
	if score > 0 {
		resp.Quality = matcher.MatchQuality(score)
	}
	resp.LowConfidence = lowConfidence
	resp.OfferContact = lowConfidence
	if lowConfidence {
		resp.Message = s.config.LowConfidenceMessage
		resp.ContactURL = s.config.ContactURL
	}
}

// record logs the turn to the conversation log and metrics. Logging
// failures never fail the turn.
func (s *Service) record(ctx context.Context, message string, resp *models.ChatResponse, elapsed time.Duration) {
	conv := &models.Conversation{
		SessionID: resp.SessionID,
		Message:   message,
		Outcome:   resp.Type,
		FAQID:     resp.FAQID,
		Score:     resp.Score,
	}
	if resp.Type == models.ResponseDisambiguation && len(resp.Choices) > 0 {
		conv.FAQID = resp.Choices[0].FAQID
	}
	if err := s.storage.LogConversation(ctx, conv); err != nil {
		s.logError("failed to log conversation", err, zap.String("session_id", resp.SessionID))
	}
	if s.metrics != nil {
		s.metrics.RecordChat(resp.Type, resp.Score, elapsed)
	}
	if s.logger != nil {
		s.logger.Debug("chat turn",
			zap.String("session_id", resp.SessionID),
			zap.String("outcome", resp.Type),
			zap.String("faq_id", conv.FAQID),
			zap.Int("score", resp.Score),
			zap.Duration("elapsed", elapsed),
		)
	}
}

func (s *Service) logError(msg string, err error, fields ...zap.Field) {
	if s.logger != nil {
		s.logger.Error(msg, append(fields, zap.Error(err))...)
	}
}
