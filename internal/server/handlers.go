package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/faqid"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
)

const (
	defaultSuggestLimit = 5
	maxSuggestLimit     = 20
	defaultPageSize     = 50
	maxPageSize         = 500
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("chat request", zap.String("session_id", req.SessionID), zap.Int("length", len(req.Message)))
	resp, err := s.chat.Ask(r.Context(), &req)
	if err != nil {
		s.logger.Error("chat failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChoose(w http.ResponseWriter, r *http.Request) {
	var req models.ChooseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.FAQID) == "" {
		s.respondError(w, http.StatusBadRequest, "faq_id is required")
		return
	}
	s.logger.Debug("choose request", zap.String("session_id", req.SessionID), zap.String("faq_id", req.FAQID))
	resp, err := s.chat.Choose(r.Context(), &req)
	if err != nil {
		s.respondStorageError(w, "choose failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := queryInt(r, "limit", defaultSuggestLimit)
	if limit > maxSuggestLimit {
		limit = maxSuggestLimit
	}
	suggestions, err := s.chat.Suggest(r.Context(), q, limit)
	if err != nil {
		s.logger.Error("suggest failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if suggestions == nil {
		s.respondJSON(w, http.StatusOK, map[string]interface{}{"suggestions": []interface{}{}})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}

func (s *Server) handleListFAQs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", defaultPageSize)
	switch {
	case limit == 0:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}
	faqs, err := s.storage.ListFAQs(ctx, offset, limit)
	if err != nil {
		s.logger.Error("list faqs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.storage.CountFAQs(ctx)
	if err != nil {
		s.logger.Error("count faqs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if faqs == nil {
		faqs = []*models.FAQ{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"faqs":   faqs,
		"total":  total,
		"offset": offset,
		"limit":  limit,
	})
}

func (s *Server) handleCreateFAQ(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var input models.FAQInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := input.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = faqid.FromQuestion(input.Question)
	}
	if _, err := s.storage.GetFAQ(ctx, id); err == nil {
		s.respondError(w, http.StatusConflict, "faq "+id+" already exists")
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		s.respondStorageError(w, "create faq failed", err)
		return
	}

	faq := input.ToFAQ(id)
	s.fillKeywords(faq)
	s.logger.Debug("create faq request", zap.String("id", faq.ID))
	if err := s.storage.CreateFAQ(ctx, faq); err != nil {
		s.respondStorageError(w, "create faq failed", err)
		return
	}
	s.chat.Invalidate()
	s.respondJSON(w, http.StatusCreated, faq)
}

func (s *Server) handleGetFAQ(w http.ResponseWriter, r *http.Request) {
	faq, err := s.storage.GetFAQ(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondStorageError(w, "get faq failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, faq)
}

func (s *Server) handleUpdateFAQ(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	var input models.FAQInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := input.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	existing, err := s.storage.GetFAQ(ctx, id)
	if err != nil {
		s.respondStorageError(w, "update faq failed", err)
		return
	}

	faq := input.ToFAQ(id)
	faq.Views = existing.Views
	faq.CreatedAt = existing.CreatedAt
	s.fillKeywords(faq)
	s.logger.Debug("update faq request", zap.String("id", id))
	if err := s.storage.UpdateFAQ(ctx, faq); err != nil {
		s.respondStorageError(w, "update faq failed", err)
		return
	}
	s.chat.Invalidate()
	s.respondJSON(w, http.StatusOK, faq)
}

func (s *Server) handleDeleteFAQ(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete faq request", zap.String("id", id))
	if err := s.storage.DeleteFAQ(r.Context(), id); err != nil {
		s.respondStorageError(w, "delete faq failed", err)
		return
	}
	s.chat.Invalidate()
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

type keywordsRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	var req keywordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.respondError(w, http.StatusBadRequest, "question is required")
		return
	}
	list := s.keywords.GenerateList(req.Question, req.Answer)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"keywords": strings.Join(list, ", "),
		"list":     list,
	})
}

func (s *Server) handleInquiry(w http.ResponseWriter, r *http.Request) {
	var inquiry models.Inquiry
	if err := json.NewDecoder(r.Body).Decode(&inquiry); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := inquiry.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.storage.CreateInquiry(r.Context(), &inquiry); err != nil {
		s.logger.Error("create inquiry failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.InquiriesTotal.Inc()
	}
	s.logger.Info("inquiry received", zap.String("id", inquiry.ID), zap.String("session_id", inquiry.SessionID))
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": inquiry.ID, "status": "received"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	faqCount, err := s.storage.CountFAQs(ctx)
	if err != nil {
		s.logger.Error("health: count faqs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	inquiryCount, err := s.storage.CountInquiries(ctx)
	if err != nil {
		s.logger.Error("health: count inquiries failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"status":         "ok",
		"faqs":           faqCount,
		"active_faqs":    s.chat.CorpusSize(),
		"inquiries":      inquiryCount,
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
	}
	if dbBytes, err := storage.DatabaseSizeBytes(s.config.Storage.DatabasePath); err == nil {
		resp["database_size_bytes"] = dbBytes
		if s.metrics != nil {
			s.metrics.DbSizeBytes.Set(float64(dbBytes))
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// fillKeywords generates keywords for an FAQ saved without any.
func (s *Server) fillKeywords(faq *models.FAQ) {
	if faq.Keywords == "" {
		faq.Keywords = s.keywords.Generate(faq.Question, faq.Answer)
	}
}

// queryInt reads a non-negative integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 0 {
		return def
	}
	return v
}

// respondStorageError maps storage.ErrNotFound to 404 and anything else to 500.
func (s *Server) respondStorageError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Error(msg, zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
