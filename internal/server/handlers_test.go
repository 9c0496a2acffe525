package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/chat"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/faqid"
	"github.com/hyperjump/kotae/internal/matcher"
	"github.com/hyperjump/kotae/internal/metrics"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/suggest"
)

type testEnv struct {
	handler http.Handler
	store   *storage.SQLiteStorage
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.DatabasePath = filepath.Join(dir, "kotae.db")

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	seed := []*models.FAQ{
		{ID: "hours", Question: "Wie sind die Öffnungszeiten?", Answer: "Täglich 10 bis 22 Uhr.", Keywords: "öffnungszeiten, uhrzeit", Active: true},
		{ID: "price", Question: "Preis für Eintritt", Answer: "6 Euro.", Keywords: "preis, kosten", Active: true},
		{ID: "voucher", Question: "Preis für Gutschein", Answer: "Ab 10 Euro.", Keywords: "preis, gutschein", Active: true},
	}
	if err := store.UpsertFAQs(context.Background(), seed); err != nil {
		t.Fatal(err)
	}

	idx, err := suggest.NewIndex()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	m := metrics.NewMetrics()
	svc := chat.NewService(store, matcher.New(&cfg.Matcher), &cfg.Chat, chat.WithSuggestIndex(idx), chat.WithMetrics(m))
	srv := NewServer(svc, store, cfg, zap.NewNop(), WithMetrics(m))
	return &testEnv{handler: srv.Router(), store: store, metrics: m}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, w.Body.String())
	}
}

func TestHandleChat(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/chat", `{"message": "Wann habt ihr offen?", "session_id": "s1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var resp models.ChatResponse
	decode(t, w, &resp)
	if resp.Type != models.ResponseAnswer || resp.FAQID != "hours" || resp.SessionID != "s1" {
		t.Errorf("response = %+v", resp)
	}

	w = env.do(t, http.MethodPost, "/api/v1/chat", `{"message": "Was kostet der Eintritt?"}`)
	decode(t, w, &resp)
	if resp.Type != models.ResponseDisambiguation || len(resp.Choices) != 2 {
		t.Errorf("disambiguation response = %+v", resp)
	}

	w = env.do(t, http.MethodPost, "/api/v1/chat", `{"message": "Wie ist das Wetter heute?"}`)
	decode(t, w, &resp)
	if resp.Type != models.ResponseFallback || !resp.OfferContact {
		t.Errorf("fallback response = %+v", resp)
	}
}

func TestHandleChat_BadRequests(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"message":`},
		{"empty message", `{"message": "  "}`},
		{"oversized message", `{"message": "` + strings.Repeat("a", models.MaxMessageLength+1) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/chat", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400", w.Code)
			}
			var out map[string]string
			decode(t, w, &out)
			if out["error"] == "" {
				t.Error("error body missing")
			}
		})
	}
}

func TestHandleChoose(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name string
		body string
		want int
	}{
		{"pick", `{"session_id": "s1", "faq_id": "voucher"}`, http.StatusOK},
		{"unknown id", `{"faq_id": "missing"}`, http.StatusNotFound},
		{"no id", `{"session_id": "s1"}`, http.StatusBadRequest},
		{"invalid json", `[`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/chat/choose", tt.body)
			if w.Code != tt.want {
				t.Errorf("status: got %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestHandleSuggest(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/suggest?q=Gutsch&limit=3", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Suggestions []suggest.Suggestion `json:"suggestions"`
	}
	decode(t, w, &out)
	if len(out.Suggestions) != 1 || out.Suggestions[0].FAQID != "voucher" {
		t.Errorf("suggestions = %+v", out.Suggestions)
	}

	w = env.do(t, http.MethodGet, "/api/v1/suggest?q=", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"suggestions":[]`) {
		t.Errorf("empty query: got %d %s", w.Code, w.Body.String())
	}
}

func TestFAQLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	body := `{"question": "Gibt es Kurse für Anfänger?", "answer": "Ja, samstags um 10 Uhr."}`
	w := env.do(t, http.MethodPost, "/api/v1/faqs", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: got %d, body %s", w.Code, w.Body.String())
	}
	var created models.FAQ
	decode(t, w, &created)
	wantID := faqid.FromQuestion("Gibt es Kurse für Anfänger?")
	if created.ID != wantID {
		t.Errorf("derived id = %s, want %s", created.ID, wantID)
	}
	if created.Keywords == "" || !created.Active {
		t.Errorf("created = %+v, want generated keywords and active", created)
	}

	if w := env.do(t, http.MethodPost, "/api/v1/faqs", body); w.Code != http.StatusConflict {
		t.Errorf("duplicate create: got %d, want 409", w.Code)
	}

	// The chat cache sees the new entry without a restart.
	w = env.do(t, http.MethodPost, "/api/v1/chat", `{"message": "Gibt es Kurse für Anfänger?"}`)
	var resp models.ChatResponse
	decode(t, w, &resp)
	if resp.FAQID != wantID {
		t.Errorf("chat after create: FAQID = %q, want %s", resp.FAQID, wantID)
	}

	w = env.do(t, http.MethodPut, "/api/v1/faqs/"+wantID, `{"question": "Gibt es Kurse für Anfänger?", "answer": "Sonntags.", "keywords": "kurse", "active": false}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update: got %d, body %s", w.Code, w.Body.String())
	}
	got, err := env.store.GetFAQ(ctx, wantID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Answer != "Sonntags." || got.Keywords != "kurse" || got.Active {
		t.Errorf("stored after update = %+v", got)
	}
	if got.Views != 1 {
		t.Errorf("views after update = %d, want 1 (kept from the chat answer)", got.Views)
	}

	w = env.do(t, http.MethodGet, "/api/v1/faqs/"+wantID, "")
	if w.Code != http.StatusOK {
		t.Errorf("get: got %d", w.Code)
	}

	if w := env.do(t, http.MethodDelete, "/api/v1/faqs/"+wantID, ""); w.Code != http.StatusOK {
		t.Errorf("delete: got %d", w.Code)
	}
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		if w := env.do(t, method, "/api/v1/faqs/"+wantID, ""); w.Code != http.StatusNotFound {
			t.Errorf("%s after delete: got %d, want 404", method, w.Code)
		}
	}
	if w := env.do(t, http.MethodPut, "/api/v1/faqs/missing", `{"question": "Q?", "answer": "A"}`); w.Code != http.StatusNotFound {
		t.Errorf("update missing: got %d, want 404", w.Code)
	}
}

func TestHandleCreateFAQ_Invalid(t *testing.T) {
	env := newTestEnv(t)
	for _, body := range []string{`{"question": "Q?"}`, `{"answer": "A"}`, `{`} {
		if w := env.do(t, http.MethodPost, "/api/v1/faqs", body); w.Code != http.StatusBadRequest {
			t.Errorf("body %s: got %d, want 400", body, w.Code)
		}
	}
}

func TestHandleListFAQs(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/faqs?limit=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		FAQs  []models.FAQ `json:"faqs"`
		Total int64        `json:"total"`
		Limit int          `json:"limit"`
	}
	decode(t, w, &out)
	if len(out.FAQs) != 2 || out.Total != 3 || out.Limit != 2 {
		t.Errorf("list = %d faqs, total %d, limit %d; want 2, 3, 2", len(out.FAQs), out.Total, out.Limit)
	}

	w = env.do(t, http.MethodGet, "/api/v1/faqs?offset=10", "")
	if !strings.Contains(w.Body.String(), `"faqs":[]`) {
		t.Errorf("past the end: body %s, want empty list", w.Body.String())
	}
}

func TestHandleKeywords(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/keywords", `{"question": "Kann ich Schlittschuhe ausleihen?", "answer": "Ja, an der Kasse."}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Keywords string   `json:"keywords"`
		List     []string `json:"list"`
	}
	decode(t, w, &out)
	if len(out.List) == 0 || out.List[0] != "schlittschuhen" {
		t.Errorf("list = %v", out.List)
	}
	if out.Keywords != strings.Join(out.List, ", ") {
		t.Errorf("keywords = %q, want joined list", out.Keywords)
	}

	if w := env.do(t, http.MethodPost, "/api/v1/keywords", `{"answer": "x"}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing question: got %d, want 400", w.Code)
	}
}

func TestHandleInquiry(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/inquiries", `{"session_id": "s1", "name": "Kim", "email": "kim@example.org", "message": "Habt ihr Eishockeytore?"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var out map[string]string
	decode(t, w, &out)
	if out["id"] == "" {
		t.Error("inquiry id missing")
	}
	if n, _ := env.store.CountInquiries(context.Background()); n != 1 {
		t.Errorf("CountInquiries = %d, want 1", n)
	}
	if v := testutil.ToFloat64(env.metrics.InquiriesTotal); v != 1 {
		t.Errorf("inquiries counter = %v, want 1", v)
	}

	if w := env.do(t, http.MethodPost, "/api/v1/inquiries", `{"email": "nope", "message": "x"}`); w.Code != http.StatusBadRequest {
		t.Errorf("invalid email: got %d, want 400", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out map[string]interface{}
	decode(t, w, &out)
	if out["status"] != "ok" {
		t.Errorf("status field = %v", out["status"])
	}
	if out["faqs"] != float64(3) {
		t.Errorf("faqs = %v, want 3", out["faqs"])
	}
	if size, ok := out["database_size_bytes"].(float64); !ok || size <= 0 {
		t.Errorf("database_size_bytes = %v, want > 0", out["database_size_bytes"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/v1/chat", `{"message": "Wann habt ihr offen?"}`)
	env.do(t, http.MethodGet, "/api/v1/faqs/missing", "")

	w := env.do(t, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`kotae_chat_requests_total{outcome="answer"} 1`,
		`kotae_http_requests_total{route="/api/v1/chat",status="200"} 1`,
		`kotae_http_requests_total{route="/api/v1/faqs/{id}",status="404"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}
