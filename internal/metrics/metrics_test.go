package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RecordChat(t *testing.T) {
	m := NewMetrics()
	m.RecordChat("answer", 93, 2*time.Millisecond)
	m.RecordChat("answer", 104, time.Millisecond)
	m.RecordChat("fallback", 0, time.Millisecond)

	if got := testutil.ToFloat64(m.ChatRequestsTotal.WithLabelValues("answer")); got != 2 {
		t.Errorf("answer count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ChatRequestsTotal.WithLabelValues("fallback")); got != 1 {
		t.Errorf("fallback count = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.MatchScore); got != 1 {
		t.Errorf("MatchScore series = %d, want 1", got)
	}
}

func TestMetrics_RecordReload(t *testing.T) {
	m := NewMetrics()
	m.RecordReload(12, nil)
	m.RecordReload(0, errors.New("boom"))

	if got := testutil.ToFloat64(m.CorpusSize); got != 12 {
		t.Errorf("CorpusSize = %v, want 12 (failed reload keeps last size)", got)
	}
	if got := testutil.ToFloat64(m.CorpusReloadsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("error reloads = %v, want 1", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RecordHTTPRequest("/api/v1/chat", "200", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(string(body), `kotae_http_requests_total{route="/api/v1/chat",status="200"} 1`) {
		t.Errorf("metrics output missing http counter:\n%s", body)
	}
}

func TestNewMetrics_Independent(t *testing.T) {
	// Separate registries: constructing twice must not panic on duplicate registration.
	a, b := NewMetrics(), NewMetrics()
	a.InquiriesTotal.Inc()
	if got := testutil.ToFloat64(b.InquiriesTotal); got != 0 {
		t.Errorf("second instance shares state: %v", got)
	}
}
