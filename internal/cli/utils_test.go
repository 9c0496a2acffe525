package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/kotae/internal/matcher"
	"github.com/hyperjump/kotae/internal/models"
)

func TestWriteChatResponse_JSON(t *testing.T) {
	resp := &models.ChatResponse{
		SessionID: "s1",
		Type:      models.ResponseAnswer,
		FAQID:     "hours",
		Question:  "Wie sind die Öffnungszeiten?",
		Answer:    "Täglich 10 bis 22 Uhr.",
		Score:     93,
		Quality:   matcher.QualityHigh,
		QueryTime: 2,
	}
	var buf bytes.Buffer
	if err := WriteChatResponse(&buf, resp, OutputJSON); err != nil {
		t.Fatalf("WriteChatResponse(json): %v", err)
	}
	var decoded models.ChatResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.FAQID != "hours" || decoded.Score != 93 || decoded.Answer != resp.Answer {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteChatResponse_text(t *testing.T) {
	tests := []struct {
		name string
		resp *models.ChatResponse
		want []string
		not  []string
	}{
		{
			name: "answer",
			resp: &models.ChatResponse{
				SessionID: "s1", Type: models.ResponseAnswer, FAQID: "hours",
				Question: "Wie sind die Öffnungszeiten?", Answer: "Täglich 10 bis 22 Uhr.",
				Score: 93, Quality: matcher.QualityHigh,
			},
			want: []string{"[answer] hours | Score: 93 (high)", "Q: Wie sind die Öffnungszeiten?", "A: Täglich 10 bis 22 Uhr.", "session s1"},
			not:  []string{"Contact:"},
		},
		{
			name: "picked answer has no score",
			resp: &models.ChatResponse{Type: models.ResponseAnswer, FAQID: "voucher", Question: "Preis für Gutschein", Answer: "Ab 10 Euro."},
			want: []string{"[answer] voucher\n"},
			not:  []string{"Score:"},
		},
		{
			name: "low confidence",
			resp: &models.ChatResponse{
				Type: models.ResponseAnswer, FAQID: "hours", Score: 63, Quality: matcher.QualityMedium,
				LowConfidence: true, OfferContact: true, Message: "Nicht sicher.", ContactURL: "https://example.org/kontakt",
			},
			want: []string{"Nicht sicher.", "Contact: https://example.org/kontakt"},
		},
		{
			name: "disambiguation",
			resp: &models.ChatResponse{
				Type: models.ResponseDisambiguation, Score: 104, Message: "Meinten Sie:",
				Choices: []models.Choice{
					{FAQID: "price", Question: "Preis für Eintritt", Score: 104},
					{FAQID: "voucher", Question: "Preis für Gutschein", Score: 85},
				},
			},
			want: []string{"Meinten Sie:", "1) Preis für Eintritt [price, 104]", "2) Preis für Gutschein [voucher, 85]"},
		},
		{
			name: "fallback",
			resp: &models.ChatResponse{
				Type: models.ResponseFallback, Message: "Dazu habe ich leider keine Antwort.",
				OfferContact: true, ContactURL: "https://example.org/kontakt",
			},
			want: []string{"[fallback]", "Dazu habe ich leider keine Antwort.", "Contact: https://example.org/kontakt"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteChatResponse(&buf, tt.resp, OutputText); err != nil {
				t.Fatal(err)
			}
			out := buf.String()
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.not {
				if strings.Contains(out, s) {
					t.Errorf("output should not contain %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestWriteChatResponse_unknownFormatTreatedAsText(t *testing.T) {
	var buf bytes.Buffer
	resp := &models.ChatResponse{Type: models.ResponseFallback, Message: "x"}
	if err := WriteChatResponse(&buf, resp, OutputFormat("xml")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "[fallback]") {
		t.Errorf("unknown format should use text output, got %q", buf.String())
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{" json ", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func explainFixture() []matcher.RankedCandidate {
	return []matcher.RankedCandidate{
		{FAQ: &models.FAQ{ID: "price", Question: "Preis für Eintritt"}, Score: 104, TopicMatch: true, KeywordMatch: true},
		{FAQ: &models.FAQ{ID: "voucher", Question: "Preis für Gutschein"}, Score: 85, TopicMatch: true, KeywordMatch: true},
		{FAQ: &models.FAQ{ID: "helmet", Question: "Kann ich einen Helm ausleihen?"}, Score: 12},
	}
}

func TestWriteExplain_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteExplain(&buf, explainFixture(), 60, 0, OutputText); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// header, three rows, blank, legend
	if len(lines) != 6 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], "*  104") || !strings.Contains(lines[1], "price") {
		t.Errorf("first row = %q, want accepted price", lines[1])
	}
	if strings.Contains(lines[3], "*") || !strings.Contains(lines[3], "no     no") {
		t.Errorf("third row = %q, want rejected without matches", lines[3])
	}
}

func TestWriteExplain_JSONLimit(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteExplain(&buf, explainFixture(), 90, 2, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var rows []explainRow
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if !rows[0].Accepted || rows[1].Accepted {
		t.Errorf("accepted flags = %v, %v; want true, false at min 90", rows[0].Accepted, rows[1].Accepted)
	}
	if rows[1].Rank != 2 || rows[1].ID != "voucher" {
		t.Errorf("second row = %+v", rows[1])
	}
}
