// Package cli provides CLI output helpers for kotae.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/kotae/internal/matcher"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// OutputFormat is the format for chat and explain output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const (
	separator          = "─────────────────────────────────────────────────────────"
	explainQuestionLen = 60
)

// ParseOutputFormat maps a -output flag value to a format. Unknown values are an error.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text or json)", s)
	}
}

// WriteChatResponse writes a chat reply to w in the given format.
func WriteChatResponse(w io.Writer, resp *models.ChatResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	writeChatResponseText(w, resp)
	return nil
}

func writeChatResponseText(w io.Writer, resp *models.ChatResponse) {
	fmt.Fprintln(w, separator)
	switch resp.Type {
	case models.ResponseAnswer:
		header := fmt.Sprintf("[answer] %s", resp.FAQID)
		if resp.Score > 0 {
			header += fmt.Sprintf(" | Score: %d (%s)", resp.Score, resp.Quality)
		}
		fmt.Fprintln(w, header)
		fmt.Fprintf(w, "Q: %s\n", resp.Question)
		fmt.Fprintf(w, "A: %s\n", resp.Answer)
		if resp.LowConfidence && resp.Message != "" {
			fmt.Fprintf(w, "\n%s\n", resp.Message)
		}
	case models.ResponseDisambiguation:
		fmt.Fprintf(w, "[disambiguation] Score: %d\n", resp.Score)
		if resp.Message != "" {
			fmt.Fprintln(w, resp.Message)
		}
		for i, c := range resp.Choices {
			fmt.Fprintf(w, "  %d) %s [%s, %d]\n", i+1, c.Question, c.FAQID, c.Score)
		}
	default:
		fmt.Fprintln(w, "[fallback]")
		fmt.Fprintln(w, resp.Message)
	}
	if resp.OfferContact && resp.ContactURL != "" {
		fmt.Fprintf(w, "Contact: %s\n", resp.ContactURL)
	}
	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "session %s | %dms\n", resp.SessionID, resp.QueryTime)
}

// explainRow is the JSON shape of one explain line.
type explainRow struct {
	Rank         int    `json:"rank"`
	ID           string `json:"id"`
	Question     string `json:"question"`
	Score        int    `json:"score"`
	TopicMatch   bool   `json:"topic_match"`
	KeywordMatch bool   `json:"keyword_match"`
	Accepted     bool   `json:"accepted"`
}

// WriteExplain writes the full ranking of a query, at most limit rows (0 = all).
// minScore marks which candidates would pass the acceptance threshold.
func WriteExplain(w io.Writer, ranked []matcher.RankedCandidate, minScore, limit int, format OutputFormat) error {
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	rows := make([]explainRow, 0, len(ranked))
	for i, c := range ranked {
		rows = append(rows, explainRow{
			Rank:         i + 1,
			ID:           c.FAQ.ID,
			Question:     c.FAQ.Question,
			Score:        c.Score,
			TopicMatch:   c.TopicMatch,
			KeywordMatch: c.KeywordMatch,
			Accepted:     c.Score >= minScore,
		})
	}
	if format == OutputJSON {
		return writeJSON(w, rows)
	}

	fmt.Fprintf(w, "%4s  %5s  %-5s  %-7s  %-20s  %s\n", "RANK", "SCORE", "TOPIC", "KEYWORD", "ID", "QUESTION")
	for _, r := range rows {
		marker := " "
		if r.Accepted {
			marker = "*"
		}
		fmt.Fprintf(w, "%4d %s%5d  %-5s  %-7s  %-20s  %s\n",
			r.Rank, marker, r.Score, yesNo(r.TopicMatch), yesNo(r.KeywordMatch),
			utils.Truncate(r.ID, 20), utils.Truncate(r.Question, explainQuestionLen))
	}
	fmt.Fprintf(w, "\n* score >= %d (minimum)\n", minScore)
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
