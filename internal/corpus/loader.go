// Package corpus loads FAQ corpora from YAML, JSON, CSV and Excel files and imports them into storage.
package corpus

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/kotae/internal/models"
)

// SupportedExtensions lists the corpus file extensions Load understands.
var SupportedExtensions = []string{".yaml", ".yml", ".json", ".csv", ".xlsx"}

// IsSupported reports whether path has a corpus file extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Load reads the corpus file at path.
func Load(path string) ([]*models.FAQInput, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return LoadBytes(content, strings.ToLower(filepath.Ext(path)))
}

// LoadBytes parses corpus content based on the given extension.
// ext should include the leading dot (e.g. ".csv").
func LoadBytes(content []byte, ext string) ([]*models.FAQInput, error) {
	switch ext {
	case ".yaml", ".yml":
		return loadYAML(content)
	case ".json":
		return loadJSON(content)
	case ".csv":
		return loadCSV(content)
	case ".xlsx":
		return loadExcel(content)
	default:
		return nil, fmt.Errorf("unsupported corpus format %q", ext)
	}
}

// document is the wrapped form of a YAML or JSON corpus. A bare list is accepted too.
type document struct {
	FAQs []*models.FAQInput `yaml:"faqs" json:"faqs"`
}

func loadYAML(content []byte) ([]*models.FAQInput, error) {
	var list []*models.FAQInput
	if err := yaml.Unmarshal(content, &list); err == nil {
		return list, nil
	}
	var doc document
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parse YAML corpus: %w", err)
	}
	return doc.FAQs, nil
}

func loadJSON(content []byte) ([]*models.FAQInput, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []*models.FAQInput
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("parse JSON corpus: %w", err)
		}
		return list, nil
	}
	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("parse JSON corpus: %w", err)
	}
	return doc.FAQs, nil
}

func loadCSV(content []byte) ([]*models.FAQInput, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	// Spreadsheet exports in German locales separate fields with semicolons.
	if first, _, _ := bytes.Cut(content, []byte("\n")); bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		r.Comma = ';'
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV corpus: %w", err)
	}
	return fromRows(rows)
}

func loadExcel(content []byte) ([]*models.FAQInput, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	return fromRows(rows)
}

// headerAliases maps accepted column titles to FAQInput fields.
var headerAliases = map[string]string{
	"id":          "id",
	"question":    "question",
	"frage":       "question",
	"answer":      "answer",
	"antwort":     "answer",
	"keywords":    "keywords",
	"schlagworte": "keywords",
	"stichworte":  "keywords",
	"active":      "active",
	"aktiv":       "active",
}

// fromRows converts a header row plus data rows. Blank rows are skipped.
func fromRows(rows [][]string) ([]*models.FAQInput, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	columns := make(map[string]int)
	for i, title := range rows[0] {
		if field, ok := headerAliases[strings.ToLower(strings.TrimSpace(title))]; ok {
			if _, dup := columns[field]; !dup {
				columns[field] = i
			}
		}
	}
	if _, ok := columns["question"]; !ok {
		return nil, fmt.Errorf("header has no question column")
	}
	if _, ok := columns["answer"]; !ok {
		return nil, fmt.Errorf("header has no answer column")
	}

	cell := func(row []string, field string) string {
		i, ok := columns[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []*models.FAQInput
	for n, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		in := &models.FAQInput{
			ID:       cell(row, "id"),
			Question: cell(row, "question"),
			Answer:   cell(row, "answer"),
			Keywords: cell(row, "keywords"),
		}
		if raw := cell(row, "active"); raw != "" {
			active, err := parseBool(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", n+2, err)
			}
			in.Active = &active
		}
		out = append(out, in)
	}
	return out, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "ja", "x", "y", "j":
		return true, nil
	case "0", "false", "no", "nein", "n":
		return false, nil
	}
	return false, fmt.Errorf("invalid active value %q", s)
}
