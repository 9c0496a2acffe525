package corpus

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/kotae/internal/faqid"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
)

func TestLoadBytes(t *testing.T) {
	tests := []struct {
		name    string
		ext     string
		content string
	}{
		{
			name: "yaml list",
			ext:  ".yaml",
			content: `
- id: hours
  question: Wie sind die Öffnungszeiten?
  answer: Täglich 10 bis 22 Uhr.
  keywords: öffnungszeiten, uhrzeit
- question: Preis für Eintritt
  answer: 6 Euro.
  active: false
`,
		},
		{
			name: "yaml wrapped",
			ext:  ".yml",
			content: `faqs:
  - id: hours
    question: Wie sind die Öffnungszeiten?
    answer: Täglich 10 bis 22 Uhr.
    keywords: öffnungszeiten, uhrzeit
  - question: Preis für Eintritt
    answer: 6 Euro.
    active: false
`,
		},
		{
			name: "json list",
			ext:  ".json",
			content: `[
  {"id": "hours", "question": "Wie sind die Öffnungszeiten?", "answer": "Täglich 10 bis 22 Uhr.", "keywords": "öffnungszeiten, uhrzeit"},
  {"question": "Preis für Eintritt", "answer": "6 Euro.", "active": false}
]`,
		},
		{
			name: "json wrapped",
			ext:  ".json",
			content: `{"faqs": [
  {"id": "hours", "question": "Wie sind die Öffnungszeiten?", "answer": "Täglich 10 bis 22 Uhr.", "keywords": "öffnungszeiten, uhrzeit"},
  {"question": "Preis für Eintritt", "answer": "6 Euro.", "active": false}
]}`,
		},
		{
			name: "csv comma",
			ext:  ".csv",
			content: "id,question,answer,keywords,active\n" +
				"hours,Wie sind die Öffnungszeiten?,Täglich 10 bis 22 Uhr.,\"öffnungszeiten, uhrzeit\",\n" +
				",,,,\n" +
				",Preis für Eintritt,6 Euro.,,nein\n",
		},
		{
			name: "csv semicolon german headers",
			ext:  ".csv",
			content: "ID;Frage;Antwort;Schlagworte;Aktiv\n" +
				"hours;Wie sind die Öffnungszeiten?;Täglich 10 bis 22 Uhr.;öffnungszeiten, uhrzeit;ja\n" +
				";Preis für Eintritt;6 Euro.;;0\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadBytes([]byte(tt.content), tt.ext)
			if err != nil {
				t.Fatal(err)
			}
			assertSampleInputs(t, got)
		})
	}
}

func assertSampleInputs(t *testing.T, got []*models.FAQInput) {
	t.Helper()
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].ID != "hours" || got[0].Question != "Wie sind die Öffnungszeiten?" || got[0].Keywords != "öffnungszeiten, uhrzeit" {
		t.Errorf("first entry = %+v", got[0])
	}
	if !got[0].ActiveOrDefault() {
		t.Error("first entry should default to active")
	}
	if got[1].ID != "" || got[1].Answer != "6 Euro." {
		t.Errorf("second entry = %+v", got[1])
	}
	if got[1].ActiveOrDefault() {
		t.Error("second entry should be inactive")
	}
}

func TestLoad_Excel(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Frage", "Antwort", "Keywords", "ID", "Aktiv"},
		{"Wie sind die Öffnungszeiten?", "Täglich 10 bis 22 Uhr.", "öffnungszeiten, uhrzeit", "hours"},
		{"Preis für Eintritt", "6 Euro.", "", "", "nein"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "faqs.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	assertSampleInputs(t, got)
}

func TestLoadBytes_Errors(t *testing.T) {
	tests := []struct {
		name    string
		ext     string
		content string
		want    string
	}{
		{"unsupported", ".pdf", "x", "unsupported"},
		{"csv without question", ".csv", "id,answer\n1,a\n", "question column"},
		{"csv bad active", ".csv", "question,answer,active\nq,a,vielleicht\n", "row 2"},
		{"broken json", ".json", "{", "parse JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes([]byte(tt.content), tt.ext)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestIsSupported(t *testing.T) {
	for path, want := range map[string]bool{
		"faqs.yaml": true,
		"FAQS.YML":  true,
		"a/b.json":  true,
		"x.csv":     true,
		"x.xlsx":    true,
		"x.xls":     false,
		"x.txt":     false,
		"noext":     false,
	} {
		if got := IsSupported(path); got != want {
			t.Errorf("IsSupported(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestImporter_Import(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "kotae.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	path := filepath.Join(dir, "faqs.yaml")
	content := `- id: hours
  question: Wie sind die Öffnungszeiten?
  answer: Täglich 10 bis 22 Uhr.
  keywords: öffnungszeiten, uhrzeit
- question: Kann ich Schlittschuhe ausleihen?
  answer: <p>Ja, an der <b>Kasse</b>.</p>
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	im := NewImporter(store)
	n, err := im.Import(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("imported %d, want 2", n)
	}

	derived := faqid.FromQuestion("Kann ich Schlittschuhe ausleihen?")
	got, err := store.GetFAQ(ctx, derived)
	if err != nil {
		t.Fatalf("derived id %s not stored: %v", derived, err)
	}
	if !strings.Contains(got.Keywords, "schlittschuhe") {
		t.Errorf("generated keywords = %q, want schlittschuhe among them", got.Keywords)
	}
	if !got.Active {
		t.Error("imported FAQ should be active")
	}

	// Re-import updates in place.
	if _, err := im.Import(ctx, path); err != nil {
		t.Fatal(err)
	}
	if count, _ := store.CountFAQs(ctx); count != 2 {
		t.Errorf("CountFAQs after re-import = %d, want 2", count)
	}
}

func TestImporter_Prepare(t *testing.T) {
	im := NewImporter(nil)

	_, err := im.Prepare([]*models.FAQInput{
		{Question: "Q1?", Answer: "A1"},
		{Question: "Q2?", Answer: ""},
	})
	if err == nil || !strings.Contains(err.Error(), "entry 2") {
		t.Errorf("err = %v, want error naming entry 2", err)
	}

	_, err = im.Prepare([]*models.FAQInput{
		{ID: "x", Question: "Q1?", Answer: "A1"},
		{ID: "x", Question: "Q2?", Answer: "A2"},
	})
	if err == nil || !strings.Contains(err.Error(), "duplicate id x") {
		t.Errorf("err = %v, want duplicate id error", err)
	}

	faqs, err := im.Prepare([]*models.FAQInput{{Question: " Preis? ", Answer: " 6 Euro ", Keywords: "preis"}})
	if err != nil {
		t.Fatal(err)
	}
	if faqs[0].Question != "Preis?" || faqs[0].Keywords != "preis" {
		t.Errorf("Prepare = %+v", faqs[0])
	}
}
