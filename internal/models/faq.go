// Package models defines core data structures for FAQs, chat turns and inquiries.
package models

import (
	"fmt"
	"strings"
	"time"
)

// FAQ is a stored question/answer pair. Keywords is a comma-delimited list.
type FAQ struct {
	ID        string    `json:"id" db:"id"`
	Question  string    `json:"question" db:"question"`
	Answer    string    `json:"answer" db:"answer"`
	Keywords  string    `json:"keywords" db:"keywords"`
	Active    bool      `json:"active" db:"active"`
	Views     int64     `json:"views" db:"views"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// KeywordList splits Keywords on commas, trimming blanks.
func (f *FAQ) KeywordList() []string {
	return SplitKeywords(f.Keywords)
}

// SplitKeywords splits a comma-delimited keyword string, dropping empty entries.
func SplitKeywords(keywords string) []string {
	parts := strings.Split(keywords, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FAQInput is the input for creating or updating an FAQ.
// Active defaults to true when omitted.
type FAQInput struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
	Keywords string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Active   *bool  `json:"active,omitempty" yaml:"active,omitempty"`
}

// Validate ensures question and answer are present.
func (in *FAQInput) Validate() error {
	if strings.TrimSpace(in.Question) == "" {
		return fmt.Errorf("question cannot be empty")
	}
	if strings.TrimSpace(in.Answer) == "" {
		return fmt.Errorf("answer cannot be empty")
	}
	return nil
}

// ActiveOrDefault returns whether the FAQ is active; defaults to true when unset.
func (in *FAQInput) ActiveOrDefault() bool {
	if in.Active != nil {
		return *in.Active
	}
	return true
}

// ToFAQ converts the input to an FAQ with the given id.
func (in *FAQInput) ToFAQ(id string) *FAQ {
	return &FAQ{
		ID:       id,
		Question: strings.TrimSpace(in.Question),
		Answer:   strings.TrimSpace(in.Answer),
		Keywords: strings.TrimSpace(in.Keywords),
		Active:   in.ActiveOrDefault(),
	}
}
