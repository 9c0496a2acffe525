package models

import (
	"fmt"
	"strings"
	"time"
)

// Response types of a chat turn.
const (
	ResponseAnswer         = "answer"
	ResponseDisambiguation = "disambiguation"
	ResponseFallback       = "fallback"
)

// ChatRequest is a visitor message.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// Validate ensures the message is not blank and caps its length.
func (r *ChatRequest) Validate() error {
	r.Message = strings.TrimSpace(r.Message)
	if r.Message == "" {
		return fmt.Errorf("message cannot be empty")
	}
	if len(r.Message) > MaxMessageLength {
		return fmt.Errorf("message exceeds %d bytes", MaxMessageLength)
	}
	return nil
}

// MaxMessageLength bounds a single chat message.
const MaxMessageLength = 2000

// ChooseRequest picks one FAQ out of a disambiguation choice list.
type ChooseRequest struct {
	SessionID string `json:"session_id"`
	FAQID     string `json:"faq_id"`
}

// Choice is one entry of a disambiguation list.
type Choice struct {
	FAQID    string `json:"faq_id"`
	Question string `json:"question"`
	Score    int    `json:"score"`
}

// ChatResponse is the bot's reply to one message.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	// Type is one of ResponseAnswer, ResponseDisambiguation, ResponseFallback.
	Type     string   `json:"type"`
	Message  string   `json:"message"`
	FAQID    string   `json:"faq_id,omitempty"`
	Question string   `json:"question,omitempty"`
	Answer   string   `json:"answer,omitempty"`
	Score    int      `json:"score,omitempty"`
	Quality  string   `json:"quality,omitempty"`
	Choices  []Choice `json:"choices,omitempty"`
	// LowConfidence is set when an answer was found but may not fit.
	LowConfidence bool `json:"low_confidence,omitempty"`
	// OfferContact tells the client to show the contact form.
	OfferContact bool   `json:"offer_contact"`
	ContactURL   string `json:"contact_url,omitempty"`
	QueryTime    int64  `json:"query_time_ms"`
}

// Conversation is one logged chat turn.
type Conversation struct {
	ID        string    `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	Message   string    `json:"message" db:"message"`
	Outcome   string    `json:"outcome" db:"outcome"`
	FAQID     string    `json:"faq_id,omitempty" db:"faq_id"`
	Score     int       `json:"score" db:"score"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Inquiry is a contact form submission made when the bot had no answer.
type Inquiry struct {
	ID        string    `json:"id" db:"id"`
	SessionID string    `json:"session_id,omitempty" db:"session_id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Validate ensures the inquiry can be followed up.
func (i *Inquiry) Validate() error {
	if strings.TrimSpace(i.Email) == "" || !strings.Contains(i.Email, "@") {
		return fmt.Errorf("a valid email is required")
	}
	if strings.TrimSpace(i.Message) == "" {
		return fmt.Errorf("message cannot be empty")
	}
	return nil
}
