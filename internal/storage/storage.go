// Package storage defines the persistence interface for FAQs, the conversation log and contact inquiries.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/kotae/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines FAQ, conversation and inquiry persistence operations.
type Storage interface {
	// FAQ operations
	CreateFAQ(ctx context.Context, faq *models.FAQ) error
	GetFAQ(ctx context.Context, id string) (*models.FAQ, error)
	UpdateFAQ(ctx context.Context, faq *models.FAQ) error
	DeleteFAQ(ctx context.Context, id string) error
	ListFAQs(ctx context.Context, offset, limit int) ([]*models.FAQ, error)
	ListActiveFAQs(ctx context.Context) ([]*models.FAQ, error)
	IncrementViews(ctx context.Context, id string) error

	// Batch operations
	UpsertFAQs(ctx context.Context, faqs []*models.FAQ) error

	// Conversation log
	LogConversation(ctx context.Context, conv *models.Conversation) error
	ListConversations(ctx context.Context, sessionID string) ([]*models.Conversation, error)

	// Contact inquiries
	CreateInquiry(ctx context.Context, inquiry *models.Inquiry) error

	// Stats
	CountFAQs(ctx context.Context) (int64, error)
	CountInquiries(ctx context.Context) (int64, error)

	Close() error
}
