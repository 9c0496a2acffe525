// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kotae/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS faqs (
		id TEXT PRIMARY KEY,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		keywords TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1,
		views INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_faqs_active ON faqs(active);

	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		message TEXT NOT NULL,
		outcome TEXT NOT NULL,
		faq_id TEXT,
		score INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_conversations_session ON conversations(session_id, created_at);

	CREATE TABLE IF NOT EXISTS inquiries (
		id TEXT PRIMARY KEY,
		session_id TEXT,
		name TEXT,
		email TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

const faqColumns = `id, question, answer, keywords, active, views, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFAQ(row rowScanner) (*models.FAQ, error) {
	var faq models.FAQ
	if err := row.Scan(&faq.ID, &faq.Question, &faq.Answer, &faq.Keywords,
		&faq.Active, &faq.Views, &faq.CreatedAt, &faq.UpdatedAt); err != nil {
		return nil, err
	}
	return &faq, nil
}

// CreateFAQ inserts an FAQ.
func (s *SQLiteStorage) CreateFAQ(ctx context.Context, faq *models.FAQ) error {
	now := time.Now()
	faq.CreatedAt = now
	faq.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO faqs (id, question, answer, keywords, active, views, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		faq.ID, faq.Question, faq.Answer, faq.Keywords, faq.Active, faq.Views, faq.CreatedAt, faq.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert faq %s: %w", faq.ID, err)
	}
	return nil
}

// GetFAQ returns an FAQ by ID.
func (s *SQLiteStorage) GetFAQ(ctx context.Context, id string) (*models.FAQ, error) {
	faq, err := scanFAQ(s.db.QueryRowContext(ctx,
		`SELECT `+faqColumns+` FROM faqs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("faq %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return faq, nil
}

// UpdateFAQ updates question, answer, keywords and active flag of an existing FAQ.
func (s *SQLiteStorage) UpdateFAQ(ctx context.Context, faq *models.FAQ) error {
	faq.UpdatedAt = time.Now()

	result, err := s.db.ExecContext(ctx,
		`UPDATE faqs SET question = ?, answer = ?, keywords = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		faq.Question, faq.Answer, faq.Keywords, faq.Active, faq.UpdatedAt, faq.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("faq %s: %w", faq.ID, ErrNotFound)
	}
	return nil
}

// DeleteFAQ removes an FAQ by ID.
func (s *SQLiteStorage) DeleteFAQ(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM faqs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("faq %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListFAQs returns FAQs in creation order with offset and limit.
func (s *SQLiteStorage) ListFAQs(ctx context.Context, offset, limit int) ([]*models.FAQ, error) {
	return s.queryFAQs(ctx,
		`SELECT `+faqColumns+` FROM faqs ORDER BY created_at, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
}

// ListActiveFAQs returns every active FAQ in creation order. This is the
// corpus the matcher ranks; its order decides ties.
func (s *SQLiteStorage) ListActiveFAQs(ctx context.Context) ([]*models.FAQ, error) {
	return s.queryFAQs(ctx,
		`SELECT `+faqColumns+` FROM faqs WHERE active = 1 ORDER BY created_at, id`)
}

func (s *SQLiteStorage) queryFAQs(ctx context.Context, query string, args ...any) ([]*models.FAQ, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var faqs []*models.FAQ
	for rows.Next() {
		faq, err := scanFAQ(rows)
		if err != nil {
			return nil, err
		}
		faqs = append(faqs, faq)
	}
	return faqs, rows.Err()
}

// IncrementViews bumps the view counter of an FAQ.
func (s *SQLiteStorage) IncrementViews(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE faqs SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("faq %s: %w", id, ErrNotFound)
	}
	return nil
}

// UpsertFAQs inserts or replaces multiple FAQs in a transaction. View
// counters and creation times of existing rows are preserved.
func (s *SQLiteStorage) UpsertFAQs(ctx context.Context, faqs []*models.FAQ) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO faqs (id, question, answer, keywords, active, views, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			question = excluded.question,
			answer = excluded.answer,
			keywords = excluded.keywords,
			active = excluded.active,
			updated_at = excluded.updated_at`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for i, faq := range faqs {
		// Distinct timestamps keep batch order as corpus order.
		ts := now.Add(time.Duration(i) * time.Microsecond)
		if _, err := stmt.ExecContext(ctx, faq.ID, faq.Question, faq.Answer, faq.Keywords, faq.Active, ts, ts); err != nil {
			return fmt.Errorf("failed to upsert faq %s: %w", faq.ID, err)
		}
	}
	return tx.Commit()
}

// LogConversation appends a chat turn. ID and CreatedAt are filled when empty.
func (s *SQLiteStorage) LogConversation(ctx context.Context, conv *models.Conversation) error {
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now()
	}
	var faqID sql.NullString
	if conv.FAQID != "" {
		faqID = sql.NullString{String: conv.FAQID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, session_id, message, outcome, faq_id, score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		conv.ID, conv.SessionID, conv.Message, conv.Outcome, faqID, conv.Score, conv.CreatedAt,
	)
	return err
}

// ListConversations returns the turns of a session, oldest first.
func (s *SQLiteStorage) ListConversations(ctx context.Context, sessionID string) ([]*models.Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, message, outcome, faq_id, score, created_at
		 FROM conversations WHERE session_id = ? ORDER BY created_at, rowid`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []*models.Conversation
	for rows.Next() {
		var conv models.Conversation
		var faqID sql.NullString
		if err := rows.Scan(&conv.ID, &conv.SessionID, &conv.Message, &conv.Outcome, &faqID, &conv.Score, &conv.CreatedAt); err != nil {
			return nil, err
		}
		conv.FAQID = faqID.String
		convs = append(convs, &conv)
	}
	return convs, rows.Err()
}

// CreateInquiry stores a contact form submission. ID and CreatedAt are filled when empty.
func (s *SQLiteStorage) CreateInquiry(ctx context.Context, inquiry *models.Inquiry) error {
	if inquiry.ID == "" {
		inquiry.ID = uuid.New().String()
	}
	if inquiry.CreatedAt.IsZero() {
		inquiry.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO inquiries (id, session_id, name, email, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		inquiry.ID, inquiry.SessionID, inquiry.Name, inquiry.Email, inquiry.Message, inquiry.CreatedAt,
	)
	return err
}

// CountFAQs returns the total number of FAQs.
func (s *SQLiteStorage) CountFAQs(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM faqs`).Scan(&count)
	return count, err
}

// CountInquiries returns the total number of contact inquiries.
func (s *SQLiteStorage) CountInquiries(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM inquiries`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
