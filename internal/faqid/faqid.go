// Package faqid provides a deterministic FAQ ID from the question text for imported entries.
package faqid

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/hyperjump/kotae/internal/textnorm"
)

const (
	prefix    = "faq:"
	hexLength = 16
)

// FromQuestion returns a stable ID for an FAQ question. Questions that
// normalize to the same text share an ID, so re-importing a corpus whose
// rows only differ in case or punctuation updates instead of duplicating.
func FromQuestion(question string) string {
	hash := sha256.Sum256([]byte(textnorm.Normalize(question)))
	return prefix + hex.EncodeToString(hash[:])[:hexLength]
}

// IsDerived reports whether id has the form produced by FromQuestion.
func IsDerived(id string) bool {
	if len(id) != len(prefix)+hexLength || id[:len(prefix)] != prefix {
		return false
	}
	_, err := hex.DecodeString(id[len(prefix):])
	return err == nil
}
