package types

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Article is a single feed entry. It is passed by value and never mutated
// after the aggregator creates it.
type Article struct {
	Source    string `json:"source"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Link      string `json:"link"`
	Published string `json:"published"`
}

// Key returns the identity used for deduplication: the link if present,
// otherwise the title.
func (a Article) Key() string {
	if link := strings.TrimSpace(a.Link); link != "" {
		return link
	}
	return strings.TrimSpace(a.Title)
}

// ID is a short stable hash of Key.
func (a Article) ID() string {
	return GenerateID(a.Key())
}

// EmbeddingText is the text embedded for semantic ranking.
func (a Article) EmbeddingText() string {
	return a.Title + " " + a.Summary
}

// FeedSource is a named feed endpoint.
type FeedSource struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// GenerateID creates a unique ID from a key
func GenerateID(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])[:16]
}
