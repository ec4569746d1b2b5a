package rssfeeds

import (
	"context"
	"fmt"
	"time"

	readability "github.com/go-shiori/go-readability"
)

const (
	extractorTimeout = 30 * time.Second
	maxExcerptRunes  = 400
)

// SummaryExtractor produces a short summary for an article page.
type SummaryExtractor interface {
	Excerpt(ctx context.Context, url string) (string, error)
}

// ReadabilityExtractor pulls the readability excerpt, falling back to the
// opening of the article text.
type ReadabilityExtractor struct {
	Timeout time.Duration
}

func (r ReadabilityExtractor) Excerpt(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("article URL is empty")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = extractorTimeout
	}

	extracted, err := readability.FromURL(url, timeout)
	if err != nil {
		return "", fmt.Errorf("readability extraction failed: %w", err)
	}

	excerpt := collapseSpace(extracted.Excerpt)
	if excerpt == "" {
		excerpt = collapseSpace(extracted.TextContent)
	}
	return truncateRunes(excerpt, maxExcerptRunes), nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
