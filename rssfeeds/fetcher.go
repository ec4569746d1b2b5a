package rssfeeds

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"

	"newsshorts/logger"
	"newsshorts/types"
)

const (
	fetchTimeout = 20 * time.Second
	userAgent    = "newsshorts/1.0 (+https://github.com/mmcdole/gofeed)"
)

// FeedFetcher returns up to limit entries from one feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, source types.FeedSource, limit int) ([]types.Article, error)
}

// GoFeedFetcher parses RSS/Atom/JSON feeds with gofeed.
type GoFeedFetcher struct {
	parser    *gofeed.Parser
	extractor SummaryExtractor
	log       logrus.FieldLogger
}

// FetcherOption customizes a GoFeedFetcher.
type FetcherOption func(*GoFeedFetcher)

// WithHTTPClient overrides the client used to download feeds.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *GoFeedFetcher) {
		if client != nil {
			f.parser.Client = client
		}
	}
}

// WithSummaryExtractor fills empty summaries from the article page.
func WithSummaryExtractor(extractor SummaryExtractor) FetcherOption {
	return func(f *GoFeedFetcher) {
		f.extractor = extractor
	}
}

// NewGoFeedFetcher creates a fetcher with a bounded HTTP timeout.
func NewGoFeedFetcher(log logrus.FieldLogger, opts ...FetcherOption) *GoFeedFetcher {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: fetchTimeout}
	parser.UserAgent = userAgent

	f := &GoFeedFetcher{
		parser: parser,
		log:    logger.OrDiscard(log),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves and parses a feed, returning article metadata
func (f *GoFeedFetcher) Fetch(ctx context.Context, source types.FeedSource, limit int) ([]types.Article, error) {
	feed, err := f.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", source.Name, err)
	}

	count := min(len(feed.Items), limit)
	if count < 0 {
		count = 0
	}
	articles := make([]types.Article, 0, count)

	for i := 0; i < count; i++ {
		item := feed.Items[i]

		// Get description/summary
		summary := item.Description
		if summary == "" {
			summary = item.Content
		}
		summary = cleanSummary(summary)

		link := strings.TrimSpace(item.Link)
		if summary == "" && link != "" && f.extractor != nil {
			excerpt, err := f.extractor.Excerpt(ctx, link)
			if err != nil {
				f.log.WithField("link", link).Debugf("summary extraction failed: %v", err)
			} else {
				summary = excerpt
			}
		}

		published := item.Published
		if published == "" {
			published = item.Updated
		}

		articles = append(articles, types.Article{
			Source:    source.Name,
			Title:     strings.TrimSpace(item.Title),
			Summary:   summary,
			Link:      link,
			Published: published,
		})
	}

	return articles, nil
}
