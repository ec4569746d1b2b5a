package rssfeeds

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"newsshorts/logger"
	"newsshorts/types"
)

// Aggregator pulls every configured feed and merges the results.
type Aggregator struct {
	fetcher FeedFetcher
	workers int
	log     logrus.FieldLogger
}

// NewAggregator creates an aggregator. workers > 1 fetches feeds in parallel.
func NewAggregator(fetcher FeedFetcher, workers int, log logrus.FieldLogger) *Aggregator {
	if workers < 1 {
		workers = 1
	}
	return &Aggregator{
		fetcher: fetcher,
		workers: workers,
		log:     logger.OrDiscard(log),
	}
}

// FetchAll fetches up to limit entries per source and returns the
// deduplicated articles in first-seen order across sources. A failing source
// contributes nothing; the result may be empty.
func (a *Aggregator) FetchAll(ctx context.Context, sources []types.FeedSource, limit int) []types.Article {
	a.log.WithField("feeds", len(sources)).Info("Aggregating RSS feeds")

	batches := a.fetchBatches(ctx, sources, limit)
	articles := Merge(batches)

	a.log.WithField("count", len(articles)).Info("Total unique articles fetched")
	for _, art := range articles[:min(5, len(articles))] {
		a.log.Debugf(" → [%s] %s", art.Source, art.Title)
	}
	return articles
}

// fetchBatches returns one slot per source, in source order.
func (a *Aggregator) fetchBatches(ctx context.Context, sources []types.FeedSource, limit int) [][]types.Article {
	batches := make([][]types.Article, len(sources))

	if a.workers == 1 {
		for i, src := range sources {
			batches[i] = a.fetchOne(ctx, src, limit)
		}
		return batches
	}

	var wg sync.WaitGroup
	jobs := make(chan int, len(sources))

	for w := 0; w < min(a.workers, len(sources)); w++ {
		go func() {
			for i := range jobs {
				batches[i] = a.fetchOne(ctx, sources[i], limit)
				wg.Done()
			}
		}()
	}

	for i := range sources {
		wg.Add(1)
		jobs <- i
	}

	wg.Wait()
	close(jobs)
	return batches
}

func (a *Aggregator) fetchOne(ctx context.Context, src types.FeedSource, limit int) []types.Article {
	log := a.log.WithField("source", src.Name)

	arts, err := a.fetcher.Fetch(ctx, src, limit)
	if err != nil {
		log.Warnf("✖ feed failed: %v", err)
		return nil
	}
	log.Infof("✓ %d from %s", len(arts), src.Name)
	return arts
}

// Merge flattens batches in order, keeping the first article per identity
// key. Articles with an empty key are dropped.
func Merge(batches [][]types.Article) []types.Article {
	seen := make(map[string]bool)
	merged := make([]types.Article, 0)

	for _, batch := range batches {
		for _, art := range batch {
			key := art.Key()
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, art)
		}
	}
	return merged
}
