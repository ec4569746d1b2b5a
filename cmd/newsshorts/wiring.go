package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"newsshorts/config"
	"newsshorts/embeddings"
	"newsshorts/filtering"
	"newsshorts/history"
	"newsshorts/llm"
	"newsshorts/pipeline"
	"newsshorts/retry"
	"newsshorts/rssfeeds"
	"newsshorts/scriptgen"
	"newsshorts/storage"
	"newsshorts/tts"
	"newsshorts/video"
	"newsshorts/youtube"
)

// app is a fully wired pipeline plus the resources to release afterwards.
type app struct {
	pipeline *pipeline.Pipeline
	feeds    *rssfeeds.Aggregator
	closers  []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func newAggregator(cfg *config.Config, log logrus.FieldLogger) *rssfeeds.Aggregator {
	var opts []rssfeeds.FetcherOption
	if cfg.Feeds.ExtractMissing {
		opts = append(opts, rssfeeds.WithSummaryExtractor(rssfeeds.ReadabilityExtractor{}))
	}
	fetcher := rssfeeds.NewGoFeedFetcher(log, opts...)
	return rssfeeds.NewAggregator(fetcher, cfg.Feeds.Workers, log)
}

// buildApp wires every collaborator selected by cfg.
func buildApp(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	policy := retry.New(cfg.Retry.Attempts, cfg.Retry.BaseDelay, retry.WithLogger(log))
	a := &app{feeds: newAggregator(cfg, log)}

	embedder, err := embeddings.New(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	gen, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	narrator, err := tts.New(ctx, cfg.TTS)
	if err != nil {
		return nil, fmt.Errorf("tts: %w", err)
	}

	deps := pipeline.Deps{
		Aggregator: a.feeds,
		Semantic:   filtering.NewSemanticFilter(embedder, cfg.Filter.Anchor, policy, log),
		Rater:      filtering.NewRater(gen, policy, log),
		Scripts:    scriptgen.NewSynthesizer(gen, policy, narrator.Expressive(), log),
		Renderer:   video.NewRenderer(narrator, video.NewFFmpegEncoder(cfg.Video), cfg.Video, cfg.TTS.Speedup, policy, log),
		Log:        log,
	}

	if cfg.Pipeline.Upload {
		uploader, err := youtube.NewUploader(ctx, cfg.YouTube, policy, log)
		if err != nil {
			return nil, fmt.Errorf("youtube: %w", err)
		}
		deps.Publisher = uploader
	}

	if cfg.History.Enabled() {
		h, err := history.NewBloomHistory(ctx, cfg.History, log)
		if err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
		a.closers = append(a.closers, h.Close)
		deps.History = h
	}

	if cfg.Storage.Enabled() {
		s3, err := storage.NewS3(ctx, storage.S3Config{
			Region:       cfg.Storage.Region,
			Endpoint:     cfg.Storage.Endpoint,
			UsePathStyle: cfg.Storage.Endpoint != "",
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("storage: %w", err)
		}
		deps.Archiver = storage.NewArchiver(s3, cfg.Storage.Bucket, cfg.Storage.Prefix, log)
	}

	a.pipeline = pipeline.New(cfg, deps)
	return a, nil
}
