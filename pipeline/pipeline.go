package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"newsshorts/config"
	"newsshorts/logger"
	"newsshorts/storage"
	"newsshorts/types"
	"newsshorts/video"
	"newsshorts/youtube"
)

// ErrNoSegments is returned when script synthesis produced nothing to narrate.
var ErrNoSegments = errors.New("pipeline: script has no segments")

const (
	kindShorts  = "shorts"
	kindSummary = "summary"
)

type Aggregator interface {
	FetchAll(ctx context.Context, sources []types.FeedSource, limit int) []types.Article
}

type SemanticFilter interface {
	FilterStage1(ctx context.Context, articles []types.Article, topK int) ([]types.Article, error)
}

type Rater interface {
	FilterStage2(ctx context.Context, articles []types.Article, topK int) ([]types.Article, error)
}

// ScriptWriter synthesizes every script of a run from the final article set.
type ScriptWriter interface {
	CraftBundle(ctx context.Context, articles []types.Article, languages []string, withSummary bool) (types.ScriptBundle, error)
}

type Renderer interface {
	RenderSegments(ctx context.Context, segments []string, language, audioDir, outPath string) (*video.Render, error)
	RenderSummary(ctx context.Context, text, language, audioDir, outPath string) (*video.Render, error)
}

type Publisher interface {
	Upload(ctx context.Context, path string, meta youtube.Metadata) (string, error)
}

// History filters out stories published by earlier runs.
type History interface {
	Unseen(ctx context.Context, articles []types.Article) []types.Article
	Remember(ctx context.Context, articles []types.Article) error
}

type Archiver interface {
	Archive(ctx context.Context, m *storage.Manifest) error
}

// Deps are the pipeline's collaborators. Publisher, History and Archiver
// are optional.
type Deps struct {
	Aggregator Aggregator
	Semantic   SemanticFilter
	Rater      Rater
	Scripts    ScriptWriter
	Renderer   Renderer
	Publisher  Publisher
	History    History
	Archiver   Archiver
	Status     *StatusTracker
	Log        logrus.FieldLogger
	Now        func() time.Time
}

// Result is what one run produced.
type Result struct {
	RunID    string
	Fetched  int
	Selected []types.Article
	Scripts  map[string][]string
	Summary  string
	Videos   []storage.VideoRecord
}

// Pipeline runs aggregation, both filter stages, synthesis, rendering and
// publishing strictly in sequence.
type Pipeline struct {
	cfg  *config.Config
	deps Deps
	log  logrus.FieldLogger
}

func New(cfg *config.Config, deps Deps) *Pipeline {
	if deps.Status == nil {
		deps.Status = NewStatusTracker(config.MaxStatusLogs)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Pipeline{
		cfg:  cfg,
		deps: deps,
		log:  logger.OrDiscard(deps.Log),
	}
}

// Status exposes the tracker the pipeline reports to.
func (p *Pipeline) Status() *StatusTracker {
	return p.deps.Status
}

// Run executes one batch under a fresh run ID.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	return p.RunWithID(ctx, uuid.NewString())
}

// RunWithID executes one batch. Any error aborts the run and leaves the
// tracker in the error state; files already rendered stay on disk.
func (p *Pipeline) RunWithID(ctx context.Context, runID string) (*Result, error) {
	status := p.deps.Status
	status.Begin(runID)
	log := p.log.WithField("run_id", runID)

	res := &Result{RunID: runID, Scripts: make(map[string][]string)}
	manifest := &storage.Manifest{RunID: runID, StartedAt: p.deps.Now()}

	if err := p.run(ctx, res, log); err != nil {
		status.SetError(err)
		log.WithError(err).Error("Run failed")
		return res, err
	}

	// Step 6: Remember what went out, then archive
	if p.deps.History != nil {
		if err := p.deps.History.Remember(ctx, res.Selected); err != nil {
			log.WithError(err).Warn("Failed to record published articles")
			status.AddLog(fmt.Sprintf("History update failed: %v", err))
		}
	}

	if p.deps.Archiver != nil {
		manifest.FinishedAt = p.deps.Now()
		manifest.Fetched = res.Fetched
		manifest.Articles = res.Selected
		manifest.Scripts = res.Scripts
		manifest.Summary = res.Summary
		manifest.Videos = res.Videos
		if err := p.deps.Archiver.Archive(ctx, manifest); err != nil {
			err = fmt.Errorf("archive: %w", err)
			status.SetError(err)
			return res, err
		}
		status.AddLog("Run archived")
	}

	status.SetState(StateComplete)
	status.AddLog(fmt.Sprintf("Run complete: %d video(s)", len(res.Videos)))
	log.WithField("videos", len(res.Videos)).Info("✓ Run complete")
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, res *Result, log logrus.FieldLogger) error {
	status := p.deps.Status

	// Step 1: Aggregate feeds
	status.SetState(StateFetching)
	status.AddLog(fmt.Sprintf("Fetching %d feeds...", len(p.cfg.Feeds.Sources)))
	articles := p.deps.Aggregator.FetchAll(ctx, p.cfg.Feeds.Sources, p.cfg.Feeds.Limit)
	res.Fetched = len(articles)
	status.AddLog(fmt.Sprintf("Fetched %d unique articles", len(articles)))

	if p.deps.History != nil {
		articles = p.deps.History.Unseen(ctx, articles)
		if skipped := res.Fetched - len(articles); skipped > 0 {
			status.AddLog(fmt.Sprintf("Skipped %d previously published articles", skipped))
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Step 2: Semantic ranking
	status.SetState(StateFiltering)
	status.AddLog("Ranking articles against the anchor topic...")
	ranked, err := p.deps.Semantic.FilterStage1(ctx, articles, p.cfg.Filter.Stage1TopK)
	if err != nil {
		return fmt.Errorf("semantic filter: %w", err)
	}
	status.AddLog(fmt.Sprintf("Kept %d articles after semantic filtering", len(ranked)))

	// Step 3: Newsworthiness rating
	status.SetState(StateRating)
	status.AddLog("Rating newsworthiness...")
	selected, err := p.deps.Rater.FilterStage2(ctx, ranked, p.cfg.Filter.Stage2TopK)
	if err != nil {
		return fmt.Errorf("rating: %w", err)
	}
	res.Selected = selected
	status.SetCounts(res.Fetched, len(selected))
	status.AddLog(fmt.Sprintf("Selected %d articles", len(selected)))
	log.WithFields(logrus.Fields{
		"fetched":  res.Fetched,
		"selected": len(selected),
	}).Info("Filtering complete")

	// Step 4: Write every script before rendering anything
	bundle, err := p.script(ctx, res)
	if err != nil {
		return err
	}

	// Step 5: One short per language, then the daily summary
	if err := p.shortFor(ctx, bundle.Language, bundle.Primary, res, log); err != nil {
		return err
	}
	if bundle.HasSecondary() {
		if err := p.shortFor(ctx, bundle.SecondaryLanguage, bundle.Secondary, res, log); err != nil {
			return err
		}
	}
	if p.cfg.Pipeline.DailySummary {
		if err := p.summary(ctx, bundle.Language, bundle.Summary, res, log); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) script(ctx context.Context, res *Result) (types.ScriptBundle, error) {
	status := p.deps.Status
	langs := p.cfg.Pipeline.Languages

	status.SetState(StateScripting)
	status.AddLog(fmt.Sprintf("Writing scripts for %v...", langs))
	bundle, err := p.deps.Scripts.CraftBundle(ctx, res.Selected, langs, p.cfg.Pipeline.DailySummary)
	if err != nil {
		return bundle, fmt.Errorf("script synthesis: %w", err)
	}

	if len(bundle.Primary) == 0 {
		return bundle, fmt.Errorf("%w (%s)", ErrNoSegments, bundle.Language)
	}
	res.Scripts[bundle.Language] = bundle.Primary
	status.AddLog(fmt.Sprintf("%s script has %d segments", bundle.Language, len(bundle.Primary)))

	if len(langs) > 1 {
		if !bundle.HasSecondary() {
			return bundle, fmt.Errorf("%w (%s)", ErrNoSegments, langs[1])
		}
		res.Scripts[bundle.SecondaryLanguage] = bundle.Secondary
		status.AddLog(fmt.Sprintf("%s script has %d segments", bundle.SecondaryLanguage, len(bundle.Secondary)))
	}

	if p.cfg.Pipeline.DailySummary {
		if bundle.Summary == "" {
			return bundle, fmt.Errorf("%w (summary)", ErrNoSegments)
		}
		res.Summary = bundle.Summary
		status.AddLog("Daily summary written")
	}
	return bundle, nil
}

func (p *Pipeline) shortFor(ctx context.Context, lang string, segments []string, res *Result, log logrus.FieldLogger) error {
	status := p.deps.Status
	log = log.WithField("language", lang)

	status.SetState(StateRendering)
	status.AddLog(fmt.Sprintf("Rendering %s video...", lang))
	render, err := p.deps.Renderer.RenderSegments(ctx, segments, lang,
		p.cfg.Pipeline.AudioDir(lang), p.cfg.Pipeline.VideoFile(lang))
	if err != nil {
		return fmt.Errorf("render (%s): %w", lang, err)
	}
	log.WithField("path", render.Path).Info("Short rendered")

	rec := storage.VideoRecord{Kind: kindShorts, Language: lang, Path: render.Path, Duration: render.Duration}
	if rec.VideoID, err = p.publish(ctx, render.Path, config.ShortsTitlePrefix, res.Selected); err != nil {
		return fmt.Errorf("upload (%s): %w", lang, err)
	}
	p.record(res, rec)
	return nil
}

func (p *Pipeline) summary(ctx context.Context, lang, text string, res *Result, log logrus.FieldLogger) error {
	status := p.deps.Status

	status.SetState(StateRendering)
	status.AddLog("Rendering daily summary...")
	render, err := p.deps.Renderer.RenderSummary(ctx, text, lang,
		p.cfg.Pipeline.AudioDir("summary"), p.cfg.Pipeline.SummaryFile())
	if err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	log.WithField("path", render.Path).Info("Summary rendered")

	rec := storage.VideoRecord{Kind: kindSummary, Language: lang, Path: render.Path, Duration: render.Duration}
	if rec.VideoID, err = p.publish(ctx, render.Path, config.SummaryTitlePrefix, res.Selected); err != nil {
		return fmt.Errorf("upload summary: %w", err)
	}
	p.record(res, rec)
	return nil
}

// publish uploads path when publishing is enabled and returns the video ID.
func (p *Pipeline) publish(ctx context.Context, path, prefix string, articles []types.Article) (string, error) {
	if !p.cfg.Pipeline.Upload || p.deps.Publisher == nil {
		return "", nil
	}
	status := p.deps.Status
	status.SetState(StatePublishing)
	status.AddLog(fmt.Sprintf("Uploading %s...", path))

	meta := youtube.BuildMetadata(articles, prefix, p.deps.Now(), p.cfg.YouTube.Privacy)
	id, err := p.deps.Publisher.Upload(ctx, path, meta)
	if err != nil {
		return "", err
	}
	status.AddLog(fmt.Sprintf("Uploaded %q as %s", meta.Title, id))
	return id, nil
}

func (p *Pipeline) record(res *Result, rec storage.VideoRecord) {
	res.Videos = append(res.Videos, rec)
	p.deps.Status.AddVideo(VideoStatus{
		Kind:     rec.Kind,
		Language: rec.Language,
		Path:     rec.Path,
		VideoID:  rec.VideoID,
	})
}
