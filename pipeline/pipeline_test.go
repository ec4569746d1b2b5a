package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"newsshorts/config"
	"newsshorts/storage"
	"newsshorts/types"
	"newsshorts/video"
	"newsshorts/youtube"
)

type fakeAggregator struct {
	articles []types.Article
}

func (f *fakeAggregator) FetchAll(context.Context, []types.FeedSource, int) []types.Article {
	return f.articles
}

type fakeStage1 struct {
	err   error
	input []types.Article
}

func (f *fakeStage1) FilterStage1(_ context.Context, articles []types.Article, topK int) ([]types.Article, error) {
	f.input = articles
	if f.err != nil {
		return nil, f.err
	}
	return articles[:min(topK, len(articles))], nil
}

// fakeRater reverses its input, mimicking a reordering rater.
type fakeRater struct{}

func (fakeRater) FilterStage2(_ context.Context, articles []types.Article, topK int) ([]types.Article, error) {
	out := make([]types.Article, 0, len(articles))
	for i := len(articles) - 1; i >= 0; i-- {
		out = append(out, articles[i])
	}
	return out[:min(topK, len(out))], nil
}

type fakeScripts struct {
	segments map[string][]string
	summary  string
	langs    []string
	calls    int
}

func (f *fakeScripts) CraftBundle(_ context.Context, _ []types.Article, languages []string, withSummary bool) (types.ScriptBundle, error) {
	f.calls++
	f.langs = append(f.langs, languages...)
	bundle := types.ScriptBundle{Language: languages[0], Primary: f.segments[languages[0]]}
	if len(languages) > 1 {
		bundle.SecondaryLanguage = languages[1]
		bundle.Secondary = f.segments[languages[1]]
	}
	if withSummary {
		bundle.Summary = f.summary
	}
	return bundle, nil
}

type renderCall struct {
	scripted int
	texts    []string
	language string
	audioDir string
	outPath  string
	summary  bool
}

type fakeRenderer struct {
	scripts *fakeScripts
	calls   []renderCall
	err     error
}

func (f *fakeRenderer) RenderSegments(_ context.Context, segments []string, language, audioDir, outPath string) (*video.Render, error) {
	f.calls = append(f.calls, renderCall{scripted: f.scripts.calls, texts: segments, language: language, audioDir: audioDir, outPath: outPath})
	if f.err != nil {
		return nil, f.err
	}
	return &video.Render{Path: outPath, Duration: float64(len(segments))}, nil
}

func (f *fakeRenderer) RenderSummary(_ context.Context, text, language, audioDir, outPath string) (*video.Render, error) {
	f.calls = append(f.calls, renderCall{scripted: f.scripts.calls, texts: []string{text}, language: language, audioDir: audioDir, outPath: outPath, summary: true})
	return &video.Render{Path: outPath, Duration: 1}, nil
}

type fakePublisher struct {
	metas []youtube.Metadata
}

func (f *fakePublisher) Upload(_ context.Context, _ string, meta youtube.Metadata) (string, error) {
	f.metas = append(f.metas, meta)
	return fmt.Sprintf("vid-%d", len(f.metas)), nil
}

type fakeHistory struct {
	seen       map[string]bool
	remembered []types.Article
}

func (f *fakeHistory) Unseen(_ context.Context, articles []types.Article) []types.Article {
	var out []types.Article
	for _, a := range articles {
		if !f.seen[a.Title] {
			out = append(out, a)
		}
	}
	return out
}

func (f *fakeHistory) Remember(_ context.Context, articles []types.Article) error {
	f.remembered = append(f.remembered, articles...)
	return nil
}

type fakeArchiver struct {
	manifests []*storage.Manifest
}

func (f *fakeArchiver) Archive(_ context.Context, m *storage.Manifest) error {
	f.manifests = append(f.manifests, m)
	return nil
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		Feeds:  config.FeedsConfig{Sources: []types.FeedSource{{Name: "SRC", URL: "https://src/rss"}}, Limit: 15},
		Filter: config.FilterConfig{Stage1TopK: 2, Stage2TopK: 2},
		Pipeline: config.PipelineConfig{
			Languages:    []string{"en", "hi"},
			DailySummary: true,
			Upload:       true,
			OutputDir:    dir,
			FilePrefix:   "news_short",
		},
		YouTube: config.YouTubeConfig{Privacy: "public"},
	}
}

func articles(titles ...string) []types.Article {
	out := make([]types.Article, len(titles))
	for i, t := range titles {
		out[i] = types.Article{Source: "SRC", Title: t, Summary: "S", Link: "https://src/" + t}
	}
	return out
}

type harness struct {
	cfg       *config.Config
	stage1    *fakeStage1
	scripts   *fakeScripts
	renderer  *fakeRenderer
	publisher *fakePublisher
	history   *fakeHistory
	archiver  *fakeArchiver
	pipeline  *Pipeline
}

func newHarness(t *testing.T, input []types.Article) *harness {
	t.Helper()
	h := &harness{
		cfg:    testConfig(t.TempDir()),
		stage1: &fakeStage1{},
		scripts: &fakeScripts{
			segments: map[string][]string{"en": {"One.", "Two."}, "hi": {"एक।"}},
			summary:  "Today in brief.",
		},
		publisher: &fakePublisher{},
		history:   &fakeHistory{seen: map[string]bool{}},
		archiver:  &fakeArchiver{},
	}
	h.renderer = &fakeRenderer{scripts: h.scripts}
	h.pipeline = New(h.cfg, Deps{
		Aggregator: &fakeAggregator{articles: input},
		Semantic:   h.stage1,
		Rater:      fakeRater{},
		Scripts:    h.scripts,
		Renderer:   h.renderer,
		Publisher:  h.publisher,
		History:    h.history,
		Archiver:   h.archiver,
		Now:        func() time.Time { return time.Date(2025, 3, 7, 6, 0, 0, 0, time.UTC) },
	})
	return h
}

func TestRunEndToEnd(t *testing.T) {
	h := newHarness(t, articles("A1", "A2", "A3"))

	res, err := h.pipeline.RunWithID(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Fetched != 3 || len(res.Selected) != 2 || res.Selected[0].Title != "A2" || res.Selected[1].Title != "A1" {
		t.Fatalf("unexpected selection %+v", res.Selected)
	}
	if len(h.renderer.calls) != 3 {
		t.Fatalf("expected 3 renders, got %d", len(h.renderer.calls))
	}

	en, hi, sum := h.renderer.calls[0], h.renderer.calls[1], h.renderer.calls[2]
	if en.outPath != filepath.Join(h.cfg.Pipeline.OutputDir, "news_short.mp4") || en.language != "en" || len(en.texts) != 2 {
		t.Fatalf("unexpected en render %+v", en)
	}
	if hi.outPath != filepath.Join(h.cfg.Pipeline.OutputDir, "news_short_hi.mp4") || hi.audioDir != h.cfg.Pipeline.AudioDir("hi") {
		t.Fatalf("unexpected hi render %+v", hi)
	}
	if !sum.summary || sum.outPath != h.cfg.Pipeline.SummaryFile() || sum.texts[0] != "Today in brief." {
		t.Fatalf("unexpected summary render %+v", sum)
	}

	titles := []string{"News Shorts 2025-03-07", "News Shorts 2025-03-07", "News Summary 2025-03-07"}
	if len(h.publisher.metas) != len(titles) {
		t.Fatalf("expected %d uploads, got %d", len(titles), len(h.publisher.metas))
	}
	for i, want := range titles {
		if h.publisher.metas[i].Title != want {
			t.Fatalf("upload %d title = %q, want %q", i, h.publisher.metas[i].Title, want)
		}
	}

	if len(h.history.remembered) != 2 {
		t.Fatalf("expected selected articles remembered, got %+v", h.history.remembered)
	}
	if len(h.archiver.manifests) != 1 {
		t.Fatal("expected manifest to be archived")
	}
	m := h.archiver.manifests[0]
	if m.RunID != "run-1" || len(m.Videos) != 3 || m.Videos[2].VideoID != "vid-3" || m.Summary != "Today in brief." {
		t.Fatalf("unexpected manifest %+v", m)
	}

	st := h.pipeline.Status().Status()
	if st.State != StateComplete || st.RunID != "run-1" || st.SelectedCount != 2 || len(st.Videos) != 3 {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestRunNoSegments(t *testing.T) {
	h := newHarness(t, articles("A1"))
	h.scripts.segments["hi"] = []string{}

	_, err := h.pipeline.RunWithID(context.Background(), "run-2")
	if !errors.Is(err, ErrNoSegments) {
		t.Fatalf("expected ErrNoSegments, got %v", err)
	}
	if len(h.renderer.calls) != 0 {
		t.Fatalf("nothing should render when a script is empty, got %d renders", len(h.renderer.calls))
	}
	if len(h.archiver.manifests) != 0 || len(h.history.remembered) != 0 {
		t.Fatal("failed runs must not be archived or remembered")
	}
	st := h.pipeline.Status().Status()
	if st.State != StateError || st.Error == "" {
		t.Fatalf("expected error state, got %+v", st)
	}
}

func TestRunEmptySummary(t *testing.T) {
	h := newHarness(t, articles("A1"))
	h.scripts.summary = ""

	_, err := h.pipeline.RunWithID(context.Background(), "run-3")
	if !errors.Is(err, ErrNoSegments) || !strings.Contains(err.Error(), "summary") {
		t.Fatalf("expected ErrNoSegments for the summary, got %v", err)
	}
	if len(h.renderer.calls) != 0 {
		t.Fatalf("expected no renders, got %d", len(h.renderer.calls))
	}
}

func TestRunScriptsBeforeRendering(t *testing.T) {
	h := newHarness(t, articles("A1", "A2"))

	res, err := h.pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h.scripts.calls != 1 {
		t.Fatalf("expected one synthesis call, got %d", h.scripts.calls)
	}
	for _, c := range h.renderer.calls {
		if c.scripted != 1 {
			t.Fatalf("render %s ran before synthesis finished", c.outPath)
		}
	}
	if len(res.Scripts["en"]) != 2 || len(res.Scripts["hi"]) != 1 || res.Summary != "Today in brief." {
		t.Fatalf("unexpected scripts %+v summary %q", res.Scripts, res.Summary)
	}
}

func TestRunSingleLanguage(t *testing.T) {
	h := newHarness(t, articles("A1"))
	h.cfg.Pipeline.Languages = []string{"en"}
	h.cfg.Pipeline.DailySummary = false

	res, err := h.pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Videos) != 1 || res.Videos[0].Language != "en" || len(h.renderer.calls) != 1 {
		t.Fatalf("expected only the en short, got %+v", res.Videos)
	}
}

func TestRunLogsFailure(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	h := newHarness(t, articles("A1"))
	h.stage1.err = errors.New("quota exceeded")
	p := New(h.cfg, Deps{
		Aggregator: &fakeAggregator{articles: articles("A1")},
		Semantic:   h.stage1,
		Rater:      fakeRater{},
		Scripts:    h.scripts,
		Renderer:   h.renderer,
		Log:        log,
	})

	if _, err := p.RunWithID(context.Background(), "run-log"); err == nil {
		t.Fatal("expected error")
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.ErrorLevel || entry.Data["run_id"] != "run-log" {
		t.Fatalf("expected an error entry tagged with the run id, got %+v", entry)
	}
}

func TestRunUploadDisabled(t *testing.T) {
	h := newHarness(t, articles("A1", "A2"))
	h.cfg.Pipeline.Upload = false
	h.cfg.Pipeline.DailySummary = false

	res, err := h.pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(h.publisher.metas) != 0 {
		t.Fatal("publisher must not be called when upload is disabled")
	}
	if len(res.Videos) != 2 || res.Videos[0].VideoID != "" {
		t.Fatalf("unexpected videos %+v", res.Videos)
	}
	if res.RunID == "" {
		t.Fatal("expected a generated run ID")
	}
}

func TestRunStageErrorAborts(t *testing.T) {
	h := newHarness(t, articles("A1"))
	boom := errors.New("embedding outage")
	h.stage1.err = boom

	if _, err := h.pipeline.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected embedding error, got %v", err)
	}
	if len(h.renderer.calls) != 0 || len(h.scripts.langs) != 0 {
		t.Fatal("no later stage should run after a filter failure")
	}
}

func TestRunRenderErrorAborts(t *testing.T) {
	h := newHarness(t, articles("A1"))
	h.renderer.err = errors.New("ffmpeg exited 1")

	if _, err := h.pipeline.Run(context.Background()); err == nil {
		t.Fatal("expected render error")
	}
	if len(h.publisher.metas) != 0 {
		t.Fatal("nothing should be uploaded after a render failure")
	}
}

func TestRunSkipsPreviouslyPublished(t *testing.T) {
	h := newHarness(t, articles("A1", "A2", "A3"))
	h.history.seen["A1"] = true

	if _, err := h.pipeline.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(h.stage1.input) != 2 || h.stage1.input[0].Title != "A2" {
		t.Fatalf("expected A1 filtered out before ranking, got %+v", h.stage1.input)
	}
}

func TestStatusTrackerRingBuffer(t *testing.T) {
	st := NewStatusTracker(3)
	for i := 0; i < 5; i++ {
		st.AddLog(fmt.Sprintf("line %d", i))
	}
	logs := st.Status().Logs
	if len(logs) != 3 || logs[0].Message != "line 2" || logs[2].Message != "line 4" {
		t.Fatalf("unexpected logs %+v", logs)
	}

	st.SetError(errors.New("boom"))
	s := st.Status()
	if s.State != StateError || s.Error != "boom" || s.Logs[2].Message != "Error: boom" {
		t.Fatalf("unexpected status after error %+v", s)
	}

	st.Begin("next")
	if s := st.Status(); s.State != StateFetching || s.Error != "" || s.RunID != "next" {
		t.Fatalf("Begin should reset the run, got %+v", s)
	}
}

func TestStateBusy(t *testing.T) {
	for _, s := range []State{StateIdle, StateComplete, StateError} {
		if s.Busy() {
			t.Fatalf("%s should not be busy", s)
		}
	}
	if !StateRendering.Busy() {
		t.Fatal("rendering should be busy")
	}
}

func blockingRunner(release <-chan struct{}, started chan<- string) *Runner {
	r := NewRunner(New(testConfig(""), Deps{}), nil)
	n := 0
	var mu sync.Mutex
	r.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("run-%d", n)
	}
	r.run = func(ctx context.Context, id string) (*Result, error) {
		started <- id
		<-release
		return &Result{RunID: id}, nil
	}
	return r
}

func TestRunnerRejectsConcurrentRun(t *testing.T) {
	release := make(chan struct{})
	started := make(chan string, 2)
	r := blockingRunner(release, started)

	id, err := r.Start(context.Background(), "test")
	if err != nil || id != "run-1" {
		t.Fatalf("Start = %q, %v", id, err)
	}
	<-started

	if _, err := r.Run(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
	if _, err := r.Start(context.Background(), "test"); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
	if !r.Busy() {
		t.Fatal("runner should report busy")
	}

	close(release)
	r.Wait()

	if r.Busy() {
		t.Fatal("runner should be free after the run finished")
	}
	res, err := r.Run(context.Background())
	if err != nil || res.RunID != "run-2" {
		t.Fatalf("second run = %+v, %v", res, err)
	}
}

func TestKafkaTrigger(t *testing.T) {
	release := make(chan struct{})
	close(release)
	started := make(chan string, 4)
	r := blockingRunner(release, started)
	h := NewKafkaTrigger(r, nil)

	mark, err := h.HandleMessage(context.Background(), []byte(`{"requested_by":"scheduler"}`))
	if !mark || err != nil {
		t.Fatalf("HandleMessage = %v, %v", mark, err)
	}
	if id := <-started; id != "run-1" {
		t.Fatalf("unexpected run %q", id)
	}

	stale := fmt.Sprintf(`{"requested_by":"old","requested_at":%q}`, time.Now().Add(-24*time.Hour).Format(time.RFC3339))
	mark, err = h.HandleMessage(context.Background(), []byte(stale))
	if !mark || err != nil {
		t.Fatalf("stale request should be marked and skipped, got %v, %v", mark, err)
	}
	if len(started) != 0 {
		t.Fatal("stale request must not start a run")
	}
}

func TestKafkaTriggerDropsWhileBusy(t *testing.T) {
	release := make(chan struct{})
	started := make(chan string, 2)
	r := blockingRunner(release, started)
	if _, err := r.Start(context.Background(), "api"); err != nil {
		t.Fatal(err)
	}
	<-started

	mark, err := NewKafkaTrigger(r, nil).HandleMessage(context.Background(), []byte(`{"requested_by":"x"}`))
	if !mark || err != nil {
		t.Fatalf("busy request should be acknowledged, got %v, %v", mark, err)
	}
	close(release)
	r.Wait()
}
