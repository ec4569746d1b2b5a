package rssfeeds

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"newsshorts/types"
)

type fakeFetcher struct {
	feeds map[string][]types.Article
	fail  map[string]bool
	calls atomic.Int32
}

func (f *fakeFetcher) Fetch(_ context.Context, src types.FeedSource, limit int) ([]types.Article, error) {
	f.calls.Add(1)
	if f.fail[src.URL] {
		return nil, errors.New("connection refused")
	}
	arts := f.feeds[src.URL]
	if len(arts) > limit {
		arts = arts[:limit]
	}
	return arts, nil
}

func TestFetchAllDedupByLink(t *testing.T) {
	fetcher := &fakeFetcher{feeds: map[string][]types.Article{
		"url1": {
			{Source: "A", Title: "T1", Summary: "S1", Link: "L1", Published: "now"},
			{Source: "A", Title: "T2", Summary: "S2", Link: "L2", Published: "now"},
		},
		"url2": {
			{Source: "B", Title: "T1", Summary: "S1", Link: "L1", Published: "now"},
		},
	}}
	sources := []types.FeedSource{{Name: "A", URL: "url1"}, {Name: "B", URL: "url2"}}

	arts := NewAggregator(fetcher, 1, nil).FetchAll(context.Background(), sources, 5)
	if len(arts) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(arts))
	}
	if arts[0].Link != "L1" || arts[1].Link != "L2" {
		t.Fatalf("unexpected order: %+v", arts)
	}
	if arts[0].Source != "A" {
		t.Fatalf("first-seen article should win, got source %q", arts[0].Source)
	}
}

func TestFetchAllTitleFallbackAndEmptyKey(t *testing.T) {
	fetcher := &fakeFetcher{feeds: map[string][]types.Article{
		"url1": {
			{Source: "A", Title: "Same headline"},
			{Source: "A", Title: "", Link: ""},
		},
		"url2": {
			{Source: "B", Title: "Same headline"},
			{Source: "B", Title: "Other", Link: "L9"},
		},
	}}
	sources := []types.FeedSource{{Name: "A", URL: "url1"}, {Name: "B", URL: "url2"}}

	arts := NewAggregator(fetcher, 1, nil).FetchAll(context.Background(), sources, 5)
	if len(arts) != 2 {
		t.Fatalf("expected 2 articles, got %d: %+v", len(arts), arts)
	}
	if arts[0].Title != "Same headline" || arts[0].Source != "A" || arts[1].Link != "L9" {
		t.Fatalf("unexpected articles: %+v", arts)
	}
}

func TestFetchAllSkipsFailingFeed(t *testing.T) {
	fetcher := &fakeFetcher{
		feeds: map[string][]types.Article{
			"ok": {{Source: "OK", Title: "T", Link: "L"}},
		},
		fail: map[string]bool{"down": true},
	}
	sources := []types.FeedSource{{Name: "Down", URL: "down"}, {Name: "OK", URL: "ok"}}

	arts := NewAggregator(fetcher, 1, nil).FetchAll(context.Background(), sources, 5)
	if len(arts) != 1 || arts[0].Source != "OK" {
		t.Fatalf("expected only the healthy feed, got %+v", arts)
	}
}

func TestFetchAllAllFeedsFail(t *testing.T) {
	fetcher := &fakeFetcher{fail: map[string]bool{"a": true, "b": true}}
	sources := []types.FeedSource{{Name: "A", URL: "a"}, {Name: "B", URL: "b"}}

	arts := NewAggregator(fetcher, 1, nil).FetchAll(context.Background(), sources, 5)
	if arts == nil || len(arts) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", arts)
	}
}

func TestFetchAllParallelKeepsDeclaredOrder(t *testing.T) {
	feeds := make(map[string][]types.Article)
	var sources []types.FeedSource
	for i := 0; i < 12; i++ {
		url := fmt.Sprintf("url%d", i)
		sources = append(sources, types.FeedSource{Name: fmt.Sprintf("S%d", i), URL: url})
		feeds[url] = []types.Article{
			{Source: fmt.Sprintf("S%d", i), Title: "shared", Link: "shared"},
			{Source: fmt.Sprintf("S%d", i), Title: url, Link: "link-" + url},
		}
	}
	fetcher := &fakeFetcher{feeds: feeds}

	arts := NewAggregator(fetcher, 4, nil).FetchAll(context.Background(), sources, 5)
	if got := fetcher.calls.Load(); got != 12 {
		t.Fatalf("expected 12 fetches, got %d", got)
	}
	if len(arts) != 13 {
		t.Fatalf("expected 13 unique articles, got %d", len(arts))
	}
	if arts[0].Source != "S0" || arts[0].Link != "shared" {
		t.Fatalf("shared article should come from the first declared feed, got %+v", arts[0])
	}
	for i := 0; i < 12; i++ {
		if want := fmt.Sprintf("link-url%d", i); arts[i+1].Link != want {
			t.Fatalf("position %d = %s, want %s", i+1, arts[i+1].Link, want)
		}
	}
}

func TestFetchAllRespectsLimit(t *testing.T) {
	fetcher := &fakeFetcher{feeds: map[string][]types.Article{
		"u": {{Title: "1", Link: "1"}, {Title: "2", Link: "2"}, {Title: "3", Link: "3"}},
	}}
	arts := NewAggregator(fetcher, 1, nil).FetchAll(context.Background(), []types.FeedSource{{Name: "U", URL: "u"}}, 2)
	if len(arts) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(arts))
	}
}

const rssTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>%s</title>
%s
</channel>
</rss>`

func rssItem(title, link, description string) string {
	return fmt.Sprintf("<item><title>%s</title><link>%s</link><description><![CDATA[%s]]></description><pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate></item>", title, link, description)
}

func TestGoFeedFetcherWithHTTPServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/one":
			w.Header().Set("Content-Type", "application/rss+xml")
			fmt.Fprintf(w, rssTemplate, "One",
				rssItem("T1", "http://news.example/L1", "<p>Budget <b>passed</b></p>")+
					rssItem("T2", "http://news.example/L2", "Plain summary"))
		case "/two":
			w.Header().Set("Content-Type", "application/rss+xml")
			fmt.Fprintf(w, rssTemplate, "Two", rssItem("T1 again", "http://news.example/L1", "dup"))
		default:
			http.Error(w, "gone", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	fetcher := NewGoFeedFetcher(nil, WithHTTPClient(srv.Client()))
	sources := []types.FeedSource{
		{Name: "One", URL: srv.URL + "/one"},
		{Name: "Broken", URL: srv.URL + "/broken"},
		{Name: "Two", URL: srv.URL + "/two"},
	}

	arts := NewAggregator(fetcher, 2, nil).FetchAll(context.Background(), sources, 5)
	if len(arts) != 2 {
		t.Fatalf("expected 2 merged articles, got %d: %+v", len(arts), arts)
	}
	if arts[0].Summary != "Budget passed" {
		t.Fatalf("expected HTML stripped summary, got %q", arts[0].Summary)
	}
	if arts[0].Source != "One" || arts[0].Published == "" {
		t.Fatalf("unexpected first article: %+v", arts[0])
	}
	if arts[1].Link != "http://news.example/L2" {
		t.Fatalf("unexpected second article: %+v", arts[1])
	}
}

type stubExtractor struct{ calls int }

func (s *stubExtractor) Excerpt(_ context.Context, url string) (string, error) {
	s.calls++
	return "excerpt for " + url, nil
}

func TestGoFeedFetcherFillsEmptySummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, rssTemplate, "One",
			rssItem("T1", "http://news.example/L1", "")+rssItem("T2", "http://news.example/L2", "has one"))
	}))
	defer srv.Close()

	ext := &stubExtractor{}
	fetcher := NewGoFeedFetcher(nil, WithHTTPClient(srv.Client()), WithSummaryExtractor(ext))

	arts, err := fetcher.Fetch(context.Background(), types.FeedSource{Name: "One", URL: srv.URL}, 5)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if ext.calls != 1 {
		t.Fatalf("expected extractor called once, got %d", ext.calls)
	}
	if !strings.HasPrefix(arts[0].Summary, "excerpt for") || arts[1].Summary != "has one" {
		t.Fatalf("unexpected summaries: %q, %q", arts[0].Summary, arts[1].Summary)
	}
}

func TestCleanSummary(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  plain   text \n here ", "plain text here"},
		{"<p>Hello <a href=\"x\">world</a></p><script>var x;</script>", "Hello world"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
	}
	for _, tt := range tests {
		if got := cleanSummary(tt.in); got != tt.want {
			t.Fatalf("cleanSummary(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
