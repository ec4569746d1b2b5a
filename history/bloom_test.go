package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"newsshorts/types"
)

func TestNormalizeTitleAndURLAndHash(t *testing.T) {
	cases := []struct {
		name          string
		url           string
		title         string
		wantNormURL   string
		wantNormTitle string
	}{
		{"simple", "https://example.com/path", "Hello World", "https://example.com/path", "hello world"},
		{"utm and fragment", "https://example.com/path?utm_source=feed#section", "  Hello   World  ", "https://example.com/path", "hello world"},
		{"uppercase host", "HTTP://Example.COM/", "TiTle", "http://example.com", "title"},
		{"tracking params", "https://example.com/?fbclid=XYZ&gclid=ABC&utm_medium=1", "T", "https://example.com", "t"},
		{"empty link", "", "Budget Passed", "", "budget passed"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if nu := normalizeURL(c.url); nu != c.wantNormURL {
				t.Fatalf("normalizeURL(%q) = %q; want %q", c.url, nu, c.wantNormURL)
			}
			if nt := normalizeTitle(c.title); nt != c.wantNormTitle {
				t.Fatalf("normalizeTitle(%q) = %q; want %q", c.title, nt, c.wantNormTitle)
			}
			if h := NormalizeAndHash(types.Article{Link: c.url, Title: c.title}); len(h) != 64 {
				t.Fatalf("NormalizeAndHash returned %q", h)
			}
		})
	}
}

func TestHashIgnoresTracking(t *testing.T) {
	a := types.Article{Link: "https://example.com/story?utm_source=rss", Title: "Story"}
	b := types.Article{Link: "https://EXAMPLE.com/story#top", Title: "  story "}
	if NormalizeAndHash(a) != NormalizeAndHash(b) {
		t.Fatal("equivalent articles should hash the same")
	}
}

type fakeBloom struct {
	items     map[string]bool
	existsErr error
	expired   time.Duration
}

func (f *fakeBloom) BFMExists(_ context.Context, _ string, elements ...interface{}) *redis.BoolSliceCmd {
	if f.existsErr != nil {
		return redis.NewBoolSliceResult(nil, f.existsErr)
	}
	out := make([]bool, len(elements))
	for i, e := range elements {
		out[i] = f.items[e.(string)]
	}
	return redis.NewBoolSliceResult(out, nil)
}

func (f *fakeBloom) BFMAdd(_ context.Context, _ string, elements ...interface{}) *redis.BoolSliceCmd {
	if f.items == nil {
		f.items = make(map[string]bool)
	}
	out := make([]bool, len(elements))
	for i, e := range elements {
		out[i] = !f.items[e.(string)]
		f.items[e.(string)] = true
	}
	return redis.NewBoolSliceResult(out, nil)
}

func (f *fakeBloom) Expire(_ context.Context, _ string, ttl time.Duration) *redis.BoolCmd {
	f.expired = ttl
	return redis.NewBoolResult(true, nil)
}

func TestRememberThenUnseen(t *testing.T) {
	bloom := &fakeBloom{}
	h := newBloomHistory(bloom, "k", 48*time.Hour, nil)
	ctx := context.Background()

	old := types.Article{Title: "Old", Link: "https://x/old"}
	fresh := types.Article{Title: "Fresh", Link: "https://x/fresh"}

	if err := h.Remember(ctx, []types.Article{old}); err != nil {
		t.Fatalf("Remember: %v", err)
	}
	if bloom.expired != 48*time.Hour {
		t.Fatalf("expected TTL refresh, got %v", bloom.expired)
	}

	got := h.Unseen(ctx, []types.Article{old, fresh})
	if len(got) != 1 || got[0].Title != "Fresh" {
		t.Fatalf("expected only the fresh article, got %+v", got)
	}
}

func TestUnseenKeepsAllOnError(t *testing.T) {
	h := newBloomHistory(&fakeBloom{existsErr: errors.New("LOADING")}, "k", 0, nil)
	in := []types.Article{{Title: "A"}, {Title: "B"}}
	if got := h.Unseen(context.Background(), in); len(got) != 2 {
		t.Fatalf("expected input unchanged on error, got %+v", got)
	}
}
