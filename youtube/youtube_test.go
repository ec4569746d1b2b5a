package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"newsshorts/config"
	"newsshorts/retry"
	"newsshorts/types"
)

func TestBuildMetadata(t *testing.T) {
	var articles []types.Article
	for i := 1; i <= 12; i++ {
		articles = append(articles, types.Article{Title: fmt.Sprintf("Story %d", i), Source: "The Hindu"})
	}
	now := time.Date(2025, 3, 7, 18, 0, 0, 0, time.UTC)

	meta := BuildMetadata(articles, config.ShortsTitlePrefix, now, "unlisted")

	if meta.Title != "News Shorts 2025-03-07" {
		t.Fatalf("title = %q", meta.Title)
	}
	if !strings.HasPrefix(meta.Description, "Sources:\n- Story 1 (The Hindu)\n") {
		t.Fatalf("description = %q", meta.Description)
	}
	if strings.Count(meta.Description, "\n- ") != 10 || strings.Contains(meta.Description, "Story 11") {
		t.Fatalf("expected exactly 10 sources, got %q", meta.Description)
	}
	if strings.Join(meta.Tags, ",") != "news,shorts,AI" || meta.CategoryID != "25" {
		t.Fatalf("unexpected tags/category: %v %s", meta.Tags, meta.CategoryID)
	}
	if v := meta.video(); v.Status.PrivacyStatus != "unlisted" || v.Snippet.CategoryId != "25" {
		t.Fatalf("unexpected video resource %+v", v.Status)
	}
}

func TestBuildMetadataFewArticles(t *testing.T) {
	meta := BuildMetadata([]types.Article{{Title: "Only", Source: "BBC"}}, config.SummaryTitlePrefix, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), "")
	if meta.Title != "News Summary 2025-01-02" || meta.Description != "Sources:\n- Only (BBC)\n" {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	if meta.video().Status.PrivacyStatus != "public" {
		t.Fatal("empty privacy should default to public")
	}
}

func TestLoadToken(t *testing.T) {
	tok, err := loadToken(`{"token": "ya29", "refresh_token": "1//r", "client_id": "cid", "expiry": "2025-01-01T10:00:00.123456Z"}`)
	if err != nil {
		t.Fatalf("loadToken inline: %v", err)
	}
	o := tok.OAuth2()
	if o.AccessToken != "ya29" || o.RefreshToken != "1//r" || tok.ClientID != "cid" {
		t.Fatalf("unexpected token %+v", o)
	}
	if o.Expiry.Year() != 2025 {
		t.Fatalf("expiry not parsed: %v", o.Expiry)
	}

	path := filepath.Join(t.TempDir(), "token.json")
	os.WriteFile(path, []byte(`{"access_token": "a", "refresh_token": "r", "expiry": "2025-01-01T10:00:00.5"}`), 0o600)
	tok, err = loadToken(path)
	if err != nil {
		t.Fatalf("loadToken file: %v", err)
	}
	if tok.OAuth2().AccessToken != "a" || tok.OAuth2().Expiry.IsZero() {
		t.Fatalf("unexpected token from file %+v", tok.OAuth2())
	}

	if _, err := loadToken(`{"scopes": []}`); err == nil {
		t.Fatal("expected error for token without credentials")
	}
	if _, err := loadToken(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing token file")
	}
}

func TestUnreadableExpiryForcesRefresh(t *testing.T) {
	tok := storedToken{AccessToken: "a", RefreshToken: "r", Expiry: "tomorrow"}
	if tok.OAuth2().Valid() {
		t.Fatal("token with unreadable expiry should not be considered valid")
	}
}

func TestIsPermanent(t *testing.T) {
	if !isPermanent(&googleapi.Error{Code: http.StatusForbidden}) {
		t.Fatal("403 should be permanent")
	}
	if isPermanent(&googleapi.Error{Code: http.StatusServiceUnavailable}) {
		t.Fatal("503 should be retried")
	}
	if isPermanent(errors.New("connection reset")) {
		t.Fatal("transport errors should be retried")
	}
}

func newTestUploader(t *testing.T, handler http.HandlerFunc) *Uploader {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := yt.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	policy := retry.New(2, time.Millisecond, retry.WithSleeper(func(time.Duration) {}))
	return NewUploaderWithService(svc, 0, policy, nil)
}

func writeVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "news_short.mp4")
	if err := os.WriteFile(path, []byte("fake mp4 bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUpload(t *testing.T) {
	u := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/upload/youtube/v3/videos") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": "vid-123"}`)
	})

	id, err := u.Upload(context.Background(), writeVideo(t), Metadata{Title: "News Shorts 2025-03-07"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if id != "vid-123" {
		t.Fatalf("id = %q", id)
	}
}

func TestUploadForbiddenIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	u := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error": {"code": 403, "message": "quotaExceeded"}}`)
	})

	_, err := u.Upload(context.Background(), writeVideo(t), Metadata{Title: "t"})
	if err == nil {
		t.Fatal("expected error")
	}
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		t.Fatalf("403 should not be retried: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 request, got %d", calls.Load())
	}
}

func TestUploadMissingFile(t *testing.T) {
	u := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	if _, err := u.Upload(context.Background(), filepath.Join(t.TempDir(), "none.mp4"), Metadata{}); err == nil {
		t.Fatal("expected error for missing file")
	}
}
