package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"
	googleoption "google.golang.org/api/option"

	"newsshorts/config"
	"newsshorts/retry"
)

func TestElevenLabsNarrate(t *testing.T) {
	var got elevenLabsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/text-to-speech/voice-1/stream" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "secret" {
			t.Errorf("missing api key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte("ID3audio"))
	}))
	defer srv.Close()

	n := NewElevenLabsNarrator("secret", "voice-1", "")
	n.baseURL = srv.URL
	out := filepath.Join(t.TempDir(), "nested", "seg_00.mp3")

	if err := n.Narrate(context.Background(), "[sigh] Hello.", "en", out); err != nil {
		t.Fatalf("Narrate: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil || string(data) != "ID3audio" {
		t.Fatalf("unexpected audio file %q (%v)", data, err)
	}
	if got.Text != "[sigh] Hello." || got.ModelID != config.DefaultElevenLabsModel {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.VoiceSettings.Stability != 0.5 || got.VoiceSettings.SimilarityBoost != 0.75 || !got.VoiceSettings.UseSpeakerBoost {
		t.Fatalf("unexpected voice settings %+v", got.VoiceSettings)
	}
	if !n.Expressive() {
		t.Fatal("elevenlabs should be expressive")
	}
}

func TestElevenLabsErrors(t *testing.T) {
	tests := []struct {
		status    int
		permanent bool
	}{
		{http.StatusUnauthorized, true},
		{http.StatusUnprocessableEntity, true},
		{http.StatusTooManyRequests, false},
		{http.StatusBadGateway, false},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tt.status)
		}))
		n := NewElevenLabsNarrator("k", "v", "m")
		n.baseURL = srv.URL

		err := n.Narrate(context.Background(), "hi", "en", filepath.Join(t.TempDir(), "a.mp3"))
		srv.Close()
		if err == nil {
			t.Fatalf("status %d: expected error", tt.status)
		}
		if retry.IsPermanent(err) != tt.permanent {
			t.Fatalf("status %d: permanent = %v, want %v", tt.status, retry.IsPermanent(err), tt.permanent)
		}
	}
}

func TestOpenAINarrate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/speech") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("mp3"))
	}))
	defer srv.Close()

	n := NewOpenAINarrator("key", "", "", option.WithBaseURL(srv.URL))
	out := filepath.Join(t.TempDir(), "seg.mp3")
	if err := n.Narrate(context.Background(), "Hello", "hi", out); err != nil {
		t.Fatalf("Narrate: %v", err)
	}
	if body["model"] != "tts-1-hd" || body["voice"] != "ash" || body["input"] != "Hello" {
		t.Fatalf("unexpected request %v", body)
	}
	if data, _ := os.ReadFile(out); string(data) != "mp3" {
		t.Fatalf("unexpected audio %q", data)
	}
	if n.Expressive() {
		t.Fatal("openai narrator is not expressive")
	}
}

func TestGoogleNarrate(t *testing.T) {
	var req struct {
		Voice struct {
			LanguageCode string `json:"languageCode"`
		} `json:"voice"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"audioContent": base64.StdEncoding.EncodeToString([]byte("google-mp3")),
		})
	}))
	defer srv.Close()

	n, err := NewGoogleNarrator(context.Background(), "key", "en-IN",
		googleoption.WithEndpoint(srv.URL+"/"), googleoption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewGoogleNarrator: %v", err)
	}
	out := filepath.Join(t.TempDir(), "seg.mp3")
	if err := n.Narrate(context.Background(), "नमस्ते", "hi", out); err != nil {
		t.Fatalf("Narrate: %v", err)
	}
	if req.Voice.LanguageCode != "hi-IN" {
		t.Fatalf("expected hi-IN, got %q", req.Voice.LanguageCode)
	}
	if data, _ := os.ReadFile(out); string(data) != "google-mp3" {
		t.Fatalf("unexpected audio %q", data)
	}
}

func TestGoogleLanguageCode(t *testing.T) {
	n := &GoogleNarrator{defaultLanguage: "en-US"}
	tests := map[string]string{
		"":      "en-US",
		"en":    "en-US",
		"hi":    "hi-IN",
		"ta":    "ta-IN",
		"fr-FR": "fr-fr",
		"xx":    "xx",
	}
	for in, want := range tests {
		if got := n.languageCode(in); got != want {
			t.Fatalf("languageCode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewSelectsProvider(t *testing.T) {
	ctx := context.Background()

	n, err := New(ctx, config.TTSConfig{Provider: config.ProviderElevenLabs, ElevenLabsKey: "k", ElevenLabsVoice: "v"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := n.(*ElevenLabsNarrator); !ok {
		t.Fatalf("expected ElevenLabsNarrator, got %T", n)
	}

	n, err = New(ctx, config.TTSConfig{Provider: config.ProviderOpenAI, OpenAIKey: "k"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := n.(*OpenAINarrator); !ok {
		t.Fatalf("expected OpenAINarrator, got %T", n)
	}

	if _, err := New(ctx, config.TTSConfig{Provider: config.ProviderElevenLabs}); err == nil {
		t.Fatal("expected error without elevenlabs credentials")
	}
	if _, err := New(ctx, config.TTSConfig{Provider: "polly"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
