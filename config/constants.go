package config

import "time"

// Pipeline defaults
const (
	// DefaultAnchorText is the topical centroid used by semantic filtering
	DefaultAnchorText = "India politics commerce sports technology entertainment"

	DefaultFeedLimit  = 15
	DefaultStage1TopK = 50
	DefaultStage2TopK = 20

	// SummaryArticleLimit caps the articles handed to the daily summary prompt
	SummaryArticleLimit = 20

	// MaxVideoLanguages is the primary plus one secondary language per run
	MaxVideoLanguages = 2
)

// Provider names
const (
	ProviderOpenAI     = "openai"
	ProviderGoogle     = "google"
	ProviderCompatible = "compatible"
	ProviderCohere     = "cohere"
	ProviderElevenLabs = "elevenlabs"
)

// Model defaults
const (
	DefaultChatModel       = "gpt-4o-mini"
	DefaultGoogleChatModel = "gemini-2.0-flash"
	DefaultGoogleBaseURL   = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultEmbeddingModel  = "text-embedding-ada-002"
	DefaultCohereModel     = "embed-english-v3.0"
	DefaultTTSModel        = "tts-1-hd"
	DefaultTTSVoice        = "ash"
	DefaultElevenLabsModel = "eleven_multilingual_v2"
	DefaultSpeedup         = 1.1
)

// Retry defaults
const (
	DefaultRetryLimit     = 3
	DefaultRetryBaseDelay = 5 * time.Second
)

// Video Output Constants
const (
	// VideoWidth is the output video width (9:16 aspect ratio)
	VideoWidth = 720

	// VideoHeight is the output video height (9:16 aspect ratio)
	VideoHeight = 1280

	VideoFPS = 24

	// VideoCodec is the video encoding codec
	VideoCodec = "libx264"

	// AudioCodec is the audio encoding codec
	AudioCodec = "aac"

	// AudioBitrate is the audio quality bitrate
	AudioBitrate = "192k"

	// VideoPreset is the ffmpeg encoding speed preset
	VideoPreset = "fast"

	// VideoEndPadding adds a delay at the end of the video in seconds
	VideoEndPadding = 0.5

	DefaultFont      = "Arial"
	DefaultFontSize  = 36
	DefaultTextColor = "white"
)

// YouTube Constants
const (
	// YouTubeCategoryID is News & Politics
	YouTubeCategoryID = "25"

	// YouTubePrivacyStatus sets video visibility
	YouTubePrivacyStatus = "public"

	// YouTubeSourceLimit caps the articles listed in a video description
	YouTubeSourceLimit = 10

	ShortsTitlePrefix  = "News Shorts"
	SummaryTitlePrefix = "News Summary"
)

// YouTubeTags are attached to every upload
var YouTubeTags = []string{"news", "shorts", "AI"}

// Server defaults
const (
	DefaultPort = "8080"

	// MaxStatusLogs is the size of the status log ring buffer
	MaxStatusLogs = 50
)
