package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"newsshorts/types"
)

const configPathEnv = "NEWSSHORTS_CONFIG"

// Config is built once at startup and passed into every component.
type Config struct {
	LLM       LLMConfig
	Embedding EmbeddingConfig
	TTS       TTSConfig
	Feeds     FeedsConfig
	Filter    FilterConfig
	Pipeline  PipelineConfig
	Video     VideoConfig
	YouTube   YouTubeConfig
	Storage   StorageConfig
	History   HistoryConfig
	Kafka     KafkaConfig
	Server    ServerConfig
	Retry     RetryConfig
	Log       LogConfig
}

// LLMConfig selects the chat provider used for rating and script synthesis.
type LLMConfig struct {
	Provider    string
	OpenAIKey   string
	GoogleKey   string
	APIKey      string // compatible provider
	Model       string
	GoogleModel string
	BaseURL     string
	RPM         int
}

// EmbeddingConfig selects the embedding provider for semantic filtering.
type EmbeddingConfig struct {
	Provider  string
	Model     string
	OpenAIKey string
	CohereKey string
	BaseURL   string
}

// TTSConfig selects the narration engine.
type TTSConfig struct {
	Provider        string
	OpenAIKey       string
	Model           string
	Voice           string
	ElevenLabsKey   string
	ElevenLabsVoice string
	ElevenLabsModel string
	GoogleKey       string
	GoogleLanguage  string
	Speedup         float64
}

// Expressive reports whether the narrator understands bracketed emotion cues.
func (t TTSConfig) Expressive() bool {
	return t.Provider == ProviderElevenLabs
}

type FeedsConfig struct {
	Sources        []types.FeedSource
	Limit          int
	Workers        int
	ExtractMissing bool
}

type FilterConfig struct {
	Anchor     string
	Stage1TopK int
	Stage2TopK int
}

type PipelineConfig struct {
	Languages    []string
	DailySummary bool
	Upload       bool
	OutputDir    string
	FilePrefix   string
}

// AudioDir is where narration for the given language is written.
func (p PipelineConfig) AudioDir(language string) string {
	if language == "" || language == "en" {
		return filepath.Join(p.OutputDir, "audio_segments")
	}
	return filepath.Join(p.OutputDir, "audio_segments_"+language)
}

// VideoFile is the output path for the given language.
func (p PipelineConfig) VideoFile(language string) string {
	if language == "" || language == "en" {
		return filepath.Join(p.OutputDir, p.FilePrefix+".mp4")
	}
	return filepath.Join(p.OutputDir, fmt.Sprintf("%s_%s.mp4", p.FilePrefix, language))
}

// SummaryFile is the output path for the daily summary video.
func (p PipelineConfig) SummaryFile() string {
	return filepath.Join(p.OutputDir, "daily_summary.mp4")
}

type VideoConfig struct {
	Width           int
	Height          int
	FPS             int
	Font            string
	FontSize        int
	TextColor       string
	BackgroundImage string
	Workers         int
}

type YouTubeConfig struct {
	ClientID           string
	ClientSecret       string
	TokenJSON          string
	ServiceAccountFile string
	Privacy            string
	ChunkSize          int
}

type StorageConfig struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string // S3-compatible providers
}

// Enabled reports whether run artifacts should be archived to S3.
func (s StorageConfig) Enabled() bool {
	return s.Bucket != ""
}

type HistoryConfig struct {
	RedisURL string
	Key      string
	TTL      time.Duration
	Capacity int64
}

// Enabled reports whether cross-run history is configured.
func (h HistoryConfig) Enabled() bool {
	return h.RedisURL != ""
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	Group   string
}

type ServerConfig struct {
	Port         string
	CronSchedule string
}

type RetryConfig struct {
	Attempts  int
	BaseDelay time.Duration
}

type LogConfig struct {
	Level string
	File  string
}

// fileConfig is the optional YAML overlay.
type fileConfig struct {
	Feeds       []types.FeedSource `yaml:"feeds"`
	FeedLimit   int                `yaml:"feed_limit"`
	FeedWorkers int                `yaml:"feed_workers"`
	Anchor      string             `yaml:"anchor"`
	Stage1TopK  int                `yaml:"stage1_top_k"`
	Stage2TopK  int                `yaml:"stage2_top_k"`
	Languages   []string           `yaml:"languages"`
	LLM         struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`
		BaseURL  string `yaml:"base_url"`
		RPM      int    `yaml:"rpm"`
	} `yaml:"llm"`
	TTS struct {
		Provider string  `yaml:"provider"`
		Voice    string  `yaml:"voice"`
		Speedup  float64 `yaml:"speedup"`
	} `yaml:"tts"`
	OutputDir    string `yaml:"output_dir"`
	CronSchedule string `yaml:"cron_schedule"`
}

// Load reads .env (if present), the optional YAML file named by
// NEWSSHORTS_CONFIG, and then environment overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		fileCfg, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		mergeFile(cfg, fileCfg)
	}

	cfg.applyEnv()
	cfg.resolveProviders()

	return cfg, nil
}

func loadFile(path string) (*fileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: cannot read %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("config: cannot parse %s: %w", path, err)
	}
	return &fc, nil
}

func mergeFile(cfg *Config, fc *fileConfig) {
	if len(fc.Feeds) > 0 {
		cfg.Feeds.Sources = fc.Feeds
	}
	if fc.FeedLimit > 0 {
		cfg.Feeds.Limit = fc.FeedLimit
	}
	if fc.FeedWorkers > 0 {
		cfg.Feeds.Workers = fc.FeedWorkers
	}
	if fc.Anchor != "" {
		cfg.Filter.Anchor = fc.Anchor
	}
	if fc.Stage1TopK > 0 {
		cfg.Filter.Stage1TopK = fc.Stage1TopK
	}
	if fc.Stage2TopK > 0 {
		cfg.Filter.Stage2TopK = fc.Stage2TopK
	}
	if len(fc.Languages) > 0 {
		cfg.Pipeline.Languages = normalizeLanguages(fc.Languages)
	}
	if fc.LLM.Provider != "" {
		cfg.LLM.Provider = fc.LLM.Provider
	}
	if fc.LLM.Model != "" {
		cfg.LLM.Model = fc.LLM.Model
	}
	if fc.LLM.BaseURL != "" {
		cfg.LLM.BaseURL = fc.LLM.BaseURL
	}
	if fc.LLM.RPM > 0 {
		cfg.LLM.RPM = fc.LLM.RPM
	}
	if fc.TTS.Provider != "" {
		cfg.TTS.Provider = fc.TTS.Provider
	}
	if fc.TTS.Voice != "" {
		cfg.TTS.Voice = fc.TTS.Voice
	}
	if fc.TTS.Speedup > 0 {
		cfg.TTS.Speedup = fc.TTS.Speedup
	}
	if fc.OutputDir != "" {
		cfg.Pipeline.OutputDir = fc.OutputDir
	}
	if fc.CronSchedule != "" {
		cfg.Server.CronSchedule = fc.CronSchedule
	}
}

func defaultConfig() *Config {
	feeds := make([]types.FeedSource, len(DefaultFeeds))
	copy(feeds, DefaultFeeds)

	return &Config{
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			Model:       DefaultChatModel,
			GoogleModel: DefaultGoogleChatModel,
		},
		Embedding: EmbeddingConfig{
			Provider: ProviderOpenAI,
			Model:    DefaultEmbeddingModel,
		},
		TTS: TTSConfig{
			Model:           DefaultTTSModel,
			Voice:           DefaultTTSVoice,
			ElevenLabsModel: DefaultElevenLabsModel,
			GoogleLanguage:  "en-US",
			Speedup:         DefaultSpeedup,
		},
		Feeds: FeedsConfig{
			Sources: feeds,
			Limit:   DefaultFeedLimit,
			Workers: 1,
		},
		Filter: FilterConfig{
			Anchor:     DefaultAnchorText,
			Stage1TopK: DefaultStage1TopK,
			Stage2TopK: DefaultStage2TopK,
		},
		Pipeline: PipelineConfig{
			Languages:    []string{"en", "hi"},
			DailySummary: true,
			Upload:       true,
			OutputDir:    "output",
			FilePrefix:   "news_short",
		},
		Video: VideoConfig{
			Width:           VideoWidth,
			Height:          VideoHeight,
			FPS:             VideoFPS,
			Font:            DefaultFont,
			FontSize:        DefaultFontSize,
			TextColor:       DefaultTextColor,
			BackgroundImage: filepath.Join("assets", "background_fullframe.png"),
			Workers:         1,
		},
		YouTube: YouTubeConfig{
			Privacy:   YouTubePrivacyStatus,
			ChunkSize: 8 * 1024 * 1024,
		},
		History: HistoryConfig{
			Key:      "newsshorts:published",
			TTL:      7 * 24 * time.Hour,
			Capacity: 100000,
		},
		Kafka: KafkaConfig{
			Topic: "newsshorts.runs",
			Group: "newsshorts",
		},
		Server: ServerConfig{
			Port: DefaultPort,
		},
		Retry: RetryConfig{
			Attempts:  DefaultRetryLimit,
			BaseDelay: DefaultRetryBaseDelay,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func (c *Config) applyEnv() {
	openAIKey := os.Getenv("OPENAI_API_KEY")
	googleKey := os.Getenv("GOOGLE_API_KEY")

	c.LLM.Provider = strings.ToLower(GetEnvOrDefault("GEN_AI_PROVIDER", c.LLM.Provider))
	c.LLM.OpenAIKey = openAIKey
	c.LLM.GoogleKey = googleKey
	c.LLM.APIKey = os.Getenv("LLM_API_KEY")
	c.LLM.Model = GetEnvOrDefault("CHAT_MODEL", c.LLM.Model)
	c.LLM.GoogleModel = GetEnvOrDefault("GOOGLE_CHAT_MODEL", c.LLM.GoogleModel)
	c.LLM.BaseURL = GetEnvOrDefault("LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.RPM = GetEnvInt("LLM_RPM", c.LLM.RPM)

	c.Embedding.Provider = strings.ToLower(GetEnvOrDefault("EMBEDDING_PROVIDER", c.Embedding.Provider))
	c.Embedding.OpenAIKey = openAIKey
	c.Embedding.CohereKey = os.Getenv("COHERE_API_KEY")
	c.Embedding.BaseURL = os.Getenv("EMBEDDING_BASE_URL")
	if c.Embedding.Provider == ProviderCohere {
		c.Embedding.Model = DefaultCohereModel
	}
	c.Embedding.Model = GetEnvOrDefault("EMBEDDING_MODEL", c.Embedding.Model)

	c.TTS.Provider = strings.ToLower(GetEnvOrDefault("TTS_PROVIDER", c.TTS.Provider))
	c.TTS.OpenAIKey = openAIKey
	c.TTS.GoogleKey = googleKey
	c.TTS.ElevenLabsKey = os.Getenv("ELEVENLABS_API_KEY")
	c.TTS.ElevenLabsVoice = os.Getenv("ELEVENLABS_VOICE_ID")
	c.TTS.ElevenLabsModel = GetEnvOrDefault("ELEVENLABS_MODEL", c.TTS.ElevenLabsModel)
	c.TTS.Model = GetEnvOrDefault("TTS_MODEL", c.TTS.Model)
	c.TTS.Voice = GetEnvOrDefault("TTS_VOICE", c.TTS.Voice)
	c.TTS.GoogleLanguage = GetEnvOrDefault("GOOGLE_TTS_LANGUAGE", c.TTS.GoogleLanguage)
	c.TTS.Speedup = GetEnvFloat("SPEEDUP", c.TTS.Speedup)

	c.Feeds.Limit = GetEnvInt("FEED_LIMIT", c.Feeds.Limit)
	c.Feeds.Workers = GetEnvInt("FEED_WORKERS", c.Feeds.Workers)
	c.Feeds.ExtractMissing = GetEnvBool("EXTRACT_MISSING_SUMMARIES", c.Feeds.ExtractMissing)

	c.Filter.Anchor = GetEnvOrDefault("ANCHOR_TEXT", c.Filter.Anchor)
	c.Filter.Stage1TopK = GetEnvInt("STAGE1_TOP_K", c.Filter.Stage1TopK)
	c.Filter.Stage2TopK = GetEnvInt("STAGE2_TOP_K", c.Filter.Stage2TopK)

	if langs := os.Getenv("VIDEO_LANGUAGES"); strings.TrimSpace(langs) != "" {
		c.Pipeline.Languages = normalizeLanguages(strings.Split(langs, ","))
	}
	c.Pipeline.Upload = os.Getenv("UPLOAD_TO_YOUTUBE") != "0"
	c.Pipeline.DailySummary = GetEnvBool("DAILY_SUMMARY", c.Pipeline.DailySummary)
	c.Pipeline.OutputDir = GetEnvOrDefault("OUTPUT_DIR", c.Pipeline.OutputDir)
	c.Pipeline.FilePrefix = GetEnvOrDefault("FILE_PREFIX", c.Pipeline.FilePrefix)

	c.Video.Width = GetEnvInt("VIDEO_WIDTH", c.Video.Width)
	c.Video.Height = GetEnvInt("VIDEO_HEIGHT", c.Video.Height)
	c.Video.FPS = GetEnvInt("FPS", c.Video.FPS)
	c.Video.Font = GetEnvOrDefault("FONT", c.Video.Font)
	c.Video.FontSize = GetEnvInt("FONT_SIZE", c.Video.FontSize)
	c.Video.TextColor = GetEnvOrDefault("TEXT_COLOR", c.Video.TextColor)
	c.Video.BackgroundImage = GetEnvOrDefault("BACKGROUND_IMAGE", c.Video.BackgroundImage)
	c.Video.Workers = GetEnvInt("NARRATION_WORKERS", c.Video.Workers)

	c.YouTube.ClientID = os.Getenv("YOUTUBE_CLIENT_ID")
	c.YouTube.ClientSecret = os.Getenv("YOUTUBE_CLIENT_SECRET")
	c.YouTube.TokenJSON = os.Getenv("YOUTUBE_TOKEN_JSON")
	c.YouTube.ServiceAccountFile = os.Getenv("YOUTUBE_SERVICE_ACCOUNT_FILE")
	c.YouTube.Privacy = GetEnvOrDefault("YOUTUBE_PRIVACY", c.YouTube.Privacy)
	c.YouTube.ChunkSize = GetEnvInt("YOUTUBE_CHUNK_SIZE", c.YouTube.ChunkSize)

	c.Storage.Bucket = os.Getenv("S3_BUCKET")
	c.Storage.Prefix = GetEnvOrDefault("S3_PREFIX", "newsshorts")
	c.Storage.Region = os.Getenv("AWS_REGION")
	c.Storage.Endpoint = os.Getenv("S3_ENDPOINT")

	c.History.RedisURL = os.Getenv("REDIS_URL")
	c.History.Key = GetEnvOrDefault("HISTORY_KEY", c.History.Key)
	c.History.TTL = GetEnvDuration("HISTORY_TTL", c.History.TTL)
	c.History.Capacity = int64(GetEnvInt("HISTORY_CAPACITY", int(c.History.Capacity)))

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = splitList(brokers)
	}
	c.Kafka.Topic = GetEnvOrDefault("KAFKA_TOPIC", c.Kafka.Topic)
	c.Kafka.Group = GetEnvOrDefault("KAFKA_GROUP", c.Kafka.Group)

	c.Server.Port = GetEnvOrDefault("PORT", c.Server.Port)
	c.Server.CronSchedule = GetEnvOrDefault("CRON_SCHEDULE", c.Server.CronSchedule)

	c.Retry.Attempts = GetEnvInt("RETRY_LIMIT", c.Retry.Attempts)
	c.Retry.BaseDelay = GetEnvDuration("RETRY_BASE_DELAY", c.Retry.BaseDelay)

	c.Log.Level = GetEnvOrDefault("LOG_LEVEL", c.Log.Level)
	c.Log.File = GetEnvOrDefault("LOG_FILE", c.Log.File)
}

// resolveProviders applies the provider fallbacks once so no component has to
// branch on credentials later.
func (c *Config) resolveProviders() {
	if c.LLM.Provider == ProviderGoogle && c.LLM.GoogleKey == "" {
		c.LLM.Provider = ProviderOpenAI
	}

	hasElevenLabs := c.TTS.ElevenLabsKey != "" && c.TTS.ElevenLabsVoice != ""
	if c.TTS.Provider == "" {
		if hasElevenLabs {
			c.TTS.Provider = ProviderElevenLabs
		} else {
			c.TTS.Provider = ProviderOpenAI
		}
	}
	if c.TTS.Provider == ProviderElevenLabs && !hasElevenLabs {
		c.TTS.Provider = ProviderOpenAI
	}
}

// Validate reports missing credentials for the selected providers.
func (c *Config) Validate() error {
	var errs []error

	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.LLM.OpenAIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai chat provider"))
		}
	case ProviderGoogle:
		if c.LLM.GoogleKey == "" {
			errs = append(errs, errors.New("GOOGLE_API_KEY is required for the google chat provider"))
		}
	case ProviderCompatible:
		if c.LLM.BaseURL == "" {
			errs = append(errs, errors.New("LLM_BASE_URL is required for the compatible chat provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown GEN_AI_PROVIDER %q", c.LLM.Provider))
	}

	switch c.Embedding.Provider {
	case ProviderOpenAI:
		if c.Embedding.OpenAIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for openai embeddings"))
		}
	case ProviderCohere:
		if c.Embedding.CohereKey == "" {
			errs = append(errs, errors.New("COHERE_API_KEY is required for cohere embeddings"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EMBEDDING_PROVIDER %q", c.Embedding.Provider))
	}

	switch c.TTS.Provider {
	case ProviderOpenAI:
		if c.TTS.OpenAIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for openai narration"))
		}
	case ProviderGoogle:
		if c.TTS.GoogleKey == "" {
			errs = append(errs, errors.New("GOOGLE_API_KEY is required for google narration"))
		}
	case ProviderElevenLabs:
	default:
		errs = append(errs, fmt.Errorf("unknown TTS_PROVIDER %q", c.TTS.Provider))
	}

	if c.Filter.Stage1TopK <= 0 || c.Filter.Stage2TopK <= 0 {
		errs = append(errs, errors.New("top-k values must be positive"))
	}
	if len(c.Pipeline.Languages) == 0 {
		errs = append(errs, errors.New("VIDEO_LANGUAGES must name at least one language"))
	}
	if len(c.Pipeline.Languages) > MaxVideoLanguages {
		errs = append(errs, fmt.Errorf("VIDEO_LANGUAGES names %d languages, at most %d are supported", len(c.Pipeline.Languages), MaxVideoLanguages))
	}
	if c.Pipeline.Upload && c.YouTube.TokenJSON == "" && c.YouTube.ServiceAccountFile == "" {
		errs = append(errs, errors.New("YOUTUBE_TOKEN_JSON or YOUTUBE_SERVICE_ACCOUNT_FILE is required when UPLOAD_TO_YOUTUBE is enabled"))
	}

	return errors.Join(errs...)
}

// GetEnvOrDefault returns the trimmed environment value or the default if unset or blank.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt returns an integer environment variable or the default if unset or invalid.
func GetEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return defaultValue
	}
	return value
}

// GetEnvFloat returns a float environment variable or the default if unset or invalid.
func GetEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// GetEnvBool returns a boolean environment variable or the default if unset or invalid.
func GetEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return defaultValue
	}
	return value
}

// GetEnvDuration accepts Go durations ("5s") or plain seconds ("5").
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}

func normalizeLanguages(raw []string) []string {
	langs := make([]string, 0, len(raw))
	seen := make(map[string]bool)
	for _, l := range raw {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		langs = append(langs, l)
	}
	return langs
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
