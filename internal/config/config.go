// Package config provides configuration management for yts using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultServerPort        = 8080
	defaultServerTimeout     = 30 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
	defaultMaxOpenConns      = 25
	defaultMaxIdleConns      = 10
	defaultConnMaxIdleTime   = 30 * time.Minute
	defaultSyncSizeLimit     = 10 * 1024 * 1024 // 10MB
	defaultSyncDurationCap   = 55 * time.Second
	defaultMaxDuration       = 30 * time.Minute
	defaultPollInterval      = 500 * time.Millisecond
	defaultLanguageCode      = "hu-HU"
	defaultChunkSize         = 4000
	defaultChunkOverlap      = 200
	defaultMaxChunks         = 20
	defaultSinglePassLimit   = 5000
	defaultMaxConcurrentJobs = 5
	defaultJobTimeout        = 2 * time.Hour
	defaultMaxCostPerJob     = 10.0
	defaultArtifactTTL       = 7 * 24 * time.Hour
	defaultRetryAttempts     = 2
	defaultRetryBackoff      = 2 * time.Second
	defaultTTSChunkChars     = 1000
	defaultTTSWorkers        = 4
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Speech   SpeechConfig   `mapstructure:"speech"`
	Chunking ChunkingConfig `mapstructure:"chunking"`
	GenAI    GenAIConfig    `mapstructure:"genai"`
	TTS      TTSConfig      `mapstructure:"tts"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Media    MediaConfig    `mapstructure:"media"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres, mysql
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel        string        `mapstructure:"log_level"` // silent, error, warn, info
}

// StorageConfig holds file storage configuration.
type StorageConfig struct {
	BaseDir     string `mapstructure:"base_dir"`
	ArtifactDir string `mapstructure:"artifact_dir"`
	TempDir     string `mapstructure:"temp_dir"`
	// ArtifactTTL accepts extended units, e.g. "7d" or "2w".
	ArtifactTTL Duration `mapstructure:"artifact_ttl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// SpeechConfig holds speech recognition configuration.
type SpeechConfig struct {
	// LanguageCode is the default BCP-47 recognition language.
	LanguageCode string `mapstructure:"language_code"`
	// SyncSizeLimit is the largest audio payload sent through the synchronous
	// recognition path. Larger files go through the staged (upload + poll) path.
	// Supports human-readable values like "10MB".
	SyncSizeLimit ByteSize `mapstructure:"sync_size_limit"`
	// SyncDurationCap is the longest clip accepted by the synchronous path.
	SyncDurationCap time.Duration `mapstructure:"sync_duration_cap"`
	// MaxDuration is the longest audio accepted at all.
	MaxDuration time.Duration `mapstructure:"max_duration"`
	// PollInterval is the base interval for long-running operation polling.
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// Bucket is the object store location for staged recognition uploads.
	Bucket string `mapstructure:"bucket"`
	// APIKey authenticates against the speech backend.
	APIKey string `mapstructure:"api_key"`
	// Endpoint overrides the speech backend base URL (empty = provider default).
	Endpoint string `mapstructure:"endpoint"`
}

// ChunkingConfig holds transcript chunking configuration.
type ChunkingConfig struct {
	ChunkSize       int `mapstructure:"chunk_size"`
	ChunkOverlap    int `mapstructure:"chunk_overlap"`
	MaxChunks       int `mapstructure:"max_chunks"`
	SinglePassLimit int `mapstructure:"single_pass_limit"`
}

// GenAIConfig holds LLM post-editing and translation configuration.
type GenAIConfig struct {
	// PostEditorModel is the model used for transcript post-editing.
	// "auto" iterates the preferred model list with regional fallback.
	PostEditorModel string `mapstructure:"post_editor_model"`
	// TranslatorModel is the model used for translation ("auto" = fallback list).
	TranslatorModel string `mapstructure:"translator_model"`
	// Regions is the ordered region list for regional fallback.
	Regions []string `mapstructure:"regions"`
	// RetryAttempts is the per (region, model) retry budget.
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff"`
	APIKey        string        `mapstructure:"api_key"`
	// Quality selects the generation preset: fast, balanced, high.
	Quality string `mapstructure:"quality"`
}

// TTSConfig holds text-to-speech configuration.
type TTSConfig struct {
	// DefaultProvider is used when a request does not name one ("auto" allowed).
	DefaultProvider string `mapstructure:"default_provider"`
	// AutoCostFirst makes auto-selection prefer the cheapest provider.
	// When false, higher voice tiers win within the same cost band.
	AutoCostFirst bool `mapstructure:"auto_cost_first"`
	// ChunkChars is the synthesis chunk size in characters.
	ChunkChars int `mapstructure:"chunk_chars"`
	// Workers is the number of parallel synthesis workers.
	Workers          int    `mapstructure:"workers"`
	GoogleAPIKey     string `mapstructure:"google_api_key"`
	ElevenLabsAPIKey string `mapstructure:"elevenlabs_api_key"`
}

// JobsConfig holds job execution configuration.
type JobsConfig struct {
	MaxConcurrent int           `mapstructure:"max_concurrent"`
	JobTimeout    time.Duration `mapstructure:"job_timeout"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	// MaxCostUSD is the per-job budget; projected overruns fail the job
	// before the next billable stage starts.
	MaxCostUSD float64 `mapstructure:"max_cost_usd"`
}

// MediaConfig holds external media tool configuration.
type MediaConfig struct {
	FFmpegPath  string `mapstructure:"ffmpeg_path"`  // Path to ffmpeg binary (empty = $PATH lookup)
	FFprobePath string `mapstructure:"ffprobe_path"` // Path to ffprobe binary (empty = $PATH lookup)
	YtdlpPath   string `mapstructure:"ytdlp_path"`   // Path to yt-dlp binary (empty = $PATH lookup)
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with YTS_ and use underscores for nesting.
// Example: YTS_SERVER_PORT=8080.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	SetDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/yts")
		v.AddConfigPath("$HOME/.yts")
	}

	// Environment variable settings
	v.SetEnvPrefix("YTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found is OK - we'll use defaults and env vars
	}

	return FromViper(v)
}

// FromViper unmarshals and validates configuration from an already-prepared
// viper instance. Callers that manage viper themselves (the CLI binds flags
// and reads the config file during command initialization) use this instead
// of Load.
//
// The decode hook chain includes the text-unmarshaller hook so string values
// decode into ByteSize ("10MB") and Duration ("7d") fields.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file to ensure defaults are in place.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.read_timeout", defaultServerTimeout)
	v.SetDefault("server.write_timeout", defaultServerTimeout)
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("server.cors_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "yts.db")
	v.SetDefault("database.max_open_conns", defaultMaxOpenConns)
	v.SetDefault("database.max_idle_conns", defaultMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", defaultConnMaxIdleTime)
	v.SetDefault("database.log_level", "warn")

	// Storage defaults
	v.SetDefault("storage.base_dir", "./data")
	v.SetDefault("storage.artifact_dir", "artifacts")
	v.SetDefault("storage.temp_dir", "temp")
	v.SetDefault("storage.artifact_ttl", defaultArtifactTTL)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Speech defaults
	v.SetDefault("speech.language_code", defaultLanguageCode)
	v.SetDefault("speech.sync_size_limit", defaultSyncSizeLimit)
	v.SetDefault("speech.sync_duration_cap", defaultSyncDurationCap)
	v.SetDefault("speech.max_duration", defaultMaxDuration)
	v.SetDefault("speech.poll_interval", defaultPollInterval)
	v.SetDefault("speech.bucket", "")
	v.SetDefault("speech.api_key", "")
	v.SetDefault("speech.endpoint", "")

	// Chunking defaults
	v.SetDefault("chunking.chunk_size", defaultChunkSize)
	v.SetDefault("chunking.chunk_overlap", defaultChunkOverlap)
	v.SetDefault("chunking.max_chunks", defaultMaxChunks)
	v.SetDefault("chunking.single_pass_limit", defaultSinglePassLimit)

	// GenAI defaults
	v.SetDefault("genai.post_editor_model", "auto")
	v.SetDefault("genai.translator_model", "auto")
	v.SetDefault("genai.regions", []string{"us-central1", "us-east1", "us-west1", "europe-west4"})
	v.SetDefault("genai.retry_attempts", defaultRetryAttempts)
	v.SetDefault("genai.retry_backoff", defaultRetryBackoff)
	v.SetDefault("genai.api_key", "")
	v.SetDefault("genai.quality", "balanced")

	// TTS defaults
	v.SetDefault("tts.default_provider", "google")
	v.SetDefault("tts.auto_cost_first", true)
	v.SetDefault("tts.chunk_chars", defaultTTSChunkChars)
	v.SetDefault("tts.workers", defaultTTSWorkers)
	v.SetDefault("tts.google_api_key", "")
	v.SetDefault("tts.elevenlabs_api_key", "")

	// Jobs defaults
	v.SetDefault("jobs.max_concurrent", defaultMaxConcurrentJobs)
	v.SetDefault("jobs.job_timeout", defaultJobTimeout)
	v.SetDefault("jobs.poll_interval", 5*time.Second)
	v.SetDefault("jobs.max_cost_usd", defaultMaxCostPerJob)

	// Media defaults
	v.SetDefault("media.ffmpeg_path", "")
	v.SetDefault("media.ffprobe_path", "")
	v.SetDefault("media.ytdlp_path", "")
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	const maxPort = 65535
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return fmt.Errorf("server.port must be between 1 and %d", maxPort)
	}

	// Database validation
	validDrivers := map[string]bool{"sqlite": true, "postgres": true, "mysql": true}
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("database.driver must be one of: sqlite, postgres, mysql")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	// Storage validation
	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	// Speech validation
	if c.Speech.LanguageCode == "" {
		return fmt.Errorf("speech.language_code is required")
	}
	if c.Speech.SyncSizeLimit < 1 {
		return fmt.Errorf("speech.sync_size_limit must be positive")
	}

	// Chunking validation
	if c.Chunking.ChunkSize < 1 {
		return fmt.Errorf("chunking.chunk_size must be at least 1")
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("chunking.chunk_overlap must be non-negative and smaller than chunk_size")
	}
	if c.Chunking.MaxChunks < 1 {
		return fmt.Errorf("chunking.max_chunks must be at least 1")
	}

	// GenAI validation
	validQualities := map[string]bool{"fast": true, "balanced": true, "high": true}
	if !validQualities[c.GenAI.Quality] {
		return fmt.Errorf("genai.quality must be one of: fast, balanced, high")
	}
	if len(c.GenAI.Regions) == 0 {
		return fmt.Errorf("genai.regions must contain at least one region")
	}

	// Jobs validation
	if c.Jobs.MaxConcurrent < 1 {
		return fmt.Errorf("jobs.max_concurrent must be at least 1")
	}
	if c.Jobs.MaxCostUSD < 0 {
		return fmt.Errorf("jobs.max_cost_usd must be non-negative")
	}

	// TTS validation
	if c.TTS.ChunkChars < 1 {
		return fmt.Errorf("tts.chunk_chars must be at least 1")
	}
	if c.TTS.Workers < 1 {
		return fmt.Errorf("tts.workers must be at least 1")
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ArtifactPath returns the full path to the artifact directory.
func (c *StorageConfig) ArtifactPath() string {
	return fmt.Sprintf("%s/%s", c.BaseDir, c.ArtifactDir)
}

// TempPath returns the full path to the temp directory.
func (c *StorageConfig) TempPath() string {
	return fmt.Sprintf("%s/%s", c.BaseDir, c.TempDir)
}
