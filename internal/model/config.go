package model

import (
	"fmt"
	"time"
)

// Config holds the complete judolscan configuration
type Config struct {
	Profile      string             `yaml:"profile" mapstructure:"profile"`           // general or precision
	LexiconFile  string             `yaml:"lexicon_file" mapstructure:"lexicon_file"` // Optional YAML lexicon override
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Classifier   ClassifierConfig   `yaml:"classifier" mapstructure:"classifier"`
	OCR          OCRConfig          `yaml:"ocr" mapstructure:"ocr"`
	ASR          ASRConfig          `yaml:"asr" mapstructure:"asr"`
	Media        MediaConfig        `yaml:"media" mapstructure:"media"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
}

// HTTPConfig configures webpage fetching
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"` // Zero uses the profile timeout
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	MaxRedirects  int           `yaml:"max_redirects" mapstructure:"max_redirects"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures the extracted-text cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskDir   string        `yaml:"disk_dir,omitempty" mapstructure:"disk_dir"` // Empty keeps the cache in memory only
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ClassifierConfig configures the statistical classifier backend
type ClassifierConfig struct {
	Backend       string        `yaml:"backend" mapstructure:"backend"` // tfserving, openai, none
	TokenizerPath string        `yaml:"tokenizer_path" mapstructure:"tokenizer_path"`
	ModelURL      string        `yaml:"model_url" mapstructure:"model_url"`
	ModelName     string        `yaml:"model_name" mapstructure:"model_name"`
	APIKey        string        `yaml:"-" mapstructure:"api_key"`
	BaseURL       string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Model         string        `yaml:"model,omitempty" mapstructure:"model"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// OCRConfig configures the OCR engines
type OCRConfig struct {
	Binary    string        `yaml:"binary" mapstructure:"binary"`
	Languages string        `yaml:"languages" mapstructure:"languages"`
	PSM       int           `yaml:"psm" mapstructure:"psm"`
	Engines   []string      `yaml:"engines" mapstructure:"engines"` // Page segmentation variants run per image
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ASRConfig configures speech-to-text
type ASRConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	APIKey   string        `yaml:"-" mapstructure:"api_key"`
	BaseURL  string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Model    string        `yaml:"model" mapstructure:"model"`
	Language string        `yaml:"language" mapstructure:"language"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// MediaConfig configures demuxing, probing and remote media download
type MediaConfig struct {
	FFmpeg          string        `yaml:"ffmpeg" mapstructure:"ffmpeg"`
	FFprobe         string        `yaml:"ffprobe" mapstructure:"ffprobe"`
	YTDLP           string        `yaml:"ytdlp" mapstructure:"ytdlp"`
	TempDir         string        `yaml:"temp_dir,omitempty" mapstructure:"temp_dir"` // Empty uses os.TempDir()
	MaxDuration     time.Duration `yaml:"max_duration" mapstructure:"max_duration"`
	MaxHeight       int           `yaml:"max_height" mapstructure:"max_height"`
	ProbeTimeout    time.Duration `yaml:"probe_timeout" mapstructure:"probe_timeout"`
	MetadataTimeout time.Duration `yaml:"metadata_timeout" mapstructure:"metadata_timeout"`
	ExtractTimeout  time.Duration `yaml:"extract_timeout" mapstructure:"extract_timeout"`
	DownloadTimeout time.Duration `yaml:"download_timeout" mapstructure:"download_timeout"`
}

// ConcurrencyConfig configures batch workers
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig configures per-domain fetch rate limits
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr           string `yaml:"addr" mapstructure:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
}

// DefaultUserAgent is the browser identity presented to gambling sites,
// many of which refuse non-browser clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Profile: "general",
		HTTP: HTTPConfig{
			UserAgent:    DefaultUserAgent,
			MaxBodyBytes: 5_000_000,
			InsecureTLS:  true,
			MaxRedirects: 10,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Classifier: ClassifierConfig{
			Backend:       "tfserving",
			TokenizerPath: "tokenizer.json",
			ModelName:     "judol",
			Timeout:       10 * time.Second,
		},
		OCR: OCRConfig{
			Binary:    "tesseract",
			Languages: "ind+eng",
			PSM:       6,
			Timeout:   30 * time.Second,
		},
		ASR: ASRConfig{
			Enabled:  true,
			Model:    "whisper-1",
			Language: "id",
			Timeout:  2 * time.Minute,
		},
		Media: MediaConfig{
			FFmpeg:          "ffmpeg",
			FFprobe:         "ffprobe",
			YTDLP:           "yt-dlp",
			MaxDuration:     300 * time.Second,
			MaxHeight:       720,
			ProbeTimeout:    15 * time.Second,
			MetadataTimeout: time.Minute,
			ExtractTimeout:  2 * time.Minute,
			DownloadTimeout: 5 * time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 1,
			BurstSize:         2,
		},
		Server: ServerConfig{
			Addr:           ":5000",
			MaxUploadBytes: 200 << 20,
		},
	}
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	switch c.Profile {
	case "general", "precision":
	default:
		return fmt.Errorf("unknown profile %q (supported: general, precision)", c.Profile)
	}
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout must not be negative")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("http.max_body_bytes must be positive")
	}
	if c.Media.MaxDuration <= 0 {
		return fmt.Errorf("media.max_duration must be positive")
	}
	if c.Media.MaxHeight <= 0 {
		return fmt.Errorf("media.max_height must be positive")
	}
	if c.Concurrency.Workers < 0 {
		return fmt.Errorf("concurrency.workers must not be negative")
	}
	return nil
}
