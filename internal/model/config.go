package model

import "time"

// Config holds the complete claimcheck configuration
// It is built once at startup and passed to the pipeline at construction
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Evidence EvidenceConfig `yaml:"evidence" mapstructure:"evidence"`
	Media    MediaConfig    `yaml:"media" mapstructure:"media"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Workers  int            `yaml:"workers" mapstructure:"workers"` // Batch concurrency
}

// PipelineConfig holds the claim-verification policy knobs
type PipelineConfig struct {
	MinTranscriptWords int           `yaml:"min_transcript_words" mapstructure:"min_transcript_words"`
	MinClaimWords      int           `yaml:"min_claim_words" mapstructure:"min_claim_words"`
	MaxClaims          int           `yaml:"max_claims" mapstructure:"max_claims"`
	InterCallDelay     time.Duration `yaml:"inter_call_delay" mapstructure:"inter_call_delay"` // Pause before each LLM call
	Classify           bool          `yaml:"classify" mapstructure:"classify"`                 // Run the classifier stage
	Timeout            time.Duration `yaml:"timeout" mapstructure:"timeout"`                   // Whole-request budget
}

// LLMConfig holds language model provider settings
type LLMConfig struct {
	Provider       string        `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model          string        `yaml:"model" mapstructure:"model"`
	APIKey         string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL        string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout        int           `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens      int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	StrictEvidence bool          `yaml:"strict_evidence" mapstructure:"strict_evidence"`
	RateLimit      float64       `yaml:"rate_limit" mapstructure:"rate_limit"` // Requests per second
	Burst          int           `yaml:"burst" mapstructure:"burst"`
}

// EvidenceConfig holds evidence search settings
type EvidenceConfig struct {
	FactCheckURL     string          `yaml:"factcheck_url" mapstructure:"factcheck_url"`
	FactCheckAPIKey  string          `yaml:"factcheck_api_key,omitempty" mapstructure:"factcheck_api_key"`
	AcademicURL      string          `yaml:"academic_url" mapstructure:"academic_url"`
	AcademicAPIKey   string          `yaml:"academic_api_key,omitempty" mapstructure:"academic_api_key"`
	Precedence       string          `yaml:"precedence" mapstructure:"precedence"` // registry_first, academic_first
	MaxResults       int             `yaml:"max_results" mapstructure:"max_results"`
	Language         string          `yaml:"language" mapstructure:"language"`
	Timeout          time.Duration   `yaml:"timeout" mapstructure:"timeout"`
	RetryMaxElapsed  time.Duration   `yaml:"retry_max_elapsed" mapstructure:"retry_max_elapsed"`
	RequestsPerSec   float64         `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst            int             `yaml:"burst" mapstructure:"burst"`
	RequireReachable bool            `yaml:"require_reachable" mapstructure:"require_reachable"` // Skip dead sources when choosing the best one
	Authority        AuthorityConfig `yaml:"authority" mapstructure:"authority"`
}

// AuthorityConfig holds source authority classification rules
type AuthorityConfig struct {
	PrimaryDomains   []string          `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string          `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	DomainMap        map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"`
}

// MediaConfig holds media fetching and transcription settings
type MediaConfig struct {
	Fetcher       string        `yaml:"fetcher" mapstructure:"fetcher"` // ytdlp, http
	WorkDir       string        `yaml:"work_dir" mapstructure:"work_dir"`
	YtDlpPath     string        `yaml:"ytdlp_path" mapstructure:"ytdlp_path"`
	FfmpegPath    string        `yaml:"ffmpeg_path" mapstructure:"ffmpeg_path"`
	MaxBytes      int64         `yaml:"max_bytes" mapstructure:"max_bytes"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	Transcriber   string        `yaml:"transcriber" mapstructure:"transcriber"` // whisper, openai
	WhisperPath   string        `yaml:"whisper_path" mapstructure:"whisper_path"`
	WhisperModel  string        `yaml:"whisper_model" mapstructure:"whisper_model"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout" mapstructure:"fetch_timeout"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// CacheConfig holds evidence cache settings
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// HTTPConfig holds outbound HTTP settings shared by evidence and media clients
type HTTPConfig struct {
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr           string        `yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"` // text, json
	File       string `yaml:"file,omitempty" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			MinTranscriptWords: 5,
			MinClaimWords:      4,
			MaxClaims:          5,
			InterCallDelay:     time.Second,
			Classify:           true,
			Timeout:            5 * time.Minute,
		},
		LLM: LLMConfig{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			Timeout:        60,
			MaxTokens:      1000,
			StrictEvidence: true,
			RateLimit:      2,
			Burst:          1,
		},
		Evidence: EvidenceConfig{
			FactCheckURL:    "https://factchecktools.googleapis.com/v1alpha1/claims:search",
			AcademicURL:     "https://api.semanticscholar.org/graph/v1/paper/search",
			Precedence:      "registry_first",
			MaxResults:      3,
			Language:        "en",
			Timeout:         10 * time.Second,
			RetryMaxElapsed: 15 * time.Second,
			RequestsPerSec:  1,
			Burst:           2,
			Authority: AuthorityConfig{
				PrimaryDomains: []string{
					"doi.org", "semanticscholar.org", "arxiv.org", "pubmed.ncbi.nlm.nih.gov",
					"nih.gov", "who.int", "nature.com", "science.org",
				},
				SecondaryDomains: []string{
					"snopes.com", "politifact.com", "factcheck.org", "fullfact.org",
					"apnews.com", "reuters.com", "afp.com", "bbc.co.uk", "wikipedia.org",
				},
			},
		},
		Media: MediaConfig{
			Fetcher:       "ytdlp",
			WorkDir:       "downloads",
			YtDlpPath:     "yt-dlp",
			FfmpegPath:    "ffmpeg",
			MaxBytes:      200 << 20,
			UserAgent:     "claimcheck/0.1 (+https://github.com/ppiankov/claimcheck)",
			Transcriber:   "whisper",
			WhisperPath:   "whisper",
			WhisperModel:  "base",
			FetchTimeout:  3 * time.Minute,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".claimcheck-cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:           ":8000",
			AllowedOrigins: []string{"http://localhost:3000"},
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   10 * time.Minute,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Workers: 4,
	}
}
