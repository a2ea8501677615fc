package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	S3        S3Config
	Log       LogConfig
	LLM       LLMConfig
	OCR       OCRConfig
	Cache     CacheConfig
	Queue     QueueConfig
	Analysis  AnalysisConfig
	Upload    UploadConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

// QueueConfig holds ingest queue worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	MaxRetries       int `mapstructure:"max_retries"`
	Concurrency      int `mapstructure:"concurrency"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig throttles outbound LLM calls per provider.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// AnalysisConfig holds classifier and merge settings.
type AnalysisConfig struct {
	DefaultType   string  `mapstructure:"default_type"`
	MinConfidence float64 `mapstructure:"min_confidence"`
}

// UploadConfig holds upload validation limits.
type UploadConfig struct {
	MaxImageSizeMB int64 `mapstructure:"max_image_size_mb"`
	MaxAudioSizeMB int64 `mapstructure:"max_audio_size_mb"`
	MaxFiles       int   `mapstructure:"max_files"`
}

// MaxImageBytes returns the per-image size limit in bytes.
func (u *UploadConfig) MaxImageBytes() int64 { return u.MaxImageSizeMB << 20 }

// MaxAudioBytes returns the audio size limit in bytes.
func (u *UploadConfig) MaxAudioBytes() int64 { return u.MaxAudioSizeMB << 20 }

// OCRConfig selects the text recognizer for images and the audio transcriber.
type OCRConfig struct {
	// Provider is "openai" (vision model) or "google" (Cloud Vision).
	Provider        string `mapstructure:"provider"`
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
	Model           string `mapstructure:"model"`
	TranscribeModel string `mapstructure:"transcribe_model"`
	CredentialsFile string `mapstructure:"credentials_file"`
	Concurrency     int    `mapstructure:"concurrency"`
	TimeoutSecs     int    `mapstructure:"timeout_secs"`
}

// CacheConfig holds in-memory OCR cache settings.
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// LLMProviderConfig holds settings for a single LLM field extraction provider.
type LLMProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	BaseURL      string `mapstructure:"base_url"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// LLMConfig holds LLM extraction settings with multi-provider support.
type LLMConfig struct {
	Primary   LLMProviderConfig `mapstructure:"primary"`
	Secondary LLMProviderConfig `mapstructure:"secondary"`
	Tertiary  LLMProviderConfig `mapstructure:"tertiary"`
}

// PrimaryConfig returns the primary provider config, or nil if not configured.
func (p *LLMConfig) PrimaryConfig() *LLMProviderConfig {
	if p.Primary.Provider != "" {
		return &p.Primary
	}
	return nil
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (p *LLMConfig) SecondaryConfig() *LLMProviderConfig {
	if p.Secondary.Provider != "" {
		return &p.Secondary
	}
	return nil
}

// TertiaryConfig returns the tertiary provider config, or nil if not configured.
func (p *LLMConfig) TertiaryConfig() *LLMProviderConfig {
	if p.Tertiary.Provider != "" {
		return &p.Tertiary
	}
	return nil
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

const envPrefix = "DOCINTAKE"

// envBindings maps nested keys to their environment variables.
var envBindings = []string{
	"server.port", "server.read_timeout", "server.write_timeout", "server.environment",
	"db.host", "db.port", "db.user", "db.password", "db.name", "db.sslmode", "db.max_open", "db.max_idle",
	"s3.region", "s3.bucket", "s3.endpoint", "s3.access_key", "s3.secret_key",
	"log.level", "log.format", "log.output",
	"cors.allowed_origins",
	"queue.poll_interval_secs", "queue.max_retries", "queue.concurrency",
	"analysis.default_type", "analysis.min_confidence",
	"upload.max_image_size_mb", "upload.max_audio_size_mb", "upload.max_files",
	"ocr.provider", "ocr.api_key", "ocr.base_url", "ocr.model", "ocr.transcribe_model",
	"ocr.credentials_file", "ocr.concurrency", "ocr.timeout_secs",
	"cache.enabled", "cache.ttl", "cache.cleanup_interval",
	"ratelimit.requests_per_second", "ratelimit.burst",
}

func init() {
	for _, tier := range []string{"primary", "secondary", "tertiary"} {
		for _, k := range []string{"provider", "api_key", "default_model", "base_url", "max_retries", "timeout_secs"} {
			envBindings = append(envBindings, "llm."+tier+"."+k)
		}
	}
}

// envName returns the environment variable bound to key, e.g.
// "llm.primary.api_key" -> "DOCINTAKE_LLM_PRIMARY_API_KEY".
func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Load reads configuration from a .env file (if present) and environment
// variables with the DOCINTAKE_ prefix.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "60s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "docintake")
	v.SetDefault("db.password", "docintake_secret")
	v.SetDefault("db.name", "docintake_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "docintake-uploads")
	v.SetDefault("s3.endpoint", "")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000,http://localhost:5173")

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 10)
	v.SetDefault("queue.max_retries", 5)
	v.SetDefault("queue.concurrency", 4)

	// Analysis defaults
	v.SetDefault("analysis.default_type", "generic")
	v.SetDefault("analysis.min_confidence", 0.0)

	// Upload defaults
	v.SetDefault("upload.max_image_size_mb", 10)
	v.SetDefault("upload.max_audio_size_mb", 25)
	v.SetDefault("upload.max_files", 10)

	// OCR defaults
	v.SetDefault("ocr.provider", "openai")
	v.SetDefault("ocr.model", "gpt-4o")
	v.SetDefault("ocr.transcribe_model", "whisper-1")
	v.SetDefault("ocr.concurrency", 3)
	v.SetDefault("ocr.timeout_secs", 60)

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// Rate limit defaults
	v.SetDefault("ratelimit.requests_per_second", 2.0)
	v.SetDefault("ratelimit.burst", 4)

	// LLM tier defaults
	for _, tier := range []string{"primary", "secondary", "tertiary"} {
		v.SetDefault("llm."+tier+".max_retries", 2)
		v.SetDefault("llm."+tier+".timeout_secs", 120)
	}

	// Bind environment variables explicitly for nested keys
	for _, key := range envBindings {
		_ = v.BindEnv(key, envName(key))
	}

	cfg := &Config{}

	// Hosting platforms set a PORT env var. Use it if DOCINTAKE_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv(envName("server.port")) == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
		Output: v.GetString("log.output"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Queue = QueueConfig{
		PollIntervalSecs: v.GetInt("queue.poll_interval_secs"),
		MaxRetries:       v.GetInt("queue.max_retries"),
		Concurrency:      v.GetInt("queue.concurrency"),
	}
	cfg.Analysis = AnalysisConfig{
		DefaultType:   v.GetString("analysis.default_type"),
		MinConfidence: v.GetFloat64("analysis.min_confidence"),
	}
	cfg.Upload = UploadConfig{
		MaxImageSizeMB: v.GetInt64("upload.max_image_size_mb"),
		MaxAudioSizeMB: v.GetInt64("upload.max_audio_size_mb"),
		MaxFiles:       v.GetInt("upload.max_files"),
	}
	cfg.OCR = OCRConfig{
		Provider:        v.GetString("ocr.provider"),
		APIKey:          v.GetString("ocr.api_key"),
		BaseURL:         v.GetString("ocr.base_url"),
		Model:           v.GetString("ocr.model"),
		TranscribeModel: v.GetString("ocr.transcribe_model"),
		CredentialsFile: v.GetString("ocr.credentials_file"),
		Concurrency:     v.GetInt("ocr.concurrency"),
		TimeoutSecs:     v.GetInt("ocr.timeout_secs"),
	}
	cfg.Cache = CacheConfig{
		Enabled:         v.GetBool("cache.enabled"),
		TTL:             v.GetDuration("cache.ttl"),
		CleanupInterval: v.GetDuration("cache.cleanup_interval"),
	}
	cfg.RateLimit = RateLimitConfig{
		RequestsPerSecond: v.GetFloat64("ratelimit.requests_per_second"),
		Burst:             v.GetInt("ratelimit.burst"),
	}

	cfg.LLM = LLMConfig{
		Primary:   providerConfig(v, "llm.primary"),
		Secondary: providerConfig(v, "llm.secondary"),
		Tertiary:  providerConfig(v, "llm.tertiary"),
	}

	// The OCR backend reuses the OpenAI key from the LLM tiers when it has none of its own.
	if cfg.OCR.APIKey == "" && cfg.OCR.Provider == "openai" {
		for _, p := range []*LLMProviderConfig{cfg.LLM.PrimaryConfig(), cfg.LLM.SecondaryConfig(), cfg.LLM.TertiaryConfig()} {
			if p != nil && p.Provider == "openai" && p.APIKey != "" {
				cfg.OCR.APIKey = p.APIKey
				break
			}
		}
	}

	return cfg, nil
}

func providerConfig(v *viper.Viper, prefix string) LLMProviderConfig {
	return LLMProviderConfig{
		Provider:     v.GetString(prefix + ".provider"),
		APIKey:       v.GetString(prefix + ".api_key"),
		DefaultModel: v.GetString(prefix + ".default_model"),
		BaseURL:      v.GetString(prefix + ".base_url"),
		MaxRetries:   v.GetInt(prefix + ".max_retries"),
		TimeoutSecs:  v.GetInt(prefix + ".timeout_secs"),
	}
}

// splitList parses a comma-separated string, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
