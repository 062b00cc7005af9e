// Package config defines configuration parsing and helpers.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev"`
	Port   int    `env:"PORT" envDefault:"8080"`
	// GeminiAPIKey enables the real completion service; when empty every
	// generation stage switches to its service-independent mode.
	GeminiAPIKey  string   `env:"GEMINI_API_KEY"`
	GeminiBaseURL string   `env:"GEMINI_BASE_URL"`
	FastModels    []string `env:"FAST_MODELS" envSeparator:"," envDefault:"gemini-2.0-flash,gemini-2.0-flash-001,gemini-1.5-flash"`
	DeepModels    []string `env:"DEEP_MODELS" envSeparator:"," envDefault:"gemini-2.0-flash-exp,gemini-2.0-flash-exp-02-05,gemini-1.5-pro"`
	// Completion retry policy
	CompletionMaxAttempts       int           `env:"COMPLETION_MAX_ATTEMPTS" envDefault:"3"`
	CompletionDefaultRetryDelay time.Duration `env:"COMPLETION_DEFAULT_RETRY_DELAY" envDefault:"2s"`
	CompletionBackoffBase       time.Duration `env:"COMPLETION_BACKOFF_BASE" envDefault:"1s"`
	CompletionRequestTimeout    time.Duration `env:"COMPLETION_REQUEST_TIMEOUT" envDefault:"0s"`
	QuestionCallDelay           time.Duration `env:"QUESTION_CALL_DELAY" envDefault:"500ms"`
	PromptMaxSourceTokens       int           `env:"PROMPT_MAX_SOURCE_TOKENS" envDefault:"6000"`
	// CompletionRatePerMin caps completion calls per tier across every
	// replica sharing the Redis cache. Zero disables the shared limiter.
	CompletionRatePerMin int `env:"COMPLETION_RATE_PER_MIN" envDefault:"0"`
	// InterviewDegradeOnFailure substitutes service-independent scores and
	// summaries when the completion service fails mid-interview.
	InterviewDegradeOnFailure bool `env:"INTERVIEW_DEGRADE_ON_FAILURE" envDefault:"false"`
	// Cache
	CacheBackend        string `env:"CACHE_BACKEND" envDefault:"memory"`
	CacheMemoryCapacity int    `env:"CACHE_MEMORY_CAPACITY" envDefault:"4096"`
	CacheKeyPrefix      string `env:"CACHE_KEY_PREFIX" envDefault:"interview:"`
	RedisURL            string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	// TikaURL specifies the base URL for the Apache Tika server used for text extraction
	TikaURL             string        `env:"TIKA_URL" envDefault:"http://tika:9998"`
	TikaTimeout         time.Duration `env:"TIKA_TIMEOUT" envDefault:"30s"`
	OCREnabled          bool          `env:"OCR_ENABLED" envDefault:"true"`
	OCRLanguage         string        `env:"OCR_LANGUAGE" envDefault:"eng"`
	ExtractMinTextChars int           `env:"EXTRACT_MIN_TEXT_CHARS" envDefault:"20"`
	// Tika backoff configuration
	TikaBackoffMaxElapsedTime  time.Duration `env:"TIKA_BACKOFF_MAX_ELAPSED_TIME" envDefault:"60s"`
	TikaBackoffInitialInterval time.Duration `env:"TIKA_BACKOFF_INITIAL_INTERVAL" envDefault:"500ms"`
	TikaBackoffMaxInterval     time.Duration `env:"TIKA_BACKOFF_MAX_INTERVAL" envDefault:"5s"`
	TikaBackoffMultiplier      float64       `env:"TIKA_BACKOFF_MULTIPLIER" envDefault:"2.0"`
	OTLPEndpoint               string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName            string        `env:"OTEL_SERVICE_NAME" envDefault:"ai-interview-engine"`
	MaxUploadMB                int64         `env:"MAX_UPLOAD_MB" envDefault:"5"`
	CORSAllowOrigins           string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	RateLimitPerMin            int           `env:"RATE_LIMIT_PER_MIN" envDefault:"30"`
	ServerShutdownTimeout      time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HTTPReadTimeout            time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout           time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"5m"`
	HTTPIdleTimeout            time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	// HTTPHandlerTimeout bounds a whole request, retries and inter-call delays included.
	HTTPHandlerTimeout time.Duration `env:"HTTP_HANDLER_TIMEOUT" envDefault:"4m"`
}

// Load reads an optional .env file from the working directory and then
// parses environment variables into a Config. Variables already present in
// the environment win over the file.
func Load() (Config, error) {
	return LoadFiles(".env")
}

// LoadFiles is Load with explicit dotenv paths. Missing files are ignored.
func LoadFiles(paths ...string) (Config, error) {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("op=config.Load: dotenv %s: %w", p, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	return cfg, nil
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// CompletionConfigured reports whether a Gemini API key is present.
func (c Config) CompletionConfigured() bool { return strings.TrimSpace(c.GeminiAPIKey) != "" }

// UsesRedisCache reports whether the shared cache should live in Redis.
func (c Config) UsesRedisCache() bool { return strings.EqualFold(c.CacheBackend, "redis") }

// SharedCompletionLimit reports whether completion calls are paced through Redis.
func (c Config) SharedCompletionLimit() bool {
	return c.UsesRedisCache() && c.CompletionRatePerMin > 0
}

// MaxUploadBytes converts MaxUploadMB to bytes.
func (c Config) MaxUploadBytes() int64 { return c.MaxUploadMB << 20 }

// GetTikaBackoffConfig returns backoff configuration appropriate for the current environment.
// In test environments, uses much shorter timeouts for faster test execution.
func (c Config) GetTikaBackoffConfig() (maxElapsedTime, initialInterval, maxInterval time.Duration, multiplier float64) {
	if c.IsTest() {
		return 2 * time.Second, 10 * time.Millisecond, 100 * time.Millisecond, 2.0
	}
	return c.TikaBackoffMaxElapsedTime, c.TikaBackoffInitialInterval, c.TikaBackoffMaxInterval, c.TikaBackoffMultiplier
}
