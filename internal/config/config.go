package config

import (
	"time"

	"github.com/spf13/viper"
)

// ProviderAuto tries every configured LLM provider in fallback order.
const ProviderAuto = "auto"

type (
	Config struct {
		HTTP
		Global
		Database
		ESV
		LLM
		Cache
		Tasks
		Session
		Logging
		Audit
	}

	HTTP struct {
		Port int32
		Host string

		// Generation requests allowed per client per minute, 0 disables the limit
		GenerateRateLimit int
	}
	Global struct {
		ShutdownTimeoutInSeconds int
		HistoryLimit             int
	}
	Database struct {
		Path string
	}
	ESV struct {
		APIKey  string
		BaseURL string
		Timeout time.Duration
	}
	LLM struct {
		Provider string // "auto", "groq", "openrouter", "gemini", "claude"

		GroqAPIKey       string
		OpenRouterAPIKey string
		GoogleAPIKey     string
		AnthropicAPIKey  string

		GroqModel       string
		OpenRouterModel string
		GeminiModel     string
		ClaudeModel     string

		Timeout    time.Duration
		MaxRetries int
	}
	Cache struct {
		TTL           time.Duration // 0 keeps cached rows forever
		PruneSchedule string        // Cron format, empty disables the scheduler
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration // Stuck tasks go back to the queue after this
		CleanupInterval time.Duration
	}
	Session struct {
		Secret        string
		Lifetime      time.Duration
		SecureCookies bool // Set to false for local dev without HTTPS
		CSRFEnabled   bool
	}
	Logging struct {
		Level  string
		Format string // "json" or "console"
	}
	Audit struct {
		Dir string // Empty disables archiving of import payloads
	}
)

// NewConfig reads configuration from the environment, falling back to a .env
// file in the working directory when present.
func NewConfig() *Config {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	// .env is optional; every key has a default.
	_ = v.ReadInConfig()
	v.AutomaticEnv()

	v.SetDefault("port", 8000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("generate_rate_limit", 20)
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("history_limit", 50)
	v.SetDefault("database_path", DefaultDatabasePath)

	v.SetDefault("esv_api_key", "")
	v.SetDefault("esv_api_url", DefaultESVAPIURL)
	v.SetDefault("esv_timeout", "30s")

	v.SetDefault("llm_provider", ProviderAuto)
	v.SetDefault("groq_model", DefaultGroqModel)
	v.SetDefault("openrouter_model", DefaultOpenRouterModel)
	v.SetDefault("gemini_model", DefaultGeminiModel)
	v.SetDefault("claude_model", DefaultClaudeModel)
	v.SetDefault("llm_timeout", "2m")
	v.SetDefault("llm_max_retries", 2)

	v.SetDefault("cache_ttl", "0s")
	v.SetDefault("cache_prune_schedule", "0 3 * * *") // Daily at 03:00

	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("session_secret", "") // Generated per process if empty
	v.SetDefault("session_lifetime", "168h")
	v.SetDefault("secure_cookies", true)
	v.SetDefault("csrf_enabled", true)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("audit_dir", "")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),

			GenerateRateLimit: v.GetInt("GENERATE_RATE_LIMIT"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
			HistoryLimit:             v.GetInt("HISTORY_LIMIT"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		ESV: ESV{
			APIKey:  v.GetString("ESV_API_KEY"),
			BaseURL: v.GetString("ESV_API_URL"),
			Timeout: v.GetDuration("ESV_TIMEOUT"),
		},
		LLM: LLM{
			Provider:         v.GetString("LLM_PROVIDER"),
			GroqAPIKey:       v.GetString("GROQ_API_KEY"),
			OpenRouterAPIKey: v.GetString("OPENROUTER_API_KEY"),
			GoogleAPIKey:     v.GetString("GOOGLE_API_KEY"),
			AnthropicAPIKey:  v.GetString("ANTHROPIC_API_KEY"),
			GroqModel:        v.GetString("GROQ_MODEL"),
			OpenRouterModel:  v.GetString("OPENROUTER_MODEL"),
			GeminiModel:      v.GetString("GEMINI_MODEL"),
			ClaudeModel:      v.GetString("CLAUDE_MODEL"),
			Timeout:          v.GetDuration("LLM_TIMEOUT"),
			MaxRetries:       v.GetInt("LLM_MAX_RETRIES"),
		},
		Cache: Cache{
			TTL:           v.GetDuration("CACHE_TTL"),
			PruneSchedule: v.GetString("CACHE_PRUNE_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Session: Session{
			Secret:        v.GetString("SESSION_SECRET"),
			Lifetime:      v.GetDuration("SESSION_LIFETIME"),
			SecureCookies: v.GetBool("SECURE_COOKIES"),
			CSRFEnabled:   v.GetBool("CSRF_ENABLED"),
		},
		Logging: Logging{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Audit: Audit{
			Dir: v.GetString("AUDIT_DIR"),
		},
	}
}
