package config

// Default paths and upstream endpoints
const (
	// DefaultDatabasePath is the default path for the application database
	DefaultDatabasePath = "./scribby.db"

	// DefaultESVAPIURL is the ESV passage text endpoint
	DefaultESVAPIURL = "https://api.esv.org/v3/passage/text/"
)

// Default model per LLM provider
const (
	DefaultGroqModel       = "llama-3.3-70b-versatile"
	DefaultOpenRouterModel = "meta-llama/llama-3.2-3b-instruct:free"
	DefaultGeminiModel     = "gemini-2.0-flash"
	DefaultClaudeModel     = "claude-haiku-4-5-20251001"
)
