package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Document service
	SlidesBaseURL         string
	SlidesToken           string
	DefaultPresentationID string
	CreateNewPresentation bool
	SlideMapPath          string // optional YAML override for the built-in map

	// Content generation
	GeminiAPIKey string
	GeminiModel  string
	PromptsPath  string

	// Narration
	OpenAIAPIKey string
	TTSModel     string
	TTSVoice     string
	TTSWorkers   int

	// Shared storage for audio uploads
	AWSRegion      string
	StorageBucket  string
	StoragePrefix  string
	SharedDriveURL string // base URL the document service resolves uploads from

	// Result delivery
	DeliveryMode string // email, app, or both
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	FromAddress  string

	// Pipeline
	OutputDir  string
	RunTimeout time.Duration

	// Logging
	LogLevel string

	// Feature flags
	EnableCORS bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		SlidesBaseURL:         getEnv("SLIDES_BASE_URL", "https://slides.googleapis.com/v1"),
		SlidesToken:           getEnv("SLIDES_TOKEN", ""),
		DefaultPresentationID: getEnv("PRESENTATION_ID", ""),
		CreateNewPresentation: getEnvBool("CREATE_NEW_PRESENTATION", false),
		SlideMapPath:          getEnv("SLIDE_MAP_PATH", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		PromptsPath:  getEnv("PROMPTS_PATH", "prompts.md"),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		TTSModel:     getEnv("TTS_MODEL", "tts-1"),
		TTSVoice:     getEnv("TTS_VOICE", "ash"),
		TTSWorkers:   getEnvInt("TTS_WORKERS", 4),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		StorageBucket:  getEnv("STORAGE_BUCKET", ""),
		StoragePrefix:  getEnv("STORAGE_PREFIX", "narration"),
		SharedDriveURL: getEnv("SHARED_DRIVE_URL", ""),

		DeliveryMode: getEnv("RESULT_DELIVERY_MODE", "email"),
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromAddress:  getEnv("FROM_ADDRESS", ""),

		OutputDir:  getEnv("OUTPUT_DIR", "output"),
		RunTimeout: getEnvDuration("RUN_TIMEOUT", 15*time.Minute),

		LogLevel:   getEnv("LOG_LEVEL", "info"),
		EnableCORS: getEnvBool("ENABLE_CORS", true),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.DeliveryMode {
	case "email", "app", "both":
	default:
		return fmt.Errorf("RESULT_DELIVERY_MODE must be email, app, or both, got %q", c.DeliveryMode)
	}

	if c.Environment == "production" {
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required in production")
		}
		if c.SlidesToken == "" {
			return fmt.Errorf("SLIDES_TOKEN is required in production")
		}
		if c.DeliveryMode != "app" && c.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required when delivery mode is %q", c.DeliveryMode)
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
