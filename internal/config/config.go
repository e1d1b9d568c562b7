package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Gamma design API
	GammaBaseURL string
	GammaAPIKey  string
	GammaTheme   string

	// Auth
	DeckgenAPIKey string

	// Gemini generation
	GeminiAPIKey     string
	GeminiModel      string
	GeminiImageModel string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Artifacts
	OutputDir         string
	DefaultRenderMode string
	SaveCheckpoints   bool

	// Notice lookup
	NoticeDBPath string

	// Optional per-section rules overrides
	RulesFile string

	// Job state
	JobTTL time.Duration

	// Render polling
	RenderTimeout time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		GammaBaseURL: envOr("GAMMA_BASE_URL", "https://public-api.gamma.app/v1.0"),
		GammaAPIKey:  os.Getenv("GAMMA_API_KEY"),
		GammaTheme:   os.Getenv("GAMMA_THEME"),

		DeckgenAPIKey: os.Getenv("DECKGEN_API_KEY"),

		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      envOr("GEMINI_MODEL", "gemini-2.5-pro"),
		GeminiImageModel: envOr("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 20),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		OutputDir:         envOr("OUTPUT_DIR", "output"),
		DefaultRenderMode: envOr("RENDER_MODE", "gamma"),
		SaveCheckpoints:   envBool("SAVE_CHECKPOINTS", true),

		NoticeDBPath: envOr("NOTICE_DB_PATH", "notices.db"),

		RulesFile: os.Getenv("DECKGEN_RULES_FILE"),

		JobTTL: envDuration("JOB_TTL", 2*time.Hour),

		RenderTimeout: envDuration("RENDER_TIMEOUT", 10*time.Minute),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 20
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 2 * time.Hour
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 10 * time.Minute
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DeckgenAPIKey == "" {
		return fmt.Errorf("DECKGEN_API_KEY is required")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.DefaultRenderMode == "gamma" && c.GammaAPIKey == "" {
		return fmt.Errorf("GAMMA_API_KEY is required when RENDER_MODE=gamma")
	}
	if c.DefaultRenderMode != "gamma" && c.DefaultRenderMode != "html" {
		return fmt.Errorf("RENDER_MODE must be gamma or html, got %q", c.DefaultRenderMode)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
