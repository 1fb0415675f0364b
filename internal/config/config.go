package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Document source. ASSET_URL or S3_ENDPOINT select a remote source;
	// otherwise documents are read from AssetDir.
	AssetDir    string
	AssetURL    string
	AssetAPIKey string
	S3          S3Config

	// Rendering
	SchemaFile       string
	HighlightStyle   string
	CacheSize        int
	MaxDocumentBytes int64

	// Sessions and stats
	SessionTTL  time.Duration
	StatsWindow time.Duration

	// Auth for /api routes; empty disables it.
	APIKey string

	CORSAllowedOrigins []string

	// PDF
	PDFFallbackPdftotext bool

	LogLevel string
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present; real environment
// variables take precedence over it.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port: envOr("PORT", "8090"),

		AssetDir:    envOr("ASSET_DIR", "public"),
		AssetURL:    os.Getenv("ASSET_URL"),
		AssetAPIKey: os.Getenv("ASSET_API_KEY"),
		S3: S3Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Region:    os.Getenv("S3_REGION"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Bucket:    os.Getenv("S3_BUCKET"),
			Prefix:    os.Getenv("S3_PREFIX"),
			UseSSL:    envBool("S3_USE_SSL", true),
		},

		SchemaFile:       os.Getenv("SCHEMA_FILE"),
		HighlightStyle:   envOr("HIGHLIGHT_STYLE", "github"),
		CacheSize:        envInt("CACHE_SIZE", 256),
		MaxDocumentBytes: envInt64("MAX_DOCUMENT_BYTES", 10485760), // 10MB

		SessionTTL:  envDuration("SESSION_TTL", 30*time.Minute),
		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),

		APIKey: os.Getenv("DOCVIEW_API_KEY"),

		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		LogLevel: envOr("LOG_LEVEL", "info"),
	}

	if cfg.CacheSize < 0 {
		cfg.CacheSize = 0
	}
	if cfg.MaxDocumentBytes <= 0 {
		cfg.MaxDocumentBytes = 10485760
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}
	if strings.EqualFold(cfg.HighlightStyle, "none") {
		cfg.HighlightStyle = ""
	}

	return cfg
}

func (c Config) Validate() error {
	if c.AssetURL != "" && c.S3.Endpoint != "" {
		return fmt.Errorf("ASSET_URL and S3_ENDPOINT are mutually exclusive")
	}
	if c.S3.Endpoint != "" {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when S3_ENDPOINT is set")
		}
		if c.S3.AccessKey == "" || c.S3.SecretKey == "" {
			return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY are required when S3_ENDPOINT is set")
		}
	}
	if c.AssetURL == "" && c.S3.Endpoint == "" && c.AssetDir == "" {
		return fmt.Errorf("ASSET_DIR is required when no remote source is configured")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	return level, nil
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

// envList splits a comma-separated value, dropping empty entries.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
