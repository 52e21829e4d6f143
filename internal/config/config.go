package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	SourceID            string
	DeviceID            int
	ConfidenceThreshold float64 // percent, (0,100]
	CooldownSeconds     float64
	AutoStart           bool
	MaxReadRetries      int
	ReadRetryDelay      time.Duration

	FrameWidth  int
	FrameHeight int
	FrameRate   int

	OCRLanguages string // comma-separated tesseract language codes

	DBPath                   string
	LogDirectory             string
	ImageDirectory           string
	ImageBufferLimit         int
	ImageBufferFlushInterval int

	DispatchWorkers   int
	DispatchQueueSize int
	MaxJobAttempts    int
	RetryBaseDelay    time.Duration

	AnalyticsWindow time.Duration

	BlurSkipEnabled bool
	BlurFloor       float64
}

// Load reads configuration from the environment. A set-but-unparseable value
// is an error, never a silent fallback to the default.
func Load() (*Config, error) {
	env := &envReader{}

	cfg := &Config{
		SourceID:            env.getEnv("SOURCE_ID", "camera_0"),
		DeviceID:            env.getEnvAsInt("DEVICE_ID", 0),
		ConfidenceThreshold: env.getEnvAsFloat("CONFIDENCE_THRESHOLD", 65),
		CooldownSeconds:     env.getEnvAsFloat("COOLDOWN_SECONDS", 2.0),
		AutoStart:           env.getEnvAsBool("AUTO_START", true),
		MaxReadRetries:      env.getEnvAsInt("MAX_READ_RETRIES", 30),
		ReadRetryDelay:      time.Duration(env.getEnvAsInt("READ_RETRY_DELAY_MS", 100)) * time.Millisecond,

		FrameWidth:  env.getEnvAsInt("FRAME_WIDTH", 1280),
		FrameHeight: env.getEnvAsInt("FRAME_HEIGHT", 720),
		FrameRate:   env.getEnvAsInt("FRAME_RATE", 30),

		OCRLanguages: env.getEnv("OCR_LANGUAGES", "eng"),

		DBPath:                   env.getEnv("DB_PATH", filepath.Join(".", "data", "captures.db")),
		LogDirectory:             env.getEnv("LOG_DIR", filepath.Join(".", "logs")),
		ImageDirectory:           env.getEnv("IMAGE_DIR", filepath.Join(".", "captures")),
		ImageBufferLimit:         env.getEnvAsInt("BUFFER_LIMIT", 7),
		ImageBufferFlushInterval: env.getEnvAsInt("FLUSH_INTERVAL", 30),

		DispatchWorkers:   env.getEnvAsInt("DISPATCH_WORKERS", 3),
		DispatchQueueSize: env.getEnvAsInt("DISPATCH_QUEUE_SIZE", 100),
		MaxJobAttempts:    env.getEnvAsInt("DISPATCH_MAX_ATTEMPTS", 3),
		RetryBaseDelay:    time.Duration(env.getEnvAsInt("DISPATCH_BASE_DELAY_MS", 500)) * time.Millisecond,

		AnalyticsWindow: time.Duration(env.getEnvAsInt("ANALYTICS_WINDOW_HOURS", 24)) * time.Hour,

		BlurSkipEnabled: env.getEnvAsBool("BLUR_SKIP_ENABLED", false),
		BlurFloor:       env.getEnvAsFloat("BLUR_FLOOR", 0),
	}

	if len(env.malformed) > 0 {
		return nil, fmt.Errorf("malformed environment value(s): %s", strings.Join(env.malformed, ", "))
	}
	return cfg, nil
}

// Validate rejects invalid settings outright. Values are never clamped.
func (c *Config) Validate() error {
	if c.SourceID == "" {
		return fmt.Errorf("SOURCE_ID must not be empty")
	}
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 100 {
		return fmt.Errorf("CONFIDENCE_THRESHOLD must be in (0,100], got %v", c.ConfidenceThreshold)
	}
	if c.CooldownSeconds < 0 {
		return fmt.Errorf("COOLDOWN_SECONDS must not be negative, got %v", c.CooldownSeconds)
	}
	if c.MaxReadRetries < 1 {
		return fmt.Errorf("MAX_READ_RETRIES must be at least 1, got %d", c.MaxReadRetries)
	}
	if c.DispatchWorkers < 1 {
		return fmt.Errorf("DISPATCH_WORKERS must be at least 1, got %d", c.DispatchWorkers)
	}
	if c.DispatchQueueSize < 1 {
		return fmt.Errorf("DISPATCH_QUEUE_SIZE must be at least 1, got %d", c.DispatchQueueSize)
	}
	if c.MaxJobAttempts < 1 {
		return fmt.Errorf("DISPATCH_MAX_ATTEMPTS must be at least 1, got %d", c.MaxJobAttempts)
	}
	if c.AnalyticsWindow <= 0 {
		return fmt.Errorf("ANALYTICS_WINDOW_HOURS must be positive, got %v", c.AnalyticsWindow)
	}
	if c.BlurFloor < 0 {
		return fmt.Errorf("BLUR_FLOOR must not be negative, got %v", c.BlurFloor)
	}
	return nil
}

// Cooldown returns the minimum inter-capture spacing as a duration.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds * float64(time.Second))
}

// envReader collects the keys whose values failed to parse.
type envReader struct {
	malformed []string
}

func (e *envReader) getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (e *envReader) getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		intValue, err := strconv.Atoi(value)
		if err != nil {
			e.malformed = append(e.malformed, key)
			return defaultValue
		}
		return intValue
	}
	return defaultValue
}

func (e *envReader) getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			e.malformed = append(e.malformed, key)
			return defaultValue
		}
		return floatValue
	}
	return defaultValue
}

func (e *envReader) getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			e.malformed = append(e.malformed, key)
			return defaultValue
		}
		return boolValue
	}
	return defaultValue
}
