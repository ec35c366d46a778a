package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	// Server
	ServerPort string

	// External endpoints (status API and collector webhook share a base URL)
	APIBaseURL string

	// Browser session
	Headless       bool
	BotDisplayName string

	// Capture
	RecordingDuration time.Duration
	TempDir           string
	FFmpegBin         string
	AudioInput        string
	AudioFormat       string

	// Admission selector chain override. Empty means the built-in chain.
	NameSelectors []string

	// Optional integrations
	DatabaseURL   string
	ArchiveBucket string
}

// fileOverlay is the YAML config file shape. Pointer fields distinguish
// "absent" from "set to zero" so a partial file only touches what it names.
type fileOverlay struct {
	ServerPort        *string  `yaml:"server_port"`
	APIBaseURL        *string  `yaml:"api_base_url"`
	Headless          *bool    `yaml:"headless"`
	BotDisplayName    *string  `yaml:"bot_display_name"`
	RecordingDuration *string  `yaml:"recording_duration"`
	TempDir           *string  `yaml:"temp_dir"`
	FFmpegBin         *string  `yaml:"ffmpeg_bin"`
	AudioInput        *string  `yaml:"audio_input"`
	AudioFormat       *string  `yaml:"audio_format"`
	NameSelectors     []string `yaml:"name_selectors"`
	DatabaseURL       *string  `yaml:"database_url"`
	ArchiveBucket     *string  `yaml:"archive_bucket"`
}

// Load loads configuration from environment variables, then applies the
// optional YAML file named by BOT_CONFIG_FILE on top
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:        getEnv("SERVER_PORT", "3000"),
		APIBaseURL:        getEnv("API_BASE_URL", "https://pixelscribe3.vercel.app"),
		Headless:          getEnv("BOT_ENV", "") == "production",
		BotDisplayName:    getEnv("BOT_DISPLAY_NAME", "Meeting Bot"),
		RecordingDuration: getEnvDuration("RECORDING_DURATION", 5*time.Minute),
		TempDir:           getEnv("TEMP_DIR", os.TempDir()),
		FFmpegBin:         getEnv("FFMPEG_BIN", "ffmpeg"),
		AudioInput:        getEnv("AUDIO_INPUT", "default"),
		AudioFormat:       getEnv("AUDIO_FORMAT", "pulse"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		ArchiveBucket:     getEnv("ARCHIVE_BUCKET", ""),
	}

	if path := os.Getenv("BOT_CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var overlay fileOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if overlay.ServerPort != nil {
		c.ServerPort = *overlay.ServerPort
	}
	if overlay.APIBaseURL != nil {
		c.APIBaseURL = *overlay.APIBaseURL
	}
	if overlay.Headless != nil {
		c.Headless = *overlay.Headless
	}
	if overlay.BotDisplayName != nil {
		c.BotDisplayName = *overlay.BotDisplayName
	}
	if overlay.RecordingDuration != nil {
		d, err := time.ParseDuration(*overlay.RecordingDuration)
		if err != nil {
			return fmt.Errorf("parsing recording_duration: %w", err)
		}
		c.RecordingDuration = d
	}
	if overlay.TempDir != nil {
		c.TempDir = *overlay.TempDir
	}
	if overlay.FFmpegBin != nil {
		c.FFmpegBin = *overlay.FFmpegBin
	}
	if overlay.AudioInput != nil {
		c.AudioInput = *overlay.AudioInput
	}
	if overlay.AudioFormat != nil {
		c.AudioFormat = *overlay.AudioFormat
	}
	if len(overlay.NameSelectors) > 0 {
		c.NameSelectors = overlay.NameSelectors
	}
	if overlay.DatabaseURL != nil {
		c.DatabaseURL = *overlay.DatabaseURL
	}
	if overlay.ArchiveBucket != nil {
		c.ArchiveBucket = *overlay.ArchiveBucket
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
