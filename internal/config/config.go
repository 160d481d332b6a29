package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the call session manager.
type Config struct {
	ListenAddr       string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	Provider string

	Region              string
	ModelID             string
	VoiceID             string
	RecognitionLanguage string

	RecordingsBucket  string
	TranscriptsBucket string
	PostCallWebhook   string

	MaxParallelSessions int
	ReplyFillerDelay    time.Duration

	LogLevel string
}

// Load reads environment variables, applies defaults and validates eagerly.
// Missing required values fail here rather than mid-call.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:          ":" + envOrDefault("PORT", "8080"),
		MetricsNamespace:    envOrDefault("APP_METRICS_NAMESPACE", "callbridge"),
		Provider:            envOrDefault("PROVIDER", "mock"),
		Region:              envOrDefault("AWS_REGION", "us-east-1"),
		ModelID:             envOrDefault("MODEL_ID", "anthropic.claude-3-5-sonnet-20241022-v2:0"),
		VoiceID:             envOrDefault("VOICE_ID", "Joanna"),
		RecognitionLanguage: envOrDefault("RECOGNITION_LANGUAGE", "en-US"),
		RecordingsBucket:    envTrimmed("S3_RECORDINGS_BUCKET"),
		TranscriptsBucket:   envTrimmed("S3_TRANSCRIPTS_BUCKET"),
		PostCallWebhook:     envTrimmed("POST_CALL_WEBHOOK"),
		MaxParallelSessions: 15,
		ReplyFillerDelay:    800 * time.Millisecond,
		ShutdownTimeout:     15 * time.Second,
		LogLevel:            envOrDefault("LOG_LEVEL", "info"),
	}

	var err error
	cfg.MaxParallelSessions, err = intFromEnv("MAX_PARALLEL_SESSIONS", cfg.MaxParallelSessions)
	if err != nil {
		return Config{}, err
	}
	cfg.ReplyFillerDelay, err = durationFromEnv("REPLY_FILLER_DELAY", cfg.ReplyFillerDelay)
	if err != nil {
		return Config{}, err
	}
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}

	if cfg.RecordingsBucket == "" {
		return Config{}, fmt.Errorf("S3_RECORDINGS_BUCKET is required")
	}
	if cfg.TranscriptsBucket == "" {
		return Config{}, fmt.Errorf("S3_TRANSCRIPTS_BUCKET is required")
	}
	if cfg.PostCallWebhook == "" {
		return Config{}, fmt.Errorf("POST_CALL_WEBHOOK is required")
	}
	u, err := url.Parse(cfg.PostCallWebhook)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Config{}, fmt.Errorf("POST_CALL_WEBHOOK must be an http(s) URL")
	}
	if cfg.MaxParallelSessions <= 0 {
		return Config{}, fmt.Errorf("MAX_PARALLEL_SESSIONS must be positive")
	}
	if cfg.ReplyFillerDelay < 0 {
		return Config{}, fmt.Errorf("REPLY_FILLER_DELAY must not be negative")
	}
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ParseLogLevel maps the LOG_LEVEL setting onto a slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("LOG_LEVEL parse error: unknown level %q", level)
	}
}

func envOrDefault(key, fallback string) string {
	v := envTrimmed(key)
	if v == "" {
		return fallback
	}
	return v
}

// envTrimmed reads an environment variable with whitespace stripped.
func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}
