package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("ListenAddr = %q, want %q", cfg.ListenAddr, ":8080")
	}
	if cfg.MaxParallelSessions != 15 {
		t.Fatalf("MaxParallelSessions = %d, want 15", cfg.MaxParallelSessions)
	}
	if cfg.ReplyFillerDelay != 800*time.Millisecond {
		t.Fatalf("ReplyFillerDelay = %v, want 800ms", cfg.ReplyFillerDelay)
	}
	if cfg.RecognitionLanguage != "en-US" {
		t.Fatalf("RecognitionLanguage = %q, want %q", cfg.RecognitionLanguage, "en-US")
	}
	if cfg.Provider != "mock" {
		t.Fatalf("Provider = %q, want %q", cfg.Provider, "mock")
	}
}

func TestLoadMissingBucketFails(t *testing.T) {
	setCoreEnv(t)
	t.Setenv("S3_RECORDINGS_BUCKET", "")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should fail without S3_RECORDINGS_BUCKET")
	}
}

func TestLoadMissingWebhookFails(t *testing.T) {
	setCoreEnv(t)
	t.Setenv("POST_CALL_WEBHOOK", "")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should fail without POST_CALL_WEBHOOK")
	}
}

func TestLoadRejectsBadWebhookURL(t *testing.T) {
	setCoreEnv(t)
	t.Setenv("POST_CALL_WEBHOOK", "not a url")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject a non-http webhook URL")
	}
}

func TestLoadRejectsZeroSessionCeiling(t *testing.T) {
	setCoreEnv(t)
	t.Setenv("MAX_PARALLEL_SESSIONS", "0")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject MAX_PARALLEL_SESSIONS=0")
	}
}

func TestLoadRejectsUnknownLogLevel(t *testing.T) {
	setCoreEnv(t)
	t.Setenv("LOG_LEVEL", "loud")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject unknown LOG_LEVEL")
	}
}

func TestLoadExplicitOverrides(t *testing.T) {
	setCoreEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_PARALLEL_SESSIONS", "2")
	t.Setenv("REPLY_FILLER_DELAY", "250ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ListenAddr != ":9090" {
		t.Fatalf("ListenAddr = %q, want %q", cfg.ListenAddr, ":9090")
	}
	if cfg.MaxParallelSessions != 2 {
		t.Fatalf("MaxParallelSessions = %d, want 2", cfg.MaxParallelSessions)
	}
	if cfg.ReplyFillerDelay != 250*time.Millisecond {
		t.Fatalf("ReplyFillerDelay = %v, want 250ms", cfg.ReplyFillerDelay)
	}
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel("warn")
	if err != nil {
		t.Fatalf("ParseLogLevel(warn) error = %v", err)
	}
	if lvl != slog.LevelWarn {
		t.Fatalf("level = %v, want %v", lvl, slog.LevelWarn)
	}
}

func setCoreEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT",
		"APP_METRICS_NAMESPACE",
		"APP_SHUTDOWN_TIMEOUT",
		"PROVIDER",
		"AWS_REGION",
		"MODEL_ID",
		"VOICE_ID",
		"RECOGNITION_LANGUAGE",
		"MAX_PARALLEL_SESSIONS",
		"REPLY_FILLER_DELAY",
		"LOG_LEVEL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
	t.Setenv("S3_RECORDINGS_BUCKET", "leadline-recordings")
	t.Setenv("S3_TRANSCRIPTS_BUCKET", "leadline-transcripts")
	t.Setenv("POST_CALL_WEBHOOK", "https://hooks.leadline.test/post-call")
}
