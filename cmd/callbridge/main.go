package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/leadline-ai/callbridge/internal/agent"
	"github.com/leadline-ai/callbridge/internal/config"
	"github.com/leadline-ai/callbridge/internal/httpapi"
	"github.com/leadline-ai/callbridge/internal/observability"
	"github.com/leadline-ai/callbridge/internal/postcall"
	"github.com/leadline-ai/callbridge/internal/protocol"
	"github.com/leadline-ai/callbridge/internal/recognizer"
	"github.com/leadline-ai/callbridge/internal/recorder"
	"github.com/leadline-ai/callbridge/internal/session"
	"github.com/leadline-ai/callbridge/internal/store"
	"github.com/leadline-ai/callbridge/internal/voice"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer, cfg.MetricsNamespace)

	var (
		recognizerProvider voice.Recognizer
		model              voice.LanguageModel
		synthesizer        voice.Synthesizer
		objects            store.ObjectStore
	)

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "mock", "":
		p := voice.NewMockProvider()
		recognizerProvider = p
		model = p
		synthesizer = p
		objects = store.NewMemoryStore()
		logger.Info("voice provider: mock", "region", cfg.Region)
	default:
		logger.Error("invalid PROVIDER", "provider", cfg.Provider, "expected", "mock")
		os.Exit(1)
	}

	objects = store.WithRetry(objects, 3, 200*time.Millisecond, 2*time.Second)

	notifier := postcall.NewNotifier(cfg.PostCallWebhook, nil)
	registry := session.NewRegistry(cfg.MaxParallelSessions)

	build := func(leadID, inquiryCategory string, outbound chan<- protocol.Frame) *session.Session {
		return session.New(session.Config{
			LeadID:            leadID,
			InquiryCategory:   inquiryCategory,
			VoiceID:           cfg.VoiceID,
			FillerDelay:       cfg.ReplyFillerDelay,
			RecordingsBucket:  cfg.RecordingsBucket,
			TranscriptsBucket: cfg.TranscriptsBucket,
			Recognizer:        recognizer.New(recognizerProvider, cfg.RecognitionLanguage),
			Agent:             agent.New(model, agent.PersonaForInquiry(inquiryCategory)),
			Synthesizer:       synthesizer,
			Recorder:          recorder.New(objects, leadID, cfg.RecordingsBucket, cfg.TranscriptsBucket),
			Notifier:          notifier,
			Metrics:           metrics,
			Logger:            logger,
			Outbound:          outbound,
		})
	}

	api := httpapi.New(registry, build, metrics, logger)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.Router(),
	}

	go func() {
		logger.Info("server listening", "addr", cfg.ListenAddr, "max_sessions", cfg.MaxParallelSessions)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen error", "err", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "err", err)
		_ = httpServer.Close()
	}

	// Shutdown does not touch hijacked websocket connections; every
	// still-active call must finalize and notify before the process exits.
	if n := registry.Count(); n > 0 {
		logger.Info("draining active sessions", "count", n)
	}
	registry.Drain()

	logger.Info("shutdown complete")
}
