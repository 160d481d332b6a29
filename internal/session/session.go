package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leadline-ai/callbridge/internal/agent"
	"github.com/leadline-ai/callbridge/internal/observability"
	"github.com/leadline-ai/callbridge/internal/postcall"
	"github.com/leadline-ai/callbridge/internal/protocol"
	"github.com/leadline-ai/callbridge/internal/recognizer"
	"github.com/leadline-ai/callbridge/internal/recorder"
	"github.com/leadline-ai/callbridge/internal/voice"
)

type State string

const (
	StateInit           State = "init"
	StateConsentSent    State = "consent_sent"
	StateDialogueActive State = "dialogue_active"
	StateTerminating    State = "terminating"
	StateTerminated     State = "terminated"
)

const (
	lowConfidenceThreshold = 0.7
	escalationLimit        = 3
	terminateTimeout       = 15 * time.Second
)

const (
	consentMessage        = "This call may be recorded for quality and training purposes. If you do not consent, please hang up now."
	repeatMessage         = "I'm sorry, I didn't catch that. Could you please repeat it?"
	escalationMessage     = "Let me bring a human teammate on since I am having trouble hearing you."
	hearingTroubleMessage = "I am having trouble hearing you. Let me bring a human teammate on the line."
	apologyMessage        = "I am having trouble responding right now. Let me transfer you to a human shortly."
	fillerMessage         = "Give me just a moment while I check that for you."
)

// Notifier delivers the finalization webhook.
type Notifier interface {
	Deliver(ctx context.Context, p postcall.Payload) error
}

// Config wires one call's collaborators into a Session.
type Config struct {
	LeadID          string
	InquiryCategory string
	VoiceID         string
	FillerDelay     time.Duration

	RecordingsBucket  string
	TranscriptsBucket string

	Recognizer  *recognizer.Adapter
	Agent       *agent.Agent
	Synthesizer voice.Synthesizer
	Recorder    *recorder.Recorder
	Notifier    Notifier
	Metrics     *observability.Metrics
	Logger      *slog.Logger

	// Outbound carries frames to the socket writer. Sends after the
	// socket has closed are dropped and logged, never errors.
	Outbound chan<- protocol.Frame
}

// Session owns one call: it consumes socket frames, drives the
// recognizer, recorder, dialogue agent and synthesizer, decides
// escalation and finalizes the call exactly once.
//
// Transcript events are handled by a single session-owned goroutine, so
// a final transcript arriving while a turn is in flight waits for that
// turn to complete. Dialogue turns are serialized, never dropped.
type Session struct {
	cfg Config
	log *slog.Logger

	ctx     context.Context
	speechQ chan string

	mu            sync.Mutex
	state         State
	streamSid     string
	lowConfidence int
	closed        bool
}

func New(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		cfg:     cfg,
		log:     logger.With("lead_id", cfg.LeadID),
		ctx:     context.Background(),
		speechQ: make(chan string, 16),
		state:   StateInit,
	}
}

func (s *Session) LeadID() string { return s.cfg.LeadID }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start opens the recognition stream and launches the session's
// transcript and speech loops. ctx is the connection context: its
// cancellation marks the socket as gone.
func (s *Session) Start(ctx context.Context) {
	s.ctx = ctx
	s.cfg.Recognizer.Start(ctx)
	go s.speechLoop(ctx)
	go s.transcriptLoop(ctx)
}

// HandleFrame processes one inbound socket frame.
func (s *Session) HandleFrame(f protocol.Frame) {
	switch f.Event {
	case protocol.EventConnected:
	case protocol.EventStart:
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.streamSid = f.Start.StreamSid
		s.state = StateConsentSent
		s.mu.Unlock()
		// The disclosure is informational: recording is already running
		// and dialogue is not gated on any reply to it.
		s.speak(consentMessage)
		s.setState(StateDialogueActive)
	case protocol.EventMedia:
		if s.isClosed() {
			return
		}
		audio, err := f.Media.Decode()
		if err != nil {
			s.log.Warn("dropping undecodable media payload", "err", err)
			return
		}
		s.cfg.Recorder.AddAudioChunk(audio)
		s.cfg.Recognizer.PushAudio(audio)
	case protocol.EventStop:
		s.Terminate()
	}
}

// Terminate is idempotent: the first caller stops the recognizer,
// finalizes the recording and delivers the webhook; later callers are
// no-ops. Every step is logged-and-continue, nothing raises outward.
func (s *Session) Terminate() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.state = StateTerminating
	s.mu.Unlock()

	s.cfg.Recognizer.Stop()

	// The connection context may already be canceled by socket
	// teardown; finalization and notification still must run.
	ctx, cancel := context.WithTimeout(context.Background(), terminateTimeout)
	defer cancel()

	arts, err := s.cfg.Recorder.Finalize(ctx)
	if err != nil {
		s.log.Error("recording finalize failed", "err", err)
	}

	payload := postcall.Payload{
		LeadID:           s.cfg.LeadID,
		RecordingBucket:  s.cfg.RecordingsBucket,
		RecordingKey:     arts.RecordingKey,
		TranscriptBucket: s.cfg.TranscriptsBucket,
		TranscriptKey:    arts.TranscriptKey,
	}
	if err := s.cfg.Notifier.Deliver(ctx, payload); err != nil {
		s.log.Error("post-call webhook delivery failed", "err", err)
		s.cfg.Metrics.WebhookDeliveries.WithLabelValues("error").Inc()
	} else {
		s.cfg.Metrics.WebhookDeliveries.WithLabelValues("delivered").Inc()
	}

	s.setState(StateTerminated)
	s.cfg.Metrics.SessionEvents.WithLabelValues("terminated").Inc()
}

func (s *Session) transcriptLoop(ctx context.Context) {
	for ev := range s.cfg.Recognizer.Events() {
		if ev.Err != nil {
			s.log.Error("recognition stream failed", "err", ev.Err)
			s.cfg.Metrics.ProviderErrors.WithLabelValues("recognizer").Inc()
			s.speak(hearingTroubleMessage)
			s.Terminate()
			continue
		}
		s.onTranscript(ctx, ev.Transcript)
	}
}

func (s *Session) onTranscript(ctx context.Context, t *recognizer.TranscriptEvent) {
	if !t.IsFinal {
		s.cfg.Metrics.TranscriptEvents.WithLabelValues("partial").Inc()
		return
	}
	if s.isClosed() {
		return
	}

	s.cfg.Recorder.AddTranscriptLine(t.Text)
	if err := s.cfg.Recorder.FlushPartialTranscript(ctx); err != nil {
		s.log.Warn("partial transcript flush failed", "err", err)
	}

	if t.Confidence < lowConfidenceThreshold {
		s.cfg.Metrics.TranscriptEvents.WithLabelValues("low_confidence").Inc()
		s.mu.Lock()
		s.lowConfidence++
		count := s.lowConfidence
		s.mu.Unlock()

		if count >= escalationLimit {
			s.log.Info("escalating after repeated low-confidence transcripts", "count", count)
			s.cfg.Metrics.SessionEvents.WithLabelValues("escalated").Inc()
			s.speak(escalationMessage)
			s.Terminate()
			return
		}
		s.speak(repeatMessage)
		return
	}

	s.mu.Lock()
	s.lowConfidence = 0
	s.mu.Unlock()

	s.runTurn(ctx, t.Text)
}

func (s *Session) runTurn(ctx context.Context, userText string) {
	turnID := uuid.NewString()
	startedAt := time.Now()

	replyReady := make(chan struct{})
	fillerDone := make(chan struct{})
	if s.cfg.FillerDelay > 0 {
		go func() {
			defer close(fillerDone)
			timer := time.NewTimer(s.cfg.FillerDelay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
			case <-replyReady:
			case <-timer.C:
				s.cfg.Metrics.SessionEvents.WithLabelValues("filler_spoken").Inc()
				s.speak(fillerMessage)
			}
		}()
	} else {
		close(fillerDone)
	}

	reply, err := s.cfg.Agent.GenerateResponse(ctx, userText)
	close(replyReady)
	// Wait for the filler goroutine to settle so a filler that already
	// started is queued ahead of the reply.
	<-fillerDone

	if err != nil {
		s.log.Error("dialogue turn failed", "turn_id", turnID, "err", err)
		s.cfg.Metrics.ProviderErrors.WithLabelValues("model").Inc()
		s.speak(apologyMessage)
		return
	}

	s.cfg.Metrics.TranscriptEvents.WithLabelValues("reply").Inc()
	s.cfg.Metrics.ObserveTurnLatency(time.Since(startedAt))
	s.log.Debug("dialogue turn complete", "turn_id", turnID)
	s.speak(reply)
}

// speak queues text for synthesis and outbound delivery. The single
// speech loop preserves queue order across turns, fillers and notices.
func (s *Session) speak(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	select {
	case s.speechQ <- text:
	case <-s.ctx.Done():
		s.log.Debug("socket closed, dropping speech")
	}
}

func (s *Session) speechLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-s.speechQ:
			s.sendSpeech(ctx, text)
		}
	}
}

func (s *Session) sendSpeech(ctx context.Context, text string) {
	sid := s.currentStreamSid()
	if sid == "" {
		s.log.Warn("no stream identifier assigned, dropping speech")
		return
	}

	audio, err := s.cfg.Synthesizer.Synthesize(ctx, s.cfg.VoiceID, text)
	if err != nil {
		// That turn's audio is simply not sent; the call stays open.
		s.log.Error("speech synthesis failed", "err", err)
		s.cfg.Metrics.ProviderErrors.WithLabelValues("synthesizer").Inc()
		return
	}

	select {
	case s.cfg.Outbound <- protocol.OutboundMedia(sid, audio):
	case <-ctx.Done():
		s.log.Debug("socket closed before speech could be sent")
	}
}

func (s *Session) currentStreamSid() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamSid
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// A closed session only advances through the termination states.
	if s.closed && state != StateTerminating && state != StateTerminated {
		return
	}
	s.state = state
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
