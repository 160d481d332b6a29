package voice

import (
	"context"
	"errors"
)

// Result is one recognition result surfaced by a provider stream.
// Confidence is only meaningful when HasConfidence is set; providers
// that do not score tokens leave it unset.
type Result struct {
	Text          string
	Final         bool
	Confidence    float64
	HasConfidence bool
}

// RecognitionStream is a single continuous bidirectional recognition call.
// Send with an empty chunk signals end of input so the remote stream closes
// cleanly; Recv returns io.EOF once the stream has drained.
type RecognitionStream interface {
	Send(ctx context.Context, chunk []byte) error
	Recv(ctx context.Context) (Result, error)
	Close() error
}

// Recognizer opens recognition streams for the configured language.
type Recognizer interface {
	StartStream(ctx context.Context, language string) (RecognitionStream, error)
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of a dialogue history.
type Turn struct {
	Role Role
	Text string
}

// ErrEmptyCompletion reports that the model produced no usable text.
// Callers treat it as a recoverable per-turn failure.
var ErrEmptyCompletion = errors.New("model returned empty completion")

// LanguageModel turns a persona plus dialogue history into assistant text.
type LanguageModel interface {
	Complete(ctx context.Context, persona string, history []Turn) (string, error)
}

// Synthesizer turns agent text into playable audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, voiceID, text string) ([]byte, error)
}
