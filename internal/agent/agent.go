package agent

import (
	"context"
	"strings"

	"github.com/leadline-ai/callbridge/internal/voice"
)

// historyWindow bounds the dialogue history to the most recent turns.
// The persona is a system instruction and never counts against it.
const historyWindow = 6

// Agent holds one call's bounded dialogue history and persona. It is
// owned by a single session and is not safe for concurrent use.
type Agent struct {
	model   voice.LanguageModel
	persona string
	history []voice.Turn
}

func New(model voice.LanguageModel, persona string) *Agent {
	return &Agent{model: model, persona: persona}
}

// GenerateResponse appends the caller turn, asks the model for a
// completion and appends the assistant turn. A blank completion is
// reported as voice.ErrEmptyCompletion; the caller recovers per turn.
func (a *Agent) GenerateResponse(ctx context.Context, userText string) (string, error) {
	a.append(voice.RoleUser, userText)

	text, err := a.model.Complete(ctx, a.persona, a.history)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", voice.ErrEmptyCompletion
	}

	a.append(voice.RoleAssistant, text)
	return text, nil
}

// History returns a copy of the current window.
func (a *Agent) History() []voice.Turn {
	out := make([]voice.Turn, len(a.history))
	copy(out, a.history)
	return out
}

func (a *Agent) append(role voice.Role, text string) {
	a.history = append(a.history, voice.Turn{Role: role, Text: text})
	if len(a.history) > historyWindow {
		a.history = a.history[len(a.history)-historyWindow:]
	}
}
