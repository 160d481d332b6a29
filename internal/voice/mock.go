package voice

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MockProvider is a local fallback binding used when no cloud provider is
// configured. It keeps the full call loop runnable without credentials.
type MockProvider struct{}

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (p *MockProvider) StartStream(_ context.Context, _ string) (RecognitionStream, error) {
	return &mockRecognitionStream{results: make(chan Result, 64)}, nil
}

func (p *MockProvider) Complete(_ context.Context, _ string, history []Turn) (string, error) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser && strings.TrimSpace(history[i].Text) != "" {
			return fmt.Sprintf("Thanks for sharing. I noted that you said: %s. How else can I help?", strings.TrimSpace(history[i].Text)), nil
		}
	}
	return "", ErrEmptyCompletion
}

func (p *MockProvider) Synthesize(_ context.Context, _ string, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("synthesize: empty text")
	}
	return []byte(text), nil
}

type mockRecognitionStream struct {
	mu      sync.Mutex
	results chan Result
	chunks  int
	closed  bool
}

func (s *mockRecognitionStream) Send(ctx context.Context, chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if len(chunk) == 0 {
		s.closed = true
		close(s.results)
		return nil
	}
	s.chunks++
	if err := s.push(ctx, Result{Text: "...", Final: false}); err != nil {
		return err
	}
	if s.chunks%8 == 0 {
		return s.push(ctx, Result{Text: "simulated caller utterance", Final: true, Confidence: 0.92, HasConfidence: true})
	}
	return nil
}

// push never blocks past cancellation: with no consumer left the
// results channel can be full, and a stuck Send would strand the
// caller's feed goroutine.
func (s *mockRecognitionStream) push(ctx context.Context, res Result) error {
	select {
	case s.results <- res:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *mockRecognitionStream) Recv(ctx context.Context) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case res, ok := <-s.results:
		if !ok {
			return Result{}, io.EOF
		}
		return res, nil
	}
}

func (s *mockRecognitionStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.results)
	}
	return nil
}
