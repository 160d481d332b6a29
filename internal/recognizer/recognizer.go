package recognizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/leadline-ai/callbridge/internal/voice"
)

// TranscriptEvent is one recognized result. Confidence is always
// concrete: results the provider does not score default to 1.0 so they
// never trip confidence-based escalation.
type TranscriptEvent struct {
	Text       string
	IsFinal    bool
	Confidence float64
}

// Event is the discriminated payload on the adapter's channel: exactly
// one of Transcript or Err is set. A stream-level failure is emitted
// once and is terminal; the adapter never reopens the stream mid-call.
type Event struct {
	Transcript *TranscriptEvent
	Err        error
}

// Adapter turns a queue of raw audio chunks into an ordered sequence of
// transcript events by feeding one continuous bidirectional recognition
// stream. The drain loop suspends on an empty queue and wakes on
// PushAudio or Stop; there is no busy-polling.
type Adapter struct {
	rec      voice.Recognizer
	language string

	mu      sync.Mutex
	queue   [][]byte
	stopped bool

	wake      chan struct{}
	events    chan Event
	errOnce   sync.Once
	closeOnce sync.Once
}

func New(rec voice.Recognizer, language string) *Adapter {
	return &Adapter{
		rec:      rec,
		language: language,
		wake:     make(chan struct{}, 1),
		events:   make(chan Event, 64),
	}
}

// Events is closed once the stream has fully drained or failed.
// Consumers must read until close on session teardown.
func (a *Adapter) Events() <-chan Event { return a.events }

// Start opens the recognition stream and runs the drain and receive
// loops until end of input or a terminal stream failure.
func (a *Adapter) Start(ctx context.Context) {
	go a.run(ctx)
}

// PushAudio enqueues one chunk. Chunks pushed after Stop are discarded.
func (a *Adapter) PushAudio(chunk []byte) {
	buf := make([]byte, len(chunk))
	copy(buf, chunk)

	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.queue = append(a.queue, buf)
	a.mu.Unlock()
	a.signal()
}

// Stop signals end of input. The drain loop finishes the queued chunks,
// then sends the empty sentinel so the remote stream closes cleanly.
func (a *Adapter) Stop() {
	a.mu.Lock()
	a.stopped = true
	a.mu.Unlock()
	a.signal()
}

func (a *Adapter) signal() {
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *Adapter) run(ctx context.Context) {
	defer a.closeEvents()

	stream, err := a.rec.StartStream(ctx, a.language)
	if err != nil {
		a.fail(ctx, fmt.Errorf("start recognition stream: %w", err))
		return
	}
	defer stream.Close()

	drainDone := make(chan struct{})
	go func() {
		defer close(drainDone)
		a.drain(ctx, stream)
	}()

	a.receive(ctx, stream)
	a.Stop()
	<-drainDone
}

func (a *Adapter) drain(ctx context.Context, stream voice.RecognitionStream) {
	for {
		chunk, ok, stopped := a.pop()
		if ok {
			if err := stream.Send(ctx, chunk); err != nil {
				a.fail(ctx, fmt.Errorf("send audio: %w", err))
				return
			}
			continue
		}
		if stopped {
			if err := stream.Send(ctx, nil); err != nil {
				a.fail(ctx, fmt.Errorf("close recognition input: %w", err))
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-a.wake:
		}
	}
}

func (a *Adapter) pop() (chunk []byte, ok, stopped bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.queue) > 0 {
		chunk = a.queue[0]
		a.queue = a.queue[1:]
		return chunk, true, a.stopped
	}
	return nil, false, a.stopped
}

func (a *Adapter) receive(ctx context.Context, stream voice.RecognitionStream) {
	for {
		res, err := stream.Recv(ctx)
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			a.fail(ctx, fmt.Errorf("recognition stream: %w", err))
			return
		}

		confidence := 1.0
		if res.HasConfidence {
			confidence = res.Confidence
		}
		ev := Event{Transcript: &TranscriptEvent{Text: res.Text, IsFinal: res.Final, Confidence: confidence}}
		select {
		case a.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (a *Adapter) fail(ctx context.Context, err error) {
	a.errOnce.Do(func() {
		select {
		case a.events <- Event{Err: err}:
		case <-ctx.Done():
		}
	})
}

func (a *Adapter) closeEvents() {
	a.closeOnce.Do(func() { close(a.events) })
}
