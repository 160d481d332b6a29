package recorder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/leadline-ai/callbridge/internal/redact"
	"github.com/leadline-ai/callbridge/internal/store"
)

// Recorder accumulates a single call's inbound audio and finalized
// transcript lines and persists them through the object store.
// Audio chunks are kept in arrival order; the recording is their exact
// concatenation.
type Recorder struct {
	mu         sync.Mutex
	leadID     string
	objects    store.ObjectStore
	recBucket  string
	txBucket   string
	audio      [][]byte
	transcript []string
}

// Artifacts are the locators of the finalized call artifacts.
type Artifacts struct {
	RecordingKey  string
	TranscriptKey string
}

func New(objects store.ObjectStore, leadID, recordingsBucket, transcriptsBucket string) *Recorder {
	return &Recorder{
		leadID:    leadID,
		objects:   objects,
		recBucket: recordingsBucket,
		txBucket:  transcriptsBucket,
	}
}

func (r *Recorder) AddAudioChunk(chunk []byte) {
	buf := make([]byte, len(chunk))
	copy(buf, chunk)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audio = append(r.audio, buf)
}

// AddTranscriptLine appends one finalized transcript line. Contact
// details and card numbers are masked before the line is stored, so no
// persisted artifact ever carries them.
func (r *Recorder) AddTranscriptLine(line string) {
	line = redact.Transcript(line)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcript = append(r.transcript, line)
}

// FlushPartialTranscript persists the transcript-so-far under a stable
// partial key. It is repeatable and best-effort; callers log failures.
func (r *Recorder) FlushPartialTranscript(ctx context.Context) error {
	key := fmt.Sprintf("transcripts/%s.partial.txt", r.leadID)
	return r.objects.Put(ctx, r.txBucket, key, []byte(r.transcriptText()), "text/plain")
}

// Finalize persists the complete recording and transcript under
// call-scoped timestamped keys and returns their locators. The session's
// closed flag guarantees at most one call per session; the Recorder does
// not enforce that itself. A failed put leaves its locator empty.
func (r *Recorder) Finalize(ctx context.Context) (Artifacts, error) {
	now := time.Now().UnixMilli()
	recordingKey := fmt.Sprintf("recordings/%s-%d.pcm", r.leadID, now)
	transcriptKey := fmt.Sprintf("transcripts/%s-%d.txt", r.leadID, now)

	var arts Artifacts
	var errs []error
	if err := r.objects.Put(ctx, r.recBucket, recordingKey, r.recording(), "audio/pcm"); err != nil {
		errs = append(errs, fmt.Errorf("persist recording: %w", err))
	} else {
		arts.RecordingKey = recordingKey
	}
	if err := r.objects.Put(ctx, r.txBucket, transcriptKey, []byte(r.transcriptText()), "text/plain"); err != nil {
		errs = append(errs, fmt.Errorf("persist transcript: %w", err))
	} else {
		arts.TranscriptKey = transcriptKey
	}
	return arts, errors.Join(errs...)
}

func (r *Recorder) recording() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	var size int
	for _, chunk := range r.audio {
		size += len(chunk)
	}
	out := make([]byte, 0, size)
	for _, chunk := range r.audio {
		out = append(out, chunk...)
	}
	return out
}

func (r *Recorder) transcriptText() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.transcript, "\n")
}
