package recorder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/leadline-ai/callbridge/internal/store"
)

func TestRecordingIsOrderedConcatenation(t *testing.T) {
	objects := store.NewMemoryStore()
	r := New(objects, "L1", "rec-bucket", "tx-bucket")

	chunks := [][]byte{[]byte("aaa"), []byte("b"), []byte("cc")}
	for _, chunk := range chunks {
		r.AddAudioChunk(chunk)
	}

	arts, err := r.Finalize(context.Background())
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if !strings.HasPrefix(arts.RecordingKey, "recordings/L1-") || !strings.HasSuffix(arts.RecordingKey, ".pcm") {
		t.Fatalf("RecordingKey = %q, want recordings/L1-<ts>.pcm", arts.RecordingKey)
	}

	obj, ok := objects.Get("rec-bucket", arts.RecordingKey)
	if !ok {
		t.Fatalf("recording not stored under %q", arts.RecordingKey)
	}
	if string(obj.Body) != "aaabcc" {
		t.Fatalf("recording = %q, want exact ordered concatenation %q", obj.Body, "aaabcc")
	}
	if obj.ContentType != "audio/pcm" {
		t.Fatalf("recording content type = %q, want audio/pcm", obj.ContentType)
	}
}

func TestFinalizePersistsTranscriptLines(t *testing.T) {
	objects := store.NewMemoryStore()
	r := New(objects, "L1", "rec-bucket", "tx-bucket")
	r.AddTranscriptLine("hello")
	r.AddTranscriptLine("I need help with tax filing")

	arts, err := r.Finalize(context.Background())
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	obj, ok := objects.Get("tx-bucket", arts.TranscriptKey)
	if !ok {
		t.Fatalf("transcript not stored under %q", arts.TranscriptKey)
	}
	if string(obj.Body) != "hello\nI need help with tax filing" {
		t.Fatalf("transcript = %q, want joined lines", obj.Body)
	}
}

func TestTranscriptLinesAreRedactedBeforeStorage(t *testing.T) {
	objects := store.NewMemoryStore()
	r := New(objects, "L1", "rec-bucket", "tx-bucket")
	r.AddTranscriptLine("caller: my card is 4242 4242 4242 4242")

	arts, err := r.Finalize(context.Background())
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	obj, _ := objects.Get("tx-bucket", arts.TranscriptKey)
	if strings.Contains(string(obj.Body), "4242") {
		t.Fatalf("transcript leaked card digits: %q", obj.Body)
	}
	if !strings.Contains(string(obj.Body), "[REDACTED_CARD]") {
		t.Fatalf("transcript = %q, want card marker", obj.Body)
	}
}

func TestFlushPartialTranscriptIsRepeatable(t *testing.T) {
	objects := store.NewMemoryStore()
	r := New(objects, "L7", "rec-bucket", "tx-bucket")

	r.AddTranscriptLine("first")
	if err := r.FlushPartialTranscript(context.Background()); err != nil {
		t.Fatalf("FlushPartialTranscript() error = %v", err)
	}
	r.AddTranscriptLine("second")
	if err := r.FlushPartialTranscript(context.Background()); err != nil {
		t.Fatalf("FlushPartialTranscript() error = %v", err)
	}

	obj, ok := objects.Get("tx-bucket", "transcripts/L7.partial.txt")
	if !ok {
		t.Fatalf("partial transcript not stored")
	}
	if string(obj.Body) != "first\nsecond" {
		t.Fatalf("partial transcript = %q, want %q", obj.Body, "first\nsecond")
	}
}

type failingStore struct {
	failRecordings bool
}

func (s *failingStore) Put(_ context.Context, bucket, _ string, _ []byte, _ string) error {
	if s.failRecordings && bucket == "rec-bucket" {
		return errors.New("upload refused")
	}
	return nil
}

func TestFinalizeContinuesPastRecordingFailure(t *testing.T) {
	r := New(&failingStore{failRecordings: true}, "L1", "rec-bucket", "tx-bucket")
	r.AddAudioChunk([]byte("x"))
	r.AddTranscriptLine("line")

	arts, err := r.Finalize(context.Background())
	if err == nil {
		t.Fatalf("Finalize() should report the recording failure")
	}
	if arts.RecordingKey != "" {
		t.Fatalf("RecordingKey = %q, want empty for failed put", arts.RecordingKey)
	}
	if arts.TranscriptKey == "" {
		t.Fatalf("TranscriptKey should still be set when transcript persists")
	}
}
