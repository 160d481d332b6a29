package store

import (
	"context"
	"testing"
)

func TestMemoryStorePutGet(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Put(context.Background(), "recordings", "recordings/L1.pcm", []byte{1, 2}, "audio/pcm"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	obj, ok := s.Get("recordings", "recordings/L1.pcm")
	if !ok {
		t.Fatalf("Get() should find stored object")
	}
	if obj.ContentType != "audio/pcm" {
		t.Fatalf("ContentType = %q, want %q", obj.ContentType, "audio/pcm")
	}
	if len(obj.Body) != 2 {
		t.Fatalf("Body length = %d, want 2", len(obj.Body))
	}
}

func TestMemoryStorePutOverwrites(t *testing.T) {
	s := NewMemoryStore()
	_ = s.Put(context.Background(), "transcripts", "t.txt", []byte("one"), "text/plain")
	_ = s.Put(context.Background(), "transcripts", "t.txt", []byte("one\ntwo"), "text/plain")

	obj, _ := s.Get("transcripts", "t.txt")
	if string(obj.Body) != "one\ntwo" {
		t.Fatalf("Body = %q, want overwritten content", obj.Body)
	}
	if got := len(s.Keys("transcripts")); got != 1 {
		t.Fatalf("Keys() length = %d, want 1", got)
	}
}

func TestMemoryStoreCopiesBody(t *testing.T) {
	s := NewMemoryStore()
	body := []byte("abc")
	_ = s.Put(context.Background(), "b", "k", body, "text/plain")
	body[0] = 'z'

	obj, _ := s.Get("b", "k")
	if string(obj.Body) != "abc" {
		t.Fatalf("Body = %q, stored object should not alias caller buffer", obj.Body)
	}
}
