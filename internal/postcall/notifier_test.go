package postcall

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDeliverPostsPayload(t *testing.T) {
	var got Payload
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, srv.Client())
	err := n.Deliver(context.Background(), Payload{
		LeadID:           "L1",
		RecordingBucket:  "rec-bucket",
		RecordingKey:     "recordings/L1-1.pcm",
		TranscriptBucket: "tx-bucket",
		TranscriptKey:    "transcripts/L1-1.txt",
	})
	if err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if contentType != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", contentType)
	}
	if got.LeadID != "L1" || got.RecordingKey != "recordings/L1-1.pcm" || got.TranscriptBucket != "tx-bucket" {
		t.Fatalf("payload = %+v, want posted fields intact", got)
	}
}

func TestDeliverReportsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, srv.Client())
	if err := n.Deliver(context.Background(), Payload{LeadID: "L1"}); err == nil {
		t.Fatalf("Deliver() should report non-2xx status")
	}
}

func TestDeliverReportsConnectFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	n := NewNotifier(srv.URL, nil)
	if err := n.Deliver(context.Background(), Payload{LeadID: "L1"}); err == nil {
		t.Fatalf("Deliver() should report a connection failure")
	}
}
