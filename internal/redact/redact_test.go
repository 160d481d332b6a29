package redact

import (
	"strings"
	"testing"
)

func TestTranscriptMasksContactDetails(t *testing.T) {
	line := "caller: reach me at sam@example.com or +1 (555) 123-9876, card 4242 4242 4242 4242."
	out := Transcript(line)

	for _, marker := range []string{"[REDACTED_EMAIL]", "[REDACTED_PHONE]", "[REDACTED_CARD]"} {
		if !strings.Contains(out, marker) {
			t.Fatalf("output missing marker %q: %q", marker, out)
		}
	}
	for _, leaked := range []string{"sam@example.com", "4242", "123-9876"} {
		if strings.Contains(out, leaked) {
			t.Fatalf("output leaked %q: %q", leaked, out)
		}
	}
}

func TestTranscriptLeavesPlainSpeechAlone(t *testing.T) {
	line := "agent: our salon opens at 9 and we have 2 chairs free."
	if out := Transcript(line); out != line {
		t.Fatalf("Transcript(%q) = %q, want unchanged", line, out)
	}
}
