package output

import (
	"strings"
	"testing"
)

func TestTranscriptLettersAppend(t *testing.T) {
	tr := NewTranscript()
	for _, name := range []string{"H", "I"} {
		tr.Apply(name)
	}
	if got := tr.String(); got != "HI" {
		t.Errorf("transcript = %q, want HI", got)
	}
}

func TestTranscriptEditingNames(t *testing.T) {
	tr := NewTranscript()
	tr.Apply("A")
	tr.Apply(NameSpace)
	tr.Apply("B")
	if got := tr.String(); got != "A B" {
		t.Fatalf("transcript = %q, want A B", got)
	}

	tr.Apply(NameBackspace)
	if got := tr.String(); got != "A " {
		t.Errorf("after backspace = %q, want %q", got, "A ")
	}

	tr.Apply(NameClear)
	if got := tr.String(); got != "" {
		t.Errorf("after clear = %q, want empty", got)
	}

	// Editing an empty transcript is harmless.
	tr.Apply(NameBackspace)
	tr.Apply(NameClear)
	if tr.Len() != 0 {
		t.Errorf("Len = %d, want 0", tr.Len())
	}
}

func TestTranscriptWordsAppendWithSpace(t *testing.T) {
	tr := NewTranscript()
	tr.Apply("HELLO")
	tr.Apply("A")
	if got := tr.String(); got != "HELLO A" {
		t.Errorf("transcript = %q, want %q", got, "HELLO A")
	}
}

func TestTranscriptCapIsSilent(t *testing.T) {
	tr := NewTranscript()
	for i := 0; i < MaxTranscript; i++ {
		tr.Apply("X")
	}
	if tr.Len() != MaxTranscript {
		t.Fatalf("Len = %d, want %d", tr.Len(), MaxTranscript)
	}

	tr.Apply("Y")
	if tr.Len() != MaxTranscript || strings.ContainsRune(tr.String(), 'Y') {
		t.Error("append past the cap must be dropped silently")
	}

	// A word arriving near the cap is truncated, not rejected.
	tr.Apply(NameBackspace)
	tr.Apply("WORD")
	got := tr.String()
	if len([]rune(got)) != MaxTranscript || !strings.HasSuffix(got, "W") {
		t.Errorf("truncated tail = %q", got[len(got)-4:])
	}
}

func TestTranscriptEmptyNameIgnored(t *testing.T) {
	tr := NewTranscript()
	tr.Apply("")
	if tr.Len() != 0 {
		t.Errorf("Len = %d, want 0", tr.Len())
	}
}
