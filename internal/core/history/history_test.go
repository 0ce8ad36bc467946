package history

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/csync-dev/csync/internal/domain"
)

const (
	fpA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	fpB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	fpC = "cccccccccccccccccccccccccccccccccccccccc"
)

func mustParse(t *testing.T, text string) *Log {
	t.Helper()
	log, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", text, err)
	}
	return log
}

// TestParseEmpty tests that empty text yields an empty log
func TestParseEmpty(t *testing.T) {
	for _, text := range []string{"", "\n", "\n\n  \n"} {
		log := mustParse(t, text)
		if log.Len() != 0 {
			t.Errorf("Parse(%q): got %d entries, want 0", text, log.Len())
		}
	}
}

// TestParseEntries tests decoding of well-formed lines
func TestParseEntries(t *testing.T) {
	text := fpA + " 2024-03-01T10:00:00Z at alpha\n" +
		fpB + " 2024-03-02T11:30:00Z at beta\n"

	log := mustParse(t, text)
	if log.Len() != 2 {
		t.Fatalf("got %d entries, want 2", log.Len())
	}

	entries := log.Entries()
	if entries[0].Fingerprint != fpA {
		t.Errorf("entry 0 fingerprint: got %s, want %s", entries[0].Fingerprint, fpA)
	}
	if entries[0].Note != "2024-03-01T10:00:00Z at alpha" {
		t.Errorf("entry 0 note: got %q", entries[0].Note)
	}
	if entries[1].Fingerprint != fpB {
		t.Errorf("entry 1 fingerprint: got %s, want %s", entries[1].Fingerprint, fpB)
	}
}

// TestParseCorrupt tests that malformed lines fail loudly instead of
// being skipped
func TestParseCorrupt(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"short fingerprint", "abc123 2024-03-01 at alpha\n"},
		{"non-hex fingerprint", strings.Repeat("z", 40) + " at alpha\n"},
		{"uppercase hex", strings.ToUpper(fpA) + " at alpha\n"},
		{"bad middle line", fpA + " at alpha\nnot a fingerprint\n" + fpB + " at beta\n"},
		{"leading whitespace", " " + fpA + " at alpha\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.text)
			if !errors.Is(err, domain.ErrCorruptHistory) {
				t.Fatalf("expected ErrCorruptHistory, got: %v", err)
			}
		})
	}
}

// TestParseCorruptReportsLine tests that the error names the bad line
func TestParseCorruptReportsLine(t *testing.T) {
	_, err := Parse(fpA + " at alpha\nbogus line\n")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "line 2") || !strings.Contains(err.Error(), "bogus line") {
		t.Errorf("error should name the offending line: %v", err)
	}
}

// TestRoundTrip tests that parse(serialize(l)) == l
func TestRoundTrip(t *testing.T) {
	texts := []string{
		"",
		fpA + " 2024-03-01T10:00:00Z at alpha\n",
		fpA + " 2024-03-01T10:00:00Z at alpha\n" + fpB + " some  opaque   text\n" + fpC + "\n",
	}

	for _, text := range texts {
		log := mustParse(t, text)
		serialized := log.Serialize()
		if serialized != text {
			t.Errorf("serialize mismatch:\ngot  %q\nwant %q", serialized, text)
		}
		again := mustParse(t, serialized)
		if !log.Equal(again) {
			t.Errorf("round-trip changed the log for %q", text)
		}
	}
}

// TestAppendIfChanged tests append idempotence
func TestAppendIfChanged(t *testing.T) {
	log := &Log{}
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	if !log.AppendIfChanged(fpA, now, "alpha") {
		t.Fatal("append to empty log should report true")
	}
	if log.Len() != 1 {
		t.Fatalf("got %d entries, want 1", log.Len())
	}

	// Same fingerprint again: no growth, regardless of time or origin
	if log.AppendIfChanged(fpA, now.Add(time.Hour), "beta") {
		t.Error("append of unchanged fingerprint should report false")
	}
	if log.Len() != 1 {
		t.Errorf("got %d entries, want 1", log.Len())
	}

	if !log.AppendIfChanged(fpB, now.Add(2*time.Hour), "alpha") {
		t.Error("append of new fingerprint should report true")
	}
	if log.Len() != 2 {
		t.Errorf("got %d entries, want 2", log.Len())
	}

	// Reverting to an older fingerprint is still a change
	if !log.AppendIfChanged(fpA, now.Add(3*time.Hour), "alpha") {
		t.Error("append of reverted fingerprint should report true")
	}
	if log.Len() != 3 {
		t.Errorf("got %d entries, want 3", log.Len())
	}
}

// TestLastFingerprint tests last-entry lookup
func TestLastFingerprint(t *testing.T) {
	log := &Log{}

	if _, ok := log.LastFingerprint(); ok {
		t.Error("empty log should have no last fingerprint")
	}

	log.AppendIfChanged(fpA, time.Now(), "alpha")
	log.AppendIfChanged(fpB, time.Now(), "alpha")

	last, ok := log.LastFingerprint()
	if !ok || last != fpB {
		t.Errorf("got (%s, %v), want (%s, true)", last, ok, fpB)
	}
}

// TestEntryNoteFormat tests the "<timestamp> at <origin>" annotation
func TestEntryNoteFormat(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	e := NewEntry(fpA, at, "alpha")

	if e.Note != "2024-03-01T10:00:00Z at alpha" {
		t.Errorf("note format: got %q", e.Note)
	}
}

// TestEqualIgnoresNotes tests that comparison uses fingerprints only
func TestEqualIgnoresNotes(t *testing.T) {
	l1 := mustParse(t, fpA+" 2024-03-01T10:00:00Z at alpha\n")
	l2 := mustParse(t, fpA+" 2030-12-31T23:59:59Z at somewhere-else\n")

	if !l1.Equal(l2) {
		t.Error("logs with identical fingerprints should be equal regardless of notes")
	}
}
