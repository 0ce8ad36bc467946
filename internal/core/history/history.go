// Package history implements the append-only fingerprint log that
// records what a machine has seen of a tracked file over time.
//
// The log is the only coordination primitive in csync: two machines
// never talk to each other, they only compare logs. Entry order is
// append order; timestamps are human-readable annotations and never
// participate in ordering or comparison, since clocks across machines
// are not assumed synchronized.
package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/csync-dev/csync/internal/domain"
)

// MinFingerprintLen is the minimum hex length of a well-formed
// fingerprint (a full SHA-1 digest)
const MinFingerprintLen = 40

// Entry is one immutable line of a history log
type Entry struct {
	// Fingerprint is the lowercase hex content digest. Entry identity
	// for containment comparison is the fingerprint alone.
	Fingerprint string

	// Note is the opaque trailing text of the line, normally
	// "<timestamp> at <origin>". It is round-tripped verbatim and
	// never parsed back into structured time.
	Note string
}

// NewEntry creates an entry annotated with the creation time and the
// origin host label
func NewEntry(fingerprint string, t time.Time, origin string) Entry {
	return Entry{
		Fingerprint: fingerprint,
		Note:        fmt.Sprintf("%s at %s", t.Format(time.RFC3339), origin),
	}
}

// Log is an ordered, append-only sequence of entries for one tracked
// file. The zero value is an empty log ready for use.
type Log struct {
	entries []Entry
}

// Parse decodes the line-oriented text form of a log. Every non-empty
// line must start with a well-formed fingerprint; anything else fails
// with domain.ErrCorruptHistory naming the offending line. Malformed
// lines are never skipped: a dropped entry would silently corrupt
// containment comparisons.
func Parse(text string) (*Log, error) {
	log := &Log{}

	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		fp, note, _ := strings.Cut(line, " ")
		if !validFingerprint(fp) {
			return nil, fmt.Errorf("%w: line %d: %q", domain.ErrCorruptHistory, i+1, line)
		}

		log.entries = append(log.entries, Entry{Fingerprint: fp, Note: note})
	}

	return log, nil
}

// validFingerprint reports whether s looks like a full hex digest
func validFingerprint(s string) bool {
	if len(s) < MinFingerprintLen {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Serialize encodes the log as one line per entry in append order.
// Parse(Serialize(l)) reproduces l exactly.
func (l *Log) Serialize() string {
	var b strings.Builder
	for _, e := range l.entries {
		b.WriteString(e.Fingerprint)
		if e.Note != "" {
			b.WriteByte(' ')
			b.WriteString(e.Note)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// AppendIfChanged appends a new entry unless the log already ends with
// the same fingerprint. It reports whether an entry was appended, which
// makes repeated runs against an unchanged file idempotent.
func (l *Log) AppendIfChanged(fingerprint string, t time.Time, origin string) bool {
	if last, ok := l.LastFingerprint(); ok && last == fingerprint {
		return false
	}
	l.entries = append(l.entries, NewEntry(fingerprint, t, origin))
	return true
}

// LastFingerprint returns the most recent fingerprint, or false if the
// log is empty
func (l *Log) LastFingerprint() (string, bool) {
	if len(l.entries) == 0 {
		return "", false
	}
	return l.entries[len(l.entries)-1].Fingerprint, true
}

// Len returns the number of entries
func (l *Log) Len() int {
	return len(l.entries)
}

// Entries returns the entries in append order. The returned slice is
// shared; callers must not mutate it.
func (l *Log) Entries() []Entry {
	return l.entries
}

// Fingerprint returns the fingerprint at position i
func (l *Log) Fingerprint(i int) string {
	return l.entries[i].Fingerprint
}

// Equal reports whether both logs contain identical entry sequences,
// compared by positional fingerprint only
func (l *Log) Equal(other *Log) bool {
	if l.Len() != other.Len() {
		return false
	}
	for i := range l.entries {
		if l.entries[i].Fingerprint != other.entries[i].Fingerprint {
			return false
		}
	}
	return true
}
