// Package reconcile classifies two history logs against each other.
//
// The classification is pure sequence containment: one machine is ahead
// of another exactly when the other's log is a proper prefix of its
// own. Wall-clock timestamps are deliberately ignored; trusting them
// across unsynchronized machines would reintroduce the clock-skew bugs
// the prefix design avoids.
package reconcile

import (
	"github.com/csync-dev/csync/internal/core/history"
	"github.com/csync-dev/csync/internal/domain"
)

// Compare classifies the relationship between the local and remote
// logs. An empty log is a prefix of anything, so a first sync against
// an empty counterpart is never Diverged.
func Compare(local, remote *history.Log) domain.Relationship {
	localIsPrefix := isPrefix(local, remote)
	remoteIsPrefix := isPrefix(remote, local)

	switch {
	case localIsPrefix && remoteIsPrefix:
		return domain.Equal
	case remoteIsPrefix:
		return domain.LocalAhead
	case localIsPrefix:
		return domain.RemoteAhead
	default:
		return domain.Diverged
	}
}

// isPrefix reports whether a's entry sequence is a (possibly equal)
// prefix of b's, by positional fingerprint
func isPrefix(a, b *history.Log) bool {
	if a.Len() > b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if a.Fingerprint(i) != b.Fingerprint(i) {
			return false
		}
	}
	return true
}
