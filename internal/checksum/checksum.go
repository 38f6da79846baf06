// Package checksum tracks content digests of files so that rewrites which
// leave a file unchanged can be told apart from real edits.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"sort"
)

// File returns the hex-encoded SHA-256 digest of the file at path.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Change classifies an observation.
type Change int

// Observation results.
const (
	Unchanged Change = iota
	Added
	Modified
)

// Tracker remembers the last digest seen per path. It is not safe for
// concurrent use.
type Tracker struct {
	sums map[string]string
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{sums: make(map[string]string)}
}

// Observe hashes path and reports how it differs from the last observation.
func (t *Tracker) Observe(path string) (Change, error) {
	sum, err := File(path)
	if err != nil {
		return Unchanged, err
	}
	prev, known := t.sums[path]
	t.sums[path] = sum
	switch {
	case !known:
		return Added, nil
	case prev != sum:
		return Modified, nil
	default:
		return Unchanged, nil
	}
}

// Forget drops path and reports whether it was tracked.
func (t *Tracker) Forget(path string) bool {
	if _, ok := t.sums[path]; !ok {
		return false
	}
	delete(t.sums, path)
	return true
}

// Retain drops every tracked path not in keep and returns the dropped paths
// in sorted order.
func (t *Tracker) Retain(keep map[string]struct{}) []string {
	var dropped []string
	for p := range t.sums {
		if _, ok := keep[p]; !ok {
			dropped = append(dropped, p)
		}
	}
	sort.Strings(dropped)
	for _, p := range dropped {
		delete(t.sums, p)
	}
	return dropped
}

// Len returns the number of tracked paths.
func (t *Tracker) Len() int {
	return len(t.sums)
}
