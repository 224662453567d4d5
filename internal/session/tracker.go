package session

import (
	"sync"

	"github.com/example/uniform-control/internal/classifier"
)

// HistoryCap bounds the detection history: newest first, the oldest entry is
// evicted once the cap is exceeded.
const HistoryCap = 50

// Stats holds the running counters for the session. total == compliant +
// nonCompliant at every observable point.
type Stats struct {
	Total        uint `json:"total"`
	Compliant    uint `json:"compliant"`
	NonCompliant uint `json:"nonCompliant"`
}

// HistoryEntry is a recorded verdict with its session-unique identifier.
type HistoryEntry struct {
	ID      uint64             `json:"id"`
	Verdict classifier.Verdict `json:"verdict"`
}

// Tracker keeps the in-memory session state: running statistics and a
// bounded most-recent-first history. It lives for the process lifetime and
// is never persisted; a restart starts from zero.
type Tracker struct {
	mu      sync.Mutex
	nextID  uint64
	stats   Stats
	history []HistoryEntry
}

// NewTracker returns an empty session tracker.
func NewTracker() *Tracker {
	return &Tracker{history: make([]HistoryEntry, 0, HistoryCap)}
}

// Record books one verdict: the history gains an entry at the front (the
// tail past the cap is evicted) and exactly one compliance counter advances.
func (t *Tracker) Record(verdict classifier.Verdict) HistoryEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	entry := HistoryEntry{ID: t.nextID, Verdict: verdict}

	t.history = append([]HistoryEntry{entry}, t.history...)
	if len(t.history) > HistoryCap {
		t.history = t.history[:HistoryCap]
	}

	t.stats.Total++
	if verdict.IsCompliant {
		t.stats.Compliant++
	} else {
		t.stats.NonCompliant++
	}
	return entry
}

// Snapshot returns a copy of the current stats and history. Callers never
// alias the tracker's internal slice.
func (t *Tracker) Snapshot() (Stats, []HistoryEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	history := make([]HistoryEntry, len(t.history))
	copy(history, t.history)
	return t.stats, history
}
