package session

import (
	"fmt"
	"testing"

	"github.com/example/uniform-control/internal/classifier"
)

func verdict(compliant bool, uniformType string) classifier.Verdict {
	return classifier.Verdict{
		IsCompliant: compliant,
		Confidence:  0.8,
		UniformType: uniformType,
		Timestamp:   "2024-05-10 09:30:00",
	}
}

func TestRecordKeepsCountersConsistent(t *testing.T) {
	tracker := NewTracker()

	sequence := []bool{true, false, true, true, false, false, false, true}
	for _, compliant := range sequence {
		tracker.Record(verdict(compliant, "Camisa"))

		stats, _ := tracker.Snapshot()
		if stats.Total != stats.Compliant+stats.NonCompliant {
			t.Fatalf("invariant broken: total=%d compliant=%d nonCompliant=%d",
				stats.Total, stats.Compliant, stats.NonCompliant)
		}
	}

	stats, _ := tracker.Snapshot()
	if stats.Total != 8 || stats.Compliant != 4 || stats.NonCompliant != 4 {
		t.Fatalf("unexpected final stats: %+v", stats)
	}
}

func TestHistoryIsNewestFirst(t *testing.T) {
	tracker := NewTracker()
	tracker.Record(verdict(true, "primero"))
	tracker.Record(verdict(false, "segundo"))

	_, history := tracker.Snapshot()
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if history[0].Verdict.UniformType != "segundo" {
		t.Fatalf("newest entry must be first, got %s", history[0].Verdict.UniformType)
	}
	if history[0].ID <= history[1].ID {
		t.Fatalf("ids must be monotonically increasing: %d then %d", history[1].ID, history[0].ID)
	}
}

func TestHistoryEvictsPastCap(t *testing.T) {
	tracker := NewTracker()
	for i := 0; i < HistoryCap+1; i++ {
		tracker.Record(verdict(true, fmt.Sprintf("tipo-%d", i)))
	}

	_, history := tracker.Snapshot()
	if len(history) != HistoryCap {
		t.Fatalf("history exceeded cap: %d", len(history))
	}
	if history[0].Verdict.UniformType != fmt.Sprintf("tipo-%d", HistoryCap) {
		t.Fatalf("newest entry missing from index 0, got %s", history[0].Verdict.UniformType)
	}
	for _, entry := range history {
		if entry.Verdict.UniformType == "tipo-0" {
			t.Fatal("oldest entry should have been evicted")
		}
	}
}

func TestSnapshotDoesNotAliasInternalHistory(t *testing.T) {
	tracker := NewTracker()
	tracker.Record(verdict(true, "Camisa"))

	_, history := tracker.Snapshot()
	history[0].Verdict.UniformType = "mutado"

	_, again := tracker.Snapshot()
	if again[0].Verdict.UniformType != "Camisa" {
		t.Fatal("snapshot aliased the tracker's internal slice")
	}
}
