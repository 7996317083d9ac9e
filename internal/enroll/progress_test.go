package enroll

import (
	"sync"
	"testing"
)

func TestTrackerLifecycle(t *testing.T) {
	tr := NewTracker()

	snap := tr.Snapshot()
	if snap.Status != StatusIdle || snap.Active {
		t.Errorf("Expected idle inactive tracker, got %+v", snap)
	}

	tr.Reset(10)
	snap = tr.Snapshot()
	if snap.Status != StatusCapturing || !snap.Active || snap.Total != 10 || snap.Current != 0 {
		t.Errorf("Unexpected state after Reset: %+v", snap)
	}

	for i := 0; i < 4; i++ {
		tr.Increment()
	}
	snap = tr.Snapshot()
	if snap.Current != 4 {
		t.Errorf("Expected current 4, got %d", snap.Current)
	}
	if snap.Percentage() != 40 {
		t.Errorf("Expected 40%%, got %d", snap.Percentage())
	}

	tr.SetStatus(StatusCompleted, "")
	snap = tr.Snapshot()
	if snap.Status != StatusCompleted || snap.Active {
		t.Errorf("Expected completed inactive, got %+v", snap)
	}
}

func TestTrackerCurrentNeverExceedsTotal(t *testing.T) {
	tr := NewTracker()
	tr.Reset(3)

	for i := 0; i < 10; i++ {
		tr.Increment()
	}
	if got := tr.Snapshot().Current; got != 3 {
		t.Errorf("Expected current capped at 3, got %d", got)
	}
}

func TestTrackerConcurrentAccess(t *testing.T) {
	tr := NewTracker()
	tr.Reset(1000)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.Increment()
				_ = tr.Snapshot()
			}
		}()
	}
	wg.Wait()

	if got := tr.Snapshot().Current; got != 1000 {
		t.Errorf("Expected 1000 increments recorded, got %d", got)
	}
}

func TestProgressPercentageZeroTotal(t *testing.T) {
	p := Progress{Current: 5, Total: 0}
	if p.Percentage() != 0 {
		t.Errorf("Expected 0%% for zero total, got %d", p.Percentage())
	}
}
