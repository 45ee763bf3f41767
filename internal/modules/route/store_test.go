// README: Segment store tests (active index scan, patch merge).
package route

import (
	"testing"
	"time"
)

func TestActiveIndexScansPastTerminal(t *testing.T) {
	st := loadedStore(testSegments(3))
	if got := st.ActiveIndex(); got != 0 {
		t.Fatalf("fresh store active index = %d, want 0", got)
	}

	completed := StatusCompleted
	st.ApplyPatch(0, Patch{Status: &completed})
	if got := st.ActiveIndex(); got != 1 {
		t.Fatalf("after completing 0, active index = %d, want 1", got)
	}

	missed := StatusMissed
	st.ApplyPatch(1, Patch{Status: &missed})
	st.ApplyPatch(2, Patch{Status: &completed})
	if got := st.ActiveIndex(); got != -1 {
		t.Fatalf("all terminal, active index = %d, want -1", got)
	}
	if !st.Finished() {
		t.Error("route with all terminal segments should be finished")
	}
}

func TestEmptyStoreNotFinished(t *testing.T) {
	st := NewStore()
	if st.Finished() {
		t.Error("empty store must not report finished")
	}
	if got := st.ActiveIndex(); got != -1 {
		t.Errorf("empty store active index = %d, want -1", got)
	}
}

func TestApplyPatchMergesFields(t *testing.T) {
	st := loadedStore(testSegments(1))
	started := StatusStarted
	now := time.Now().UTC()

	if ok := st.ApplyPatch(0, Patch{Status: &started, StartTime: &now}); !ok {
		t.Fatal("patch within bounds rejected")
	}
	seg, _ := st.Get(0)
	if seg.Status != StatusStarted || seg.StartTime == nil {
		t.Errorf("patch not merged: %+v", seg)
	}
	// untouched fields survive
	if seg.CompletedAt != nil || seg.Remarks != nil {
		t.Errorf("patch clobbered unset fields: %+v", seg)
	}

	if ok := st.ApplyPatch(3, Patch{Status: &started}); ok {
		t.Error("out-of-bounds patch accepted")
	}
}

func TestIndexOf(t *testing.T) {
	st := loadedStore(testSegments(3))
	if got := st.IndexOf("seg-2"); got != 1 {
		t.Errorf("IndexOf(seg-2) = %d, want 1", got)
	}
	if got := st.IndexOf("nope"); got != -1 {
		t.Errorf("IndexOf(nope) = %d, want -1", got)
	}
}
