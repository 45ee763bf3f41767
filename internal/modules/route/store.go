// README: In-memory segment store; the backend remains the durable source of truth.
package route

import (
	"sync"
	"time"

	"kolekta/internal/types"
)

// Store holds the ordered segment list for one active route instance.
// Order is the sequence the backend returned; it is never reordered here.
// All mutation goes through the service via ApplyPatch.
type Store struct {
	mu       sync.RWMutex
	segments []Segment
}

func NewStore() *Store {
	return &Store{}
}

// Patch is a partial update merged into a segment in place.
type Patch struct {
	Status      *Status
	StartTime   *time.Time
	CompletedAt *time.Time
	Remarks     *string
	WasteRecord *WasteRecord
}

// Load replaces the store contents. Segments must already be in final
// sequence order as returned by the backend.
func (s *Store) Load(segments []Segment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments = make([]Segment, len(segments))
	copy(s.segments, segments)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.segments)
}

// Get returns a copy of the segment at index.
func (s *Store) Get(index int) (Segment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.segments) {
		return Segment{}, false
	}
	return s.segments[index], true
}

// All returns a copy of the segment list.
func (s *Store) All() []Segment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Segment, len(s.segments))
	copy(out, s.segments)
	return out
}

// IndexOf returns the position of the segment with the given id, or -1.
func (s *Store) IndexOf(id types.ID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.segments {
		if s.segments[i].ID == id {
			return i
		}
	}
	return -1
}

// ApplyPatch merges the patch into the segment at index.
func (s *Store) ApplyPatch(index int, p Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.segments) {
		return false
	}
	seg := &s.segments[index]
	if p.Status != nil {
		seg.Status = *p.Status
	}
	if p.StartTime != nil {
		seg.StartTime = p.StartTime
	}
	if p.CompletedAt != nil {
		seg.CompletedAt = p.CompletedAt
	}
	if p.Remarks != nil {
		seg.Remarks = p.Remarks
	}
	if p.WasteRecord != nil {
		seg.WasteRecord = p.WasteRecord
	}
	return true
}

// ActiveIndex returns the index of the single segment currently eligible for
// action: the first whose status is non-terminal. -1 means the route is
// finished. Segments number in the tens at most, so a fresh scan per call
// beats keeping an incremental cache in sync.
func (s *Store) ActiveIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.segments {
		if !s.segments[i].Status.Terminal() {
			return i
		}
	}
	return -1
}

func (s *Store) IsActive(index int) bool {
	return index >= 0 && s.ActiveIndex() == index
}

// Finished reports whether every segment has reached a terminal status.
func (s *Store) Finished() bool {
	return s.Len() > 0 && s.ActiveIndex() == -1
}
