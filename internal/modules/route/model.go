// README: Segment aggregate and status definitions.
package route

import (
	"time"

	"kolekta/internal/types"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
	StatusMissed    Status = "missed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusMissed
}

// Segment is one from→to leg of a route or reschedule.
type Segment struct {
	ID          types.ID
	FromName    string
	ToName      string
	From        types.Point
	To          types.Point
	Status      Status
	StartTime   *time.Time
	CompletedAt *time.Time
	Remarks     *string
	DistanceKm  float64
	DurationMin float64
	TerminalID  *types.ID
	WasteRecord *WasteRecord
}

// WasteRecord holds the sack counts captured for a completed segment.
// It is owned by the backend; the store only mirrors the saved copy.
type WasteRecord struct {
	ID                    types.ID
	BiodegradableSacks    int
	NonBiodegradableSacks int
	RecyclableSacks       int
}

// TerminalEstimate is the backend's expected waste volume for a garbage
// terminal, used to prefill the capture form.
type TerminalEstimate struct {
	TerminalID                types.ID
	Name                      string
	EstimatedBiodegradable    int
	EstimatedNonBiodegradable int
	EstimatedRecyclable       int
}

// AllowedTransitions represents the per-segment state flow as code.
// A pending segment may be missed directly: auto-start from the previous
// segment already sets its start time, but the driver can still skip it.
var AllowedTransitions = map[Status][]Status{
	StatusPending: {StatusStarted, StatusMissed},
	StatusStarted: {StatusCompleted, StatusMissed},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
