// README: Transition engine; sole authority for planning segment status changes.
package route

import (
	"errors"
	"strings"
	"time"

	"kolekta/internal/types"
)

var (
	ErrNotActiveSegment = errors.New("segment is not the active segment")
	ErrMissingRemarks   = errors.New("missed segment requires remarks")
	ErrInvalidState     = errors.New("invalid state transition")
	ErrNotFound         = errors.New("route instance not found")
	ErrSegmentNotFound  = errors.New("segment not found")
	ErrRouteFinished    = errors.New("route already finished")
)

type TransitionKind string

const (
	TransitionStart    TransitionKind = "start"
	TransitionComplete TransitionKind = "complete"
	TransitionMiss     TransitionKind = "miss"
)

// TransitionRequest is the command the presentation layer submits for the
// segment at Index. Remarks is only meaningful for TransitionMiss.
type TransitionRequest struct {
	Index   int
	Kind    TransitionKind
	Remarks string
}

type EffectKind string

const (
	// EffectPersistSegment asks the caller to patch a segment at the backend.
	EffectPersistSegment EffectKind = "persist_segment"
	// EffectWasteCaptureRequired blocks finalization on a saved waste record
	// for the final completed segment.
	EffectWasteCaptureRequired EffectKind = "waste_capture_required"
	// EffectWasteCaptureOptional offers the capture form without blocking.
	EffectWasteCaptureOptional EffectKind = "waste_capture_optional"
	// EffectRouteFinished signals that every segment is terminal and the
	// route may finalize immediately.
	EffectRouteFinished EffectKind = "route_finished"
)

type Effect struct {
	Kind      EffectKind
	Index     int
	SegmentID types.ID
	Patch     Patch
}

// Plan is the validated outcome of a transition request: the patch for the
// acted-on segment, the auto-start patch for its successor if any, and the
// ordered side effects the caller must execute. Nothing is mutated until the
// caller applies the plan.
type Plan struct {
	Index     int
	Kind      TransitionKind
	SegmentID types.ID
	Primary   Patch
	AutoStart *Effect
	Effects   []Effect
}

// ValidRemarks is the miss-reason gate: remarks must be non-empty after
// trimming. Kept as its own check because remarks arrive from a separate
// capture round trip, not an inline field.
func ValidRemarks(remarks string) bool {
	return strings.TrimSpace(remarks) != ""
}

// PlanTransition validates the request against the store and builds the plan.
// Only the active segment may transition; terminal segments never transition
// again. The very first start is the only explicit start: later segments are
// auto-started when their predecessor terminates.
func PlanTransition(st *Store, req TransitionRequest, now time.Time) (Plan, error) {
	seg, ok := st.Get(req.Index)
	if !ok {
		return Plan{}, ErrSegmentNotFound
	}
	active := st.ActiveIndex()
	if active == -1 {
		return Plan{}, ErrRouteFinished
	}
	if req.Index != active {
		return Plan{}, ErrNotActiveSegment
	}

	plan := Plan{Index: req.Index, Kind: req.Kind, SegmentID: seg.ID}

	switch req.Kind {
	case TransitionStart:
		if !CanTransition(seg.Status, StatusStarted) || seg.StartTime != nil {
			return Plan{}, ErrInvalidState
		}
		started := StatusStarted
		plan.Primary = Patch{Status: &started, StartTime: &now}
		plan.Effects = append(plan.Effects, Effect{
			Kind: EffectPersistSegment, Index: req.Index, SegmentID: seg.ID, Patch: plan.Primary,
		})
		return plan, nil

	case TransitionComplete:
		if !CanTransition(seg.Status, StatusCompleted) {
			return Plan{}, ErrInvalidState
		}
		completed := StatusCompleted
		plan.Primary = Patch{Status: &completed, CompletedAt: &now}

	case TransitionMiss:
		if !ValidRemarks(req.Remarks) {
			return Plan{}, ErrMissingRemarks
		}
		if !CanTransition(seg.Status, StatusMissed) {
			return Plan{}, ErrInvalidState
		}
		missed := StatusMissed
		remarks := strings.TrimSpace(req.Remarks)
		plan.Primary = Patch{Status: &missed, CompletedAt: &now, Remarks: &remarks}

	default:
		return Plan{}, ErrInvalidState
	}

	plan.Effects = append(plan.Effects, Effect{
		Kind: EffectPersistSegment, Index: req.Index, SegmentID: seg.ID, Patch: plan.Primary,
	})

	// Auto-start chaining: the successor's start time is the same timestamp
	// as this segment's completed_at. A successor already in a terminal
	// status never transitions again, so the chain skips it; with no open
	// successor left, this segment acts as the final one.
	nextIdx := -1
	for i := req.Index + 1; i < st.Len(); i++ {
		if seg, ok := st.Get(i); ok && !seg.Status.Terminal() {
			nextIdx = i
			break
		}
	}
	last := nextIdx == -1
	if !last {
		next, _ := st.Get(nextIdx)
		started := StatusStarted
		plan.AutoStart = &Effect{
			Kind:      EffectPersistSegment,
			Index:     nextIdx,
			SegmentID: next.ID,
			Patch:     Patch{Status: &started, StartTime: &now},
		}
		plan.Effects = append(plan.Effects, *plan.AutoStart)
	}

	switch {
	case req.Kind == TransitionComplete && last:
		plan.Effects = append(plan.Effects, Effect{
			Kind: EffectWasteCaptureRequired, Index: req.Index, SegmentID: seg.ID,
		})
	case req.Kind == TransitionComplete:
		plan.Effects = append(plan.Effects, Effect{
			Kind: EffectWasteCaptureOptional, Index: req.Index, SegmentID: seg.ID,
		})
	case req.Kind == TransitionMiss && last:
		plan.Effects = append(plan.Effects, Effect{
			Kind: EffectRouteFinished, Index: req.Index, SegmentID: seg.ID,
		})
	}
	return plan, nil
}

// HasEffect reports whether the plan carries an effect of the given kind.
func (p Plan) HasEffect(kind EffectKind) bool {
	for _, e := range p.Effects {
		if e.Kind == kind {
			return true
		}
	}
	return false
}
