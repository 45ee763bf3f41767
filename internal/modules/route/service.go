// README: Route service orchestrates instances, executes persistence effects, and finalizes.
package route

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"kolekta/internal/types"
)

var (
	ErrBadRequest         = errors.New("bad request")
	ErrFetchFailed        = errors.New("segment fetch failed")
	ErrPersistFailed      = errors.New("segment persist failed")
	ErrWasteCaptureFailed = errors.New("waste capture save failed")
	ErrScheduleCompletion = errors.New("schedule completion failed")
)

// WasteCounts are the sack counts submitted from the capture form.
type WasteCounts struct {
	Biodegradable    int
	NonBiodegradable int
	Recyclable       int
}

func (c WasteCounts) valid() bool {
	return c.Biodegradable >= 0 && c.NonBiodegradable >= 0 && c.Recyclable >= 0
}

// SummaryReport is the payload posted to the backend from the summary step.
type SummaryReport struct {
	ScheduleID           types.ID
	CompletedCount       int
	MissedCount          int
	TotalDurationSeconds int64
	MissedReasons        []string
}

// Backend is the remote collaborator contract the route service depends on.
// The reschedule flag selects the reschedule endpoint family; the semantics
// are otherwise identical.
type Backend interface {
	FetchSegments(ctx context.Context, routeID types.ID, reschedule bool) ([]Segment, error)
	PatchSegment(ctx context.Context, segmentID types.ID, patch Patch, reschedule bool) error
	SaveWasteRecord(ctx context.Context, segmentID types.ID, counts WasteCounts) (WasteRecord, error)
	CompleteSchedule(ctx context.Context, routeID types.ID, reschedule bool) error
	PostRouteSummary(ctx context.Context, report SummaryReport) error
	TerminalEstimates(ctx context.Context, terminalID types.ID) (TerminalEstimate, error)
}

// Instance is one driver's live route: the segment store plus route-level
// identifiers and gate state. Owned exclusively by one screen; discarded on
// unmount or after finalized completion.
type Instance struct {
	mu         sync.Mutex
	RouteID    types.ID
	TruckID    types.ID
	Reschedule bool
	store      *Store
	gate       *WasteCaptureGate
	finalized  bool
	summary    *Summary
}

// View is a read snapshot handed to the presentation layer.
type View struct {
	RouteID              types.ID
	TruckID              types.ID
	Reschedule           bool
	Segments             []Segment
	ActiveIndex          int
	Finished             bool
	AwaitingFinalCapture bool
	Finalized            bool
}

// TransitionResult carries the new state plus the ordered side effects of a
// committed transition. Warning is non-empty when schedule-level completion
// failed upstream after the route finished locally.
type TransitionResult struct {
	View
	Effects []Effect
	Summary *Summary
	Warning string
}

type CaptureResult struct {
	Gate    GateResult
	Record  WasteRecord
	Summary *Summary
	Warning string
}

type Service struct {
	mu        sync.RWMutex
	instances map[types.ID]*Instance
	backend   Backend
	queue     *PatchQueue
	log       *slog.Logger
}

func NewService(backend Backend, queue *PatchQueue, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		instances: make(map[types.ID]*Instance),
		backend:   backend,
		queue:     queue,
		log:       log,
	}
}

// Load fetches the segment list for a route or reschedule and creates the
// instance. Loading an already-active route returns its current state instead
// of clobbering in-flight progress.
func (s *Service) Load(ctx context.Context, routeID, truckID types.ID, reschedule bool) (View, error) {
	if routeID == "" {
		return View{}, ErrBadRequest
	}
	s.mu.Lock()
	if inst, ok := s.instances[routeID]; ok {
		s.mu.Unlock()
		inst.mu.Lock()
		defer inst.mu.Unlock()
		return inst.view(), nil
	}
	s.mu.Unlock()

	segments, err := s.backend.FetchSegments(ctx, routeID, reschedule)
	if err != nil {
		return View{}, fmt.Errorf("%w: route %s: %v", ErrFetchFailed, routeID, err)
	}
	st := NewStore()
	st.Load(segments)
	inst := &Instance{
		RouteID:    routeID,
		TruckID:    truckID,
		Reschedule: reschedule,
		store:      st,
		gate:       NewWasteCaptureGate(),
	}
	s.mu.Lock()
	if existing, ok := s.instances[routeID]; ok {
		// A concurrent load finished first while our fetch was in flight.
		// Its instance may already carry committed transitions, so the
		// fresh snapshot is discarded instead of clobbering it.
		s.mu.Unlock()
		existing.mu.Lock()
		defer existing.mu.Unlock()
		return existing.view(), nil
	}
	s.instances[routeID] = inst
	s.mu.Unlock()
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.view(), nil
}

func (s *Service) instance(routeID types.ID) (*Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.instances[routeID]
	if !ok {
		return nil, ErrNotFound
	}
	return inst, nil
}

// Snapshot returns the current view of an active route instance.
func (s *Service) Snapshot(routeID types.ID) (View, error) {
	inst, err := s.instance(routeID)
	if err != nil {
		return View{}, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.view(), nil
}

// Close discards an instance (screen unmount or post-summary navigation).
func (s *Service) Close(routeID types.ID) {
	s.mu.Lock()
	delete(s.instances, routeID)
	s.mu.Unlock()
}

// RequestTransition validates and commits a start/complete/miss transition on
// the active segment. The acted-on segment's patch is persisted upstream
// before local state advances; a failure there surfaces as ErrPersistFailed
// with nothing mutated. The successor's auto-start patch is the exception:
// it applies locally even when the upstream call fails, and the failed patch
// is queued for background redelivery.
func (s *Service) RequestTransition(ctx context.Context, routeID types.ID, req TransitionRequest) (TransitionResult, error) {
	inst, err := s.instance(routeID)
	if err != nil {
		return TransitionResult{}, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.finalized {
		return TransitionResult{}, ErrRouteFinished
	}

	plan, err := PlanTransition(inst.store, req, time.Now().UTC())
	if err != nil {
		return TransitionResult{}, err
	}

	if err := s.backend.PatchSegment(ctx, plan.SegmentID, plan.Primary, inst.Reschedule); err != nil {
		return TransitionResult{}, fmt.Errorf("%w: segment %s: %v", ErrPersistFailed, plan.SegmentID, err)
	}
	inst.store.ApplyPatch(plan.Index, plan.Primary)

	if plan.AutoStart != nil {
		if err := s.backend.PatchSegment(ctx, plan.AutoStart.SegmentID, plan.AutoStart.Patch, inst.Reschedule); err != nil {
			s.log.Warn("auto-start patch failed, queued for retry",
				"route_id", routeID, "segment_id", plan.AutoStart.SegmentID, "error", err)
			if s.queue != nil {
				if qErr := s.queue.Enqueue(ctx, QueuedPatch{
					SegmentID:  plan.AutoStart.SegmentID,
					Reschedule: inst.Reschedule,
					Status:     plan.AutoStart.Patch.Status,
					StartTime:  plan.AutoStart.Patch.StartTime,
				}); qErr != nil {
					s.log.Error("enqueue auto-start patch", "segment_id", plan.AutoStart.SegmentID, "error", qErr)
				}
			}
		}
		inst.store.ApplyPatch(plan.AutoStart.Index, plan.AutoStart.Patch)
	}

	res := TransitionResult{Effects: plan.Effects}
	for _, e := range plan.Effects {
		switch e.Kind {
		case EffectWasteCaptureRequired:
			inst.gate.RequireFinal(e.SegmentID)
		case EffectRouteFinished:
			summary, warning := s.finalize(ctx, inst)
			res.Summary = summary
			res.Warning = warning
		}
	}
	res.View = inst.view()
	return res, nil
}

// SaveWasteCapture persists a waste record for a completed segment and runs
// the capture gate. Saving the awaited final capture finalizes the route.
func (s *Service) SaveWasteCapture(ctx context.Context, routeID, segmentID types.ID, counts WasteCounts) (CaptureResult, error) {
	if !counts.valid() {
		return CaptureResult{}, ErrBadRequest
	}
	inst, err := s.instance(routeID)
	if err != nil {
		return CaptureResult{}, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()

	idx := inst.store.IndexOf(segmentID)
	if idx == -1 {
		return CaptureResult{}, ErrSegmentNotFound
	}
	seg, _ := inst.store.Get(idx)
	if seg.Status != StatusCompleted {
		return CaptureResult{}, ErrInvalidState
	}

	record, err := s.backend.SaveWasteRecord(ctx, segmentID, counts)
	if err != nil {
		// The awaiting-final-capture condition, if any, stays set so the
		// driver can retry.
		return CaptureResult{}, fmt.Errorf("%w: segment %s: %v", ErrWasteCaptureFailed, segmentID, err)
	}
	inst.store.ApplyPatch(idx, Patch{WasteRecord: &record})

	res := CaptureResult{Gate: inst.gate.OnCaptureSaved(segmentID), Record: record}
	if res.Gate == GateFinalizeRoute {
		summary, warning := s.finalize(ctx, inst)
		res.Summary = summary
		res.Warning = warning
	}
	return res, nil
}

// DismissWasteCapture handles the driver cancelling the capture form.
func (s *Service) DismissWasteCapture(routeID, segmentID types.ID) (GateResult, error) {
	inst, err := s.instance(routeID)
	if err != nil {
		return "", err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.gate.Dismiss(segmentID), nil
}

// PostSummary submits the driver-confirmed summary with missed reasons.
func (s *Service) PostSummary(ctx context.Context, routeID types.ID, missedReasons []string) (Summary, error) {
	inst, err := s.instance(routeID)
	if err != nil {
		return Summary{}, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if !inst.finalized || inst.summary == nil {
		return Summary{}, ErrInvalidState
	}
	sum := *inst.summary
	report := SummaryReport{
		ScheduleID:           inst.RouteID,
		CompletedCount:       sum.CompletedCount,
		MissedCount:          len(sum.MissedSegments),
		TotalDurationSeconds: sum.TotalDurationSeconds,
		MissedReasons:        dedupe(missedReasons),
	}
	if err := s.backend.PostRouteSummary(ctx, report); err != nil {
		return Summary{}, fmt.Errorf("post route summary: %w", err)
	}
	return sum, nil
}

// TerminalEstimates is a passthrough used to prefill the capture form.
func (s *Service) TerminalEstimates(ctx context.Context, terminalID types.ID) (TerminalEstimate, error) {
	if terminalID == "" {
		return TerminalEstimate{}, ErrBadRequest
	}
	return s.backend.TerminalEstimates(ctx, terminalID)
}

// RunQueueFlusher periodically redelivers queued segment patches.
func (s *Service) RunQueueFlusher(ctx context.Context, interval time.Duration) {
	if s.queue == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := s.queue.Drain(ctx, func(ctx context.Context, p QueuedPatch) error {
				return s.backend.PatchSegment(ctx, p.SegmentID, Patch{
					Status:    p.Status,
					StartTime: p.StartTime,
				}, p.Reschedule)
			})
			if err != nil {
				s.log.Warn("patch queue drain interrupted", "error", err)
			}
		}
	}
}

// finalize runs exactly once per instance: it builds the summary and reports
// schedule completion upstream. An upstream failure is surfaced as a warning
// rather than blocking — segment-level data is already durable server-side —
// but never hidden behind a success response.
func (s *Service) finalize(ctx context.Context, inst *Instance) (*Summary, string) {
	if inst.finalized {
		return inst.summary, ""
	}
	inst.finalized = true
	sum := BuildSummary(inst.store, inst.RouteID)
	inst.summary = &sum

	var warning string
	if err := s.backend.CompleteSchedule(ctx, inst.RouteID, inst.Reschedule); err != nil {
		warning = fmt.Sprintf("%v: %v", ErrScheduleCompletion, err)
		s.log.Error("complete schedule failed", "route_id", inst.RouteID, "error", err)
	}
	return inst.summary, warning
}

func (i *Instance) view() View {
	_, awaiting := i.gate.Awaiting()
	return View{
		RouteID:              i.RouteID,
		TruckID:              i.TruckID,
		Reschedule:           i.Reschedule,
		Segments:             i.store.All(),
		ActiveIndex:          i.store.ActiveIndex(),
		Finished:             i.store.Finished(),
		AwaitingFinalCapture: awaiting,
		Finalized:            i.finalized,
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
