// README: Waste-capture gate for the final-segment completion flow.
package route

import (
	"sync"

	"kolekta/internal/types"
)

type GateResult string

const (
	// GateContinue: the capture was record-keeping only; no route-level effect.
	GateContinue GateResult = "continue"
	// GateFinalizeRoute: the awaited final capture is saved; the route may finalize.
	GateFinalizeRoute GateResult = "finalize_route"
	// GateAwaitingFinalCapture: the final capture is still outstanding; the
	// route stays suspended and the driver may retry later.
	GateAwaitingFinalCapture GateResult = "awaiting_final_capture"
)

// WasteCaptureGate tracks whether route finalization is blocked on a waste
// record for the final completed segment. The awaiting condition lives only
// for the lifetime of the route instance; the backend already holds the
// completed segment if the process dies here.
type WasteCaptureGate struct {
	mu       sync.Mutex
	awaiting *types.ID
}

func NewWasteCaptureGate() *WasteCaptureGate {
	return &WasteCaptureGate{}
}

// RequireFinal suspends finalization until a capture is saved for segmentID.
func (g *WasteCaptureGate) RequireFinal(segmentID types.ID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := segmentID
	g.awaiting = &id
}

// Awaiting returns the segment whose capture is blocking finalization, if any.
func (g *WasteCaptureGate) Awaiting() (types.ID, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.awaiting == nil {
		return "", false
	}
	return *g.awaiting, true
}

// OnCaptureSaved resolves a saved capture. A capture for the awaited final
// segment clears the suspension and finalizes; any other capture is stored
// for record-keeping only.
func (g *WasteCaptureGate) OnCaptureSaved(segmentID types.ID) GateResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.awaiting != nil && *g.awaiting == segmentID {
		g.awaiting = nil
		return GateFinalizeRoute
	}
	return GateContinue
}

// Dismiss handles the driver cancelling the capture form. Dismissing the
// awaited final capture leaves the route suspended rather than losing the
// completed-but-uncaptured state.
func (g *WasteCaptureGate) Dismiss(segmentID types.ID) GateResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.awaiting != nil && *g.awaiting == segmentID {
		return GateAwaitingFinalCapture
	}
	return GateContinue
}
