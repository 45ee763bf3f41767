// README: Route progression handlers: load, transitions, waste capture, summary.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kolekta/internal/modules/route"
	"kolekta/internal/types"
)

type RouteHandler struct {
	route *route.Service
}

func NewRouteHandler(svc *route.Service) *RouteHandler {
	return &RouteHandler{route: svc}
}

type segmentResponse struct {
	ID          string              `json:"id"`
	FromName    string              `json:"from_name"`
	ToName      string              `json:"to_name"`
	From        types.Point         `json:"from"`
	To          types.Point         `json:"to"`
	Status      route.Status        `json:"status"`
	StartTime   *string             `json:"start_time,omitempty"`
	CompletedAt *string             `json:"completed_at,omitempty"`
	Remarks     *string             `json:"remarks,omitempty"`
	DistanceKm  float64             `json:"distance_km"`
	DurationMin float64             `json:"duration_min"`
	TerminalID  *string             `json:"terminal_id,omitempty"`
	WasteRecord *wasteRecordPayload `json:"waste_record,omitempty"`
}

type wasteRecordPayload struct {
	ID                    string `json:"id"`
	BiodegradableSacks    int    `json:"biodegradable_sacks"`
	NonBiodegradableSacks int    `json:"non_biodegradable_sacks"`
	RecyclableSacks       int    `json:"recyclable_sacks"`
}

type viewResponse struct {
	RouteID              string            `json:"route_id"`
	TruckID              string            `json:"truck_id"`
	Reschedule           bool              `json:"reschedule"`
	Segments             []segmentResponse `json:"segments"`
	ActiveIndex          int               `json:"active_index"`
	Finished             bool              `json:"finished"`
	AwaitingFinalCapture bool              `json:"awaiting_final_capture"`
	Finalized            bool              `json:"finalized"`
}

type effectResponse struct {
	Kind      route.EffectKind `json:"kind"`
	Index     int              `json:"index"`
	SegmentID string           `json:"segment_id"`
}

type summaryResponse struct {
	RouteID              string            `json:"route_id"`
	CompletedCount       int               `json:"completed_count"`
	MissedCount          int               `json:"missed_count"`
	MissedSegments       []segmentResponse `json:"missed_segments"`
	TotalDurationSeconds int64             `json:"total_duration_seconds"`
}

func toSegmentResponse(seg route.Segment) segmentResponse {
	resp := segmentResponse{
		ID:          string(seg.ID),
		FromName:    seg.FromName,
		ToName:      seg.ToName,
		From:        seg.From,
		To:          seg.To,
		Status:      seg.Status,
		Remarks:     seg.Remarks,
		DistanceKm:  seg.DistanceKm,
		DurationMin: seg.DurationMin,
	}
	resp.StartTime = formatTime(seg.StartTime)
	resp.CompletedAt = formatTime(seg.CompletedAt)
	if seg.TerminalID != nil {
		id := string(*seg.TerminalID)
		resp.TerminalID = &id
	}
	if seg.WasteRecord != nil {
		resp.WasteRecord = &wasteRecordPayload{
			ID:                    string(seg.WasteRecord.ID),
			BiodegradableSacks:    seg.WasteRecord.BiodegradableSacks,
			NonBiodegradableSacks: seg.WasteRecord.NonBiodegradableSacks,
			RecyclableSacks:       seg.WasteRecord.RecyclableSacks,
		}
	}
	return resp
}

func toViewResponse(v route.View) viewResponse {
	segs := make([]segmentResponse, 0, len(v.Segments))
	for _, seg := range v.Segments {
		segs = append(segs, toSegmentResponse(seg))
	}
	return viewResponse{
		RouteID:              string(v.RouteID),
		TruckID:              string(v.TruckID),
		Reschedule:           v.Reschedule,
		Segments:             segs,
		ActiveIndex:          v.ActiveIndex,
		Finished:             v.Finished,
		AwaitingFinalCapture: v.AwaitingFinalCapture,
		Finalized:            v.Finalized,
	}
}

func toSummaryResponse(sum route.Summary) summaryResponse {
	missed := make([]segmentResponse, 0, len(sum.MissedSegments))
	for _, seg := range sum.MissedSegments {
		missed = append(missed, toSegmentResponse(seg))
	}
	return summaryResponse{
		RouteID:              string(sum.RouteID),
		CompletedCount:       sum.CompletedCount,
		MissedCount:          len(sum.MissedSegments),
		MissedSegments:       missed,
		TotalDurationSeconds: sum.TotalDurationSeconds,
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

// Get loads the route if it is not already in memory and returns the current
// progression view. Loading is idempotent, so a reconnecting client can hit
// this freely.
func (h *RouteHandler) Get(c *gin.Context) {
	routeID := c.Param("routeID")
	truckID := c.Query("truck_id")
	reschedule := c.Query("reschedule") == "true"
	if routeID == "" {
		writeError(c, http.StatusBadRequest, "missing route id")
		return
	}

	view, err := h.route.Load(c.Request.Context(), types.ID(routeID), types.ID(truckID), reschedule)
	if err != nil {
		writeRouteError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toViewResponse(view))
}

// Close drops the in-memory route state, e.g. after the summary was
// submitted or the driver abandoned the run.
func (h *RouteHandler) Close(c *gin.Context) {
	h.route.Close(types.ID(c.Param("routeID")))
	c.Status(http.StatusNoContent)
}

type transitionReq struct {
	Index   int    `json:"index"`
	Kind    string `json:"kind"`
	Remarks string `json:"remarks"`
}

type transitionResponse struct {
	viewResponse
	Effects []effectResponse `json:"effects"`
	Summary *summaryResponse `json:"summary,omitempty"`
	Warning string           `json:"warning,omitempty"`
}

// Transition applies a driver action (start, complete, miss) to a segment.
func (h *RouteHandler) Transition(c *gin.Context) {
	var req transitionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	kind := route.TransitionKind(req.Kind)
	switch kind {
	case route.TransitionStart, route.TransitionComplete, route.TransitionMiss:
	default:
		writeError(c, http.StatusBadRequest, "unknown transition kind")
		return
	}

	result, err := h.route.RequestTransition(c.Request.Context(), types.ID(c.Param("routeID")), route.TransitionRequest{
		Index:   req.Index,
		Kind:    kind,
		Remarks: req.Remarks,
	})
	if err != nil {
		writeRouteError(c, err)
		return
	}

	resp := transitionResponse{viewResponse: toViewResponse(result.View), Warning: result.Warning}
	resp.Effects = make([]effectResponse, 0, len(result.Effects))
	for _, eff := range result.Effects {
		resp.Effects = append(resp.Effects, effectResponse{
			Kind:      eff.Kind,
			Index:     eff.Index,
			SegmentID: string(eff.SegmentID),
		})
	}
	if result.Summary != nil {
		sum := toSummaryResponse(*result.Summary)
		resp.Summary = &sum
	}
	writeJSON(c, http.StatusOK, resp)
}

type wasteCaptureReq struct {
	SegmentID             string `json:"segment_id"`
	BiodegradableSacks    int    `json:"biodegradable_sacks"`
	NonBiodegradableSacks int    `json:"non_biodegradable_sacks"`
	RecyclableSacks       int    `json:"recyclable_sacks"`
}

// SaveWaste records sack counts for a completed segment. On the final
// segment this also releases the pending route finalization.
func (h *RouteHandler) SaveWaste(c *gin.Context) {
	var req wasteCaptureReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.SegmentID == "" {
		writeError(c, http.StatusBadRequest, "missing segment id")
		return
	}

	result, err := h.route.SaveWasteCapture(c.Request.Context(), types.ID(c.Param("routeID")), types.ID(req.SegmentID), route.WasteCounts{
		Biodegradable:    req.BiodegradableSacks,
		NonBiodegradable: req.NonBiodegradableSacks,
		Recyclable:       req.RecyclableSacks,
	})
	if err != nil {
		writeRouteError(c, err)
		return
	}

	resp := gin.H{
		"gate": result.Gate,
		"waste_record": wasteRecordPayload{
			ID:                    string(result.Record.ID),
			BiodegradableSacks:    result.Record.BiodegradableSacks,
			NonBiodegradableSacks: result.Record.NonBiodegradableSacks,
			RecyclableSacks:       result.Record.RecyclableSacks,
		},
	}
	if result.Summary != nil {
		resp["summary"] = toSummaryResponse(*result.Summary)
	}
	if result.Warning != "" {
		resp["warning"] = result.Warning
	}
	writeJSON(c, http.StatusOK, resp)
}

// DismissWaste cancels an open capture form. The final segment's required
// capture cannot be dismissed; the gate stays shut.
func (h *RouteHandler) DismissWaste(c *gin.Context) {
	segmentID := c.Query("segment_id")
	if segmentID == "" {
		writeError(c, http.StatusBadRequest, "missing segment id")
		return
	}
	gate, err := h.route.DismissWasteCapture(types.ID(c.Param("routeID")), types.ID(segmentID))
	if err != nil {
		writeRouteError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"gate": gate})
}

type summaryReq struct {
	MissedReasons []string `json:"missed_reasons"`
}

// PostSummary submits the finished route's summary to the backend. Reasons
// default to the remarks of the missed segments when the client sends none.
func (h *RouteHandler) PostSummary(c *gin.Context) {
	routeID := types.ID(c.Param("routeID"))

	var req summaryReq
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	reasons := req.MissedReasons
	if len(reasons) == 0 {
		view, err := h.route.Snapshot(routeID)
		if err != nil {
			writeRouteError(c, err)
			return
		}
		for _, seg := range view.Segments {
			if seg.Status == route.StatusMissed && seg.Remarks != nil {
				reasons = append(reasons, *seg.Remarks)
			}
		}
	}

	sum, err := h.route.PostSummary(c.Request.Context(), routeID, reasons)
	if err != nil {
		writeRouteError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toSummaryResponse(sum))
}

// TerminalEstimates prefills the waste capture form for a terminal.
func (h *RouteHandler) TerminalEstimates(c *gin.Context) {
	est, err := h.route.TerminalEstimates(c.Request.Context(), types.ID(c.Param("terminalID")))
	if err != nil {
		writeRouteError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"terminal_id":                 string(est.TerminalID),
		"name":                        est.Name,
		"estimated_biodegradable":     est.EstimatedBiodegradable,
		"estimated_non_biodegradable": est.EstimatedNonBiodegradable,
		"estimated_recyclable":        est.EstimatedRecyclable,
	})
}
