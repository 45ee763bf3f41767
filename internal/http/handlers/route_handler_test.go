// README: Route handler tests over a wired Gin router.
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"kolekta/internal/http/handlers"
	httpmiddleware "kolekta/internal/http/middleware"
	"kolekta/internal/modules/route"
	"kolekta/internal/modules/session"
	"kolekta/internal/types"
)

// stubVerifier is a test double for httpmiddleware.TokenVerifier.
type stubVerifier struct {
	user session.User
	err  error
}

func (s *stubVerifier) Verify(_ context.Context, _ string) (session.User, error) {
	return s.user, s.err
}

// memoryBackend is an in-memory route.Backend for handler tests.
type memoryBackend struct {
	segments []route.Segment
	fetchErr error
}

func (m *memoryBackend) FetchSegments(_ context.Context, _ types.ID, _ bool) ([]route.Segment, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	out := make([]route.Segment, len(m.segments))
	copy(out, m.segments)
	return out, nil
}

func (m *memoryBackend) PatchSegment(_ context.Context, _ types.ID, _ route.Patch, _ bool) error {
	return nil
}

func (m *memoryBackend) SaveWasteRecord(_ context.Context, segmentID types.ID, counts route.WasteCounts) (route.WasteRecord, error) {
	return route.WasteRecord{ID: "wr-" + segmentID, BiodegradableSacks: counts.Biodegradable}, nil
}

func (m *memoryBackend) CompleteSchedule(_ context.Context, _ types.ID, _ bool) error { return nil }

func (m *memoryBackend) PostRouteSummary(_ context.Context, _ route.SummaryReport) error { return nil }

func (m *memoryBackend) TerminalEstimates(_ context.Context, terminalID types.ID) (route.TerminalEstimate, error) {
	return route.TerminalEstimate{TerminalID: terminalID, Name: "North MRF", EstimatedBiodegradable: 5}, nil
}

func testSegments(n int) []route.Segment {
	segs := make([]route.Segment, n)
	for i := range segs {
		segs[i] = route.Segment{
			ID:     types.ID(fmt.Sprintf("seg-%d", i+1)),
			Status: route.StatusPending,
		}
	}
	return segs
}

// buildTestRouter wires a minimal Gin engine with the auth middleware and the
// route handler endpoints.
func buildTestRouter(svc *route.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(httpmiddleware.Auth(&stubVerifier{user: session.User{ID: "u1", Role: "driver", TruckID: "truck-1"}}))
	h := handlers.NewRouteHandler(svc)
	r.GET("/api/routes/:routeID", h.Get)
	r.POST("/api/routes/:routeID/transitions", h.Transition)
	r.POST("/api/routes/:routeID/waste", h.SaveWaste)
	r.DELETE("/api/routes/:routeID/waste", h.DismissWaste)
	r.POST("/api/routes/:routeID/summary", h.PostSummary)
	r.GET("/api/terminals/:terminalID", h.TerminalEstimates)
	return r
}

func doRequest(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer tok-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newRouteService(n int) *route.Service {
	return route.NewService(&memoryBackend{segments: testSegments(n)}, nil, nil)
}

func TestRouteGetLoadsAndReturnsView(t *testing.T) {
	r := buildTestRouter(newRouteService(2))
	w := doRequest(r, http.MethodGet, "/api/routes/r1?truck_id=truck-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var view struct {
		RouteID     string `json:"route_id"`
		ActiveIndex int    `json:"active_index"`
		Segments    []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"segments"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.RouteID != "r1" || view.ActiveIndex != 0 || len(view.Segments) != 2 {
		t.Errorf("view = %+v", view)
	}
	if view.Segments[0].Status != "pending" {
		t.Errorf("segment status = %s", view.Segments[0].Status)
	}
}

func TestRouteUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(httpmiddleware.Auth(&stubVerifier{err: fmt.Errorf("no session")}))
	r.GET("/api/routes/:routeID", handlers.NewRouteHandler(newRouteService(1)).Get)

	req := httptest.NewRequest(http.MethodGet, "/api/routes/r1", nil)
	req.Header.Set("Authorization", "Bearer bad")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestRouteGetUpstreamFailureIsRetryable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(httpmiddleware.Auth(&stubVerifier{user: session.User{ID: "u1", Role: "driver"}}))
	svc := route.NewService(&memoryBackend{fetchErr: fmt.Errorf("upstream 500")}, nil, nil)
	r.GET("/api/routes/:routeID", handlers.NewRouteHandler(svc).Get)

	w := doRequest(r, http.MethodGet, "/api/routes/r1", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", w.Code, w.Body.String())
	}
	var res struct {
		Retryable bool `json:"retryable"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Retryable {
		t.Error("fetch failures should be flagged retryable")
	}
}

func TestTransitionHappyAndConflict(t *testing.T) {
	r := buildTestRouter(newRouteService(2))
	doRequest(r, http.MethodGet, "/api/routes/r1", nil)

	w := doRequest(r, http.MethodPost, "/api/routes/r1/transitions", map[string]any{"index": 0, "kind": "start"})
	if w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// acting on a non-active segment conflicts
	w = doRequest(r, http.MethodPost, "/api/routes/r1/transitions", map[string]any{"index": 1, "kind": "complete"})
	if w.Code != http.StatusConflict {
		t.Errorf("non-active: expected 409, got %d", w.Code)
	}

	// unknown kind is a bad request
	w = doRequest(r, http.MethodPost, "/api/routes/r1/transitions", map[string]any{"index": 0, "kind": "teleport"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown kind: expected 400, got %d", w.Code)
	}
}

func TestTransitionMissWithoutRemarks(t *testing.T) {
	r := buildTestRouter(newRouteService(2))
	doRequest(r, http.MethodGet, "/api/routes/r1", nil)

	w := doRequest(r, http.MethodPost, "/api/routes/r1/transitions", map[string]any{"index": 0, "kind": "miss"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestTransitionUnknownRoute(t *testing.T) {
	r := buildTestRouter(newRouteService(1))
	w := doRequest(r, http.MethodPost, "/api/routes/ghost/transitions", map[string]any{"index": 0, "kind": "start"})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestFinalCaptureFlowOverHTTP(t *testing.T) {
	r := buildTestRouter(newRouteService(1))
	doRequest(r, http.MethodGet, "/api/routes/r1", nil)
	doRequest(r, http.MethodPost, "/api/routes/r1/transitions", map[string]any{"index": 0, "kind": "start"})

	w := doRequest(r, http.MethodPost, "/api/routes/r1/transitions", map[string]any{"index": 0, "kind": "complete"})
	if w.Code != http.StatusOK {
		t.Fatalf("complete: %d: %s", w.Code, w.Body.String())
	}
	var res struct {
		AwaitingFinalCapture bool `json:"awaiting_final_capture"`
		Effects              []struct {
			Kind string `json:"kind"`
		} `json:"effects"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.AwaitingFinalCapture {
		t.Error("final completion should await capture")
	}

	// dismissing keeps the route suspended
	w = doRequest(r, http.MethodDelete, "/api/routes/r1/waste?segment_id=seg-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dismiss: %d", w.Code)
	}

	// saving the capture finalizes and unlocks the summary
	w = doRequest(r, http.MethodPost, "/api/routes/r1/waste", map[string]any{
		"segment_id": "seg-1", "biodegradable_sacks": 2,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("capture: %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(r, http.MethodPost, "/api/routes/r1/summary", map[string]any{})
	if w.Code != http.StatusOK {
		t.Fatalf("summary: %d: %s", w.Code, w.Body.String())
	}
	var sum struct {
		CompletedCount int `json:"completed_count"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &sum)
	if sum.CompletedCount != 1 {
		t.Errorf("completed = %d, want 1", sum.CompletedCount)
	}
}

func TestNegativeWasteCountsRejected(t *testing.T) {
	r := buildTestRouter(newRouteService(1))
	doRequest(r, http.MethodGet, "/api/routes/r1", nil)

	w := doRequest(r, http.MethodPost, "/api/routes/r1/waste", map[string]any{
		"segment_id": "seg-1", "biodegradable_sacks": -1,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestTerminalEstimates(t *testing.T) {
	r := buildTestRouter(newRouteService(1))
	w := doRequest(r, http.MethodGet, "/api/terminals/t7", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var est struct {
		TerminalID string `json:"terminal_id"`
		Estimated  int    `json:"estimated_biodegradable"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &est)
	if est.TerminalID != "t7" || est.Estimated != 5 {
		t.Errorf("estimate = %+v", est)
	}
}
