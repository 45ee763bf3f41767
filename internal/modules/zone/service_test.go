// README: Weekly window enforcement tests.
package zone

import (
	"context"
	"errors"
	"testing"
	"time"

	"kolekta/internal/types"
)

type stubBackend struct {
	report    WeeklyReport
	reportErr error
	marked    []types.ID
}

func (s *stubBackend) WeeklyZones(_ context.Context) (WeeklyReport, error) {
	return s.report, s.reportErr
}

func (s *stubBackend) MarkZoneSegregated(_ context.Context, zoneReportID types.ID) error {
	s.marked = append(s.marked, zoneReportID)
	return nil
}

var testNow = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

func openReport() WeeklyReport {
	return WeeklyReport{
		ID:       "wr-1",
		ComplyOn: testNow.Add(-48 * time.Hour),
		Deadline: testNow.Add(24 * time.Hour),
		IsOpen:   true,
		Zones: []Report{
			{ID: "z1", ZoneName: "Zone 1"},
			{ID: "z2", ZoneName: "Zone 2", IsSegregated: true},
		},
	}
}

func newTestZoneService(backend *stubBackend) *Service {
	svc := NewService(backend)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestMarkSegregatedHappyPath(t *testing.T) {
	backend := &stubBackend{report: openReport()}
	svc := newTestZoneService(backend)

	if err := svc.MarkSegregated(context.Background(), "z1"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if len(backend.marked) != 1 || backend.marked[0] != "z1" {
		t.Errorf("marked = %v, want [z1]", backend.marked)
	}
}

func TestMarkSegregatedWindowClosed(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*WeeklyReport)
	}{
		{"not open", func(r *WeeklyReport) { r.IsOpen = false }},
		{"submission closed", func(r *WeeklyReport) { r.SubmissionClosed = true }},
		{"past deadline", func(r *WeeklyReport) { r.Deadline = testNow.Add(-time.Hour) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report := openReport()
			tc.mutate(&report)
			backend := &stubBackend{report: report}
			svc := newTestZoneService(backend)

			if err := svc.MarkSegregated(context.Background(), "z1"); !errors.Is(err, ErrSubmissionClosed) {
				t.Fatalf("expected ErrSubmissionClosed, got %v", err)
			}
			if len(backend.marked) != 0 {
				t.Error("no write may reach the backend for a closed window")
			}
		})
	}
}

func TestMarkSegregatedAlreadyMarked(t *testing.T) {
	svc := newTestZoneService(&stubBackend{report: openReport()})
	if err := svc.MarkSegregated(context.Background(), "z2"); !errors.Is(err, ErrAlreadySegregated) {
		t.Fatalf("expected ErrAlreadySegregated, got %v", err)
	}
}

func TestMarkSegregatedUnknownZone(t *testing.T) {
	svc := newTestZoneService(&stubBackend{report: openReport()})
	if err := svc.MarkSegregated(context.Background(), "z9"); !errors.Is(err, ErrZoneNotFound) {
		t.Fatalf("expected ErrZoneNotFound, got %v", err)
	}
}

func TestMarkSegregatedNoReport(t *testing.T) {
	svc := newTestZoneService(&stubBackend{})
	if err := svc.MarkSegregated(context.Background(), "z1"); !errors.Is(err, ErrNoReport) {
		t.Fatalf("expected ErrNoReport, got %v", err)
	}
}

func TestOpenZeroDeadlineStaysOpen(t *testing.T) {
	report := openReport()
	report.Deadline = time.Time{}
	if !report.Open(testNow) {
		t.Error("missing deadline must not close the window on its own")
	}
}
