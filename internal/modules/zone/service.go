// README: Zone service enforces the weekly segregation reporting window.
package zone

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kolekta/internal/types"
)

var (
	ErrSubmissionClosed  = errors.New("weekly submission window is closed")
	ErrAlreadySegregated = errors.New("zone already marked segregated")
	ErrZoneNotFound      = errors.New("zone not in current weekly report")
	ErrNoReport          = errors.New("no weekly report available")
)

// Backend is the remote surface for weekly zone reports.
type Backend interface {
	WeeklyZones(ctx context.Context) (WeeklyReport, error)
	MarkZoneSegregated(ctx context.Context, zoneReportID types.ID) error
}

type Service struct {
	backend Backend
	now     func() time.Time
}

func NewService(backend Backend) *Service {
	return &Service{backend: backend, now: time.Now}
}

// Weekly returns the current reporting window and its zones.
func (s *Service) Weekly(ctx context.Context) (WeeklyReport, error) {
	return s.backend.WeeklyZones(ctx)
}

// Open reports whether the window still accepts segregation marks.
func (r WeeklyReport) Open(now time.Time) bool {
	if !r.IsOpen || r.SubmissionClosed {
		return false
	}
	if !r.Deadline.IsZero() && now.After(r.Deadline) {
		return false
	}
	return true
}

// MarkSegregated marks one zone compliant for the week. The window must be
// open and the zone not yet marked; both are checked against the backend's
// current report before the write goes out.
func (s *Service) MarkSegregated(ctx context.Context, zoneReportID types.ID) error {
	report, err := s.backend.WeeklyZones(ctx)
	if err != nil {
		return fmt.Errorf("fetch weekly report: %w", err)
	}
	if report.ID == "" {
		return ErrNoReport
	}
	if !report.Open(s.now()) {
		return ErrSubmissionClosed
	}
	found := false
	for _, z := range report.Zones {
		if z.ID != zoneReportID {
			continue
		}
		if z.IsSegregated {
			return ErrAlreadySegregated
		}
		found = true
		break
	}
	if !found {
		return ErrZoneNotFound
	}
	return s.backend.MarkZoneSegregated(ctx, zoneReportID)
}
