// README: Weekly segregation report models for zone leaders.
package zone

import (
	"time"

	"kolekta/internal/types"
)

// WeeklyReport is the current reporting window plus the zones it covers.
// Deadline mirrors the backend's submitted_at field: the cutoff after which
// segregation marks are no longer accepted.
type WeeklyReport struct {
	ID               types.ID  `json:"id"`
	ComplyOn         time.Time `json:"comply_on"`
	Deadline         time.Time `json:"deadline"`
	IsOpen           bool      `json:"is_open"`
	SubmissionClosed bool      `json:"submission_closed"`
	Zones            []Report  `json:"zones"`
}

// Report is one zone's entry in the weekly report.
type Report struct {
	ID           types.ID `json:"id"`
	ZoneName     string   `json:"zone_name"`
	IsSegregated bool     `json:"is_segregated"`
}
