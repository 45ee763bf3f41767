// README: Backend payload shapes and boundary normalization into core models.
package backend

import (
	"fmt"
	"time"

	"kolekta/internal/modules/route"
	"kolekta/internal/modules/zone"
	"kolekta/internal/types"
)

// segmentDTO mirrors one route/resched detail row. Optional fields are
// pointers so absence is explicit; normalization below turns them into the
// core Segment so nothing downstream branches on "is this field present".
type segmentDTO struct {
	ID          types.ID  `json:"id"`
	FromName    *string   `json:"from_name"`
	ToName      *string   `json:"to_name"`
	FromLat     *float64  `json:"from_lat"`
	FromLng     *float64  `json:"from_lng"`
	ToLat       *float64  `json:"to_lat"`
	ToLng       *float64  `json:"to_lng"`
	Status      *string   `json:"status"`
	StartTime   *string   `json:"start_time"`
	CompletedAt *string   `json:"completed_at"`
	Remarks     *string   `json:"remarks"`
	DistanceKm  *float64  `json:"distance_km"`
	DurationMin *float64  `json:"duration_min"`
	TerminalID  *types.ID `json:"terminal_id"`
}

func (d segmentDTO) toSegment() (route.Segment, error) {
	if d.ID == "" {
		return route.Segment{}, fmt.Errorf("missing segment id")
	}
	seg := route.Segment{
		ID:         d.ID,
		Status:     route.StatusPending,
		Remarks:    d.Remarks,
		TerminalID: d.TerminalID,
	}
	if d.FromName != nil {
		seg.FromName = *d.FromName
	}
	if d.ToName != nil {
		seg.ToName = *d.ToName
	}
	if d.FromLat != nil && d.FromLng != nil {
		seg.From = types.Point{Lat: *d.FromLat, Lng: *d.FromLng}
	}
	if d.ToLat != nil && d.ToLng != nil {
		seg.To = types.Point{Lat: *d.ToLat, Lng: *d.ToLng}
	}
	if d.DistanceKm != nil {
		seg.DistanceKm = *d.DistanceKm
	}
	if d.DurationMin != nil {
		seg.DurationMin = *d.DurationMin
	}
	if d.Status != nil && *d.Status != "" {
		switch s := route.Status(*d.Status); s {
		case route.StatusPending, route.StatusStarted, route.StatusCompleted, route.StatusMissed:
			seg.Status = s
		default:
			return route.Segment{}, fmt.Errorf("unknown status %q", *d.Status)
		}
	}
	var err error
	if seg.StartTime, err = parseTimePtr(d.StartTime); err != nil {
		return route.Segment{}, fmt.Errorf("start_time: %w", err)
	}
	if seg.CompletedAt, err = parseTimePtr(d.CompletedAt); err != nil {
		return route.Segment{}, fmt.Errorf("completed_at: %w", err)
	}
	// A segment with a recorded start but no status yet is in progress.
	if seg.Status == route.StatusPending && seg.StartTime != nil {
		seg.Status = route.StatusStarted
	}
	return seg, nil
}

// patchDTO is the wire form of a status patch; only set fields are sent.
type patchDTO struct {
	Status      *string `json:"status,omitempty"`
	StartTime   *string `json:"start_time,omitempty"`
	CompletedAt *string `json:"completed_at,omitempty"`
	Remarks     *string `json:"remarks,omitempty"`
}

func patchDTOFrom(p route.Patch) patchDTO {
	var out patchDTO
	if p.Status != nil {
		s := string(*p.Status)
		out.Status = &s
	}
	out.StartTime = formatTimePtr(p.StartTime)
	out.CompletedAt = formatTimePtr(p.CompletedAt)
	out.Remarks = p.Remarks
	return out
}

type wasteRecordDTO struct {
	ID                    types.ID `json:"id"`
	BiodegradableSacks    int      `json:"biodegradable_sacks"`
	NonBiodegradableSacks int      `json:"non_biodegradable_sacks"`
	RecyclableSacks       int      `json:"recyclable_sacks"`
}

func (d wasteRecordDTO) toRecord() route.WasteRecord {
	return route.WasteRecord{
		ID:                    d.ID,
		BiodegradableSacks:    d.BiodegradableSacks,
		NonBiodegradableSacks: d.NonBiodegradableSacks,
		RecyclableSacks:       d.RecyclableSacks,
	}
}

type terminalDTO struct {
	ID                        types.ID `json:"id"`
	Name                      string   `json:"name"`
	EstimatedBiodegradable    *int     `json:"estimated_biodegradable"`
	EstimatedNonBiodegradable *int     `json:"estimated_non_biodegradable"`
	EstimatedRecyclable       *int     `json:"estimated_recyclable"`
}

func (d terminalDTO) toEstimate() route.TerminalEstimate {
	est := route.TerminalEstimate{TerminalID: d.ID, Name: d.Name}
	if d.EstimatedBiodegradable != nil {
		est.EstimatedBiodegradable = *d.EstimatedBiodegradable
	}
	if d.EstimatedNonBiodegradable != nil {
		est.EstimatedNonBiodegradable = *d.EstimatedNonBiodegradable
	}
	if d.EstimatedRecyclable != nil {
		est.EstimatedRecyclable = *d.EstimatedRecyclable
	}
	return est
}

type weeklyReportDTO struct {
	ID               types.ID        `json:"id"`
	ComplyOn         *string         `json:"comply_on"`
	SubmittedAt      *string         `json:"submitted_at"`
	IsOpen           bool            `json:"is_open"`
	SubmissionClosed bool            `json:"submission_closed"`
	Zones            []zoneReportDTO `json:"zones"`
}

type zoneReportDTO struct {
	ID           types.ID `json:"id"`
	ZoneName     string   `json:"zone_name"`
	IsSegregated bool     `json:"is_segregated"`
}

func (d weeklyReportDTO) toReport() zone.WeeklyReport {
	report := zone.WeeklyReport{
		ID:               d.ID,
		IsOpen:           d.IsOpen,
		SubmissionClosed: d.SubmissionClosed,
	}
	if t, err := parseTimePtr(d.ComplyOn); err == nil && t != nil {
		report.ComplyOn = *t
	}
	if t, err := parseTimePtr(d.SubmittedAt); err == nil && t != nil {
		report.Deadline = *t
	}
	for _, z := range d.Zones {
		report.Zones = append(report.Zones, zone.Report{
			ID:           z.ID,
			ZoneName:     z.ZoneName,
			IsSegregated: z.IsSegregated,
		})
	}
	return report
}

func parseTimePtr(v *string) (*time.Time, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
