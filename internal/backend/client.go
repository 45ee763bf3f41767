// README: Municipal backend client: segments, waste records, schedules, auth, weekly zones.
package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"kolekta/internal/modules/route"
	"kolekta/internal/modules/session"
	"kolekta/internal/modules/zone"
	"kolekta/internal/types"
)

// TokenFunc supplies the bearer token for outgoing requests. It is injected
// rather than read from ambient state so the client carries no session of its
// own.
type TokenFunc func(ctx context.Context) (string, error)

// Client talks to the municipal REST backend. It implements route.Backend
// plus the session and zone collaborator interfaces. Responses are normalized
// at this boundary: optional/absent fields become explicit zero values or
// pointers before anything reaches the core models.
type Client struct {
	session *http.Client
	baseURL string
	token   TokenFunc
}

func NewClient(baseURL string, timeout time.Duration, token TokenFunc) *Client {
	return &Client{
		session: &http.Client{Timeout: timeout},
		baseURL: baseURL,
		token:   token,
	}
}

func (c *Client) FetchSegments(ctx context.Context, routeID types.ID, reschedule bool) ([]route.Segment, error) {
	path := fmt.Sprintf("/route-details/%s", url.PathEscape(string(routeID)))
	if reschedule {
		path = fmt.Sprintf("/reschedules/%s/details", url.PathEscape(string(routeID)))
	}
	var body struct {
		RouteDetails   []segmentDTO `json:"routeDetails"`
		ReschedDetails []segmentDTO `json:"reschedDetails"`
	}
	if err := c.call(ctx, http.MethodGet, path, nil, &body); err != nil {
		return nil, err
	}
	dtos := body.RouteDetails
	if reschedule {
		dtos = body.ReschedDetails
	}
	segments := make([]route.Segment, 0, len(dtos))
	for _, d := range dtos {
		seg, err := d.toSegment()
		if err != nil {
			return nil, fmt.Errorf("segment %s: %w", d.ID, err)
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

func (c *Client) PatchSegment(ctx context.Context, segmentID types.ID, patch route.Patch, reschedule bool) error {
	family := "route-details"
	if reschedule {
		family = "resched-details"
	}
	path := fmt.Sprintf("/%s/%s/status", family, url.PathEscape(string(segmentID)))
	return c.call(ctx, http.MethodPatch, path, patchDTOFrom(patch), nil)
}

func (c *Client) SaveWasteRecord(ctx context.Context, segmentID types.ID, counts route.WasteCounts) (route.WasteRecord, error) {
	req := map[string]any{
		"route_detail_id":         segmentID,
		"biodegradable_sacks":     counts.Biodegradable,
		"non_biodegradable_sacks": counts.NonBiodegradable,
		"recyclable_sacks":        counts.Recyclable,
	}
	var body struct {
		Data wasteRecordDTO `json:"data"`
	}
	if err := c.call(ctx, http.MethodPost, "/waste-collections", req, &body); err != nil {
		return route.WasteRecord{}, err
	}
	return body.Data.toRecord(), nil
}

func (c *Client) CompleteSchedule(ctx context.Context, routeID types.ID, reschedule bool) error {
	path := fmt.Sprintf("/garbage-schedules/%s/complete", url.PathEscape(string(routeID)))
	if reschedule {
		path = fmt.Sprintf("/reschedules/%s/complete", url.PathEscape(string(routeID)))
	}
	return c.call(ctx, http.MethodPatch, path, nil, nil)
}

func (c *Client) PostRouteSummary(ctx context.Context, report route.SummaryReport) error {
	req := map[string]any{
		"schedule_id":     report.ScheduleID,
		"completed_count": report.CompletedCount,
		"missed_count":    report.MissedCount,
		"total_duration":  report.TotalDurationSeconds,
		"missed_reasons":  report.MissedReasons,
	}
	return c.call(ctx, http.MethodPost, "/route-summaries", req, nil)
}

func (c *Client) TerminalEstimates(ctx context.Context, terminalID types.ID) (route.TerminalEstimate, error) {
	var body struct {
		Data terminalDTO `json:"data"`
	}
	path := fmt.Sprintf("/garbage-terminals/%s", url.PathEscape(string(terminalID)))
	if err := c.call(ctx, http.MethodGet, path, nil, &body); err != nil {
		return route.TerminalEstimate{}, err
	}
	return body.Data.toEstimate(), nil
}

func (c *Client) Login(ctx context.Context, email, password string) (session.Credentials, error) {
	req := map[string]string{"email": email, "password": password}
	var body struct {
		Token string       `json:"token"`
		User  session.User `json:"user"`
	}
	if err := c.call(ctx, http.MethodPost, "/login", req, &body); err != nil {
		return session.Credentials{}, err
	}
	return session.Credentials{Token: body.Token, User: body.User}, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/logout", nil, nil)
}

func (c *Client) WeeklyZones(ctx context.Context) (zone.WeeklyReport, error) {
	var body struct {
		WeeklyReport *weeklyReportDTO `json:"weekly_report"`
	}
	if err := c.call(ctx, http.MethodGet, "/weekly-zones", nil, &body); err != nil {
		return zone.WeeklyReport{}, err
	}
	if body.WeeklyReport == nil {
		return zone.WeeklyReport{}, nil
	}
	return body.WeeklyReport.toReport(), nil
}

func (c *Client) MarkZoneSegregated(ctx context.Context, zoneReportID types.ID) error {
	req := map[string]any{"zone_report_id": zoneReportID}
	return c.call(ctx, http.MethodPost, "/weekly-zones/segregate", req, nil)
}
