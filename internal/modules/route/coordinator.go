// README: Route completion summary arithmetic.
package route

import "kolekta/internal/types"

// Summary is built once at finalization and handed to the summary step.
type Summary struct {
	RouteID              types.ID
	CompletedCount       int
	MissedSegments       []Segment
	TotalDurationSeconds int64
}

// BuildSummary aggregates terminal statuses across the store. Duration is the
// span from the first recorded start_time to the last completed_at; zero when
// either endpoint is missing.
func BuildSummary(st *Store, routeID types.ID) Summary {
	sum := Summary{RouteID: routeID}
	segments := st.All()
	for _, seg := range segments {
		switch seg.Status {
		case StatusCompleted:
			sum.CompletedCount++
		case StatusMissed:
			sum.MissedSegments = append(sum.MissedSegments, seg)
		}
	}
	var first, last int64
	for _, seg := range segments {
		if seg.StartTime != nil && (first == 0 || seg.StartTime.Unix() < first) {
			first = seg.StartTime.Unix()
		}
		if seg.CompletedAt != nil && seg.CompletedAt.Unix() > last {
			last = seg.CompletedAt.Unix()
		}
	}
	if first > 0 && last > first {
		sum.TotalDurationSeconds = last - first
	}
	return sum
}
