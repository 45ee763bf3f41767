// README: Location service handles high-frequency truck position reports.
package location

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"kolekta/internal/types"
)

var ErrBadFix = errors.New("location: invalid position fix")

// minMovementKm suppresses publishes while the truck is effectively
// stationary; the latest fix in Redis is still refreshed.
const minMovementKm = 0.005

// Publisher pushes a fix to the live-tracking channel consumed by residents.
type Publisher interface {
	Publish(ctx context.Context, fix Fix) error
}

type Service struct {
	store     *Store
	publisher Publisher
	log       *slog.Logger

	mu            sync.Mutex
	lastPublished map[types.ID]time.Time
}

func NewService(store *Store, publisher Publisher, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:         store,
		publisher:     publisher,
		log:           log,
		lastPublished: make(map[types.ID]time.Time),
	}
}

// Report records a new position fix. The fix is always persisted as the
// truck's latest position; publishing upstream is best-effort, with failed
// publishes queued for the background flusher.
func (s *Service) Report(ctx context.Context, fix Fix) error {
	if fix.TruckID == "" || !validCoords(fix.Position.Lat, fix.Position.Lng) {
		return ErrBadFix
	}
	if fix.RecordedAt.IsZero() {
		fix.RecordedAt = time.Now().UTC()
	}

	prev, err := s.store.Latest(ctx, fix.TruckID)
	if err != nil && !errors.Is(err, ErrNoFix) {
		return err
	}
	moved := errors.Is(err, ErrNoFix) ||
		haversineKm(prev.Position.Lat, prev.Position.Lng, fix.Position.Lat, fix.Position.Lng) >= minMovementKm

	if err := s.store.SetLatest(ctx, fix); err != nil {
		return err
	}
	if !moved {
		return nil
	}

	// Queued fixes are strictly older than the current one, so they replay
	// first: the current fix must land on the live channel last.
	if err := s.store.DrainBacklog(ctx, fix.TruckID, s.publish); err != nil {
		s.log.Warn("location backlog drain interrupted",
			"truck_id", string(fix.TruckID), "error", err)
	}
	if err := s.publish(ctx, fix); err != nil {
		s.log.Warn("location publish failed, queueing fix",
			"truck_id", string(fix.TruckID), "error", err)
		return s.store.EnqueueBacklog(ctx, fix)
	}
	return nil
}

// publish delivers a fix unless a fresher one already reached the live
// channel. Backlog replays and fresh reports interleave; the published
// position must never move backwards in time.
func (s *Service) publish(ctx context.Context, fix Fix) error {
	s.mu.Lock()
	last := s.lastPublished[fix.TruckID]
	s.mu.Unlock()
	if fix.RecordedAt.Before(last) {
		return nil
	}
	if err := s.publisher.Publish(ctx, fix); err != nil {
		return err
	}
	s.mu.Lock()
	if fix.RecordedAt.After(s.lastPublished[fix.TruckID]) {
		s.lastPublished[fix.TruckID] = fix.RecordedAt
	}
	s.mu.Unlock()
	return nil
}

func (s *Service) Latest(ctx context.Context, truckID types.ID) (Fix, error) {
	return s.store.Latest(ctx, truckID)
}

// RunFlusher periodically retries queued fixes for every truck with a
// backlog until the context is cancelled.
func (s *Service) RunFlusher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.flushBacklogs(ctx)
		}
	}
}

func (s *Service) flushBacklogs(ctx context.Context) {
	trucks, err := s.store.TrucksWithBacklog(ctx)
	if err != nil {
		s.log.Debug("location backlog scan failed", "error", err)
		return
	}
	for _, truckID := range trucks {
		if err := s.store.DrainBacklog(ctx, truckID, s.publish); err != nil {
			s.log.Debug("location backlog retry failed",
				"truck_id", string(truckID), "error", err)
		}
	}
}

func validCoords(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
