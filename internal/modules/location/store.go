// README: Location store backed by Redis: latest fix per truck plus an offline backlog.
package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"kolekta/internal/types"
)

var ErrNoFix = errors.New("location: no fix recorded")

const (
	latestKeyPrefix  = "locations:latest:"
	backlogKeyPrefix = "locations:backlog:"
	backlogTTL       = 24 * time.Hour
)

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

// SetLatest overwrites the most recent known fix for the truck.
func (s *Store) SetLatest(ctx context.Context, fix Fix) error {
	raw, err := json.Marshal(fix)
	if err != nil {
		return fmt.Errorf("marshaling fix: %w", err)
	}
	if err := s.redis.Set(ctx, latestKey(fix.TruckID), raw, 0).Err(); err != nil {
		return fmt.Errorf("storing latest fix: %w", err)
	}
	return nil
}

func (s *Store) Latest(ctx context.Context, truckID types.ID) (Fix, error) {
	raw, err := s.redis.Get(ctx, latestKey(truckID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Fix{}, ErrNoFix
	}
	if err != nil {
		return Fix{}, fmt.Errorf("loading latest fix: %w", err)
	}
	var fix Fix
	if err := json.Unmarshal(raw, &fix); err != nil {
		return Fix{}, fmt.Errorf("decoding latest fix: %w", err)
	}
	return fix, nil
}

// EnqueueBacklog appends a fix that could not be published upstream. The
// backlog preserves report order so it can be replayed oldest-first.
func (s *Store) EnqueueBacklog(ctx context.Context, fix Fix) error {
	raw, err := json.Marshal(fix)
	if err != nil {
		return fmt.Errorf("marshaling backlog fix: %w", err)
	}
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, backlogKey(fix.TruckID), raw)
	pipe.Expire(ctx, backlogKey(fix.TruckID), backlogTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("queueing backlog fix: %w", err)
	}
	return nil
}

func (s *Store) BacklogLen(ctx context.Context, truckID types.ID) (int64, error) {
	return s.redis.LLen(ctx, backlogKey(truckID)).Result()
}

// DrainBacklog pops queued fixes oldest-first and hands each to deliver.
// A failed delivery pushes the fix back to the head and stops the drain so
// nothing is lost across publisher outages.
func (s *Store) DrainBacklog(ctx context.Context, truckID types.ID, deliver func(context.Context, Fix) error) error {
	for {
		raw, err := s.redis.LPop(ctx, backlogKey(truckID)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("popping backlog fix: %w", err)
		}

		var fix Fix
		if err := json.Unmarshal(raw, &fix); err != nil {
			// Corrupt entry: drop it rather than wedge the queue.
			continue
		}
		if err := deliver(ctx, fix); err != nil {
			s.redis.LPush(ctx, backlogKey(truckID), raw)
			return err
		}
	}
}

// TrucksWithBacklog scans for trucks that have undelivered fixes queued.
func (s *Store) TrucksWithBacklog(ctx context.Context) ([]types.ID, error) {
	var trucks []types.ID
	iter := s.redis.Scan(ctx, 0, backlogKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		trucks = append(trucks, types.ID(strings.TrimPrefix(iter.Val(), backlogKeyPrefix)))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning backlog keys: %w", err)
	}
	return trucks, nil
}

func latestKey(truckID types.ID) string {
	return latestKeyPrefix + string(truckID)
}

func backlogKey(truckID types.ID) string {
	return backlogKeyPrefix + string(truckID)
}
