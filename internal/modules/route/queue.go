// README: Redis-backed retry queue for segment patches that failed to persist.
package route

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"kolekta/internal/types"
)

const (
	pendingPatchKey = "route:patches:pending"
	// Queued patches are retried well within a shift; anything older is stale.
	pendingPatchTTL = 24 * time.Hour
)

// QueuedPatch is a serialized segment patch waiting for redelivery. Only
// auto-start patches ever land here: the acted-on segment's own patch must
// succeed before local state advances.
type QueuedPatch struct {
	SegmentID  types.ID   `json:"segment_id"`
	Reschedule bool       `json:"reschedule"`
	Status     *Status    `json:"status,omitempty"`
	StartTime  *time.Time `json:"start_time,omitempty"`
	QueuedAt   time.Time  `json:"queued_at"`
}

type PatchQueue struct {
	redis *redis.Client
}

func NewPatchQueue(r *redis.Client) *PatchQueue {
	return &PatchQueue{redis: r}
}

func (q *PatchQueue) Enqueue(ctx context.Context, p QueuedPatch) error {
	p.QueuedAt = time.Now().UTC()
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	pipe := q.redis.Pipeline()
	pipe.RPush(ctx, pendingPatchKey, data)
	pipe.Expire(ctx, pendingPatchKey, pendingPatchTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (q *PatchQueue) Len(ctx context.Context) (int64, error) {
	return q.redis.LLen(ctx, pendingPatchKey).Result()
}

// Drain pops every queued patch and hands it to deliver. A patch whose
// delivery fails is pushed back and draining stops until the next run.
func (q *PatchQueue) Drain(ctx context.Context, deliver func(context.Context, QueuedPatch) error) error {
	for {
		data, err := q.redis.LPop(ctx, pendingPatchKey).Result()
		if err == redis.Nil {
			return nil
		}
		if err != nil {
			return err
		}
		var p QueuedPatch
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			// Unreadable entry: drop it rather than wedge the queue.
			continue
		}
		if err := deliver(ctx, p); err != nil {
			if pushErr := q.redis.LPush(ctx, pendingPatchKey, data).Err(); pushErr != nil {
				return pushErr
			}
			return err
		}
	}
}
