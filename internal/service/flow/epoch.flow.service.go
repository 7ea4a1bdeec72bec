package flow

import (
	"fmt"
	"strconv"
	"time"

	"dashboard-cargo/internal/pkg/redis"
)

// EpochStore hands out a strictly increasing generation per session. A
// result is applied only while the epoch it was dispatched under is still
// the current one.
type EpochStore interface {
	Next(sessionID string) (int64, error)
	Current(sessionID string) (int64, error)
}

type epochStore struct {
	rds redis.IRedis
	ttl time.Duration
}

// NewEpochStore keeps counters in rds. With redis.Memory the counters are
// process local; with a real redis every instance sees the same epoch.
func NewEpochStore(rds redis.IRedis, ttl time.Duration) EpochStore {
	return &epochStore{rds: rds, ttl: ttl}
}

func epochKey(sessionID string) string {
	return "flow:epoch:" + sessionID
}

func (e *epochStore) Next(sessionID string) (int64, error) {
	n, err := e.rds.Incr(epochKey(sessionID))
	if err != nil {
		return 0, fmt.Errorf("next epoch: %w", err)
	}
	if e.ttl > 0 {
		if err := e.rds.Expire(epochKey(sessionID), e.ttl); err != nil {
			return 0, fmt.Errorf("next epoch: %w", err)
		}
	}
	return n, nil
}

func (e *epochStore) Current(sessionID string) (int64, error) {
	raw, err := e.rds.Get(epochKey(sessionID))
	if err != nil {
		return 0, fmt.Errorf("current epoch: %w", err)
	}
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("current epoch: %w", err)
	}
	return n, nil
}
