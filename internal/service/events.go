package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/yuzuhara/fieldwise"
)

// EventService broadcasts ledger appends over redis pub/sub so realtime
// subscribers see history changes as they happen. All methods are no-ops
// when no redis client is configured.
type EventService struct {
	rdb *redis.Client
}

func NewEventService(redisClient *redis.Client) *EventService {
	return &EventService{
		rdb: redisClient,
	}
}

func historyChannel(userID string) string {
	return "history:" + userID
}

func (s *EventService) Publish(ctx context.Context, entry fieldwise.HistoryEntry) error {
	if s.rdb == nil {
		return nil
	}

	jsonstr, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return s.rdb.Publish(ctx, historyChannel(entry.UserID), jsonstr).Err()
}

// Subscribe opens a pub/sub subscription for a user's history channel.
// The caller owns the returned subscription and must Close it. Returns
// nil when redis is unconfigured.
func (s *EventService) Subscribe(ctx context.Context, userID string) *redis.PubSub {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Subscribe(ctx, historyChannel(userID))
}
