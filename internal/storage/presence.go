package storage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

// presenceKey is a hash of user id -> number of open websocket connections.
const presenceKey = "presence:online"

// decrPresence decrements and removes the counter in one step so a concurrent
// reconnect is never dropped.
var decrPresence = redis.NewScript(`
local n = redis.call('HINCRBY', KEYS[1], ARGV[1], -1)
if n <= 0 then
	redis.call('HDEL', KEYS[1], ARGV[1])
end
return n
`)

// MarkOnline counts one more open connection for the user.
func (s *Service) MarkOnline(ctx context.Context, userID uint) error {
	if s.Redis == nil {
		return nil
	}
	if err := s.Redis.HIncrBy(ctx, presenceKey, field(userID), 1).Err(); err != nil {
		return fmt.Errorf("mark user %d online: %w", userID, err)
	}
	return nil
}

// MarkOffline counts one connection less and drops the user once none remain.
func (s *Service) MarkOffline(ctx context.Context, userID uint) error {
	if s.Redis == nil {
		return nil
	}
	if err := decrPresence.Run(ctx, s.Redis, []string{presenceKey}, field(userID)).Err(); err != nil {
		return fmt.Errorf("mark user %d offline: %w", userID, err)
	}
	return nil
}

// OnlineUsers filters userIDs down to those with at least one open connection.
func (s *Service) OnlineUsers(ctx context.Context, userIDs []uint) ([]uint, error) {
	if s.Redis == nil || len(userIDs) == 0 {
		return nil, nil
	}
	values, err := s.Redis.HMGet(ctx, presenceKey, lo.Map(userIDs, func(id uint, _ int) string { return field(id) })...).Result()
	if err != nil {
		return nil, fmt.Errorf("read presence: %w", err)
	}

	online := make([]uint, 0, len(userIDs))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			online = append(online, userIDs[i])
		}
	}
	return online, nil
}

func field(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}
