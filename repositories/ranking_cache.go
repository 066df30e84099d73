package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Aldiyar97/quiz-league/models"
	"github.com/redis/go-redis/v9"
)

const leaderboardCacheTTL = 5 * time.Minute

// RedisRankingCache keeps the latest leaderboard JSON per division so the
// public leaderboard endpoint does not hit postgres on every read. Entries
// are invalidated whenever a snapshot is rebuilt or processed.
type RedisRankingCache struct {
	client *redis.Client
}

func NewRedisRankingCache(client *redis.Client) *RedisRankingCache {
	return &RedisRankingCache{client: client}
}

func leaderboardKey(divisionID int) string {
	return fmt.Sprintf("leaderboard:division:%d", divisionID)
}

// GetLeaderboard returns the cached snapshot, or (nil, nil) on a miss.
func (c *RedisRankingCache) GetLeaderboard(ctx context.Context, divisionID int) (*models.WeeklyRanking, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	data, err := c.client.Get(ctx, leaderboardKey(divisionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read leaderboard cache: %w", err)
	}
	var ranking models.WeeklyRanking
	if err := json.Unmarshal(data, &ranking); err != nil {
		// Treat a corrupt entry as a miss; it gets overwritten on refill.
		return nil, nil
	}
	return &ranking, nil
}

func (c *RedisRankingCache) SetLeaderboard(ctx context.Context, divisionID int, ranking *models.WeeklyRanking) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(ranking)
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard: %w", err)
	}
	return c.client.Set(ctx, leaderboardKey(divisionID), data, leaderboardCacheTTL).Err()
}

func (c *RedisRankingCache) Invalidate(ctx context.Context, divisionID int) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, leaderboardKey(divisionID)).Err()
}
