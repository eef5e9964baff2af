package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"studyhall/internal/model"
)

// StatsCache keeps rolling learner aggregates and the points leaderboard
type StatsCache interface {
	GetStats(ctx context.Context, userID string) (*model.LearnerStats, error)
	SetStats(ctx context.Context, userID string, stats *model.LearnerStats) error
	InvalidateStats(ctx context.Context, userID string) error
	UpdateLeaderboard(ctx context.Context, userID string, points int) error
	GetTop(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	GetRank(ctx context.Context, userID string) (int64, error)
}

// LeaderboardEntry represents a single leaderboard entry
type LeaderboardEntry struct {
	UserID string `json:"userId"`
	Points int    `json:"points"`
	Rank   int    `json:"rank"`
}

type statsCache struct {
	client *redis.Client
}

func NewStatsCache(client *redis.Client) StatsCache {
	return &statsCache{
		client: client,
	}
}

func (c *statsCache) statsKey(userID string) string {
	return fmt.Sprintf("learner:%s:stats", userID)
}

const leaderboardKey = "learners:points"

func (c *statsCache) GetStats(ctx context.Context, userID string) (*model.LearnerStats, error) {
	data, err := c.client.Get(ctx, c.statsKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	var stats model.LearnerStats
	err = json.Unmarshal([]byte(data), &stats)
	return &stats, err
}

func (c *statsCache) SetStats(ctx context.Context, userID string, stats *model.LearnerStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.statsKey(userID), data, 0).Err()
}

func (c *statsCache) InvalidateStats(ctx context.Context, userID string) error {
	return c.client.Del(ctx, c.statsKey(userID)).Err()
}

func (c *statsCache) UpdateLeaderboard(ctx context.Context, userID string, points int) error {
	return c.client.ZAdd(ctx, leaderboardKey, redis.Z{
		Score:  float64(points),
		Member: userID,
	}).Err()
}

func (c *statsCache) GetTop(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(results))
	for i, z := range results {
		entries[i] = LeaderboardEntry{
			UserID: z.Member.(string),
			Points: int(z.Score),
			Rank:   i + 1,
		}
	}
	return entries, nil
}

func (c *statsCache) GetRank(ctx context.Context, userID string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, leaderboardKey, userID).Result()
	if err == redis.Nil {
		return -1, nil
	}
	return rank + 1, err // 1-indexed
}
