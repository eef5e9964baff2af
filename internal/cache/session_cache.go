package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"studyhall/internal/model"
)

// sessionTTL bounds how long an idle session stays cached. Every Get
// slides the expiry forward so actively used sessions stay warm.
const sessionTTL = 10 * time.Minute

type SessionCache interface {
	Set(ctx context.Context, session *model.TutorSession) error
	Get(ctx context.Context, id string) (*model.TutorSession, error)
	Delete(ctx context.Context, id string) error
}

type sessionCache struct {
	client *redis.Client
}

func NewSessionCache(client *redis.Client) SessionCache {
	return &sessionCache{
		client: client,
	}
}

func sessionKey(id string) string {
	return "session:" + id
}

func (c *sessionCache) Set(ctx context.Context, session *model.TutorSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, sessionKey(session.ID), data, sessionTTL).Err()
}

func (c *sessionCache) Get(ctx context.Context, id string) (*model.TutorSession, error) {
	data, err := c.client.Get(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, err
	}
	var session model.TutorSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	c.client.Expire(ctx, sessionKey(id), sessionTTL)
	return &session, nil
}

func (c *sessionCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, sessionKey(id)).Err()
}
