package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestNewRedisClientUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisClient(ctx, "redis://127.0.0.1:1/0")
	assert.Error(t, err)

	_, err = NewRedisClient(ctx, "not a url")
	assert.Error(t, err)
}

func TestRedisCacheUnreachableIsAMiss(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer client.Close()

	c := NewRedisCache[int](client, "spendings:test:", time.Minute, nil)
	c.Set(ctx, "a", 1)

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size(ctx))
	c.Purge(ctx)
	assert.Equal(t, "spendings:test:a", c.key("a"))
}
