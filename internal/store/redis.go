package store

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedis builds a redis client with short timeouts; the connection is
// established lazily on first use.
func NewRedis(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
}
