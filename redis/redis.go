package redis

import (
	"time"

	"github.com/blindlink/guardian-connect-backend/env"
	"github.com/gomodule/redigo/redis"
)

var pool *redis.Pool

func init() {
	pool = &redis.Pool{
		MaxIdle:     4,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", env.REDIS_CONN)
		},
	}
}

// Get returns the cached value or nil on a miss.
func Get(key string) ([]byte, error) {
	c := pool.Get()
	defer c.Close()
	v, err := redis.Bytes(c.Do("GET", key))
	if err == redis.ErrNil {
		return nil, nil
	}
	return v, err
}

func SetEx(key string, ttl time.Duration, value []byte) error {
	c := pool.Get()
	defer c.Close()
	_, err := c.Do("SETEX", key, int(ttl.Seconds()), value)
	return err
}

func Del(key string) error {
	c := pool.Get()
	defer c.Close()
	_, err := c.Do("DEL", key)
	return err
}
