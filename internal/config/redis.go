package config

import (
	"context"
	"crypto/tls"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds the shared Redis client.  Redis backs four
// concerns in this engine: the crowd count cache, the crowd pub/sub
// fabric, the admission rate limiter and the public response cache.
// All four degrade gracefully, so when the initial ping fails this
// returns nil and the engine runs in pull-only mode with no throttle
// and no caching.
//
// Environment: REDIS_ADDR (host:port; REDIS_HOST + REDIS_PORT take
// precedence), REDIS_PASSWORD, REDIS_DB, REDIS_TLS.
func NewRedisClient() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		addr = "localhost:6379"
	}

	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	opts := &redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}
	if v := os.Getenv("REDIS_TLS"); strings.EqualFold(v, "true") || v == "1" {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis: unavailable at %s (%v); crowd push, rate limiting and response caching disabled", addr, err)
		return nil
	}
	return client
}
