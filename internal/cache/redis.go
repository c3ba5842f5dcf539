package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/diemthi/thpt-score-backend/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// deleteBatchSize bounds how many keys a single DEL command may carry
// during pattern invalidation.
const deleteBatchSize = 100

// healthCheckInterval is how often the background monitor probes the
// backend to flip the liveness flag.
const healthCheckInterval = 15 * time.Second

// RedisStore implements Store on top of a Redis backend.
//
// It owns a liveness flag updated by its own connection events and a
// background ping monitor. Every operation checks the flag before touching
// the network, so a dead backend costs a flag read instead of a timeout on
// the hot path. Operation errors mark the store down; the monitor marks it
// back up once the backend answers pings again.
type RedisStore struct {
	rdb  *redis.Client
	log  zerolog.Logger
	live atomic.Bool
	done chan struct{}
}

// NewRedisStore creates a RedisStore and starts its health monitor.
//
// Construction never fails: if Redis is unreachable the store starts in the
// degraded state (every read a miss, every write a no-op) and recovers on
// its own when the backend comes back.
func NewRedisStore(cfg *config.Config, log zerolog.Logger) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.RedisAddr(),
		Password:        cfg.RedisPassword,
		DB:              cfg.RedisDB,
		DialTimeout:     cfg.RedisConnectTimeout,
		ReadTimeout:     cfg.RedisCommandTimeout,
		WriteTimeout:    cfg.RedisCommandTimeout,
		MaxRetries:      cfg.RedisMaxRetries,
		MinRetryBackoff: cfg.RedisRetryBackoff,
		MaxRetryBackoff: cfg.RedisMaxRetryBackoff,
	})

	s := &RedisStore{
		rdb:  rdb,
		log:  log.With().Str("component", "cache").Logger(),
		done: make(chan struct{}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RedisConnectTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		s.log.Warn().Err(err).Str("addr", cfg.RedisAddr()).
			Msg("Redis unreachable, starting in degraded mode")
	} else {
		s.live.Store(true)
		s.log.Info().Str("addr", cfg.RedisAddr()).Int("db", cfg.RedisDB).
			Msg("Redis connected")
	}

	go s.monitor()

	return s
}

// IsLive reports whether the last contact with the backend succeeded.
func (s *RedisStore) IsLive() bool {
	return s.live.Load()
}

// Close stops the health monitor and closes the underlying client.
func (s *RedisStore) Close() error {
	close(s.done)
	return s.rdb.Close()
}

// Get implements Store. Any error, including deserialization problems
// upstream, is reported as a plain miss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	if !s.IsLive() {
		return nil, false
	}

	val, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.markDown(err, "get", key)
		}
		return nil, false
	}
	return val, true
}

// Set implements Store. Errors are logged and swallowed: a failed set only
// means the next read is a miss.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if !s.IsLive() {
		return
	}

	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		s.markDown(err, "set", key)
	}
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) {
	if !s.IsLive() {
		return
	}

	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.markDown(err, "del", key)
	}
}

// DeletePattern implements Store. Keys are discovered with SCAN and removed
// in sub-batches so invalidating a large family (every cached limit of a
// ranking, every cached sbd) never issues one huge blocking command.
func (s *RedisStore) DeletePattern(ctx context.Context, pattern string) {
	if !s.IsLive() {
		return
	}

	iter := s.rdb.Scan(ctx, 0, pattern, int64(deleteBatchSize)).Iterator()

	batch := make([]string, 0, deleteBatchSize)
	flush := func() bool {
		if len(batch) == 0 {
			return true
		}
		if err := s.rdb.Del(ctx, batch...).Err(); err != nil {
			s.markDown(err, "del_pattern", pattern)
			return false
		}
		batch = batch[:0]
		return true
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= deleteBatchSize {
			if !flush() {
				return
			}
		}
	}
	if err := iter.Err(); err != nil {
		s.markDown(err, "scan", pattern)
		return
	}
	flush()
}

// Reset implements Store by flushing the whole database.
func (s *RedisStore) Reset(ctx context.Context) {
	if !s.IsLive() {
		return
	}

	if err := s.rdb.FlushDB(ctx).Err(); err != nil {
		s.markDown(err, "reset", "")
	}
}

// markDown records a failed operation and flips the store into degraded
// mode. The monitor goroutine is responsible for flipping it back.
// A canceled caller context says nothing about backend health (the client
// hung up mid-request), so it never degrades the store.
func (s *RedisStore) markDown(err error, op, key string) {
	if errors.Is(err, context.Canceled) {
		return
	}
	if s.live.CompareAndSwap(true, false) {
		s.log.Warn().Err(err).Str("op", op).Str("key", key).
			Msg("Redis operation failed, degrading to cache-miss mode")
	} else {
		s.log.Debug().Err(err).Str("op", op).Str("key", key).
			Msg("Redis operation failed while degraded")
	}
}

// monitor pings the backend periodically and maintains the liveness flag.
func (s *RedisStore) monitor() {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), healthCheckInterval/2)
			err := s.rdb.Ping(ctx).Err()
			cancel()

			if err != nil {
				if s.live.CompareAndSwap(true, false) {
					s.log.Warn().Err(err).Msg("Redis health check failed")
				}
				continue
			}
			if s.live.CompareAndSwap(false, true) {
				s.log.Info().Msg("Redis connection restored")
			}
		}
	}
}
