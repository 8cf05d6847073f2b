package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yukikurage/story-relay-api/internal/logging"
)

const (
	defaultPollTimeout = 2 * time.Second
	retryBackoff       = time.Second
)

// RedisQueue keeps jobs in a redis list so they survive API restarts and can
// be consumed by several processes. Producers LPUSH, consumers BRPOP.
type RedisQueue struct {
	rdb     *redis.Client
	key     string
	handler Handler
	workers int
	timeout time.Duration
	logger  logging.Logger

	pollTimeout time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRedisQueue(rdb *redis.Client, key string, handler Handler, workers int, timeout time.Duration, logger logging.Logger) *RedisQueue {
	if workers < 1 {
		workers = 1
	}
	return &RedisQueue{
		rdb:         rdb,
		key:         key,
		handler:     handler,
		workers:     workers,
		timeout:     timeout,
		logger:      logger,
		pollTimeout: defaultPollTimeout,
	}
}

// Start launches the consumer goroutines. They stop when ctx is cancelled or Close is called.
func (q *RedisQueue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.cancel != nil {
		return
	}

	ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.consume(ctx)
	}
}

func (q *RedisQueue) Submit(ctx context.Context, msg JobMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

func (q *RedisQueue) consume(ctx context.Context) {
	defer q.wg.Done()

	for ctx.Err() == nil {
		res, err := q.rdb.BRPop(ctx, q.pollTimeout, q.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			q.logger.Warn(ctx, "redis queue poll failed", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(retryBackoff):
			}
			continue
		}

		// res is [key, value]
		var msg JobMessage
		if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
			q.logger.Error(ctx, "dropping malformed job payload", "error", err)
			continue
		}
		runJob(q.handler, q.timeout, q.logger, msg)
	}
}

// Close stops the consumers and waits for the job each one is running.
// Jobs still in the list stay there for the next consumer.
func (q *RedisQueue) Close() error {
	q.mu.Lock()
	cancel := q.cancel
	q.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	q.wg.Wait()
	return nil
}
