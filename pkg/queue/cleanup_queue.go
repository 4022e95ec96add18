// Package queue schedules object-store cleanup. When a listing or post
// is deleted its images stay behind in MinIO; the mutation path only
// enqueues the orphaned keys and a background consumer deletes them
// with retries, so a slow or briefly unavailable object store never
// blocks or fails the user-facing delete.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"chattala/internal/util"
)

// Cleaner enqueues image keys for deferred deletion.
type Cleaner interface {
	Enqueue(ctx context.Context, keys ...string) error
}

// RedisCleanupQueue is a Redis-stream backed Cleaner with a consumer
// group, so multiple instances share the work and crashed consumers'
// messages are reclaimed.
type RedisCleanupQueue struct {
	client       *redis.Client
	stream       string
	group        string
	consumerBase string
	maxRetries   int
	block        time.Duration
	claimIdle    time.Duration
	maxLen       int64
	once         sync.Once
}

// CleanupQueueConfig configures the queue. Zero values get defaults.
type CleanupQueueConfig struct {
	Addr       string
	Password   string
	Stream     string
	Group      string
	Consumer   string
	MaxRetries int
	Block      time.Duration
	ClaimIdle  time.Duration
	MaxLen     int64
}

// NewRedisCleanupQueue builds the queue.
func NewRedisCleanupQueue(cfg CleanupQueueConfig) (*RedisCleanupQueue, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr required")
	}
	stream := strings.TrimSpace(cfg.Stream)
	if stream == "" {
		stream = "chattala:image-cleanup"
	}
	group := strings.TrimSpace(cfg.Group)
	if group == "" {
		group = "cleanup"
	}
	consumer := strings.TrimSpace(cfg.Consumer)
	if consumer == "" {
		consumer = util.NewID()
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	block := cfg.Block
	if block <= 0 {
		block = 5 * time.Second
	}
	claimIdle := cfg.ClaimIdle
	if claimIdle <= 0 {
		claimIdle = 30 * time.Second
	}
	maxLen := cfg.MaxLen
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &RedisCleanupQueue{
		client:       redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password}),
		stream:       stream,
		group:        group,
		consumerBase: consumer,
		maxRetries:   maxRetries,
		block:        block,
		claimIdle:    claimIdle,
		maxLen:       maxLen,
	}, nil
}

// Enqueue schedules keys for deletion. Blank keys are skipped.
func (q *RedisCleanupQueue) Enqueue(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		err := q.client.XAdd(ctx, &redis.XAddArgs{
			Stream: q.stream,
			MaxLen: q.maxLen,
			Approx: true,
			Values: map[string]any{
				"key":      key,
				"attempts": "0",
			},
		}).Err()
		if err != nil {
			return err
		}
	}
	return nil
}

// Start launches consumers that call handler for each queued key until
// ctx is canceled.
func (q *RedisCleanupQueue) Start(ctx context.Context, concurrency int, handler func(context.Context, string) error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	q.ensureGroup(ctx)
	for i := 0; i < concurrency; i++ {
		consumer := q.consumerBase + "-" + strconv.Itoa(i)
		go q.consumeLoop(ctx, consumer, handler)
	}
}

func (q *RedisCleanupQueue) ensureGroup(ctx context.Context) {
	q.once.Do(func() {
		err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "$").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			slog.Warn("cleanup queue group create failed", "err", err)
		}
	})
}

func (q *RedisCleanupQueue) consumeLoop(ctx context.Context, consumer string, handler func(context.Context, string) error) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if msgs, err := q.claimPending(ctx, consumer); err == nil {
			for _, msg := range msgs {
				q.handleMessage(ctx, msg, handler)
			}
		}

		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.group,
			Consumer: consumer,
			Streams:  []string{q.stream, ">"},
			Count:    10,
			Block:    q.block,
		}).Result()
		if err != nil {
			continue
		}
		for _, stream := range streams {
			for _, msg := range stream.Messages {
				q.handleMessage(ctx, msg, handler)
			}
		}
	}
}

func (q *RedisCleanupQueue) claimPending(ctx context.Context, consumer string) ([]redis.XMessage, error) {
	res, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.stream,
		Group:    q.group,
		Consumer: consumer,
		MinIdle:  q.claimIdle,
		Start:    "0-0",
		Count:    10,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (q *RedisCleanupQueue) handleMessage(ctx context.Context, msg redis.XMessage, handler func(context.Context, string) error) {
	key, _ := msg.Values["key"].(string)
	if key == "" {
		q.ackAndDel(ctx, msg.ID)
		return
	}
	attempts := 0
	if raw, _ := msg.Values["attempts"].(string); raw != "" {
		attempts, _ = strconv.Atoi(raw)
	}

	if err := handler(ctx, key); err == nil {
		q.ackAndDel(ctx, msg.ID)
		return
	} else if attempts+1 >= q.maxRetries {
		slog.Warn("image cleanup gave up", "key", key, "attempts", attempts+1, "err", err)
		q.ackAndDel(ctx, msg.ID)
		return
	}
	if err := q.requeueAndAck(ctx, msg.ID, key, attempts+1); err != nil {
		slog.Warn("image cleanup requeue failed", "key", key, "err", err)
	}
}

func (q *RedisCleanupQueue) ackAndDel(ctx context.Context, msgID string) {
	_, _ = q.client.XAck(ctx, q.stream, q.group, msgID).Result()
	_, _ = q.client.XDel(ctx, q.stream, msgID).Result()
}

// requeueAndAck re-adds the key with an incremented attempt count and
// acks the old message in one pipeline, so the key is never lost and
// never duplicated.
func (q *RedisCleanupQueue) requeueAndAck(ctx context.Context, msgID, key string, attempts int) error {
	pipe := q.client.TxPipeline()
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		MaxLen: q.maxLen,
		Approx: true,
		Values: map[string]any{
			"key":      key,
			"attempts": strconv.Itoa(attempts),
		},
	})
	pipe.XAck(ctx, q.stream, q.group, msgID)
	pipe.XDel(ctx, q.stream, msgID)
	_, err := pipe.Exec(ctx)
	return err
}

// Noop discards cleanup requests. Used when no Redis is configured.
type Noop struct{}

func (Noop) Enqueue(context.Context, ...string) error { return nil }
