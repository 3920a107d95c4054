package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	pipelineQueueKey  = "briefbase:pipeline:queue"
	compressLockKey   = "briefbase:compress:lock:"
	compressLockTTL   = 5 * time.Minute
	inProcQueueBuffer = 1024
)

// QueueService hands document IDs from the API to the worker pool. With Redis
// configured the queue survives restarts and is shared across instances;
// without it an in-process channel serves single-instance deployments.
type QueueService struct {
	client *redis.Client

	local chan string

	mu    sync.Mutex
	locks map[string]time.Time
}

// NewQueueService connects to Redis when a URL is given, otherwise falls back
// to the in-process queue.
func NewQueueService(redisURL string) (*QueueService, error) {
	q := &QueueService{
		local: make(chan string, inProcQueueBuffer),
		locks: make(map[string]time.Time),
	}

	if redisURL == "" {
		log.Println("⚠️ REDIS_URL not set, using in-process queue")
		return q, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Println("✅ Redis connection established")
	q.client = client
	return q, nil
}

// Enqueue pushes a document ID onto the pipeline queue
func (q *QueueService) Enqueue(ctx context.Context, documentID string) error {
	if q.client != nil {
		if err := q.client.LPush(ctx, pipelineQueueKey, documentID).Err(); err != nil {
			return fmt.Errorf("failed to enqueue document: %w", err)
		}
		return nil
	}

	select {
	case q.local <- documentID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("pipeline queue is full")
	}
}

// Dequeue blocks until a document ID is available or the context is done.
// Returns "" with a nil error on poll timeout so workers can re-check for
// shutdown.
func (q *QueueService) Dequeue(ctx context.Context) (string, error) {
	if q.client != nil {
		result, err := q.client.BRPop(ctx, 5*time.Second, pipelineQueueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return "", nil
			}
			return "", fmt.Errorf("failed to dequeue document: %w", err)
		}
		// BRPOP returns [key, value]
		if len(result) < 2 {
			return "", nil
		}
		return result[1], nil
	}

	select {
	case documentID := <-q.local:
		return documentID, nil
	case <-time.After(5 * time.Second):
		return "", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// AcquireCompressLock takes the per-project compression lock. Returns false
// when another compression already holds it.
func (q *QueueService) AcquireCompressLock(ctx context.Context, projectID string) (bool, error) {
	if q.client != nil {
		ok, err := q.client.SetNX(ctx, compressLockKey+projectID, time.Now().Format(time.RFC3339), compressLockTTL).Result()
		if err != nil {
			return false, fmt.Errorf("failed to acquire compress lock: %w", err)
		}
		return ok, nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if expiry, held := q.locks[projectID]; held && time.Now().Before(expiry) {
		return false, nil
	}
	q.locks[projectID] = time.Now().Add(compressLockTTL)
	return true, nil
}

// ReleaseCompressLock frees the per-project compression lock
func (q *QueueService) ReleaseCompressLock(ctx context.Context, projectID string) {
	if q.client != nil {
		if err := q.client.Del(ctx, compressLockKey+projectID).Err(); err != nil {
			log.Printf("⚠️ Failed to release compress lock for project %s: %v", projectID, err)
		}
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.locks, projectID)
}

// Close shuts down the Redis connection if one exists
func (q *QueueService) Close() error {
	if q.client != nil {
		return q.client.Close()
	}
	return nil
}
