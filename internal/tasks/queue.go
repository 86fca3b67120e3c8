// Package tasks implements a small Redis-backed background job queue
// used for notification fan-out and outbound email.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pavelchamgl/analog-threads/internal/middleware"
	"github.com/pavelchamgl/analog-threads/internal/observability"
)

const queueKey = "tasks:queue"

// Job is a unit of background work. Payload is kind-specific JSON.
type Job struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Handler processes the payload of a single job.
type Handler func(ctx context.Context, payload []byte) error

// Queue is a Redis-list backed FIFO job queue with a worker pool.
type Queue struct {
	rdb     *redis.Client
	workers int

	mu       sync.RWMutex
	handlers map[string]Handler

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue creates a queue draining jobs with the given number of workers.
func NewQueue(rdb *redis.Client, workers int) *Queue {
	if workers < 1 {
		workers = 1
	}
	return &Queue{
		rdb:      rdb,
		workers:  workers,
		handlers: make(map[string]Handler),
	}
}

// Handle registers the handler for a job kind. Must be called before Start.
func (q *Queue) Handle(kind string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[kind] = h
}

// Enqueue pushes a job onto the queue. The payload is marshalled to JSON.
func (q *Queue) Enqueue(ctx context.Context, kind string, payload interface{}) error {
	if q.rdb == nil {
		return errors.New("task queue has no redis client")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{
		ID:         uuid.NewString(),
		Kind:       kind,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := q.rdb.LPush(ctx, queueKey, data).Err(); err != nil {
		middleware.RedisErrors.WithLabelValues("lpush").Inc()
		return err
	}
	observability.TaskQueueDepth.Inc()
	return nil
}

// Start launches the worker pool. Workers run until Stop is called.
func (q *Queue) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

// Stop cancels the workers and waits for in-flight jobs to finish.
func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := q.rdb.BRPop(ctx, time.Second, queueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			middleware.RedisErrors.WithLabelValues("brpop").Inc()
			time.Sleep(time.Second)
			continue
		}
		if len(res) < 2 {
			continue
		}
		observability.TaskQueueDepth.Dec()
		q.process(ctx, []byte(res[1]))
	}
}

func (q *Queue) process(ctx context.Context, data []byte) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		middleware.Logger.Error("discarding malformed job", "error", err)
		observability.TasksProcessed.WithLabelValues("unknown", "malformed").Inc()
		return
	}

	q.mu.RLock()
	handler, ok := q.handlers[job.Kind]
	q.mu.RUnlock()
	if !ok {
		middleware.Logger.Error("no handler for job kind", "kind", job.Kind, "job_id", job.ID)
		observability.TasksProcessed.WithLabelValues(job.Kind, "unhandled").Inc()
		return
	}

	start := time.Now()
	if err := handler(ctx, job.Payload); err != nil {
		middleware.Logger.Error("job failed",
			"kind", job.Kind, "job_id", job.ID, "error", err, "elapsed", time.Since(start))
		observability.TasksProcessed.WithLabelValues(job.Kind, "error").Inc()
		return
	}
	observability.TasksProcessed.WithLabelValues(job.Kind, "ok").Inc()
}

// Depth returns the number of jobs currently waiting in the queue.
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, queueKey).Result()
}
