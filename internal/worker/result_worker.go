package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/dewelsk/vk-testing-backend/internal/config"
	"github.com/dewelsk/vk-testing-backend/internal/model"
	"github.com/dewelsk/vk-testing-backend/internal/service"
)

const resultPollTimeout = 1 * time.Second

// ResultWorker drains the archive queue and writes completed session
// outcomes into the immutable result table. Queue-driven only: it wakes on
// enqueued items, never on a timer, so it performs no state transitions of
// its own. The insert is idempotent per session, which makes redelivery
// after a crash harmless.
type ResultWorker struct {
	results service.ResultStore
	rdb     *redis.Client
	log     zerolog.Logger
}

// NewResultWorker creates a new ResultWorker.
func NewResultWorker(results service.ResultStore, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		results: results,
		rdb:     rdb,
		log:     log.With().Str("component", "result_worker").Logger(),
	}
}

// Start runs the worker loop until the context is cancelled, then drains
// whatever is still queued before returning.
func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Draining archive queue...")
			w.drain()
			return

		default:
			item, err := w.rdb.BLPop(ctx, resultPollTimeout, config.WorkerKey.ArchiveResultsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}
			w.process(ctx, []byte(item[1]))
		}
	}
}

// drain empties the queue without blocking. Runs on a fresh context because
// the loop context is already cancelled.
func (w *ResultWorker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for {
		raw, err := w.rdb.LPop(ctx, config.WorkerKey.ArchiveResultsQueue).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				w.log.Error().Err(err).Msg("drain LPop error")
			}
			return
		}
		w.process(ctx, []byte(raw))
	}
}

func (w *ResultWorker) process(ctx context.Context, raw []byte) {
	var res model.TestResult
	if err := json.Unmarshal(raw, &res); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return
	}

	if err := w.results.Insert(ctx, &res); err != nil {
		w.log.Error().Err(err).Str("session_id", res.SessionID.String()).Msg("archive insert failed — requeueing")
		w.rdb.RPush(ctx, config.WorkerKey.ArchiveResultsQueue, raw)
		return
	}

	w.log.Debug().Str("session_id", res.SessionID.String()).Msg("result archived")
}

// RedisResultQueue is the producer side of the archive queue.
type RedisResultQueue struct {
	rdb *redis.Client
}

// NewRedisResultQueue creates a new RedisResultQueue.
func NewRedisResultQueue(rdb *redis.Client) *RedisResultQueue {
	return &RedisResultQueue{rdb: rdb}
}

// Enqueue pushes a completed session's outcome onto the archive queue.
func (q *RedisResultQueue) Enqueue(ctx context.Context, res *model.TestResult) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return q.rdb.RPush(ctx, config.WorkerKey.ArchiveResultsQueue, raw).Err()
}
