// Package historian drains game action records from a Redis queue and stores
// them in batches.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/muscla87/cucu-telegram-game/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ActionSink persists a batch of records.
type ActionSink interface {
	InsertActions(ctx context.Context, records []models.ActionRecord) error
}

// Options tunes a Service. Zero values fall back to the defaults.
type Options struct {
	Queue      string        // default "cucu_actions"
	BatchSize  int           // default 20
	FlushDelay time.Duration // default 500ms
	PopTimeout time.Duration // default 3s; Redis rounds anything below a second up
}

// Service pops records with BLPOP and flushes them to the sink once the batch
// is full or FlushDelay has passed since the last flush.
type Service struct {
	rdb    *redis.Client
	sink   ActionSink
	logger logrus.FieldLogger
	opts   Options

	batch     []models.ActionRecord
	lastFlush time.Time
}

func NewService(rdb *redis.Client, sink ActionSink, logger logrus.FieldLogger, opts Options) *Service {
	if opts.Queue == "" {
		opts.Queue = "cucu_actions"
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = 500 * time.Millisecond
	}
	if opts.PopTimeout <= 0 {
		opts.PopTimeout = 3 * time.Second
	}
	return &Service{
		rdb:    rdb,
		sink:   sink,
		logger: logger,
		opts:   opts,
		batch:  make([]models.ActionRecord, 0, opts.BatchSize),
	}
}

// Run blocks until ctx is cancelled, then flushes what is left and returns.
func (hs *Service) Run(ctx context.Context) {
	hs.logger.WithField("queue", hs.opts.Queue).Info("historian started")
	hs.lastFlush = time.Now()

	for ctx.Err() == nil {
		res, err := hs.rdb.BLPop(ctx, hs.opts.PopTimeout, hs.opts.Queue).Result()
		switch {
		case errors.Is(err, redis.Nil):
			// timed out with an empty queue
		case err != nil:
			if ctx.Err() == nil {
				hs.logger.WithError(err).Error("BLPOP failed")
				select {
				case <-ctx.Done():
				case <-time.After(time.Second):
				}
			}
		case len(res) == 2:
			// res[0] is the queue name and res[1] the payload.
			hs.add(res[1])
		}

		if len(hs.batch) >= hs.opts.BatchSize ||
			(len(hs.batch) > 0 && time.Since(hs.lastFlush) >= hs.opts.FlushDelay) {
			hs.flush(ctx)
		}
	}

	// ctx is done; use a fresh one so the final batch still reaches the sink.
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	hs.flush(flushCtx)
	hs.logger.Info("historian stopped")
}

// add decodes one queued payload. Invalid payloads are dropped.
func (hs *Service) add(payload string) {
	var rec models.ActionRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		hs.logger.WithError(err).Warn("dropping invalid action record")
		return
	}
	hs.batch = append(hs.batch, rec)
}

// flush hands the batch to the sink. A failed batch is retried on the next
// flush, up to ten batches' worth of records.
func (hs *Service) flush(ctx context.Context) {
	hs.lastFlush = time.Now()
	if len(hs.batch) == 0 {
		return
	}

	if err := hs.sink.InsertActions(ctx, hs.batch); err != nil {
		hs.logger.WithError(err).WithField("pending", len(hs.batch)).Error("failed to flush actions")
		if limit := 10 * hs.opts.BatchSize; len(hs.batch) > limit {
			dropped := len(hs.batch) - limit
			hs.batch = append(hs.batch[:0], hs.batch[dropped:]...)
			hs.logger.WithField("dropped", dropped).Warn("historian backlog full")
		}
		return
	}

	hs.logger.WithField("count", len(hs.batch)).Debug("flushed actions")
	hs.batch = make([]models.ActionRecord, 0, hs.opts.BatchSize)
}
