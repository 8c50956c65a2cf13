// Package historian drains the action queue into the game_actions table.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jengryg/doppelkopf-srv-sub002/internal/engine"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Sink persists a batch of records.
type Sink func(ctx context.Context, recs []engine.ActionRecord) error

// Service pops action records from Redis and writes them in batches. A batch is flushed
// when it reaches the batch size or when the flush delay elapses.
type Service struct {
	rdb        *redis.Client
	queue      string
	batchSize  int
	flushDelay time.Duration
	sink       Sink
	logger     *logrus.Logger

	batchMu sync.Mutex
	batch   []engine.ActionRecord
}

func New(rdb *redis.Client, queue string, batchSize int, flushDelay time.Duration, sink Sink, logger *logrus.Logger) *Service {
	return &Service{
		rdb:        rdb,
		queue:      queue,
		batchSize:  batchSize,
		flushDelay: flushDelay,
		sink:       sink,
		logger:     logger,
		batch:      make([]engine.ActionRecord, 0, batchSize),
	}
}

// Run consumes the queue until ctx is cancelled, then flushes what is left.
func (s *Service) Run(ctx context.Context) {
	go s.flushLoop(ctx)
	s.logger.WithField("queue", s.queue).Info("historian started")
	for {
		if ctx.Err() != nil {
			s.flush(context.Background())
			s.logger.Info("historian stopped")
			return
		}
		// A short BLPop timeout keeps cancellation responsive.
		res, err := s.rdb.BLPop(ctx, time.Second, s.queue).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				s.logger.WithError(err).Error("BLPop failed")
				time.Sleep(time.Second)
			}
			continue
		}
		// res[0] is the queue name and res[1] the payload.
		if len(res) == 2 {
			s.handle(ctx, res[1])
		}
	}
}

func (s *Service) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(s.flushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.flush(ctx)
		}
	}
}

// handle decodes one payload and flushes when the batch is full.
func (s *Service) handle(ctx context.Context, payload string) {
	var rec engine.ActionRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		s.logger.WithError(err).Warn("invalid action record")
		return
	}
	s.batchMu.Lock()
	s.batch = append(s.batch, rec)
	full := len(s.batch) >= s.batchSize
	s.batchMu.Unlock()
	if full {
		s.flush(ctx)
	}
}

func (s *Service) flush(ctx context.Context) {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	batch := make([]engine.ActionRecord, len(s.batch))
	copy(batch, s.batch)
	s.batch = s.batch[:0]
	s.batchMu.Unlock()

	if err := s.sink(ctx, batch); err != nil {
		s.logger.WithError(err).WithField("count", len(batch)).Error("failed to flush actions")
		return
	}
	s.logger.WithField("count", len(batch)).Debug("flushed actions")
}
