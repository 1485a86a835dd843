package payment

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"

	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
)

// ErrSequencerStopped is returned for work submitted after Shutdown
var ErrSequencerStopped = errors.New("webhook sequencer is shut down")

// SequencedFunc is the unit of work run by a sequencer worker
type SequencedFunc func(ctx context.Context) error

// Sequencer runs work for the same key one after another on a fixed set of
// workers. Keys are hashed onto shards; different shards run concurrently.
type Sequencer struct {
	logger coreport.Logger
	shards []chan *sequencedJob

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

type sequencedJob struct {
	ctx        context.Context
	key        string
	fn         SequencedFunc
	resultChan chan error
}

// NewSequencer starts workers goroutines, each with a queue of queueSize jobs
func NewSequencer(logger coreport.Logger, workers, queueSize int) *Sequencer {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}

	s := &Sequencer{
		logger: logger,
		shards: make([]chan *sequencedJob, workers),
	}
	for i := range s.shards {
		s.shards[i] = make(chan *sequencedJob, queueSize)
		s.wg.Add(1)
		go s.work(i, s.shards[i])
	}

	logger.Info("Webhook sequencer started", map[string]any{
		"workers":    workers,
		"queue_size": queueSize,
	})
	return s
}

// Run queues fn behind earlier work for key and waits for its result.
// If ctx ends first the caller gets ctx.Err(); a job already queued is skipped
// by the worker once it sees the cancelled context.
func (s *Sequencer) Run(ctx context.Context, key string, fn SequencedFunc) error {
	resultChan := make(chan error, 1)
	job := &sequencedJob{ctx: ctx, key: key, fn: fn, resultChan: resultChan}
	shard := s.shardFor(key)

	s.mu.RLock()
	if s.stopped {
		s.mu.RUnlock()
		return ErrSequencerStopped
	}
	select {
	case s.shards[shard] <- job:
		s.mu.RUnlock()
	case <-ctx.Done():
		s.mu.RUnlock()
		s.logger.Warn("Context canceled while enqueueing webhook", map[string]any{
			"key":   key,
			"shard": shard,
			"error": ctx.Err().Error(),
		})
		return ctx.Err()
	}

	select {
	case err := <-resultChan:
		return err
	case <-ctx.Done():
		s.logger.Warn("Context canceled while waiting for webhook result", map[string]any{
			"key":   key,
			"shard": shard,
			"error": ctx.Err().Error(),
		})
		return ctx.Err()
	}
}

func (s *Sequencer) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(s.shards)))
}

func (s *Sequencer) work(shard int, queue chan *sequencedJob) {
	defer s.wg.Done()

	for job := range queue {
		if err := job.ctx.Err(); err != nil {
			job.resultChan <- err
			continue
		}

		s.logger.Debug("Processing sequenced webhook", map[string]any{
			"key":   job.key,
			"shard": shard,
		})
		job.resultChan <- s.runJob(job)
	}

	s.logger.Debug("Webhook sequencer worker stopped", map[string]any{
		"shard": shard,
	})
}

func (s *Sequencer) runJob(job *sequencedJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Sequenced webhook panicked", map[string]any{
				"key":   job.key,
				"panic": r,
			})
			err = errors.New("webhook processing panicked")
		}
	}()
	return job.fn(job.ctx)
}

// Shutdown stops accepting work, lets queued jobs finish and waits for the workers
func (s *Sequencer) Shutdown() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for _, queue := range s.shards {
		close(queue)
	}
	s.mu.Unlock()

	s.logger.Info("Shutting down webhook sequencer", nil)
	s.wg.Wait()
	s.logger.Info("Webhook sequencer shut down", nil)
}
