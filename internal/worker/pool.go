// Package worker runs the summarization worker pool. Workers pull document
// IDs off the queue and hand them to the pipeline; the pool drains cleanly on
// shutdown.
package worker

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Queue is the dequeue side of the pipeline queue.
type Queue interface {
	Dequeue(ctx context.Context) (string, error)
}

// Processor runs the pipeline for one document.
type Processor interface {
	Process(ctx context.Context, documentID string) error
}

// Pool is a fixed-size pool of pipeline workers.
type Pool struct {
	queue     Queue
	processor Processor
	size      int
	logger    *logrus.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewPool creates a worker pool of the given size (minimum 1).
func NewPool(queue Queue, processor Processor, size int) *Pool {
	if size < 1 {
		size = 1
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &Pool{
		queue:     queue,
		processor: processor,
		size:      size,
		logger:    logger,
	}
}

// Start launches the workers. They run until Stop is called or the parent
// context is cancelled.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	p.logger.WithField("workers", p.size).Info("Starting pipeline worker pool")

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
}

// Stop cancels the workers and waits for in-flight runs to finish.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.logger.Info("Pipeline worker pool stopped")
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()

	log := p.logger.WithField("worker", id)
	log.Debug("Worker started")

	for {
		select {
		case <-ctx.Done():
			log.Debug("Worker stopping")
			return
		default:
		}

		documentID, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Warn("Dequeue failed")
			continue
		}
		if documentID == "" {
			// Poll timeout, loop to re-check shutdown
			continue
		}

		log.WithFields(logrus.Fields{
			"document_id": documentID,
		}).Info("Worker picked up document")

		if err := p.processor.Process(ctx, documentID); err != nil {
			log.WithFields(logrus.Fields{
				"document_id": documentID,
			}).WithError(err).Error("Pipeline run errored")
		}
	}
}
