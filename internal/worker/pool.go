package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Pool runs inbox conversions on a fixed number of workers so one slow
// external tool cannot stall the rest of the inbox.
type Pool struct {
	workers int
	queue   *Queue
	conv    *Converter
	log     *zap.SugaredLogger
	wg      sync.WaitGroup
}

func NewPool(workers int, queue *Queue, conv *Converter, log *zap.SugaredLogger) *Pool {
	return &Pool{workers: workers, queue: queue, conv: conv, log: log}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool) worker(ctx context.Context, idx int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-p.queue.Chan():
			if err := p.conv.Convert(ctx, path); err != nil {
				p.log.Errorw("inbox conversion failed", "worker", idx, "path", path, "error", err)
			}
			p.queue.Done(path)
		}
	}
}

// Wait blocks until all workers have exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}
