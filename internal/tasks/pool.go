package tasks

import (
	"context"
	"log"
	"sync"
)

// Task is a fire-and-forget unit of background work. Errors are the task's
// own business; panics are recovered and logged by the pool.
type Task func(ctx context.Context)

// Pool runs background tasks on a fixed set of workers with a bounded
// queue. Submit never blocks the caller: when the queue is full the task is
// dropped with a log line, since every task here is a best-effort cache
// refresh that the next interaction will redo anyway.
type Pool struct {
	queue   chan Task
	workers int
	logger  *log.Logger
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewPool(workers, buffer int, logger *log.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Pool{
		queue:   make(chan Task, buffer),
		workers: workers,
		logger:  logger,
	}
}

// Run starts the workers. It returns immediately; workers drain the queue
// until Close is called or ctx is canceled.
func (p *Pool) Run(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t, ok := <-p.queue:
					if !ok {
						return
					}
					p.runTask(ctx, t)
				}
			}
		}()
	}
}

func (p *Pool) runTask(ctx context.Context, t Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Printf("[Tasks] panic recovered: %v", r)
		}
	}()
	t(ctx)
}

// Submit enqueues a task without blocking; a full queue or a closed pool
// drops the task. Handlers may still schedule updates while the container
// shuts the pool down, so the closed check and the send share one lock.
func (p *Pool) Submit(t Task) {
	if p == nil || t == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.logger.Printf("[Tasks] pool closed, dropping task")
		return
	}
	select {
	case p.queue <- t:
	default:
		p.logger.Printf("[Tasks] queue full, dropping task")
	}
}

// Close stops accepting tasks and waits for in-flight work to finish.
func (p *Pool) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	p.wg.Wait()
}
