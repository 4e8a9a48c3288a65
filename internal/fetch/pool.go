package fetch

import (
	"context"
	"sync"
	"time"
)

type RefreshTask func(ctx context.Context) error

type TaskResult struct {
	Label string
	Err   error
}

// Pool runs refresh tasks on a bounded set of workers with an optional
// global rate limit, used by the bulk refresh path.
type Pool struct {
	workers int
	tasks   chan labeledTask
	wg      sync.WaitGroup
	mu      sync.RWMutex
	rate    <-chan time.Time
	ticker  *time.Ticker
}

type labeledTask struct {
	label string
	run   RefreshTask
}

func NewPool(workers, buffer int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	return &Pool{
		workers: workers,
		tasks:   make(chan labeledTask, buffer),
	}
}

// SetRateLimit caps task starts at rps per second across all workers.
// Zero or negative disables the limit.
func (p *Pool) SetRateLimit(rps int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	if p.ticker != nil {
		p.ticker.Stop()
		p.ticker = nil
		p.rate = nil
	}
	p.mu.Unlock()
	if rps <= 0 {
		return
	}
	t := time.NewTicker(time.Second / time.Duration(rps))
	p.mu.Lock()
	p.ticker = t
	p.rate = t.C
	p.mu.Unlock()
}

// Submit enqueues a task, blocking until buffer space frees up or ctx is
// cancelled. Returns false when the task was not accepted. Callers must keep
// draining the Run channel while submitting, or a full buffer stalls them.
func (p *Pool) Submit(ctx context.Context, label string, t RefreshTask) bool {
	if p == nil || t == nil {
		return false
	}
	select {
	case p.tasks <- labeledTask{label: label, run: t}:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *Pool) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	if p.ticker != nil {
		p.ticker.Stop()
		p.ticker = nil
		p.rate = nil
	}
	p.mu.Unlock()
	close(p.tasks)
}

// Run starts the workers and returns the result channel, which closes once
// the pool is closed and all submitted tasks have finished.
func (p *Pool) Run(ctx context.Context) <-chan TaskResult {
	out := make(chan TaskResult, p.workers*64)
	if p == nil {
		close(out)
		return out
	}

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t, ok := <-p.tasks:
					if !ok {
						return
					}
					if t.run == nil {
						continue
					}
					p.mu.RLock()
					rate := p.rate
					p.mu.RUnlock()
					if rate != nil {
						select {
						case <-ctx.Done():
							return
						case <-rate:
						}
					}
					err := t.run(ctx)
					select {
					case <-ctx.Done():
						return
					case out <- TaskResult{Label: t.label, Err: err}:
					}
				}
			}
		}()
	}

	go func() {
		p.wg.Wait()
		close(out)
	}()

	return out
}
