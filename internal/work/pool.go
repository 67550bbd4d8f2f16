package work

import (
	"errors"
	"runtime"
	"sync"
)

// ErrClosed is returned by Submit after the pool has been closed.
var ErrClosed = errors.New("work: pool closed")

// Pool runs submitted tasks on a fixed set of worker goroutines.
type Pool struct {
	tasks   chan func()
	pending sync.WaitGroup
	done    sync.WaitGroup

	// mu guards closed. Submitters hold the read side across the channel
	// send so Close cannot close the channel under an in-flight Submit.
	mu     sync.RWMutex
	closed bool
}

// NewPool starts a pool with the given number of workers.
// workers <= 0 selects NumCPU.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	p := &Pool{
		tasks: make(chan func(), workers),
	}
	p.done.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer p.done.Done()
			for task := range p.tasks {
				task()
			}
		}()
	}
	return p
}

// Submit queues a task for execution. It blocks when all workers are busy
// and the queue is full.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	p.pending.Add(1)
	p.tasks <- func() {
		defer p.pending.Done()
		task()
	}
	return nil
}

// Wait blocks until every task submitted so far has finished.
func (p *Pool) Wait() {
	p.pending.Wait()
}

// Close stops accepting tasks, waits for queued work to drain, and
// releases the workers. Close is idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.done.Wait()
}
