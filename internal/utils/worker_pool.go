package utils

import (
	"fmt"
	"sync"

	"github.com/mantonx/cinecache/internal/logger"
)

// WorkerPool runs submitted jobs on a fixed number of goroutines.
// Submit never blocks; a full queue rejects the job.
type WorkerPool struct {
	workers   int
	workQueue chan func()
	stopCh    chan struct{}
	wg        sync.WaitGroup
	running   bool
	mu        sync.RWMutex

	activeMu sync.Mutex
	active   int
}

// NewWorkerPool creates a pool with the given worker count and queue size.
// A queue size below one defaults to twice the worker count.
func NewWorkerPool(workers, queueSize int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = workers * 2
	}
	return &WorkerPool{
		workers:   workers,
		workQueue: make(chan func(), queueSize),
		stopCh:    make(chan struct{}),
	}
}

// Start begins processing work items. Calling it twice has no effect.
func (wp *WorkerPool) Start() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.running {
		return
	}

	wp.running = true
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// Stop stops the pool and waits for in-flight jobs. Queued jobs that
// have not started are dropped.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if !wp.running {
		wp.mu.Unlock()
		return
	}
	wp.running = false
	close(wp.stopCh)
	wp.mu.Unlock()

	wp.wg.Wait()
}

// Submit adds a work item to the queue.
// Returns false if the queue is full or the pool is not running.
func (wp *WorkerPool) Submit(work func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if !wp.running {
		return false
	}

	select {
	case wp.workQueue <- work:
		return true
	default:
		return false
	}
}

// Pending returns the number of queued jobs that have not started
func (wp *WorkerPool) Pending() int {
	return len(wp.workQueue)
}

// Active returns the number of jobs currently running
func (wp *WorkerPool) Active() int {
	wp.activeMu.Lock()
	defer wp.activeMu.Unlock()
	return wp.active
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for {
		select {
		case work := <-wp.workQueue:
			if work != nil {
				wp.run(work)
			}
		case <-wp.stopCh:
			return
		}
	}
}

func (wp *WorkerPool) run(work func()) {
	wp.activeMu.Lock()
	wp.active++
	wp.activeMu.Unlock()

	defer func() {
		wp.activeMu.Lock()
		wp.active--
		wp.activeMu.Unlock()

		if r := recover(); r != nil {
			logger.Error("worker job panicked", "panic", fmt.Sprint(r))
		}
	}()

	work()
}
