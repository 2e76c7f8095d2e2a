package history

import (
	"context"
	"hash/fnv"
	"sync"
)

// job is one pending write. Jobs of the same chat run in order.
type job struct {
	chatID string
	run    func(ctx context.Context) error
	name   string
}

// jobQueue runs jobs on a fixed set of workers. Each chat is pinned to one
// worker so its writes keep their order.
type jobQueue struct {
	lanes   []chan *job
	handle  func(ctx context.Context, j *job)
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.RWMutex
	stopped bool
}

func newJobQueue(workers, bufferSize int, handle func(ctx context.Context, j *job)) *jobQueue {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &jobQueue{
		lanes:  make([]chan *job, workers),
		handle: handle,
		ctx:    ctx,
		cancel: cancel,
	}
	for i := range q.lanes {
		q.lanes[i] = make(chan *job, bufferSize)
		q.wg.Add(1)
		go q.worker(q.lanes[i])
	}
	return q
}

func (q *jobQueue) worker(lane chan *job) {
	defer q.wg.Done()
	for j := range lane {
		q.handle(q.ctx, j)
	}
}

// enqueue adds j without blocking. It reports false when the queue is full
// or stopped.
func (q *jobQueue) enqueue(j *job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stopped {
		return false
	}

	select {
	case q.lanes[q.lane(j.chatID)] <- j:
		return true
	default:
		return false
	}
}

func (q *jobQueue) lane(chatID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(chatID))
	return int(h.Sum32() % uint32(len(q.lanes)))
}

// stop lets the workers finish the queued jobs. Once ctx is done the
// remaining jobs run with a cancelled context.
func (q *jobQueue) stop(ctx context.Context) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	for _, lane := range q.lanes {
		close(lane)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		q.cancel()
		<-done
	}
	q.cancel()
}

// pending returns the number of queued jobs.
func (q *jobQueue) pending() int {
	n := 0
	for _, lane := range q.lanes {
		n += len(lane)
	}
	return n
}
