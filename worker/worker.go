// Package worker implements the bounded, single-consumer delivery queue
// that decouples capture-time submission from network I/O.
package worker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/relaycore/telemetry/ratelimit"
	"github.com/relaycore/telemetry/transport"
)

// DefaultCapacity is the hard queue cap spec §4.8 mandates.
const DefaultCapacity = 100

// DefaultSendTimeout bounds a single transport.Send call.
const DefaultSendTimeout = 30 * time.Second

// DropReason tags why a submitted item never reached the transport.
type DropReason string

const (
	DropQueueOverflow  DropReason = "queue_overflow"
	DropRateLimited    DropReason = "ratelimit_backoff"
	DropAfterShutdown  DropReason = "after_shutdown"
	DropSendFailed     DropReason = "send_failed"
)

type queuedItem struct {
	payload  []byte
	category ratelimit.Category
}

// Worker drains a bounded FIFO on a single delivery goroutine, honouring
// the rate-limit ledger and supporting deadline-bound flush and shutdown.
type Worker struct {
	mu            sync.Mutex
	workAvailable *sync.Cond
	drained       *sync.Cond

	queue        []queuedItem
	capacity     int
	inFlight     int
	shuttingDown bool

	transport   transport.Transport
	ledger      *ratelimit.Ledger
	sendTimeout time.Duration
	onDrop      func(DropReason)

	group errgroup.Group
	done  chan struct{}
}

// Option configures a Worker at construction time.
type Option func(*Worker)

// WithCapacity overrides the default queue cap.
func WithCapacity(n int) Option {
	return func(w *Worker) { w.capacity = n }
}

// WithSendTimeout overrides the per-send context deadline.
func WithSendTimeout(d time.Duration) Option {
	return func(w *Worker) { w.sendTimeout = d }
}

// WithDropCallback installs a hook invoked whenever an item is discarded
// without reaching the transport.
func WithDropCallback(fn func(DropReason)) Option {
	return func(w *Worker) { w.onDrop = fn }
}

// New constructs a Worker and starts its delivery goroutine.
func New(t transport.Transport, ledger *ratelimit.Ledger, opts ...Option) *Worker {
	w := &Worker{
		capacity:    DefaultCapacity,
		transport:   t,
		ledger:      ledger,
		sendTimeout: DefaultSendTimeout,
		done:        make(chan struct{}),
	}
	w.workAvailable = sync.NewCond(&w.mu)
	w.drained = sync.NewCond(&w.mu)
	for _, opt := range opts {
		opt(w)
	}
	w.group.Go(func() error {
		w.loop()
		return nil
	})
	go func() {
		_ = w.group.Wait()
		close(w.done)
	}()
	return w
}

// Submit enqueues payload under category. The worker takes ownership of
// payload on success. If the queue is full, the oldest item is dropped to
// make room. If the worker is shutting down, the item is rejected
// immediately and the caller retains ownership.
func (w *Worker) Submit(payload []byte, category ratelimit.Category) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.shuttingDown {
		w.reportDrop(DropAfterShutdown)
		return errShuttingDown
	}

	if len(w.queue) >= w.capacity {
		w.queue = w.queue[1:]
		w.reportDrop(DropQueueOverflow)
	}
	w.queue = append(w.queue, queuedItem{payload: payload, category: category})
	w.workAvailable.Signal()
	return nil
}

// Flush waits until the queue and in-flight count both reach zero, or
// until timeout elapses. Returns true iff fully drained by the deadline.
func (w *Worker) Flush(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		t := time.NewTimer(timeout)
		defer t.Stop()
		select {
		case <-t.C:
			w.mu.Lock()
			w.drained.Broadcast()
			w.mu.Unlock()
		case <-stop:
		}
	}()

	w.mu.Lock()
	defer w.mu.Unlock()
	for (len(w.queue) > 0 || w.inFlight > 0) && time.Now().Before(deadline) {
		w.drained.Wait()
	}
	return len(w.queue) == 0 && w.inFlight == 0
}

// Shutdown signals the delivery goroutine to exit once its queue drains and
// joins it, up to timeout. After Shutdown returns, Submit rejects further
// items.
func (w *Worker) Shutdown(timeout time.Duration) {
	w.mu.Lock()
	w.shuttingDown = true
	w.workAvailable.Broadcast()
	w.mu.Unlock()

	select {
	case <-w.done:
	case <-time.After(timeout):
	}
}

func (w *Worker) loop() {
	for {
		w.mu.Lock()
		for len(w.queue) == 0 && !w.shuttingDown {
			w.workAvailable.Wait()
		}
		if len(w.queue) == 0 && w.shuttingDown {
			w.mu.Unlock()
			return
		}

		it := w.queue[0]
		w.queue = w.queue[1:]
		w.inFlight++
		w.mu.Unlock()

		w.deliver(it)

		w.mu.Lock()
		w.inFlight--
		if len(w.queue) == 0 && w.inFlight == 0 {
			w.drained.Broadcast()
		}
		w.mu.Unlock()
	}
}

func (w *Worker) deliver(it queuedItem) {
	if !w.ledger.MaySend(it.category, time.Now()) {
		w.reportDrop(DropRateLimited)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.sendTimeout)
	defer cancel()
	accepted, err := w.transport.Send(ctx, it.payload, it.category, w.ledger)
	if err != nil || !accepted {
		w.reportDrop(DropSendFailed)
	}
}

func (w *Worker) reportDrop(reason DropReason) {
	if w.onDrop != nil {
		w.onDrop(reason)
	}
}

// QueueLength reports the current queue depth, for diagnostics and tests.
func (w *Worker) QueueLength() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

type shutdownError struct{}

func (shutdownError) Error() string { return "worker: shutting down, item rejected" }

var errShuttingDown error = shutdownError{}
