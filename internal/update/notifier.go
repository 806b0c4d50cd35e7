package update

import (
	"sync"
	"time"
)

// notifierDrainTimeout bounds how long Close waits for queued notices.
const notifierDrainTimeout = 250 * time.Millisecond

// AsyncNotifier delivers notices to another Notifier from its own
// goroutine. Notify never blocks: when the buffer is full the notice is
// dropped.
type AsyncNotifier struct {
	ch      chan string
	drained chan struct{}
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
}

// NewAsyncNotifier starts forwarding to next with a buffer of size.
func NewAsyncNotifier(next Notifier, size int) *AsyncNotifier {
	if size < 1 {
		size = 1
	}
	n := &AsyncNotifier{
		ch:      make(chan string, size),
		drained: make(chan struct{}),
	}
	go func() {
		defer close(n.drained)
		for msg := range n.ch {
			next.Notify(msg)
		}
	}()
	return n
}

// Notify queues message for delivery.
func (n *AsyncNotifier) Notify(message string) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}
	select {
	case n.ch <- message:
	default:
	}
}

// Close stops accepting notices and gives queued ones a short time to be
// delivered. A stalled receiver does not hold Close up.
func (n *AsyncNotifier) Close() {
	n.once.Do(func() {
		n.mu.Lock()
		n.closed = true
		close(n.ch)
		n.mu.Unlock()
	})

	select {
	case <-n.drained:
	case <-time.After(notifierDrainTimeout):
	}
}
