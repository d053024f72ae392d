package relay

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eldtechnologies/relay/internal/metrics"
)

// waitRegistry owns one sticky wake signal per recipient. A signal is a
// single-slot channel: signal stores a token if none is pending, wait consumes
// it. Repeated signals before a wait coalesce into one wake-up.
//
// The map is guarded by the Relay mutex, which the registry shares.
type waitRegistry struct {
	mu      *sync.Mutex
	signals map[string]chan struct{}
	waiting atomic.Int64
}

func newWaitRegistry(mu *sync.Mutex) *waitRegistry {
	return &waitRegistry{
		mu:      mu,
		signals: make(map[string]chan struct{}),
	}
}

// getOrCreate returns the signal for name, registering it on first use.
func (w *waitRegistry) getOrCreate(name string) chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.getOrCreateLocked(name)
}

func (w *waitRegistry) getOrCreateLocked(name string) chan struct{} {
	ch, ok := w.signals[name]
	if !ok {
		ch = make(chan struct{}, 1)
		w.signals[name] = ch
	}
	return ch
}

// signal sets the flag for name. At most one blocked waiter wakes; if nobody
// is waiting the flag stays set until the next wait.
func (w *waitRegistry) signal(name string) {
	ch := w.getOrCreate(name)
	select {
	case ch <- struct{}{}:
	default:
	}
}

// wait blocks until the flag for name is set, timeout elapses or ctx is done.
// It must be called without the shared lock held. The reason for returning is
// deliberately not reported: callers re-check the inbox either way.
func (w *waitRegistry) wait(ctx context.Context, name string, timeout time.Duration) {
	ch := w.getOrCreate(name)

	if timeout <= 0 {
		select {
		case <-ch:
		default:
		}
		return
	}

	w.waiting.Add(1)
	metrics.ActiveWaiters.Inc()
	defer func() {
		w.waiting.Add(-1)
		metrics.ActiveWaiters.Dec()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
	case <-timer.C:
	case <-ctx.Done():
	}
}

// count returns the number of registered signals. Caller holds the lock.
func (w *waitRegistry) count() int {
	return len(w.signals)
}

// reset drops every signal. Caller holds the lock. Waiters blocked on a
// dropped signal keep waiting until their timeout.
func (w *waitRegistry) reset() {
	w.signals = make(map[string]chan struct{})
}
