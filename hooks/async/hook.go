// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{SelfHealEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	core, _ := shopmirror.New(shopmirror.Options{
//	    Store:    st,
//	    Provider: provider,
//	    Hooks:    hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/shopmirror"
)

// Hooks forwards events to inner on background workers. Events that do not
// fit in the queue are dropped and counted.
type Hooks struct {
	inner   shopmirror.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ shopmirror.Hooks = (*Hooks)(nil)

func New(inner shopmirror.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Later events are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) SelfHeal(c, r string) { h.try(func() { h.inner.SelfHeal(c, r) }) }
func (h *Hooks) PublishSuperseded(c string, g uint64) {
	h.try(func() { h.inner.PublishSuperseded(c, g) })
}
func (h *Hooks) ProviderSetRejected(c string) { h.try(func() { h.inner.ProviderSetRejected(c) }) }
func (h *Hooks) GenStoreError(c, op string, err error) {
	h.try(func() { h.inner.GenStoreError(c, op, err) })
}
func (h *Hooks) CacheReadError(c string, err error) {
	h.try(func() { h.inner.CacheReadError(c, err) })
}
func (h *Hooks) BlobCleanupFailed(ref string, err error) {
	h.try(func() { h.inner.BlobCleanupFailed(ref, err) })
}
func (h *Hooks) CompensationFailed(saga, step string, err error) {
	h.try(func() { h.inner.CompensationFailed(saga, step, err) })
}
