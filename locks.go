package shopmirror

import (
	"hash/maphash"
	"sync"
)

const lockStripes = 64

// stripedLock serializes work per key within the process. Distinct keys may
// share a stripe; that only costs concurrency.
type stripedLock struct {
	seed maphash.Seed
	mu   [lockStripes]sync.Mutex
}

func newStripedLock() *stripedLock {
	return &stripedLock{seed: maphash.MakeSeed()}
}

// lock acquires the stripe for the joined key parts and returns its unlock.
func (l *stripedLock) lock(parts ...string) func() {
	var h maphash.Hash
	h.SetSeed(l.seed)
	for _, p := range parts {
		_, _ = h.WriteString(p)
		_ = h.WriteByte(0)
	}
	m := &l.mu[h.Sum64()%lockStripes]
	m.Lock()
	return m.Unlock
}
