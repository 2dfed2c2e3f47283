package edits

import (
	"sync"

	"github.com/Veraticus/reckless-spender/internal/model"
)

// pendingEdit is one optimistic edit whose store call has not returned.
type pendingEdit struct {
	snapshot model.Snapshot
	// restore is the value the field goes back to if this edit fails. It
	// starts as the snapshot's value and is rebased when an earlier edit on
	// the same field fails first.
	restore    model.FieldValue
	superseded bool
}

// lockEntry is the per-transaction slot of the arena. Its mutex serializes
// every cache mutation for one transaction id, and it owns the pending edit
// chains for that id.
type lockEntry struct {
	chains map[model.Field][]*pendingEdit
	mu     sync.Mutex
	refs   int
}

func (e *lockEntry) pendingCount() int {
	n := 0
	for _, chain := range e.chains {
		n += len(chain)
	}
	return n
}

// keyLock is an arena of per-id mutexes. Entries are created on demand and
// dropped once nobody holds or waits on them and nothing is pending.
type keyLock struct {
	entries map[int64]*lockEntry
	mu      sync.Mutex
}

func newKeyLock() *keyLock {
	return &keyLock{entries: make(map[int64]*lockEntry)}
}

// lock acquires the entry for id.
func (k *keyLock) lock(id int64) *lockEntry {
	k.mu.Lock()
	e, ok := k.entries[id]
	if !ok {
		e = &lockEntry{chains: make(map[model.Field][]*pendingEdit)}
		k.entries[id] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return e
}

// unlock releases an entry obtained from lock.
func (k *keyLock) unlock(id int64, e *lockEntry) {
	k.mu.Lock()
	e.refs--
	if e.refs == 0 && e.pendingCount() == 0 {
		delete(k.entries, id)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}

// pending reports how many edits are in flight for id.
func (k *keyLock) pending(id int64) int {
	k.mu.Lock()
	e, ok := k.entries[id]
	if !ok {
		k.mu.Unlock()
		return 0
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	defer k.unlock(id, e)
	return e.pendingCount()
}
