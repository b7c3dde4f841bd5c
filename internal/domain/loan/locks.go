package loan

import "sync"

// keyedMutex serializes operations per loan id. This is the single-writer
// boundary for loan state: any mutation of status or balance happens while
// holding the loan's lock, so two concurrent payments cannot both read a
// stale balance.
type keyedMutex struct {
	mu sync.Map
}

func (k *keyedMutex) lock(id string) func() {
	v, _ := k.mu.LoadOrStore(id, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
