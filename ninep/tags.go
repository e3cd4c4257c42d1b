package ninep

import "sync"

// MAX_TAG is the highest allocatable tag; NO_TAG is reserved for the
// version exchange.
const MAX_TAG = 0xFFFE

// tagArena hands out request tags. A tag stays owned until released, which
// happens only after its reply arrives or a flush of it is acknowledged, so
// no two in-flight requests ever share a tag.
type tagArena struct {
	mu   sync.Mutex
	next uint32
	free []Tag
}

func (a *tagArena) acquire() (Tag, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n := len(a.free); n > 0 {
		t := a.free[n-1]
		a.free = a.free[:n-1]
		return t, true
	}
	if a.next > MAX_TAG {
		return 0, false
	}
	t := Tag(a.next)
	a.next++
	return t, true
}

func (a *tagArena) release(t Tag) {
	a.mu.Lock()
	a.free = append(a.free, t)
	a.mu.Unlock()
}

func (a *tagArena) reset() {
	a.mu.Lock()
	a.next = 0
	a.free = a.free[:0]
	a.mu.Unlock()
}
