package ninep

import (
	"container/heap"
	"sync"
)

// Fid numbers handed to servers come from this range. Numbers below
// FID_POOL_START are left for fixed uses (the root fid, afids).
const (
	FID_POOL_START = 1024
	FID_POOL_END   = 65535
)

// fidInfo is the client-side record of a live fid.
type fidInfo struct {
	qid    Qid // cloned, owned by the record
	path   string
	mode   OpenMode
	opened bool
	iounit uint32
}

type fidHeap []Fid

func (h fidHeap) Len() int            { return len(h) }
func (h fidHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h fidHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *fidHeap) Push(x interface{}) { *h = append(*h, x.(Fid)) }
func (h *fidHeap) Pop() interface{} {
	old := *h
	n := len(old)
	f := old[n-1]
	*h = old[:n-1]
	return f
}

// fidTable allocates fids smallest-free-first and tracks what the server
// knows about each one. Lookup or release of a fid that is not live
// reports ErrStaleFid.
type fidTable struct {
	mu   sync.Mutex
	next Fid
	free fidHeap
	live map[Fid]*fidInfo
}

func newFidTable() *fidTable {
	return &fidTable{
		next: FID_POOL_START,
		live: make(map[Fid]*fidInfo),
	}
}

func (t *fidTable) acquire() (Fid, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var f Fid
	if t.free.Len() > 0 {
		f = heap.Pop(&t.free).(Fid)
	} else {
		if t.next > FID_POOL_END {
			return NO_FID, ErrFidsExhausted
		}
		f = t.next
		t.next++
	}
	t.live[f] = &fidInfo{}
	return f, nil
}

func (t *fidTable) lookup(f Fid) (*fidInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	info, ok := t.live[f]
	if !ok {
		return nil, ErrStaleFid
	}
	return info, nil
}

func (t *fidTable) release(f Fid) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.live[f]; !ok {
		return ErrStaleFid
	}
	delete(t.live, f)
	if f >= FID_POOL_START && f <= FID_POOL_END {
		heap.Push(&t.free, f)
	}
	return nil
}

// drain empties the table and returns every fid that was live, for clunking
// at session close.
func (t *fidTable) drain() []Fid {
	t.mu.Lock()
	defer t.mu.Unlock()
	fids := make([]Fid, 0, len(t.live))
	for f := range t.live {
		fids = append(fids, f)
	}
	t.live = make(map[Fid]*fidInfo)
	t.free = t.free[:0]
	t.next = FID_POOL_START
	return fids
}
