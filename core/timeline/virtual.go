package timeline

import (
	"container/heap"
	"sync"
	"time"
)

// Virtual is a Timeline whose clock only moves when Advance is called.
// Callbacks run on the goroutine calling Advance, in due-time order; entries
// due at the same instant run in the order they were scheduled.
type Virtual struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	queue entryHeap
}

// NewVirtual returns a Virtual clock starting at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

func (v *Virtual) AfterFunc(d time.Duration, fn func()) Timer {
	return v.schedule(d, 0, fn)
}

func (v *Virtual) Every(d time.Duration, fn func()) Timer {
	if d <= 0 {
		d = time.Millisecond
	}
	return v.schedule(d, d, fn)
}

func (v *Virtual) schedule(d, period time.Duration, fn func()) *entry {
	if d < 0 {
		d = 0
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	e := &entry{owner: v, at: v.now.Add(d), period: period, fn: fn}
	v.push(e)
	return e
}

// push must be called with v.mu held.
func (v *Virtual) push(e *entry) {
	v.seq++
	e.seq = v.seq
	heap.Push(&v.queue, e)
}

// Advance moves the clock forward by d, firing every action that falls due.
// Actions scheduled by callbacks are honoured if they fall due within the
// same window.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now.Add(d)
	v.mu.Unlock()
	v.advanceTo(target)
}

func (v *Virtual) advanceTo(target time.Time) {
	for {
		v.mu.Lock()
		if len(v.queue) == 0 || v.queue[0].at.After(target) {
			v.now = target
			v.mu.Unlock()
			return
		}
		e := heap.Pop(&v.queue).(*entry)
		if e.stopped {
			v.mu.Unlock()
			continue
		}
		v.now = e.at
		if e.period > 0 {
			e.at = e.at.Add(e.period)
			v.push(e)
		} else {
			e.stopped = true
		}
		fn := e.fn
		v.mu.Unlock()
		fn()
	}
}

// Pending returns the number of scheduled actions that have not fired or
// been stopped.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, e := range v.queue {
		if !e.stopped {
			n++
		}
	}
	return n
}

type entry struct {
	owner   *Virtual
	at      time.Time
	seq     uint64
	period  time.Duration
	fn      func()
	stopped bool
	index   int
}

func (e *entry) Stop() bool {
	e.owner.mu.Lock()
	defer e.owner.mu.Unlock()
	if e.stopped {
		return false
	}
	e.stopped = true
	return true
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}
