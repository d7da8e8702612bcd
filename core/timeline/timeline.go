package timeline

import (
	"sync"
	"time"
)

// Timer is a scheduled action that can be cancelled.
type Timer interface {
	// Stop prevents the action from firing again. It reports whether the
	// call stopped a pending action.
	Stop() bool
}

// Timeline creates one-shot and repeating deferred actions.
type Timeline interface {
	Now() time.Time
	// AfterFunc runs fn once after d.
	AfterFunc(d time.Duration, fn func()) Timer
	// Every runs fn every d until the returned Timer is stopped.
	Every(d time.Duration, fn func()) Timer
}

// Wall is a Timeline driven by the system clock.
type Wall struct{}

func (Wall) Now() time.Time { return time.Now() }

func (Wall) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

func (Wall) Every(d time.Duration, fn func()) Timer {
	if d <= 0 {
		d = time.Millisecond
	}
	t := &ticker{t: time.NewTicker(d), done: make(chan struct{})}
	go func() {
		for {
			select {
			case <-t.t.C:
				fn()
			case <-t.done:
				return
			}
		}
	}()
	return t
}

type ticker struct {
	t    *time.Ticker
	once sync.Once
	done chan struct{}
}

func (t *ticker) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.t.Stop()
		close(t.done)
		stopped = true
	})
	return stopped
}
