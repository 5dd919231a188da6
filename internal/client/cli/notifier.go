package cli

import (
	"sync"
	"time"
)

// termNotifier fires reminders in-process with timers. Reminders whose
// time has passed fire right away.
type termNotifier struct {
	mu      sync.Mutex
	timers  map[int64]*time.Timer
	now     func() time.Time
	notify  func(taskID int64, title string)
	stopped bool
}

func newTermNotifier(notify func(taskID int64, title string)) *termNotifier {
	return &termNotifier{
		timers: make(map[int64]*time.Timer),
		now:    time.Now,
		notify: notify,
	}
}

func (n *termNotifier) Schedule(taskID int64, title string, at time.Time) {
	n.mu.Lock()
	if n.stopped {
		n.mu.Unlock()
		return
	}
	if t, ok := n.timers[taskID]; ok {
		t.Stop()
		delete(n.timers, taskID)
	}

	d := at.Sub(n.now())
	if d <= 0 {
		n.mu.Unlock()
		n.notify(taskID, title)
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		n.mu.Lock()
		if n.timers[taskID] != timer {
			n.mu.Unlock()
			return
		}
		delete(n.timers, taskID)
		n.mu.Unlock()
		n.notify(taskID, title)
	})
	n.timers[taskID] = timer
	n.mu.Unlock()
}

func (n *termNotifier) Cancel(taskID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if t, ok := n.timers[taskID]; ok {
		t.Stop()
		delete(n.timers, taskID)
	}
}

// Pending returns the number of reminders waiting to fire.
func (n *termNotifier) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.timers)
}

// Stop cancels every pending reminder and ignores later schedules.
func (n *termNotifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, t := range n.timers {
		t.Stop()
		delete(n.timers, id)
	}
	n.stopped = true
}
