package schedule

import (
	"sort"
	"time"
)

// Manual is a Scheduler driven by explicit calls to Advance. Callbacks run
// synchronously on the caller, ordered by due time and then by the order in
// which they were armed.
type Manual struct {
	now   time.Time
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	due   time.Time
	every time.Duration
	seq   int
	fn    func()
	dead  bool
}

// NewManual creates a manual scheduler whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time { return m.now }

func (m *Manual) After(d time.Duration, fn func()) Cancel {
	return m.add(d, 0, fn)
}

func (m *Manual) Every(d time.Duration, fn func()) Cancel {
	return m.add(d, d, fn)
}

func (m *Manual) add(d, every time.Duration, fn func()) Cancel {
	m.seq++
	t := &manualTask{due: m.now.Add(d), every: every, seq: m.seq, fn: fn}
	m.tasks = append(m.tasks, t)
	return func() { t.dead = true }
}

// Advance moves the clock forward by d, firing everything that falls due.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		t := m.next(target)
		if t == nil {
			break
		}
		m.now = t.due
		if t.every > 0 {
			t.due = t.due.Add(t.every)
		} else {
			t.dead = true
		}
		t.fn()
	}
	m.now = target
	m.compact()
}

// Pending reports how many callbacks are still armed.
func (m *Manual) Pending() int {
	m.compact()
	return len(m.tasks)
}

func (m *Manual) next(limit time.Time) *manualTask {
	live := make([]*manualTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		if !t.dead && !t.due.After(limit) {
			live = append(live, t)
		}
	}
	if len(live) == 0 {
		return nil
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].due.Equal(live[j].due) {
			return live[i].seq < live[j].seq
		}
		return live[i].due.Before(live[j].due)
	})
	return live[0]
}

func (m *Manual) compact() {
	kept := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.dead {
			kept = append(kept, t)
		}
	}
	m.tasks = kept
}
