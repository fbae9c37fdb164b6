package synth

import (
	"container/heap"
	"time"
)

// Task is a callback scheduled on the audio clock.
type Task struct {
	ctx      *Context
	fn       func()
	due      int64
	seq      uint64
	interval func() int64 // nil for one-shot tasks
	index    int
	done     bool
}

// After runs fn once, d of audio time from now.
func (c *Context) After(d time.Duration, fn func()) *Task {
	return c.addTask(max(c.durationToFrames(d), 0), nil, fn)
}

// Every runs fn every d of audio time, first after one full period.
func (c *Context) Every(d time.Duration, fn func()) *Task {
	frames := max(c.durationToFrames(d), 1)
	return c.addTask(frames, func() int64 { return frames }, fn)
}

// EveryFunc runs fn repeatedly, drawing each wait from next.
func (c *Context) EveryFunc(next func() time.Duration, fn func()) *Task {
	interval := func() int64 { return max(c.durationToFrames(next()), 1) }
	return c.addTask(interval(), interval, fn)
}

func (c *Context) addTask(delay int64, interval func() int64, fn func()) *Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.taskSeq++
	t := &Task{ctx: c, fn: fn, due: c.frame + delay, seq: c.taskSeq, interval: interval}
	if c.state == StateClosed {
		t.done = true
		return t
	}
	heap.Push(&c.tasks, t)
	return t
}

// PendingTasks returns the number of scheduled tasks that have not finished
// or been cancelled.
func (c *Context) PendingTasks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks)
}

// Cancel unschedules the task. Once Cancel returns the callback is not
// running and will not run again. Cancel must not be called from inside a
// task callback.
func (t *Task) Cancel() {
	c := t.ctx
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	if t.index >= 0 && t.index < len(c.tasks) && c.tasks[t.index] == t {
		heap.Remove(&c.tasks, t.index)
	}
}

// Active reports whether the task may still fire.
func (t *Task) Active() bool {
	t.ctx.mu.Lock()
	defer t.ctx.mu.Unlock()
	return !t.done
}

// dispatch runs every task due at the current frame, including tasks that
// become due because an earlier callback scheduled them with no delay.
func (c *Context) dispatch() {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()
	for {
		c.mu.Lock()
		if c.state != StateRunning || len(c.tasks) == 0 || c.tasks[0].due > c.frame {
			c.mu.Unlock()
			return
		}
		t := heap.Pop(&c.tasks).(*Task)
		if t.interval != nil {
			t.due = c.frame + t.interval()
			heap.Push(&c.tasks, t)
		} else {
			t.done = true
		}
		c.mu.Unlock()

		t.fn()
	}
}

type taskQueue []*Task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].seq < q[j].seq
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x any) {
	t := x.(*Task)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}

func (q taskQueue) nextDue() (int64, bool) {
	if len(q) == 0 {
		return 0, false
	}
	return q[0].due, true
}
