package statsd

import (
	"math"
	"sync"
)

// QueueUnbounded is the capacity reported by a publish queue that grows
// without limit.
const QueueUnbounded = math.MaxInt32

// LogSilencer mutes log output for the duration of a callback. When meters
// are driven from a logging pipeline, enqueueing a line can itself produce
// log records and feed back into the same meters; installing a silencer via
// WithLogSilencer breaks that loop at the enqueue boundary.
type LogSilencer interface {
	Quietly(fn func())
}

// publishQueue is the hand-off between meter updates and the network drain.
// Producers append under a mutex and never block, whatever the backlog; the
// single consumer parks on the notify channel when the queue runs dry. The
// queue grows without bound on purpose, a stalled collector must not stall
// instrumented code.
type publishQueue struct {
	mu       sync.Mutex
	items    []string
	notify   chan struct{}
	silencer LogSilencer
}

func newPublishQueue(silencer LogSilencer) *publishQueue {
	return &publishQueue{
		notify:   make(chan struct{}, 1),
		silencer: silencer,
	}
}

func (q *publishQueue) publish(line string) {
	if q.silencer != nil {
		q.silencer.Quietly(func() { q.enqueue(line) })
		return
	}
	q.enqueue(line)
}

func (q *publishQueue) enqueue(line string) {
	q.mu.Lock()
	q.items = append(q.items, line)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// pop removes the oldest line, or returns false when the queue is empty.
func (q *publishQueue) pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return "", false
	}
	line := q.items[0]
	q.items = q.items[1:]
	if len(q.items) == 0 {
		// Drop the drained backing array so a burst does not pin memory.
		q.items = nil
	}
	return line, true
}

// next blocks until a line is available or stop is closed.
func (q *publishQueue) next(stop <-chan struct{}) (string, bool) {
	for {
		if line, ok := q.pop(); ok {
			return line, true
		}
		select {
		case <-q.notify:
		case <-stop:
			return "", false
		}
	}
}

func (q *publishQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *publishQueue) Cap() int {
	return QueueUnbounded
}
