package statsd

import (
	"sync"
	"time"
)

// LongTaskTimer tracks tasks that are still running. Each poll tick
// publishes two gauges distinguished by a statistic tag, the number of
// active tasks and their summed running time in milliseconds. Like plain
// gauges, a tick that reads the same values as the last publication is
// suppressed unless WithPublishUnchanged is set.
type LongTaskTimer struct {
	reg          *Registry
	activeLine   *lineBuilder
	durationLine *lineBuilder

	mu     sync.Mutex
	active map[*LongTaskSample]time.Time

	publishUnchanged bool
	lastActive       float64
	lastDuration     float64
}

// LongTaskSample is one running task started from a LongTaskTimer.
type LongTaskSample struct {
	timer *LongTaskTimer
	stop  sync.Once
}

func newLongTaskTimer(reg *Registry, activeLine, durationLine *lineBuilder) *LongTaskTimer {
	return &LongTaskTimer{
		reg:              reg,
		activeLine:       activeLine,
		durationLine:     durationLine,
		active:           make(map[*LongTaskSample]time.Time),
		publishUnchanged: reg.opts.PublishUnchanged,
		lastActive:       -1,
		lastDuration:     -1,
	}
}

// Start begins tracking a task. The returned sample must be stopped by the
// caller when the task finishes.
func (t *LongTaskTimer) Start() *LongTaskSample {
	s := &LongTaskSample{timer: t}
	t.mu.Lock()
	t.active[s] = t.reg.opts.Clock.Now()
	t.mu.Unlock()
	return s
}

// Stop ends the task and returns how long it ran. Stopping twice is safe,
// later calls return zero.
func (s *LongTaskSample) Stop() time.Duration {
	var d time.Duration
	s.stop.Do(func() {
		t := s.timer
		t.mu.Lock()
		start, ok := t.active[s]
		delete(t.active, s)
		t.mu.Unlock()
		if ok {
			d = t.reg.opts.Clock.Now().Sub(start)
		}
	})
	return d
}

// ActiveTasks returns the number of tasks currently running.
func (t *LongTaskTimer) ActiveTasks() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

// Duration returns the summed running time of all active tasks.
func (t *LongTaskTimer) Duration() time.Duration {
	_, ms := t.sample()
	return msToDuration(ms)
}

func (t *LongTaskTimer) sample() (active float64, durationMs float64) {
	now := t.reg.opts.Clock.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, start := range t.active {
		durationMs += float64(now.Sub(start)) / float64(time.Millisecond)
	}
	return float64(len(t.active)), durationMs
}

func (t *LongTaskTimer) poll() {
	active, durationMs := t.sample()

	if t.publishUnchanged || active != t.lastActive {
		t.lastActive = active
		t.reg.publish(t.activeLine.gauge(active))
	}
	if t.publishUnchanged || durationMs != t.lastDuration {
		t.lastDuration = durationMs
		t.reg.publish(t.durationLine.gauge(durationMs))
	}
}
