package statsd

import "time"

// pollable is a pull meter sampled on every poll tick.
type pollable interface {
	poll()
}

func (r *Registry) addPollable(p pollable) {
	r.pmu.Lock()
	r.pollables = append(r.pollables, p)
	r.pmu.Unlock()
}

// startPoller arms the poll loop and returns its teardown. The loop only
// exists while the registry is connected; the teardown waits for an
// in-flight tick to finish so no line is produced after it returns.
func (r *Registry) startPoller() func() {
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(r.opts.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.pollAll()
			case <-stop:
				return
			}
		}
	}()

	return func() {
		close(stop)
		<-done
	}
}

// pollAll samples every pull meter once. Meters registered while a tick is
// running are picked up on the next one.
func (r *Registry) pollAll() {
	r.pmu.Lock()
	snapshot := make([]pollable, len(r.pollables))
	copy(snapshot, r.pollables)
	r.pmu.Unlock()

	for _, p := range snapshot {
		p.poll()
	}
	r.tel.pollTicks.Add(1)
}
