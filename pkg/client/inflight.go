package client

import "sync"

// outcome is what a completed fetch delivers to its waiters: exactly
// one of result or err.
type outcome struct {
	result *FetchResult
	err    error
}

// inFlightRegistry tracks fetches currently executing, keyed by cache
// key. The first caller for a key becomes the leader and performs the
// network operation; later callers join as waiters and receive the
// leader's outcome. Records live only in memory: a restart simply
// restarts any in-flight fetches.
type inFlightRegistry struct {
	mu    sync.Mutex
	calls map[string]*inFlightCall
}

// inFlightCall holds the waiters for one executing fetch, in join order.
type inFlightCall struct {
	waiters []chan outcome
}

func newInFlightRegistry() *inFlightRegistry {
	return &inFlightRegistry{calls: make(map[string]*inFlightCall)}
}

// begin registers interest in key. When leader is true the caller must
// perform the fetch and eventually call complete; otherwise join
// delivers the leader's outcome. Each waiter gets its own 1-buffered
// channel, so complete never blocks on a waiter that gave up.
func (r *inFlightRegistry) begin(key string) (leader bool, join <-chan outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if call, ok := r.calls[key]; ok {
		ch := make(chan outcome, 1)
		call.waiters = append(call.waiters, ch)
		return false, ch
	}

	r.calls[key] = &inFlightCall{}
	return true, nil
}

// complete delivers out to every waiter in the order they joined and
// removes the record. Only the leader calls complete, exactly once per
// begin.
func (r *inFlightRegistry) complete(key string, out outcome) {
	r.mu.Lock()
	call, ok := r.calls[key]
	delete(r.calls, key)
	r.mu.Unlock()

	if !ok {
		return
	}

	for _, ch := range call.waiters {
		ch <- out
	}
}

// inFlight reports how many fetches are currently executing.
func (r *inFlightRegistry) inFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}
