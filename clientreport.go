package telemetry

import "sync"

// DiscardReason tags why an event, transaction, session or check-in never
// reached the transport.
type DiscardReason string

const (
	DiscardQueueOverflow   DiscardReason = "queue_overflow"
	DiscardRateLimitBackoff DiscardReason = "ratelimit_backoff"
	DiscardBeforeSend      DiscardReason = "before_send"
	DiscardEventProcessor  DiscardReason = "event_processor"
	DiscardSampleRate      DiscardReason = "sample_rate"
	DiscardNetworkError    DiscardReason = "network_error"
	DiscardSendError       DiscardReason = "send_error"
)

// clientReport tallies discard reasons so operators can see how much
// telemetry never made it out. The counts are read and reset through
// Client.DiscardTally; they are not sent to the ingestion endpoint.
type clientReport struct {
	mu     sync.Mutex
	tally  map[DiscardReason]int
}

func newClientReport() *clientReport {
	return &clientReport{tally: make(map[DiscardReason]int)}
}

func (r *clientReport) record(reason DiscardReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tally[reason]++
}

// snapshotAndReset returns the accumulated counts and clears them, ready
// for the next reporting window.
func (r *clientReport) snapshotAndReset() map[DiscardReason]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.tally) == 0 {
		return nil
	}
	out := r.tally
	r.tally = make(map[DiscardReason]int)
	return out
}
