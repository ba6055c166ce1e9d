package transport

import (
	"context"
	"sync"

	"github.com/relaycore/telemetry/ratelimit"
)

// MemoryTransport records every envelope it receives and always accepts.
// Intended for tests.
type MemoryTransport struct {
	mu   sync.Mutex
	sent []recordedEnvelope
}

type recordedEnvelope struct {
	Envelope []byte
	Category ratelimit.Category
}

// NewMemoryTransport constructs an empty recorder.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{}
}

// Send implements Transport.
func (m *MemoryTransport) Send(ctx context.Context, envelope []byte, category ratelimit.Category, ledger *ratelimit.Ledger) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, recordedEnvelope{Envelope: append([]byte(nil), envelope...), Category: category})
	return true, nil
}

// Envelopes returns a snapshot of every envelope recorded so far.
func (m *MemoryTransport) Envelopes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.sent))
	for i, r := range m.sent {
		out[i] = r.Envelope
	}
	return out
}

// Count returns the number of envelopes recorded.
func (m *MemoryTransport) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
