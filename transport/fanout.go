package transport

import (
	"context"

	"github.com/relaycore/telemetry/ratelimit"
)

// FanoutTransport broadcasts every envelope to all of its backends. Since
// each backend applies its own rate-limit update to the shared ledger via
// Ledger.Update's keep-the-max-expiry rule, the merge spec §4.9 asks for
// falls out of passing the same ledger through to every backend.
type FanoutTransport struct {
	backends []Transport
}

// NewFanoutTransport constructs a transport broadcasting to backends.
func NewFanoutTransport(backends ...Transport) *FanoutTransport {
	return &FanoutTransport{backends: backends}
}

// Send implements Transport. It is accepted overall iff every backend
// accepted it; the first backend error encountered is returned, but every
// backend is still attempted.
func (f *FanoutTransport) Send(ctx context.Context, envelope []byte, category ratelimit.Category, ledger *ratelimit.Ledger) (bool, error) {
	allAccepted := true
	var firstErr error
	for _, backend := range f.backends {
		accepted, err := backend.Send(ctx, envelope, category, ledger)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if !accepted {
			allAccepted = false
		}
	}
	return allAccepted, firstErr
}
