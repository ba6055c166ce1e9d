// Package transport implements pluggable delivery backends for framed
// envelopes: an HTTPS client, an in-memory recorder for tests, a file sink,
// and a fanout broadcaster.
package transport

import (
	"context"

	"github.com/relaycore/telemetry/ratelimit"
)

// Transport sends a single framed envelope and reports whether the remote
// end accepted it. Implementations parse any rate-limit directive from the
// response out of band and apply it directly to ledger, which lets a
// fanout transport merge updates from every backend it wraps simply by
// passing the caller's ledger through unchanged.
type Transport interface {
	Send(ctx context.Context, envelope []byte, category ratelimit.Category, ledger *ratelimit.Ledger) (accepted bool, err error)
}
