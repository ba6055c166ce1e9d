package transport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/relaycore/telemetry/ratelimit"
)

// FileSinkTransport writes each envelope to a uniquely named file in dir.
// Intended for offline capture and local debugging.
type FileSinkTransport struct {
	dir     string
	counter uint64
}

// NewFileSinkTransport constructs a transport writing into dir, which must
// already exist.
func NewFileSinkTransport(dir string) *FileSinkTransport {
	return &FileSinkTransport{dir: dir}
}

// Send implements Transport.
func (f *FileSinkTransport) Send(ctx context.Context, envelope []byte, category ratelimit.Category, ledger *ratelimit.Ledger) (bool, error) {
	n := atomic.AddUint64(&f.counter, 1)
	name := fmt.Sprintf("%d-%s-%d.envelope", time.Now().UnixNano(), category, n)
	path := filepath.Join(f.dir, name)
	if err := os.WriteFile(path, envelope, 0o644); err != nil {
		return false, fmt.Errorf("transport: file sink write: %w", err)
	}
	return true, nil
}
