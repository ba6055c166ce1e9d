package telemetry

import (
	"fmt"
	"time"

	"github.com/relaycore/telemetry/model"
	"github.com/relaycore/telemetry/transport"
)

// TracesSampler decides, per-transaction, the sample rate to apply. It
// overrides TracesSampleRate when set.
type TracesSampler func(op, name string) float64

// Options configures Init. DSN is the only required field.
type Options struct {
	DSN string

	Release     string
	Environment string
	ServerName  string

	SampleRate       float64
	TracesSampleRate float64
	TracesSampler    TracesSampler

	MaxBreadcrumbs int

	BeforeSend       func(*model.Event) (*model.Event, bool)
	BeforeBreadcrumb func(model.Breadcrumb) (model.Breadcrumb, bool)

	CacheDir               string
	InstallSignalHandlers  bool
	AutoSessionTracking    bool
	SessionMode            model.SessionMode
	ShutdownTimeout        time.Duration

	Debug  bool
	Logger Logger

	// Transport overrides the HTTP transport Init would otherwise build
	// from DSN; intended for tests (e.g. transport.NewMemoryTransport()).
	Transport transport.Transport
}

// Validate checks the numeric fields client construction depends on.
// DSN parsing is validated separately by dsn.Parse.
func (o Options) Validate() error {
	if !isFiniteUnitInterval(o.SampleRate) {
		return fmt.Errorf("telemetry: sample_rate must be finite and within [0, 1], got %v", o.SampleRate)
	}
	if !isFiniteUnitInterval(o.TracesSampleRate) {
		return fmt.Errorf("telemetry: traces_sample_rate must be finite and within [0, 1], got %v", o.TracesSampleRate)
	}
	return nil
}

func isFiniteUnitInterval(f float64) bool {
	return f == f && f >= 0 && f <= 1 // f == f rules out NaN without importing math
}

func (o Options) withDefaults() Options {
	if o.SessionMode == "" {
		o.SessionMode = model.SessionModeApplication
	}
	if o.ShutdownTimeout == 0 {
		o.ShutdownTimeout = 2 * time.Second
	}
	if o.MaxBreadcrumbs == 0 {
		o.MaxBreadcrumbs = defaultBreadcrumbCapacity
	}
	return o
}
