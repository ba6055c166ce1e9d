package telemetry

import (
	"fmt"
	"os"
	"time"

	"github.com/relaycore/telemetry/crashmarker"
	"github.com/relaycore/telemetry/dsn"
	"github.com/relaycore/telemetry/envelope"
	"github.com/relaycore/telemetry/ids"
	"github.com/relaycore/telemetry/model"
	"github.com/relaycore/telemetry/ratelimit"
	"github.com/relaycore/telemetry/transport"
	"github.com/relaycore/telemetry/worker"
)

// Client owns the parsed descriptor, transport, worker and root hub for one
// configured SDK instance. Construct one with Init.
type Client struct {
	opts       Options
	descriptor *dsn.Descriptor

	transport transport.Transport
	ledger    *ratelimit.Ledger
	worker    *worker.Worker

	hub    *Hub
	report *clientReport

	logger    Logger
	stateLog  *stateLogger

	uninstallSignal func()
}

// Init validates opts, constructs a client's full delivery pipeline, and
// optionally replays a crash marker and auto-starts a session. It never
// touches the network synchronously beyond what the transport's own
// construction does.
func Init(opts Options) (*Client, error) {
	if opts.DSN == "" {
		opts.DSN = os.Getenv("SENTRY_DSN")
	}
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	descriptor, err := dsn.Parse(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("telemetry: invalid dsn: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = NopLogger{}
	}

	c := &Client{
		opts:       opts,
		descriptor: descriptor,
		ledger:     ratelimit.NewLedger(),
		report:     newClientReport(),
		logger:     logger,
		stateLog:   newStateLogger(logger, 30*time.Second),
	}

	c.transport = opts.Transport
	if c.transport == nil {
		c.transport = transport.NewHTTPTransport(descriptor.UploadURL(), transport.WithHTTPLogger(logger))
	}

	c.worker = worker.New(c.transport, c.ledger, worker.WithDropCallback(c.recordDrop))
	c.hub = NewHub(c, opts.MaxBreadcrumbs)

	if opts.CacheDir != "" {
		if err := os.MkdirAll(opts.CacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("telemetry: create cache dir: %w", err)
		}

		if event, found, err := crashmarker.Replay(nowSeconds(), crashmarker.MarkerPath(opts.CacheDir)); err != nil {
			c.stateLog.logError(err)
		} else if found {
			c.hub.CaptureEvent(event)
		}

		if opts.InstallSignalHandlers {
			uninstall, err := crashmarker.Install(crashmarker.MarkerPath(opts.CacheDir))
			if err != nil {
				c.stateLog.logError(err)
			} else {
				c.uninstallSignal = uninstall
			}
		}
	}

	if opts.AutoSessionTracking {
		c.hub.StartSession(nowSeconds(), model.SessionAttributes{Release: opts.Release, Environment: opts.Environment}, opts.SessionMode)
	}

	return c, nil
}

func nowSeconds() float64 {
	return ids.SecondsWithFraction(time.Now())
}

// CurrentScope returns the root hub's current scope.
func (c *Client) CurrentScope() *Scope { return c.hub.CurrentScope() }

// PushScope, PopScope, WithScope delegate to the root hub.
func (c *Client) PushScope()              { c.hub.PushScope() }
func (c *Client) PopScope()               { c.hub.PopScope() }
func (c *Client) WithScope(fn func(*Scope)) { c.hub.WithScope(fn) }

// AddBreadcrumb records a breadcrumb on the current scope.
func (c *Client) AddBreadcrumb(b model.Breadcrumb) { c.hub.AddBreadcrumb(b) }

// CaptureEvent runs e through the capture pipeline.
func (c *Client) CaptureEvent(e *model.Event) { c.hub.CaptureEvent(e) }

// CaptureMessage captures a message event at level.
func (c *Client) CaptureMessage(text string, level model.Level) {
	c.hub.CaptureMessage(nowSeconds(), text, level)
}

// CaptureException captures an exception event.
func (c *Client) CaptureException(excType, value string) {
	c.hub.CaptureException(nowSeconds(), excType, value)
}

// CaptureCheckIn submits a monitor check-in.
func (c *Client) CaptureCheckIn(ci *model.CheckIn) { c.hub.CaptureCheckIn(ci) }

// StartTransaction begins a transaction on the root hub.
func (c *Client) StartTransaction(op, name string) *model.Transaction {
	return c.hub.StartTransaction(op, name, nowSeconds())
}

// FinishTransaction finishes and (if sampled) submits t.
func (c *Client) FinishTransaction(t *model.Transaction) {
	c.hub.FinishTransaction(t, nowSeconds())
}

// StartSession begins a session on the root hub, replacing any active one.
func (c *Client) StartSession() {
	c.hub.StartSession(nowSeconds(), model.SessionAttributes{Release: c.opts.Release, Environment: c.opts.Environment}, c.opts.SessionMode)
}

// EndSession closes the active session with status.
func (c *Client) EndSession(status model.SessionStatus) {
	c.hub.EndSession(nowSeconds(), status)
}

// Hub returns the client's root hub, for building a detached Hub.Clone().
func (c *Client) Hub() *Hub { return c.hub }

// Flush blocks until the delivery queue drains or timeout elapses,
// returning true iff it drained in time.
func (c *Client) Flush(timeout time.Duration) bool {
	return c.worker.Flush(timeout)
}

// Close ends any active session as exited, flushes with the configured
// shutdown timeout, stops the worker, and uninstalls the signal handler.
func (c *Client) Close() {
	c.hub.EndSession(nowSeconds(), model.SessionExited)
	c.worker.Flush(c.opts.ShutdownTimeout)
	c.worker.Shutdown(c.opts.ShutdownTimeout)
	if c.uninstallSignal != nil {
		c.uninstallSignal()
	}
}

// DiscardTally returns the accumulated discard-reason counts since the last
// call and resets them.
func (c *Client) DiscardTally() map[DiscardReason]int {
	return c.report.snapshotAndReset()
}

func (c *Client) recordDrop(reason worker.DropReason) {
	switch reason {
	case worker.DropQueueOverflow:
		c.report.record(DiscardQueueOverflow)
	case worker.DropRateLimited:
		c.report.record(DiscardRateLimitBackoff)
	case worker.DropSendFailed:
		c.report.record(DiscardNetworkError)
		c.debugLogf("delivery-failed")
	default:
		c.report.record(DiscardSendError)
	}
}

func (c *Client) recordDiscard(reason DiscardReason) {
	c.report.record(reason)
}

// debugLog emits a line-level capture-pipeline outcome when Options.Debug
// is set; a no-op otherwise.
func (c *Client) debugLog(outcome string, e *model.Event) {
	if !c.opts.Debug {
		return
	}
	_ = c.logger.Log("outcome", outcome, "event_id", e.EventID.String())
}

func (c *Client) debugLogf(outcome string) {
	if !c.opts.Debug {
		return
	}
	_ = c.logger.Log("outcome", outcome)
}

// --- hubClient interface ---

func (c *Client) fillDefaults(e *model.Event) {
	if e.Release == "" {
		e.Release = c.opts.Release
	}
	if e.Environment == "" {
		e.Environment = c.opts.Environment
	}
	if e.ServerName == "" {
		e.ServerName = c.opts.ServerName
	}
}

func (c *Client) sampler() Sampler { return UniformSampler(c.opts.SampleRate) }

func (c *Client) tracesSampleRate(op, name string) float64 {
	if c.opts.TracesSampler != nil {
		return c.opts.TracesSampler(op, name)
	}
	return c.opts.TracesSampleRate
}

func (c *Client) beforeSend(e *model.Event) (*model.Event, bool) {
	if c.opts.BeforeSend == nil {
		return e, true
	}
	return c.opts.BeforeSend(e)
}

func (c *Client) submitEvent(e *model.Event) {
	item, err := envelope.EventItem(e)
	if err != nil {
		c.stateLog.logError(err)
		c.report.record(DiscardSendError)
		return
	}
	c.submitItem(item, ratelimit.CategoryError, e.EventID)
}

func (c *Client) submitTransaction(t *model.Transaction) {
	item, err := envelope.TransactionItem(t)
	if err != nil {
		c.stateLog.logError(err)
		c.report.record(DiscardSendError)
		return
	}
	c.submitItem(item, ratelimit.CategoryTransaction, t.TraceID)
}

func (c *Client) submitSession(s *model.Session) {
	item, err := envelope.SessionItem(s)
	if err != nil {
		c.stateLog.logError(err)
		c.report.record(DiscardSendError)
		return
	}
	c.submitItem(item, ratelimit.CategorySession, ids.EventID{})
}

func (c *Client) submitCheckIn(ci *model.CheckIn) {
	item, err := envelope.CheckInItem(ci)
	if err != nil {
		c.stateLog.logError(err)
		c.report.record(DiscardSendError)
		return
	}
	c.submitItem(item, ratelimit.CategoryCheckIn, ids.EventID{})
}

func (c *Client) submitItem(item envelope.Item, category ratelimit.Category, eventID ids.EventID) {
	env := envelope.NewEnvelope(c.opts.DSN, time.Now())
	if !eventID.IsZero() {
		env.WithEventID(eventID)
	}
	env.AddItem(item)

	payload, err := env.Encode()
	if err != nil {
		c.stateLog.logError(err)
		c.report.record(DiscardSendError)
		return
	}

	if err := c.worker.Submit(payload, category); err != nil {
		c.report.record(DiscardQueueOverflow)
		return
	}
	c.debugLogf("enqueued")
}
