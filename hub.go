package telemetry

import (
	"math/rand"
	"sync"

	"github.com/relaycore/telemetry/ids"
	"github.com/relaycore/telemetry/model"
)

// Sampler reports whether an event with the given random draw should be
// kept. draw is a uniform sample in [0, 1); the event is dropped when
// draw >= the configured sample rate.
type Sampler func(draw float64) (keep bool)

// UniformSampler keeps events whose draw is strictly less than rate.
func UniformSampler(rate float64) Sampler {
	return func(draw float64) bool { return draw < rate }
}

// hubClient is the subset of the client facade the capture pipeline needs.
// Hub depends on this interface, not a concrete client, so the pipeline can
// be exercised without a live worker/transport.
type hubClient interface {
	fillDefaults(e *model.Event)
	sampler() Sampler
	tracesSampleRate(op, name string) float64
	beforeSend(e *model.Event) (*model.Event, bool)
	submitEvent(e *model.Event)
	submitSession(s *model.Session)
	submitCheckIn(c *model.CheckIn)
	submitTransaction(t *model.Transaction)
	recordDiscard(reason DiscardReason)
	debugLog(outcome string, e *model.Event)
}

// traceContinuation carries inbound trace-propagation state that the next
// started transaction should inherit (spec "Trace continuation").
type traceContinuation struct {
	traceID      ids.EventID
	parentSpan   ids.SpanID
	sampledOverride *bool
}

// Hub owns the current scope stack, the active session, and the capture
// pipeline for one logical execution context (goroutine, request, task).
type Hub struct {
	client hubClient
	stack  *hubStack

	sessionMu sync.Mutex
	session   *model.Session

	traceMu    sync.Mutex
	traceState *traceContinuation

	rng func() float64
}

// NewHub constructs a hub rooted at a fresh scope, bound to client.
func NewHub(client hubClient, breadcrumbCapacity int) *Hub {
	return &Hub{
		client: client,
		stack:  newHubStack(NewScope(breadcrumbCapacity)),
		rng:    rand.Float64,
	}
}

// PushScope duplicates the current scope and makes the clone current.
func (h *Hub) PushScope() { h.stack.push() }

// PopScope discards the current scope, restoring the one beneath it. The
// root scope (depth 1) is never popped.
func (h *Hub) PopScope() { h.stack.pop() }

// CurrentScope returns the top of the scope stack.
func (h *Hub) CurrentScope() *Scope { return h.stack.current() }

// WithScope pushes a new scope, runs fn against it, and pops it afterward
// even if fn panics.
func (h *Hub) WithScope(fn func(*Scope)) {
	h.PushScope()
	defer h.PopScope()
	fn(h.CurrentScope())
}

// Clone returns a detached hub carrying a deep-cloned scope stack and the
// same client and trace state, suitable for handing to another goroutine
// (spec "scope propagation across async boundaries").
func (h *Hub) Clone() *Hub {
	h.traceMu.Lock()
	trace := h.traceState
	h.traceMu.Unlock()

	return &Hub{
		client:     h.client,
		stack:      h.stack.clone(),
		traceState: trace,
		rng:        h.rng,
	}
}

// AddBreadcrumb records a breadcrumb on the current scope.
func (h *Hub) AddBreadcrumb(b model.Breadcrumb) {
	h.CurrentScope().AddBreadcrumb(b)
}

// ContinueTrace installs inbound propagation state so the next transaction
// started on this hub inherits the trace id, parent span and sampling
// override.
func (h *Hub) ContinueTrace(traceID ids.EventID, parentSpan ids.SpanID, sampled *bool) {
	h.traceMu.Lock()
	defer h.traceMu.Unlock()
	h.traceState = &traceContinuation{traceID: traceID, parentSpan: parentSpan, sampledOverride: sampled}
}

// StartSession begins a new session on this hub, replacing any prior one.
func (h *Hub) StartSession(now float64, attrs model.SessionAttributes, mode model.SessionMode) {
	h.sessionMu.Lock()
	defer h.sessionMu.Unlock()
	h.session = model.NewSession(now, attrs, mode)
	h.client.submitSession(h.session)
}

// EndSession closes the active session with status, if one is active.
func (h *Hub) EndSession(now float64, status model.SessionStatus) {
	h.sessionMu.Lock()
	defer h.sessionMu.Unlock()
	if h.session == nil {
		return
	}
	h.session.End(now, status)
	h.client.submitSession(h.session)
	h.session = nil
}

// CaptureMessage builds and runs a message event through the capture
// pipeline.
func (h *Hub) CaptureMessage(now float64, text string, level model.Level) {
	e := model.NewEvent(now)
	e.Level = level
	e.Message = &model.Message{Formatted: text}
	h.captureEvent(e)
}

// CaptureException builds and runs an exception event through the capture
// pipeline.
func (h *Hub) CaptureException(now float64, excType, value string) {
	e := model.NewEvent(now)
	e.Level = model.LevelError
	e.Exception = []model.Exception{{Type: excType, Value: value}}
	h.captureEvent(e)
}

// CaptureEvent runs a caller-constructed event through the capture
// pipeline.
func (h *Hub) CaptureEvent(e *model.Event) {
	h.captureEvent(e)
}

// captureEvent implements the seven-step capture pipeline.
func (h *Hub) captureEvent(e *model.Event) {
	// 1. Fill defaults from client options.
	h.client.fillDefaults(e)

	// 2. Apply scope enrichment.
	scope := h.CurrentScope()
	scope.apply(e)

	// 3. Run scope event processors; first drop stops the pipeline.
	if !scope.runProcessors(e) {
		h.client.recordDiscard(DiscardEventProcessor)
		h.client.debugLog("dropped-by-processor", e)
		return
	}

	// 4. Update the active session.
	h.updateSessionForEvent(e)

	// 5. Apply sampling, evaluated after processors.
	if !h.client.sampler()(h.rng()) {
		h.client.recordDiscard(DiscardSampleRate)
		h.client.debugLog("sampled-out", e)
		return
	}

	// 6. Run before_send; nil means drop.
	sent, keep := h.client.beforeSend(e)
	if !keep || sent == nil {
		h.client.recordDiscard(DiscardBeforeSend)
		h.client.debugLog("dropped-by-before-send", e)
		return
	}

	// 7. Hand off to the client for encoding, framing and submission.
	h.client.debugLog("accepted", sent)
	h.client.submitEvent(sent)
}

func (h *Hub) updateSessionForEvent(e *model.Event) {
	if e.Level != model.LevelError && e.Level != model.LevelFatal {
		return
	}
	h.sessionMu.Lock()
	defer h.sessionMu.Unlock()
	if h.session == nil {
		return
	}
	if e.Level == model.LevelFatal {
		h.session.MarkCrashed()
	} else {
		h.session.MarkErrored()
	}
	h.client.submitSession(h.session)
}

// CaptureCheckIn submits a monitor check-in.
func (h *Hub) CaptureCheckIn(c *model.CheckIn) {
	h.client.submitCheckIn(c)
}

// StartTransaction begins a transaction, inheriting any pending trace
// continuation installed via ContinueTrace.
func (h *Hub) StartTransaction(op, name string, start float64) *model.Transaction {
	t := model.NewTransaction(op, name, start)

	h.traceMu.Lock()
	trace := h.traceState
	h.traceState = nil
	h.traceMu.Unlock()

	if trace != nil {
		t.TraceID = trace.traceID
		parent := trace.parentSpan
		t.ParentSpanID = &parent
		t.ParentSampled = trace.sampledOverride
	}

	if trace != nil && trace.sampledOverride != nil {
		t.Sampled = *trace.sampledOverride
	} else {
		t.Sampled = h.rng() < h.client.tracesSampleRate(op, name)
	}
	return t
}

// FinishTransaction finishes the transaction and submits it, unless the
// sampling decision made at StartTransaction dropped it.
func (h *Hub) FinishTransaction(t *model.Transaction, end float64) {
	t.Finish(end)
	if !t.Sampled {
		return
	}
	h.client.submitTransaction(t)
}

