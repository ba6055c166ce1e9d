package telemetry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaycore/telemetry/ids"
	"github.com/relaycore/telemetry/model"
)

func newTestEventID() ids.EventID { return ids.NewEventID() }
func newTestSpanID() ids.SpanID   { return ids.NewSpanID() }

type fakeHubClient struct {
	mu            sync.Mutex
	sampleRate    float64
	beforeSendFn  func(*model.Event) (*model.Event, bool)
	sentEvents    []*model.Event
	sentSessions  []*model.Session
	sentCheckIns  []*model.CheckIn
	sentTxns      []*model.Transaction
}

func (f *fakeHubClient) fillDefaults(e *model.Event) { e.Release = "1.0.0" }
func (f *fakeHubClient) sampler() Sampler             { return UniformSampler(f.sampleRate) }
func (f *fakeHubClient) tracesSampleRate(op, name string) float64 { return f.sampleRate }
func (f *fakeHubClient) beforeSend(e *model.Event) (*model.Event, bool) {
	if f.beforeSendFn != nil {
		return f.beforeSendFn(e)
	}
	return e, true
}
func (f *fakeHubClient) submitEvent(e *model.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentEvents = append(f.sentEvents, e)
}
func (f *fakeHubClient) submitSession(s *model.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentSessions = append(f.sentSessions, s)
}
func (f *fakeHubClient) submitCheckIn(c *model.CheckIn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentCheckIns = append(f.sentCheckIns, c)
}
func (f *fakeHubClient) submitTransaction(t *model.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentTxns = append(f.sentTxns, t)
}
func (f *fakeHubClient) recordDiscard(DiscardReason)            {}
func (f *fakeHubClient) debugLog(outcome string, e *model.Event) {}

func TestHub_CaptureMessage_SentWhenSampleRateOne(t *testing.T) {
	fc := &fakeHubClient{sampleRate: 1}
	h := NewHub(fc, 10)
	h.CaptureMessage(0, "hello", model.LevelInfo)

	require.Len(t, fc.sentEvents, 1)
	assert.Equal(t, "1.0.0", fc.sentEvents[0].Release)
}

func TestHub_CaptureEvent_DroppedWhenSampleRateZero(t *testing.T) {
	fc := &fakeHubClient{sampleRate: 0}
	h := NewHub(fc, 10)
	h.CaptureMessage(0, "hello", model.LevelInfo)

	assert.Empty(t, fc.sentEvents)
}

func TestHub_CaptureEvent_DroppedByProcessor(t *testing.T) {
	fc := &fakeHubClient{sampleRate: 1}
	h := NewHub(fc, 10)
	h.CurrentScope().AddEventProcessor(func(e *model.Event) bool { return false })
	h.CaptureMessage(0, "hello", model.LevelInfo)

	assert.Empty(t, fc.sentEvents)
}

func TestHub_CaptureEvent_DroppedByBeforeSend(t *testing.T) {
	fc := &fakeHubClient{
		sampleRate:   1,
		beforeSendFn: func(e *model.Event) (*model.Event, bool) { return nil, false },
	}
	h := NewHub(fc, 10)
	h.CaptureMessage(0, "hello", model.LevelInfo)

	assert.Empty(t, fc.sentEvents)
}

func TestHub_ErrorEvent_MarksSessionErrored(t *testing.T) {
	fc := &fakeHubClient{sampleRate: 1}
	h := NewHub(fc, 10)
	h.StartSession(0, model.SessionAttributes{Release: "1.0.0"}, model.SessionModeApplication)
	h.CaptureException(1, "BoomError", "kaboom")

	assert.Equal(t, model.SessionErrored, h.session.Status)
	assert.Equal(t, 1, h.session.Errors)
}

func TestHub_PushPopScope_RootNeverPopped(t *testing.T) {
	h := NewHub(&fakeHubClient{sampleRate: 1}, 10)
	h.PushScope()
	assert.Equal(t, 2, h.stack.depth())
	h.PopScope()
	h.PopScope()
	assert.Equal(t, 1, h.stack.depth())
}

func TestHub_WithScope_TagIsolated(t *testing.T) {
	h := NewHub(&fakeHubClient{sampleRate: 1}, 10)
	h.CurrentScope().SetTag("outer", "1")
	h.WithScope(func(s *Scope) {
		s.SetTag("inner", "2")
	})
	assert.Equal(t, 1, h.stack.depth())

	root := h.CurrentScope()
	root.mu.Lock()
	defer root.mu.Unlock()
	assert.Equal(t, "1", root.tags["outer"])
	assert.NotContains(t, root.tags, "inner")
}

func TestHub_StartTransaction_InheritsContinuedTrace(t *testing.T) {
	h := NewHub(&fakeHubClient{sampleRate: 1}, 10)
	traceID := newTestEventID()
	parentSpan := newTestSpanID()
	sampled := true
	h.ContinueTrace(traceID, parentSpan, &sampled)

	txn := h.StartTransaction("http.server", "GET /", 0)
	assert.Equal(t, traceID, txn.TraceID)
	require.NotNil(t, txn.ParentSpanID)
	assert.Equal(t, parentSpan, *txn.ParentSpanID)
	require.NotNil(t, txn.ParentSampled)
	assert.True(t, *txn.ParentSampled)
}
