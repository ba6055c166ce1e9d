package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaycore/telemetry/model"
	"github.com/relaycore/telemetry/ratelimit"
	"github.com/relaycore/telemetry/transport"
)

type recordingLogger struct {
	mu   sync.Mutex
	logs [][]interface{}
}

func (l *recordingLogger) Log(keyVal ...interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, keyVal)
	return nil
}

func (l *recordingLogger) outcomes() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, kv := range l.logs {
		for i := 0; i+1 < len(kv); i += 2 {
			if kv[i] == "outcome" {
				out = append(out, kv[i+1].(string))
			}
		}
	}
	return out
}

type rejectingTransport struct{}

func (rejectingTransport) Send(ctx context.Context, envelope []byte, category ratelimit.Category, ledger *ratelimit.Ledger) (bool, error) {
	return false, nil
}

func TestInit_RejectsInvalidSampleRate(t *testing.T) {
	_, err := Init(Options{DSN: "https://key@o0.ingest.example.com/1", SampleRate: 2})
	assert.Error(t, err)
}

func TestInit_RejectsInvalidDSN(t *testing.T) {
	_, err := Init(Options{DSN: "not-a-dsn"})
	assert.Error(t, err)
}

func TestClient_CaptureMessage_DeliversThroughMemoryTransport(t *testing.T) {
	mt := transport.NewMemoryTransport()
	client, err := Init(Options{
		DSN:        "https://key@o0.ingest.example.com/1",
		SampleRate: 1,
		Transport:  mt,
	})
	require.NoError(t, err)
	defer client.Close()

	client.CaptureMessage("hello", model.LevelInfo)
	require.True(t, client.Flush(time.Second))
	assert.Equal(t, 1, mt.Count())
}

func TestClient_CaptureMessage_DroppedWhenSampleRateZero(t *testing.T) {
	mt := transport.NewMemoryTransport()
	client, err := Init(Options{
		DSN:        "https://key@o0.ingest.example.com/1",
		SampleRate: 0,
		Transport:  mt,
	})
	require.NoError(t, err)
	defer client.Close()

	client.CaptureMessage("hello", model.LevelInfo)
	require.True(t, client.Flush(time.Second))
	assert.Equal(t, 0, mt.Count())
}

func TestClient_AutoSessionTracking_EndsOnClose(t *testing.T) {
	mt := transport.NewMemoryTransport()
	client, err := Init(Options{
		DSN:                 "https://key@o0.ingest.example.com/1",
		SampleRate:          1,
		Transport:           mt,
		AutoSessionTracking: true,
	})
	require.NoError(t, err)

	client.Close()
	require.True(t, mt.Count() >= 2, "expected a session-start and session-end envelope")
}

func TestClient_CaptureException_MarksSessionErrored(t *testing.T) {
	mt := transport.NewMemoryTransport()
	client, err := Init(Options{
		DSN:        "https://key@o0.ingest.example.com/1",
		SampleRate: 1,
		Transport:  mt,
	})
	require.NoError(t, err)
	defer client.Close()

	client.StartSession()
	client.CaptureException("BoomError", "kaboom")
	client.Flush(time.Second)

	assert.Equal(t, model.SessionErrored, client.hub.session.Status)
}

func TestClient_Transaction_SampledWhenRateOne(t *testing.T) {
	mt := transport.NewMemoryTransport()
	client, err := Init(Options{
		DSN:              "https://key@o0.ingest.example.com/1",
		SampleRate:       1,
		TracesSampleRate: 1,
		Transport:        mt,
	})
	require.NoError(t, err)
	defer client.Close()

	txn := client.StartTransaction("http.server", "GET /")
	client.FinishTransaction(txn)
	client.Flush(time.Second)

	assert.Equal(t, 1, mt.Count())
}

func TestClient_Transaction_DroppedWhenTracesSampleRateZero(t *testing.T) {
	mt := transport.NewMemoryTransport()
	client, err := Init(Options{
		DSN:              "https://key@o0.ingest.example.com/1",
		SampleRate:       1,
		TracesSampleRate: 0,
		Transport:        mt,
	})
	require.NoError(t, err)
	defer client.Close()

	txn := client.StartTransaction("http.server", "GET /")
	client.FinishTransaction(txn)
	client.Flush(time.Second)

	assert.Equal(t, 0, mt.Count())
}

func TestInit_ResolvesDSNFromEnvironment(t *testing.T) {
	t.Setenv("SENTRY_DSN", "https://key@o0.ingest.example.com/1")

	client, err := Init(Options{Transport: transport.NewMemoryTransport()})
	require.NoError(t, err)
	defer client.Close()
}

func TestClient_Debug_LogsCapturePipelineOutcomes(t *testing.T) {
	mt := transport.NewMemoryTransport()
	logger := &recordingLogger{}
	client, err := Init(Options{
		DSN:        "https://key@o0.ingest.example.com/1",
		SampleRate: 1,
		Transport:  mt,
		Debug:      true,
		Logger:     logger,
	})
	require.NoError(t, err)
	defer client.Close()

	client.CaptureMessage("hello", model.LevelInfo)
	client.Flush(time.Second)

	assert.Contains(t, logger.outcomes(), "accepted")
	assert.Contains(t, logger.outcomes(), "enqueued")
}

func TestClient_Debug_LogsSampledOut(t *testing.T) {
	mt := transport.NewMemoryTransport()
	logger := &recordingLogger{}
	client, err := Init(Options{
		DSN:        "https://key@o0.ingest.example.com/1",
		SampleRate: 0,
		Transport:  mt,
		Debug:      true,
		Logger:     logger,
	})
	require.NoError(t, err)
	defer client.Close()

	client.CaptureMessage("hello", model.LevelInfo)
	client.Flush(time.Second)

	assert.Contains(t, logger.outcomes(), "sampled-out")
}

func TestClient_NoDebugLogging_WhenDebugUnset(t *testing.T) {
	mt := transport.NewMemoryTransport()
	logger := &recordingLogger{}
	client, err := Init(Options{
		DSN:        "https://key@o0.ingest.example.com/1",
		SampleRate: 1,
		Transport:  mt,
		Logger:     logger,
	})
	require.NoError(t, err)
	defer client.Close()

	client.CaptureMessage("hello", model.LevelInfo)
	client.Flush(time.Second)

	assert.Empty(t, logger.outcomes())
}

func TestClient_DiscardTally_TracksEventProcessorDrop(t *testing.T) {
	mt := transport.NewMemoryTransport()
	client, err := Init(Options{
		DSN:        "https://key@o0.ingest.example.com/1",
		SampleRate: 1,
		Transport:  mt,
		BeforeSend: func(e *model.Event) (*model.Event, bool) { return nil, false },
	})
	require.NoError(t, err)
	defer client.Close()

	client.CurrentScope().AddEventProcessor(func(e *model.Event) bool { return false })
	client.CaptureMessage("dropped-by-processor", model.LevelInfo)
	client.Flush(time.Second)

	tally := client.DiscardTally()
	assert.Equal(t, 1, tally[DiscardEventProcessor])
}

func TestClient_DiscardTally_TracksNetworkError(t *testing.T) {
	client, err := Init(Options{
		DSN:        "https://key@o0.ingest.example.com/1",
		SampleRate: 1,
		Transport:  rejectingTransport{},
	})
	require.NoError(t, err)
	defer client.Close()

	client.CaptureMessage("hello", model.LevelInfo)
	client.Flush(time.Second)

	tally := client.DiscardTally()
	assert.Equal(t, 1, tally[DiscardNetworkError])
}

func TestClient_BeforeSendCanDrop(t *testing.T) {
	mt := transport.NewMemoryTransport()
	client, err := Init(Options{
		DSN:        "https://key@o0.ingest.example.com/1",
		SampleRate: 1,
		Transport:  mt,
		BeforeSend: func(e *model.Event) (*model.Event, bool) { return nil, false },
	})
	require.NoError(t, err)
	defer client.Close()

	client.CaptureMessage("hello", model.LevelInfo)
	client.Flush(time.Second)
	assert.Equal(t, 0, mt.Count())
}
