package transport

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/relaycore/telemetry/ratelimit"
)

const (
	envelopeContentType = "application/x-sentry-envelope"
	userAgent           = "relaycore-go/0.1.0"

	defaultHTTPTimeout = 30 * time.Second
)

// Logger is the minimal logging contract HTTPTransport reports send
// failures through.
type Logger interface {
	Log(keyVal ...interface{}) error
}

type nopLogger struct{}

func (nopLogger) Log(...interface{}) error { return nil }

// RequestCallback lets a caller adjust the outbound *http.Request (e.g. to
// add headers) before it is sent.
type RequestCallback func(*http.Request)

// HTTPOption configures an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithHTTPClient overrides the *http.Client used to send requests.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(t *HTTPTransport) { t.client = client }
}

// WithHTTPTimeout sets the client timeout.
func WithHTTPTimeout(d time.Duration) HTTPOption {
	return func(t *HTTPTransport) { t.client.Timeout = d }
}

// WithHTTPLogger sets the logger used to report send failures.
func WithHTTPLogger(logger Logger) HTTPOption {
	return func(t *HTTPTransport) { t.logger = logger }
}

// WithRequestCallback registers a callback to adjust the request before send.
func WithRequestCallback(cb RequestCallback) HTTPOption {
	return func(t *HTTPTransport) { t.reqCallback = cb }
}

// HTTPTransport POSTs envelopes to the ingestion endpoint's upload URL.
type HTTPTransport struct {
	uploadURL   string
	client      *http.Client
	logger      Logger
	reqCallback RequestCallback
}

// NewHTTPTransport constructs a transport that POSTs to uploadURL.
func NewHTTPTransport(uploadURL string, opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		uploadURL: uploadURL,
		client:    &http.Client{Timeout: defaultHTTPTimeout},
		logger:    nopLogger{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send implements Transport.
func (t *HTTPTransport) Send(ctx context.Context, envelope []byte, category ratelimit.Category, ledger *ratelimit.Ledger) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.uploadURL, bytes.NewReader(envelope))
	if err != nil {
		t.logger.Log("err", err.Error())
		return false, err
	}
	req.Header.Set("Content-Type", envelopeContentType)
	req.Header.Set("User-Agent", userAgent)
	if t.reqCallback != nil {
		t.reqCallback(req)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Log("err", err.Error())
		return false, err
	}
	defer resp.Body.Close()

	ledger.Update(resp.StatusCode, resp.Header.Get("Retry-After"), resp.Header.Get("X-Sentry-Rate-Limits"), time.Now())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		t.logger.Log("err", "envelope POST failed", "status", resp.Status)
		return false, nil
	}
	return true, nil
}
