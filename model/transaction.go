package model

import (
	"encoding/json"

	"github.com/relaycore/telemetry/ids"
)

// SpanStatus mirrors the coarse status vocabulary carried on spans/transactions.
type SpanStatus string

const (
	SpanStatusOK              SpanStatus = "ok"
	SpanStatusUnknownError    SpanStatus = "unknown_error"
	SpanStatusInvalidArgument SpanStatus = "invalid_argument"
	SpanStatusDeadlineExceeded SpanStatus = "deadline_exceeded"
)

// Span is a child span of a transaction.
type Span struct {
	TraceID      ids.EventID
	SpanID       ids.SpanID
	ParentSpanID ids.SpanID
	Op           string
	Description  string
	Status       SpanStatus
	StartTime    float64
	EndTime      float64
	finished     bool
}

// Finish marks the span complete at end, enforcing end >= start.
func (s *Span) Finish(end float64) {
	if end < s.StartTime {
		end = s.StartTime
	}
	s.EndTime = end
	s.finished = true
}

// Finished reports whether Finish has been called.
func (s *Span) Finished() bool { return s.finished }

// Transaction is a root span plus its ordered finished child spans.
type Transaction struct {
	TraceID        ids.EventID
	SpanID         ids.SpanID
	ParentSpanID   *ids.SpanID
	ParentSampled  *bool
	Op             string
	Name           string
	Description    string
	StartTime      float64
	EndTime        float64
	Status         SpanStatus
	Sampled        bool
	Release        string
	Environment    string

	children []*Span
	finished bool
}

// NewTransaction starts a root span under a fresh trace id.
func NewTransaction(op, name string, start float64) *Transaction {
	return &Transaction{
		TraceID:   ids.NewEventID(),
		SpanID:    ids.NewSpanID(),
		Op:        op,
		Name:      name,
		StartTime: start,
		Status:    SpanStatusOK,
	}
}

// StartChild starts a new child span carrying the transaction's trace id.
func (t *Transaction) StartChild(op string, start float64) *Span {
	return &Span{
		TraceID:      t.TraceID,
		SpanID:       ids.NewSpanID(),
		ParentSpanID: t.SpanID,
		Op:           op,
		Status:       SpanStatusOK,
		StartTime:    start,
	}
}

// AddChild records a span under this transaction. It accepts any span,
// finished or not, so callers may add-then-finish; spans still unfinished
// at encode time are left out of the payload.
func (t *Transaction) AddChild(s *Span) {
	t.children = append(t.children, s)
}

// Finish marks the transaction complete.
func (t *Transaction) Finish(end float64) {
	if end < t.StartTime {
		end = t.StartTime
	}
	t.EndTime = end
	t.finished = true
}

// Finished reports whether Finish has been called.
func (t *Transaction) Finished() bool { return t.finished }

type traceContext struct {
	TraceID ids.EventID `json:"trace_id"`
	SpanID  ids.SpanID  `json:"span_id"`
	Op      string      `json:"op,omitempty"`
	Status  SpanStatus  `json:"status,omitempty"`
}

type spanPayload struct {
	TraceID      ids.EventID `json:"trace_id"`
	SpanID       ids.SpanID  `json:"span_id"`
	ParentSpanID ids.SpanID  `json:"parent_span_id,omitempty"`
	Op           string      `json:"op,omitempty"`
	Description  string      `json:"description,omitempty"`
	StartTime    float64     `json:"start_timestamp"`
	Timestamp    *float64    `json:"timestamp,omitempty"`
	Status       SpanStatus  `json:"status,omitempty"`
}

type transactionPayload struct {
	Type           string                 `json:"type"`
	Transaction    string                 `json:"transaction"`
	StartTimestamp float64                `json:"start_timestamp"`
	Timestamp      float64                `json:"timestamp"`
	Contexts       map[string]traceContext `json:"contexts"`
	Spans          []spanPayload          `json:"spans"`
	Platform       string                 `json:"platform"`
	Release        string                 `json:"release,omitempty"`
	Environment    string                 `json:"environment,omitempty"`
}

// EncodePayload produces the hand-written transaction JSON payload spec
// §4.6 specifies. Spans that never finished are silently excluded.
func (t *Transaction) EncodePayload() ([]byte, error) {
	spans := make([]spanPayload, 0, len(t.children))
	for _, c := range t.children {
		if !c.Finished() {
			continue
		}
		end := c.EndTime
		spans = append(spans, spanPayload{
			TraceID:      c.TraceID,
			SpanID:       c.SpanID,
			ParentSpanID: c.ParentSpanID,
			Op:           c.Op,
			Description:  c.Description,
			StartTime:    c.StartTime,
			Timestamp:    &end,
			Status:       c.Status,
		})
	}

	p := transactionPayload{
		Type:           "transaction",
		Transaction:    t.Name,
		StartTimestamp: t.StartTime,
		Timestamp:      t.EndTime,
		Contexts: map[string]traceContext{
			"trace": {
				TraceID: t.TraceID,
				SpanID:  t.SpanID,
				Op:      t.Op,
				Status:  t.Status,
			},
		},
		Spans:       spans,
		Platform:    "other",
		Release:     t.Release,
		Environment: t.Environment,
	}
	return json.Marshal(p)
}
