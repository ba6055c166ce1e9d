// Package model holds the plain value types captured and shipped by the
// SDK: events, breadcrumbs, sessions, transactions, spans, check-ins,
// attachments and their canonical encoders.
package model

import (
	"encoding/json"

	"github.com/relaycore/telemetry/ids"
)

// Level is an event severity.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelFatal   Level = "fatal"
)

// Platform is the fixed platform tag emitted on every event.
const Platform = "go"

// User identifies the affected user, if known.
type User struct {
	ID        string `json:"id,omitempty"`
	Email     string `json:"email,omitempty"`
	Username  string `json:"username,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
}

// Message holds the formatted/template/parameters triple for log-style events.
type Message struct {
	Formatted  string   `json:"formatted,omitempty"`
	Template   string   `json:"message,omitempty"`
	Parameters []string `json:"params,omitempty"`
}

// Frame is a single stack frame. Application-frame stack walking beyond the
// crashing instruction address is out of scope (spec §1 Non-goals); Frame
// exists so a single synthesized frame (e.g. from the crash marker) or
// caller-supplied frames can still be carried.
type Frame struct {
	Function string `json:"function,omitempty"`
	Module   string `json:"module,omitempty"`
	Filename string `json:"filename,omitempty"`
	Lineno   int    `json:"lineno,omitempty"`
	InApp    bool   `json:"in_app,omitempty"`
}

// Stacktrace is an ordered list of frames, outermost first.
type Stacktrace struct {
	Frames []Frame `json:"frames,omitempty"`
}

// Exception describes one exception in an exception chain.
type Exception struct {
	Type       string      `json:"type,omitempty"`
	Value      string      `json:"value,omitempty"`
	Module     string      `json:"module,omitempty"`
	Stacktrace *Stacktrace `json:"stacktrace,omitempty"`
}

// Event is the canonical error/message event.
type Event struct {
	EventID     ids.EventID `json:"event_id"`
	Timestamp   float64     `json:"timestamp"`
	Platform    string      `json:"platform"`
	Level       Level       `json:"level,omitempty"`
	Logger      string      `json:"logger,omitempty"`
	ServerName  string      `json:"server_name,omitempty"`
	Release     string      `json:"release,omitempty"`
	Dist        string      `json:"dist,omitempty"`
	Environment string      `json:"environment,omitempty"`
	Transaction string      `json:"transaction,omitempty"`

	Message   *Message   `json:"message,omitempty"`
	Exception []Exception `json:"exception,omitempty"`

	Tags    map[string]string      `json:"tags,omitempty"`
	Extra   map[string]interface{} `json:"extra,omitempty"`
	Contexts map[string]interface{} `json:"contexts,omitempty"`

	User        *User        `json:"user,omitempty"`
	Breadcrumbs []Breadcrumb `json:"breadcrumbs,omitempty"`
	Fingerprint []string     `json:"fingerprint,omitempty"`

	// Attachments travel as separate envelope items, never inlined in the
	// event payload; they are not part of the JSON encoding.
	Attachments []Attachment `json:"-"`
}

// NewEvent constructs an event with a fresh id, current timestamp and the
// fixed platform tag, ready for scope enrichment.
func NewEvent(now float64) *Event {
	return &Event{
		EventID:   ids.NewEventID(),
		Timestamp: now,
		Platform:  Platform,
	}
}

// Encode produces the canonical, null-omitting JSON encoding of the event.
func (e *Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}
