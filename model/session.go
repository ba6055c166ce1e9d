package model

import (
	"encoding/json"
	"time"

	"github.com/relaycore/telemetry/ids"
)

// SessionStatus is the session's lifecycle state.
type SessionStatus string

const (
	SessionOK       SessionStatus = "ok"
	SessionExited   SessionStatus = "exited"
	SessionCrashed  SessionStatus = "crashed"
	SessionAbnormal SessionStatus = "abnormal"
	SessionErrored  SessionStatus = "errored"
)

// SessionAttributes carries the release/environment pair sent with a session.
type SessionAttributes struct {
	Release     string `json:"release,omitempty"`
	Environment string `json:"environment,omitempty"`
}

// SessionMode controls whether End reports a duration, per spec's
// session_mode config option.
type SessionMode string

const (
	// SessionModeApplication tracks one session per process lifetime and
	// reports its duration on end.
	SessionModeApplication SessionMode = "application"
	// SessionModeRequest tracks one short-lived session per request;
	// duration is omitted since aggregated request sessions don't carry
	// individual timing.
	SessionModeRequest SessionMode = "request"
)

// Session tracks the health of one run of the instrumented process.
type Session struct {
	SessionID ids.EventID
	DistinctID string // distinct-device identifier, opaque
	Mode      SessionMode
	Init      bool
	Started   float64
	Timestamp float64
	Status    SessionStatus
	Errors    int
	Attrs     SessionAttributes
	Duration  *float64 // set on end, application mode only
}

// NewSession starts a fresh session in the ok state under mode.
func NewSession(now float64, attrs SessionAttributes, mode SessionMode) *Session {
	return &Session{
		SessionID: ids.NewEventID(),
		Mode:      mode,
		Init:      true,
		Started:   now,
		Timestamp: now,
		Status:    SessionOK,
		Attrs:     attrs,
	}
}

// MarkErrored transitions ok -> errored on the first errored event and
// increments the error counter unconditionally.
func (s *Session) MarkErrored() {
	s.Errors++
	if s.Status == SessionOK {
		s.Status = SessionErrored
	}
}

// MarkCrashed transitions ok|errored -> crashed on a fatal crash.
func (s *Session) MarkCrashed() {
	if s.Status == SessionOK || s.Status == SessionErrored {
		s.Status = SessionCrashed
	}
}

// End transitions ok|errored -> status (exited or abnormal), sets the
// duration and the final timestamp, and clears init (subsequent flushes of
// the same session id report init:false).
func (s *Session) End(now float64, status SessionStatus) {
	if s.Status == SessionOK || s.Status == SessionErrored {
		s.Status = status
	}
	s.Timestamp = now
	s.Init = false
	if s.Mode == SessionModeRequest {
		return
	}
	d := now - s.Started
	s.Duration = &d
}

// sessionPayload is the hand-written wire encoding for a session envelope
// item, per spec §4.6 — not the reflective event encoder.
type sessionPayload struct {
	SID       string            `json:"sid"`
	DID       string            `json:"did,omitempty"`
	Init      bool              `json:"init"`
	Started   string            `json:"started"`
	Timestamp string            `json:"timestamp"`
	Status    SessionStatus     `json:"status"`
	Errors    int               `json:"errors"`
	Duration  *float64          `json:"duration,omitempty"`
	Attrs     SessionAttributes `json:"attrs"`
}

// EncodePayload produces the hand-written session JSON payload spec §4.6
// specifies, independent of the reflective event encoder.
func (s *Session) EncodePayload() ([]byte, error) {
	p := sessionPayload{
		SID:       s.SessionID.String(),
		DID:       s.DistinctID,
		Init:      s.Init,
		Started:   ids.FormatRFC3339Milli(secondsToTime(s.Started)),
		Timestamp: ids.FormatRFC3339Milli(secondsToTime(s.Timestamp)),
		Status:    s.Status,
		Errors:    s.Errors,
		Duration:  s.Duration,
		Attrs:     s.Attrs,
	}
	return json.Marshal(p)
}

func secondsToTime(seconds float64) time.Time {
	return time.Unix(0, int64(seconds*1e9))
}
