// Package ids provides the 128-bit and 64-bit wire identifiers used across
// events, spans, sessions and check-ins, plus the canonical RFC 3339
// millisecond timestamp encoder.
//
// The random source and date math are both out of this SDK's scope per the
// specification (they are one-line-contract utilities); we lean on
// google/uuid for the CSPRNG-backed v4 identifier and on the standard
// library's time package for calendar-correct formatting.
package ids

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventID is a 128-bit identifier, wire-encoded as 32 lowercase hex chars.
type EventID [16]byte

// SpanID is a 64-bit identifier, wire-encoded as 16 lowercase hex chars.
type SpanID [8]byte

// NewEventID generates a random v4-derived 128-bit identifier.
func NewEventID() EventID {
	var id EventID
	full := uuid.New()
	copy(id[:], full[:])
	return id
}

// NewSpanID generates a random 64-bit span identifier.
func NewSpanID() SpanID {
	full := uuid.New()
	var id SpanID
	copy(id[:], full[:8])
	return id
}

// String renders the identifier as 32 lowercase hex characters.
func (id EventID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether the identifier is the all-zero value.
func (id EventID) IsZero() bool {
	return id == EventID{}
}

// String renders the identifier as 16 lowercase hex characters.
func (id SpanID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether the identifier is the all-zero value.
func (id SpanID) IsZero() bool {
	return id == SpanID{}
}

// MarshalJSON renders the identifier as its hex string form.
func (id EventID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.String() + `"`), nil
}

// UnmarshalJSON parses the identifier from its hex string form.
func (id *EventID) UnmarshalJSON(b []byte) error {
	s, err := unquote(b)
	if err != nil {
		return err
	}
	parsed, err := EventIDFromHex(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalJSON renders the identifier as its hex string form.
func (id SpanID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.String() + `"`), nil
}

// UnmarshalJSON parses the identifier from its hex string form.
func (id *SpanID) UnmarshalJSON(b []byte) error {
	s, err := unquote(b)
	if err != nil {
		return err
	}
	parsed, err := SpanIDFromHex(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func unquote(b []byte) (string, error) {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return "", fmt.Errorf("ids: %w", err)
	}
	return s, nil
}

// EventIDFromHex parses a 32-character lowercase hex identifier.
func EventIDFromHex(s string) (EventID, error) {
	var id EventID
	if len(s) != 32 {
		return id, fmt.Errorf("ids: event id must be 32 hex chars, got %d", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("ids: invalid event id: %w", err)
	}
	copy(id[:], b)
	return id, nil
}

// SpanIDFromHex parses a 16-character lowercase hex identifier.
func SpanIDFromHex(s string) (SpanID, error) {
	var id SpanID
	if len(s) != 16 {
		return id, fmt.Errorf("ids: span id must be 16 hex chars, got %d", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("ids: invalid span id: %w", err)
	}
	copy(id[:], b)
	return id, nil
}

// FormatRFC3339Milli renders t as exactly YYYY-MM-DDTHH:MM:SS.mmmZ (24 bytes),
// correct for any date from 1970-01-01 onward.
func FormatRFC3339Milli(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// SecondsWithFraction renders t as a float64 of seconds since the epoch,
// matching the wire form used for event/span/transaction timestamps.
func SecondsWithFraction(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
