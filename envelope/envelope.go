// Package envelope frames events, transactions, sessions, attachments and
// check-ins into the newline-delimited wire format shipped to the ingestion
// endpoint.
package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/relaycore/telemetry/ids"
)

// ItemType is the wire tag carried on every item header.
type ItemType string

const (
	ItemEvent       ItemType = "event"
	ItemTransaction ItemType = "transaction"
	ItemSession     ItemType = "session"
	ItemAttachment  ItemType = "attachment"
	ItemCheckIn     ItemType = "check_in"
)

// SDKInfo identifies this SDK in the envelope header.
type SDKInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// DefaultSDKInfo is reported in every envelope header unless overridden.
var DefaultSDKInfo = SDKInfo{Name: "relaycore.go", Version: "0.1.0"}

type envelopeHeader struct {
	EventID string  `json:"event_id,omitempty"`
	DSN     string  `json:"dsn"`
	SentAt  string  `json:"sent_at"`
	SDK     SDKInfo `json:"sdk"`
}

type itemHeader struct {
	Type           ItemType `json:"type"`
	Length         int      `json:"length"`
	Filename       string   `json:"filename,omitempty"`
	ContentType    string   `json:"content_type,omitempty"`
	AttachmentType string   `json:"attachment_type,omitempty"`
}

// Item is a single framed payload within an envelope.
type Item struct {
	header  itemHeader
	payload []byte
}

// NewItem frames a non-attachment payload (event/transaction/session/check_in).
func NewItem(typ ItemType, payload []byte) Item {
	return Item{header: itemHeader{Type: typ, Length: len(payload)}, payload: payload}
}

// NewAttachmentItem frames an attachment payload.
func NewAttachmentItem(filename, contentType, attachmentType string, payload []byte) Item {
	return Item{
		header: itemHeader{
			Type:           ItemAttachment,
			Length:         len(payload),
			Filename:       filename,
			ContentType:    contentType,
			AttachmentType: attachmentType,
		},
		payload: payload,
	}
}

// Envelope is an ordered collection of items sharing one header.
type Envelope struct {
	EventID ids.EventID
	HasEventID bool
	DSN     string
	SentAt  time.Time
	SDK     SDKInfo
	Items   []Item
}

// NewEnvelope constructs an envelope with DefaultSDKInfo and sentAt set to
// now; callers append items with AddItem.
func NewEnvelope(dsn string, now time.Time) *Envelope {
	return &Envelope{DSN: dsn, SentAt: now, SDK: DefaultSDKInfo}
}

// WithEventID tags the envelope header with an event id, used for
// event/transaction envelopes.
func (e *Envelope) WithEventID(id ids.EventID) *Envelope {
	e.EventID = id
	e.HasEventID = true
	return e
}

// AddItem appends an item to the envelope.
func (e *Envelope) AddItem(item Item) {
	e.Items = append(e.Items, item)
}

// Encode produces the exact byte-for-byte wire representation: the envelope
// header line, then each item's header line and payload, each terminated
// by "\n" except the final payload, which ends exactly at its last byte.
func (e *Envelope) Encode() ([]byte, error) {
	if len(e.Items) == 0 {
		return nil, fmt.Errorf("envelope: cannot encode with no items")
	}

	header := envelopeHeader{
		DSN:    e.DSN,
		SentAt: ids.FormatRFC3339Milli(e.SentAt),
		SDK:    e.SDK,
	}
	if e.HasEventID {
		header.EventID = e.EventID.String()
	}
	headerBytes, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("envelope: encode header: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(headerBytes)
	buf.WriteByte('\n')

	for i, item := range e.Items {
		itemHeaderBytes, err := json.Marshal(item.header)
		if err != nil {
			return nil, fmt.Errorf("envelope: encode item header: %w", err)
		}
		buf.Write(itemHeaderBytes)
		buf.WriteByte('\n')
		buf.Write(item.payload)
		if i != len(e.Items)-1 {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes(), nil
}
