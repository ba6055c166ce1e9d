package envelope

import (
	"fmt"

	"github.com/relaycore/telemetry/model"
)

// EventItem encodes e with the reflective null-omitting encoder and frames
// it as an event item.
func EventItem(e *model.Event) (Item, error) {
	payload, err := e.Encode()
	if err != nil {
		return Item{}, fmt.Errorf("envelope: encode event: %w", err)
	}
	return NewItem(ItemEvent, payload), nil
}

// TransactionItem encodes t with the hand-written transaction encoder and
// frames it as a transaction item.
func TransactionItem(t *model.Transaction) (Item, error) {
	payload, err := t.EncodePayload()
	if err != nil {
		return Item{}, fmt.Errorf("envelope: encode transaction: %w", err)
	}
	return NewItem(ItemTransaction, payload), nil
}

// SessionItem encodes s with the hand-written session encoder and frames it
// as a session item.
func SessionItem(s *model.Session) (Item, error) {
	payload, err := s.EncodePayload()
	if err != nil {
		return Item{}, fmt.Errorf("envelope: encode session: %w", err)
	}
	return NewItem(ItemSession, payload), nil
}

// CheckInItem encodes c with the hand-written check-in encoder and frames
// it as a check_in item.
func CheckInItem(c *model.CheckIn) (Item, error) {
	payload, err := c.EncodePayload()
	if err != nil {
		return Item{}, fmt.Errorf("envelope: encode check-in: %w", err)
	}
	return NewItem(ItemCheckIn, payload), nil
}

// AttachmentItem frames a model attachment.
func AttachmentItem(a model.Attachment) Item {
	return NewAttachmentItem(a.Filename, a.ContentType, a.AttachmentType, a.Payload)
}
