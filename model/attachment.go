package model

// Attachment is arbitrary binary data shipped alongside an event as its own
// envelope item, never inlined into the event JSON payload. AttachmentType
// tags its role (e.g. "event.attachment", "event.minidump"); empty means the
// generic default.
type Attachment struct {
	Filename       string
	ContentType    string
	AttachmentType string
	Payload        []byte
}
