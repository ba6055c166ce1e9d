package envelope

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaycore/telemetry/ids"
	"github.com/relaycore/telemetry/model"
)

func TestEnvelope_EncodeSingleItem_NoTrailingNewline(t *testing.T) {
	env := NewEnvelope("https://key@o0.ingest.example.com/1", time.Unix(0, 0))
	env.AddItem(NewItem(ItemSession, []byte(`{"sid":"x"}`)))

	out, err := env.Encode()
	require.NoError(t, err)
	assert.False(t, strings.HasSuffix(string(out), "\n"), "final payload must not be newline-terminated")

	lines := strings.SplitN(string(out), "\n", 3)
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], `"length":11`)
	assert.Equal(t, `{"sid":"x"}`, lines[2])
}

func TestEnvelope_EncodeMultipleItems_JoinedByNewline(t *testing.T) {
	env := NewEnvelope("https://key@o0.ingest.example.com/1", time.Unix(0, 0))
	env.WithEventID(ids.NewEventID())
	env.AddItem(NewItem(ItemEvent, []byte(`{"a":1}`)))
	env.AddItem(NewItem(ItemAttachment, []byte("binarydata")))

	out, err := env.Encode()
	require.NoError(t, err)
	lines := strings.Split(string(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, `{"a":1}`, lines[2])
	assert.Equal(t, "binarydata", lines[4])
}

func TestEnvelope_EncodeWithNoItems_Errors(t *testing.T) {
	env := NewEnvelope("https://key@o0.ingest.example.com/1", time.Unix(0, 0))
	_, err := env.Encode()
	assert.Error(t, err)
}

func TestEventItem_FramesEncodedEventAsEventItem(t *testing.T) {
	e := model.NewEvent(0)
	e.Message = &model.Message{Formatted: "hi"}
	item, err := EventItem(e)
	require.NoError(t, err)
	assert.Equal(t, ItemEvent, item.header.Type)
	assert.Greater(t, item.header.Length, 0)
}
