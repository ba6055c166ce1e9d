package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relaycore/telemetry/model"
)

func crumb(msg string) model.Breadcrumb {
	return model.Breadcrumb{Message: msg}
}

func TestRingBuffer_ClampsCapacity(t *testing.T) {
	assert.Equal(t, minRingBufferCapacity, len(newRingBuffer(0).buf))
	assert.Equal(t, maxRingBufferCapacity, len(newRingBuffer(10000).buf))
}

func TestRingBuffer_PushAndSnapshotOrder(t *testing.T) {
	rb := newRingBuffer(3)
	rb.push(crumb("a"))
	rb.push(crumb("b"))
	snap := rb.snapshot()
	assert.Equal(t, []string{"a", "b"}, messages(snap))
}

func TestRingBuffer_EvictsOldestWhenFull(t *testing.T) {
	rb := newRingBuffer(2)
	rb.push(crumb("a"))
	rb.push(crumb("b"))
	rb.push(crumb("c"))
	assert.Equal(t, []string{"b", "c"}, messages(rb.snapshot()))
}

func TestRingBuffer_Clear(t *testing.T) {
	rb := newRingBuffer(2)
	rb.push(crumb("a"))
	rb.clear()
	assert.Equal(t, 0, rb.len())
	assert.Nil(t, rb.snapshot())
}

func messages(bs []model.Breadcrumb) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Message
	}
	return out
}
