package crashmarker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaycore/telemetry/model"
)

func TestReplay_NoMarker_NotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing")
	e, found, err := Replay(0, path)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, e)
}

func TestReplay_ValidMarker_SynthesizesFatalEvent(t *testing.T) {
	dir := t.TempDir()
	path := MarkerPath(dir)
	require.NoError(t, os.WriteFile(path, markerContent(11), 0o644))

	e, found, err := Replay(0, path)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, e.Exception, 1)
	assert.Equal(t, "NativeCrash", e.Exception[0].Type)
	assert.Equal(t, "Crash: SIGSEGV (signal 11)", e.Exception[0].Value)
	assert.Equal(t, model.LevelFatal, e.Level)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "marker must be deleted after replay")
}

func TestReplay_MalformedMarker_Errors(t *testing.T) {
	dir := t.TempDir()
	path := MarkerPath(dir)
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	_, _, err := Replay(0, path)
	assert.Error(t, err)
}

func TestMarkerContent_RoundTrips(t *testing.T) {
	for _, sig := range []int{4, 6, 7, 8, 11} {
		n, err := parseMarker(markerContent(sig))
		require.NoError(t, err)
		assert.Equal(t, sig, n)
	}
}
