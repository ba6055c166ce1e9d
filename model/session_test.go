package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_End_ApplicationModeReportsDuration(t *testing.T) {
	s := NewSession(0, SessionAttributes{Release: "1.0.0"}, SessionModeApplication)
	s.End(5, SessionExited)

	require.NotNil(t, s.Duration)
	assert.Equal(t, 5.0, *s.Duration)
}

func TestSession_End_RequestModeOmitsDuration(t *testing.T) {
	s := NewSession(0, SessionAttributes{Release: "1.0.0"}, SessionModeRequest)
	s.End(5, SessionExited)

	assert.Nil(t, s.Duration)
}

func TestSession_EncodePayload_OmitsDurationWhenNil(t *testing.T) {
	s := NewSession(0, SessionAttributes{Release: "1.0.0"}, SessionModeRequest)
	s.End(5, SessionExited)

	payload, err := s.EncodePayload()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	_, hasDuration := decoded["duration"]
	assert.False(t, hasDuration)
}
