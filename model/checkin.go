package model

import (
	"encoding/json"

	"github.com/relaycore/telemetry/ids"
)

// CheckInStatus is the outcome of one monitor run.
type CheckInStatus string

const (
	CheckInOK      CheckInStatus = "ok"
	CheckInError   CheckInStatus = "error"
	CheckInProgress CheckInStatus = "in_progress"
)

// CheckIn reports the health of one run of a scheduled monitor.
type CheckIn struct {
	CheckInID   ids.EventID
	MonitorSlug string
	Status      CheckInStatus
	Duration    *float64 // seconds, set once the run completes
	Environment string
}

// NewCheckIn starts an in_progress check-in for the named monitor.
func NewCheckIn(monitorSlug string) *CheckIn {
	return &CheckIn{
		CheckInID:   ids.NewEventID(),
		MonitorSlug: monitorSlug,
		Status:      CheckInProgress,
	}
}

// Complete finishes the check-in, attaching the measured duration.
func (c *CheckIn) Complete(status CheckInStatus, duration float64) {
	c.Status = status
	c.Duration = &duration
}

type checkInPayload struct {
	CheckInID   string        `json:"check_in_id"`
	MonitorSlug string        `json:"monitor_slug"`
	Status      CheckInStatus `json:"status"`
	Duration    *float64      `json:"duration,omitempty"`
	Environment string        `json:"environment,omitempty"`
}

// EncodePayload produces the hand-written check-in JSON payload spec §4.6
// specifies.
func (c *CheckIn) EncodePayload() ([]byte, error) {
	p := checkInPayload{
		CheckInID:   c.CheckInID.String(),
		MonitorSlug: c.MonitorSlug,
		Status:      c.Status,
		Duration:    c.Duration,
		Environment: c.Environment,
	}
	return json.Marshal(p)
}

// CheckInAuto runs fn, timing it, and returns a completed check-in reporting
// CheckInOK on a nil error or CheckInError otherwise.
func CheckInAuto(monitorSlug string, now func() float64, fn func() error) *CheckIn {
	c := NewCheckIn(monitorSlug)
	start := now()
	err := fn()
	duration := now() - start
	status := CheckInOK
	if err != nil {
		status = CheckInError
	}
	c.Complete(status, duration)
	return c
}
