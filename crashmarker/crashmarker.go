// Package crashmarker detects a fatal signal that killed the previous run
// of the process by writing a small marker file from the signal handler
// and replaying it as a synthesized crash event on the next startup.
//
// A fully async-signal-safe handler in the C sense (no allocator, no
// goroutine scheduling, direct syscalls only) cannot be expressed in pure
// Go: os/signal necessarily delivers signals through a runtime-managed
// channel and goroutine. What this package keeps faithful to that contract
// is the marker write itself, which touches only syscall.Open/Write/Close
// with a small byte buffer formatted without fmt.
package crashmarker

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/relaycore/telemetry/model"
)

const markerFileName = ".sentry-zig-crash"

// MarkerPath computes the well-known marker file path under dir.
func MarkerPath(dir string) string {
	return filepath.Join(dir, markerFileName)
}

var signalNames = map[int]string{
	11: "SIGSEGV",
	6:  "SIGABRT",
	7:  "SIGBUS",
	4:  "SIGILL",
	8:  "SIGFPE",
}

func signalName(n int) string {
	if name, ok := signalNames[n]; ok {
		return name
	}
	return "UNKNOWN"
}

// Replay reads the marker at path, if present; parses it; deletes it; and
// returns a synthesized fatal crash event for the signal it recorded.
// found is false (with a nil event and nil error) when no marker exists.
func Replay(now float64, path string) (event *model.Event, found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("crashmarker: read marker: %w", err)
	}
	defer os.Remove(path)

	sig, err := parseMarker(data)
	if err != nil {
		return nil, false, err
	}

	e := model.NewEvent(now)
	e.Level = model.LevelFatal
	e.Exception = []model.Exception{{
		Type:  "NativeCrash",
		Value: fmt.Sprintf("Crash: %s (signal %d)", signalName(sig), sig),
	}}
	return e, true, nil
}

func parseMarker(data []byte) (int, error) {
	line := strings.TrimSpace(string(data))
	const prefix = "signal:"
	if !strings.HasPrefix(line, prefix) {
		return 0, fmt.Errorf("crashmarker: malformed marker %q", line)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(line, prefix))
	if err != nil {
		return 0, fmt.Errorf("crashmarker: malformed signal number: %w", err)
	}
	return n, nil
}

// markerContent renders the literal bytes written by the handler:
// "signal:<N>\n", built without fmt to keep the handler path allocator-light.
func markerContent(sig int) []byte {
	b := make([]byte, 0, len("signal:")+10+1)
	b = append(b, "signal:"...)
	b = appendInt(b, sig)
	b = append(b, '\n')
	return b
}

func appendInt(b []byte, n int) []byte {
	if n == 0 {
		return append(b, '0')
	}
	start := len(b)
	for n > 0 {
		b = append(b, byte('0'+n%10))
		n /= 10
	}
	for i, j := start, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return b
}
