// Package propagation parses inbound trace-continuation headers:
// sentry-trace, W3C traceparent, and baggage.
package propagation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relaycore/telemetry/ids"
)

// TraceContext is the parsed result of an inbound propagation header.
type TraceContext struct {
	TraceID ids.EventID
	SpanID  ids.SpanID
	Sampled *bool
}

// ParseSentryTrace parses "sentry-trace: <trace_id>-<span_id>[-<sampled>]".
func ParseSentryTrace(header string) (TraceContext, bool) {
	header = strings.TrimSpace(header)
	parts := strings.Split(header, "-")
	if len(parts) < 2 {
		return TraceContext{}, false
	}

	traceID, err := ids.EventIDFromHex(strings.ToLower(parts[0]))
	if err != nil {
		return TraceContext{}, false
	}
	spanID, err := ids.SpanIDFromHex(strings.ToLower(parts[1]))
	if err != nil {
		return TraceContext{}, false
	}

	tc := TraceContext{TraceID: traceID, SpanID: spanID}
	if len(parts) >= 3 {
		switch parts[2] {
		case "1":
			v := true
			tc.Sampled = &v
		case "0":
			v := false
			tc.Sampled = &v
		}
	}
	return tc, true
}

// ParseTraceparent parses the W3C "traceparent: <version>-<trace_id>-<span_id>-<flags>"
// header. Version "ff" is rejected outright. Version "00" rejects any
// trailing fields; later versions tolerate trailing data. All-zero trace or
// span identifiers are rejected. Identifiers are normalised to lowercase.
func ParseTraceparent(header string) (TraceContext, bool) {
	header = strings.TrimSpace(strings.ToLower(header))
	parts := strings.Split(header, "-")
	if len(parts) < 4 {
		return TraceContext{}, false
	}

	version := parts[0]
	if version == "ff" {
		return TraceContext{}, false
	}
	if version == "00" && len(parts) != 4 {
		return TraceContext{}, false
	}

	traceID, err := ids.EventIDFromHex(parts[1])
	if err != nil || traceID.IsZero() {
		return TraceContext{}, false
	}
	spanID, err := ids.SpanIDFromHex(parts[2])
	if err != nil || spanID.IsZero() {
		return TraceContext{}, false
	}

	flags, err := strconv.ParseUint(parts[3], 16, 8)
	if err != nil {
		return TraceContext{}, false
	}
	sampled := flags&0x1 == 1

	return TraceContext{TraceID: traceID, SpanID: spanID, Sampled: &sampled}, true
}

// ParseBaggage opportunistically extracts Sentry-prefixed keys from a W3C
// baggage header ("sentry-<key>=<value>,...") into a plain string map keyed
// without the "sentry-" prefix.
func ParseBaggage(header string) map[string]string {
	out := make(map[string]string)
	for _, member := range strings.Split(header, ",") {
		member = strings.TrimSpace(member)
		if member == "" {
			continue
		}
		kv := strings.SplitN(member, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		const prefix = "sentry-"
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		out[strings.TrimPrefix(key, prefix)] = strings.TrimSpace(kv[1])
	}
	return out
}

// FormatSentryTrace renders a sentry-trace header value for an outbound
// continuation.
func FormatSentryTrace(traceID ids.EventID, spanID ids.SpanID, sampled *bool) string {
	if sampled == nil {
		return fmt.Sprintf("%s-%s", traceID.String(), spanID.String())
	}
	bit := "0"
	if *sampled {
		bit = "1"
	}
	return fmt.Sprintf("%s-%s-%s", traceID.String(), spanID.String(), bit)
}
