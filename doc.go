// Package telemetry is an error-and-performance telemetry SDK: it captures
// events, transactions, sessions, breadcrumbs and monitor check-ins from an
// instrumented process and ships them to a remote ingestion endpoint over a
// newline-delimited envelope wire format.
//
// Construct a client with Init, capture through its methods or through
// Client.Hub() for scope-stack control, and call Close before the process
// exits to flush and shut down cleanly.
package telemetry
