// Package metrics defines the telemetry sinks fed by the station event
// stream. A Sink records state samples; optional recorder interfaces cover
// swaps, faults and operator actions and are detected by type assertion.
// Sinks are built from configuration through a registry; several configured
// sinks are combined into a MultiSink.
package metrics
