// Package otel exposes taskauth engine metrics as OpenTelemetry observable
// instruments. Counter families become one instrument with a label
// attribute; the latency histogram is published as cumulative bucket gauges.
package otel
