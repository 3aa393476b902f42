// Package internaldefs holds the metric names, labels and bucket bounds
// shared by the Prometheus and OpenTelemetry exporters so both expose the
// same series. It performs no I/O.
package internaldefs
