// Package prometheus renders taskauth engine metrics in the Prometheus text
// exposition format without depending on the Prometheus client library.
// Series names and labels come from metrics/export/internaldefs.
package prometheus
