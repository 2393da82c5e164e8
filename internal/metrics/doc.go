// Package metrics exposes Prometheus counters for sync and mux runs. Because
// sidecar is a short-lived CLI, metrics are exported by writing a
// node_exporter textfile at the end of a run rather than served over HTTP.
package metrics
