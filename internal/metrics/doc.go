// Package metrics records bridge activity.
//
// Components depend on the Collector interface. Nop discards everything;
// Prometheus keeps counters, a gauge and histograms on a private registry that
// the CLI exposes over HTTP.
package metrics
