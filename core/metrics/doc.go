// Package metrics defines the events recorded for every dispatch solve and
// performance evaluation, and the sink interfaces that consume them. Sinks
// like PromSink and InfluxSink live in infra/metrics and register themselves
// with the factory; NewMetricsSink returns a MultiSink when several are
// configured.
package metrics
