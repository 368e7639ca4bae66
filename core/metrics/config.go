package metrics

import "github.com/kilianp07/hydrodispatch/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	// PrometheusPort exposes /metrics when a prometheus sink is configured.
	PrometheusPort string `json:"prometheus_port" yaml:"prometheus_port"`
}
