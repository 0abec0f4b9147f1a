// Package metrics adapts ports.MetricsSink onto Prometheus, alongside the
// typed pkg/metrics.ReconcilerMetrics the pipeline stages record against
// directly. This package exists for the generic record_point/
// record_dimension/publish contract spec.md §6 names as the out-of-scope
// MetricsSink port, so a deployment can still satisfy it without the
// pipeline's own instrumentation depending on it.
package metrics

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type point struct {
	name  string
	value float64
	unit  string
}

// PrometheusSink implements ports.MetricsSink by batching record_point
// calls against the dimensions accumulated via record_dimension, then
// materializing them into dynamically-registered gauges on Publish —
// mirroring the CloudWatch-style "accumulate dimensions, then publish a
// batch" shape the monitoring_metrics_* environment variables describe.
type PrometheusSink struct {
	namespace string
	registry  prometheus.Registerer

	mu         sync.Mutex
	dimensions map[string]string
	pending    []point
	gauges     map[string]*prometheus.GaugeVec
}

// NewPrometheusSink constructs a PrometheusSink registering its dynamic
// gauges against registry (pass prometheus.DefaultRegisterer in
// production, a fresh prometheus.NewRegistry() in tests).
func NewPrometheusSink(namespace string, registry prometheus.Registerer) *PrometheusSink {
	return &PrometheusSink{
		namespace:  namespace,
		registry:   registry,
		dimensions: make(map[string]string),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}
}

func (s *PrometheusSink) RecordPoint(name string, value float64, unit string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, point{name: name, value: value, unit: unit})
}

func (s *PrometheusSink) RecordDimension(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimensions[key] = value
}

// Publish materializes every pending point into its (possibly
// lazily-created) GaugeVec, labeled with the accumulated dimensions, then
// clears the pending batch. Dimensions persist across Publish calls, per
// the port's CloudWatch-shaped "dimensions describe the process, points
// describe one measurement" split.
func (s *PrometheusSink) Publish(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	labelNames := make([]string, 0, len(s.dimensions))
	for k := range s.dimensions {
		labelNames = append(labelNames, k)
	}

	for _, p := range s.pending {
		gauge, ok := s.gauges[p.name]
		if !ok {
			gauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: s.namespace,
				Subsystem: "reconciler_custom",
				Name:      p.name,
				Help:      "Custom measurement recorded via MetricsSink.record_point",
			}, labelNames)
			if err := s.registry.Register(gauge); err != nil {
				if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
					gauge = are.ExistingCollector.(*prometheus.GaugeVec)
				} else {
					return false, err
				}
			}
			s.gauges[p.name] = gauge
		}
		gauge.With(s.dimensions).Set(p.value)
	}

	s.pending = s.pending[:0]
	return true, nil
}
