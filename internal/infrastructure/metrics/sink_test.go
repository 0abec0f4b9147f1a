package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusSink_PublishMaterializesPendingPoints(t *testing.T) {
	registry := prometheus.NewRegistry()
	sink := NewPrometheusSink("test", registry)

	sink.RecordDimension("scaling_group", "sg-1")
	sink.RecordPoint("latency_ms", 42, "Milliseconds")

	ok, err := sink.Publish(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	families, err := registry.Gather()
	require.NoError(t, err)

	var found *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "test_reconciler_custom_latency_ms" {
			found = f
		}
	}
	require.NotNil(t, found, "expected a gauge family for the recorded point")
	require.Len(t, found.Metric, 1)
	assert.Equal(t, 42.0, found.Metric[0].GetGauge().GetValue())
}

func TestPrometheusSink_PublishClearsPendingBatch(t *testing.T) {
	registry := prometheus.NewRegistry()
	sink := NewPrometheusSink("test", registry)

	sink.RecordPoint("a", 1, "Count")
	_, err := sink.Publish(context.Background())
	require.NoError(t, err)

	assert.Empty(t, sink.pending)
}
