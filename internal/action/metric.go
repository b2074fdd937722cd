package action

import (
	"context"

	"github.com/phenobarbital/ai-parrot-sub006/internal/telemetry"
)

// MetricConfig configures the metric action. There is no otel/metric
// exporter wired (see DESIGN.md "Dropped teacher dependencies"); the
// reading is recorded as a structured log line instead.
type MetricConfig struct {
	Name  string            `json:"name"`
	Value float64           `json:"value"`
	Tags  map[string]string `json:"tags"`
}

type metricAction struct {
	cfg MetricConfig
}

func newMetricAction(config map[string]any) (Action, error) {
	cfg, err := parseConfig[MetricConfig](config)
	if err != nil {
		return nil, err
	}
	return &metricAction{cfg: *cfg}, nil
}

func (a *metricAction) Invoke(_ context.Context, nodeName string, _ any, _ *Context) error {
	evt := telemetry.L().Info().
		Str("node", nodeName).
		Str("metric", a.cfg.Name).
		Float64("value", a.cfg.Value)
	for k, v := range a.cfg.Tags {
		evt = evt.Str("tag_"+k, v)
	}
	evt.Msg("metric recorded")
	return nil
}
