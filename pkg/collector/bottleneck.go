package collector

import (
	"fmt"

	"resource-sampler/pkg/schema"
)

// CheckBottlenecks evaluates the just-collected sample, and only that sample,
// against the static threshold table plus any custom rules. Each breach is
// logged as one warning line; the returned messages mirror what was logged.
// No history is consulted and nothing is persisted.
func (c *Collector) CheckBottlenecks(sample schema.Sample) []string {
	var warnings []string

	for _, th := range c.policy.Thresholds() {
		value, err := sample.MetricValue(th.Metric)
		if err != nil {
			c.log.Errorf("bottleneck check skipped: %v", err)
			continue
		}
		if !th.Breached(value) {
			continue
		}

		msg := fmt.Sprintf("bottleneck: %s = %g (threshold %s)", th.Metric, value, th)
		warnings = append(warnings, msg)
		c.log.Warnf("%s", msg)
		if c.exporter != nil {
			c.exporter.BottlenecksTotal.WithLabelValues(th.Metric).Inc()
		}
	}

	fired, errs := c.rules.Evaluate(sample.MetricMap())
	for _, err := range errs {
		c.log.Errorf("custom rule failed: %v", err)
	}
	for _, msg := range fired {
		full := "bottleneck: " + msg
		warnings = append(warnings, full)
		c.log.Warnf("%s", full)
		if c.exporter != nil {
			c.exporter.BottlenecksTotal.WithLabelValues("custom").Inc()
		}
	}

	return warnings
}
