package policy

import "fmt"

// Direction is the comparison side of a threshold.
type Direction string

const (
	// DirectionAbove flags values strictly greater than the limit
	DirectionAbove Direction = "above"
	// DirectionBelow flags values strictly less than the limit
	DirectionBelow Direction = "below"
)

// Threshold pairs a metric name with its static limit and comparison direction.
type Threshold struct {
	// Metric is the schema metric name, raw or compound
	Metric string

	// Limit is the configured limit value
	Limit float64

	// Direction selects which side of the limit is a breach
	Direction Direction
}

// Breached reports whether a value crosses the threshold.
func (t Threshold) Breached(value float64) bool {
	if t.Direction == DirectionBelow {
		return value < t.Limit
	}
	return value > t.Limit
}

// String renders the threshold as a condition, e.g. "cpu_total > 85".
func (t Threshold) String() string {
	op := ">"
	if t.Direction == DirectionBelow {
		op = "<"
	}
	return fmt.Sprintf("%s %s %g", t.Metric, op, t.Limit)
}

// Policy is the ordered, immutable threshold table shared by the collector's
// bottleneck checker and the analyzer's peak detector. Both must key off this
// single table so their notions of "too high" can never diverge.
type Policy struct {
	thresholds []Threshold
	byMetric   map[string]Threshold
}

// NewPolicy builds a policy from an ordered threshold list.
func NewPolicy(thresholds []Threshold) Policy {
	byMetric := make(map[string]Threshold, len(thresholds))
	for _, t := range thresholds {
		byMetric[t.Metric] = t
	}
	return Policy{thresholds: thresholds, byMetric: byMetric}
}

// Default returns the static threshold table.
func Default() Policy {
	return NewPolicy([]Threshold{
		{Metric: "cpu_total", Limit: 85, Direction: DirectionAbove},
		{Metric: "mem_percent", Limit: 90, Direction: DirectionAbove},
		{Metric: "disk_root_used", Limit: 85, Direction: DirectionAbove},
		{Metric: "avg_queue_size", Limit: 5, Direction: DirectionAbove},
		{Metric: "disk_util_pct", Limit: 90, Direction: DirectionAbove},
		{Metric: "other", Limit: 0, Direction: DirectionAbove},
		{Metric: "pending", Limit: 0, Direction: DirectionAbove},
	})
}

// Thresholds returns the thresholds in their configured order.
func (p Policy) Thresholds() []Threshold {
	out := make([]Threshold, len(p.thresholds))
	copy(out, p.thresholds)
	return out
}

// ForMetric looks up the threshold configured for a metric.
func (p Policy) ForMetric(metric string) (Threshold, bool) {
	t, ok := p.byMetric[metric]
	return t, ok
}
