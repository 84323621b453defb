package analyzer

import (
	"time"

	"resource-sampler/pkg/policy"
)

// PeakEvent is one sample whose tracked metric breached its threshold, with
// the minute-truncated interval since the previous peak of the same metric.
type PeakEvent struct {
	Timestamp time.Time
	Metric    string
	Value     float64

	// First is true for the earliest peak of the metric; SinceMinutes is
	// meaningless in that case.
	First        bool
	SinceMinutes int
}

// PeakMetrics are the metrics scanned for peaks, in report order. Each disk
// path is tracked individually; /var and /opt reuse the root-disk threshold
// since the policy table carries a single disk-usage limit.
var PeakMetrics = []string{
	"cpu_total",
	"mem_percent",
	"disk_root_used",
	"disk_var_used",
	"disk_opt_used",
	"disk_util_pct",
	"avg_queue_size",
	"other",
	"pending",
}

// thresholdFor resolves the policy threshold driving a tracked metric.
func (a *Analyzer) thresholdFor(metric string) (policy.Threshold, bool) {
	if th, ok := a.policy.ForMetric(metric); ok {
		return th, true
	}
	if metric == "disk_var_used" || metric == "disk_opt_used" {
		if root, ok := a.policy.ForMetric("disk_root_used"); ok {
			return policy.Threshold{Metric: metric, Limit: root.Limit, Direction: root.Direction}, true
		}
	}
	return policy.Threshold{}, false
}

// FindPeaks scans the history in chronological order and returns every sample
// whose value for the metric satisfies the threshold comparison. The first
// event carries no interval; every later one records the minutes elapsed
// since the previous peak of this same metric. An empty result means no
// sample ever breached.
func (a *Analyzer) FindPeaks(metric string, th policy.Threshold) ([]PeakEvent, error) {
	var peaks []PeakEvent
	var prev time.Time

	for _, s := range a.samples {
		value, err := s.MetricValue(metric)
		if err != nil {
			return nil, err
		}
		if !th.Breached(value) {
			continue
		}

		event := PeakEvent{
			Timestamp: s.Timestamp,
			Metric:    metric,
			Value:     value,
			First:     len(peaks) == 0,
		}
		if !event.First {
			event.SinceMinutes = int(s.Timestamp.Sub(prev).Minutes())
		}
		peaks = append(peaks, event)
		prev = s.Timestamp
	}
	return peaks, nil
}
