package analyzer

import (
	"fmt"

	"resource-sampler/pkg/schema"
)

const (
	// TrendWindow is the number of samples in each comparison window.
	TrendWindow = 20

	// TrendMinSamples is the minimum history required for trend detection.
	TrendMinSamples = 2 * TrendWindow
)

// Classification labels the direction of a windowed trend comparison.
type Classification string

const (
	TrendIncrease Classification = "increase"
	TrendDecrease Classification = "decrease"
	TrendStable   Classification = "stable"
)

// TrendResult compares the mean of the oldest window against the mean of the
// newest window for one metric.
type TrendResult struct {
	Metric    string
	OlderAvg  float64
	RecentAvg float64
	Delta     float64
	Class     Classification
}

// trendMetric pairs a tracked metric with the delta beyond which the change
// counts as significant: ±5 percentage points for CPU, ±100 MB for memory.
type trendMetric struct {
	name        string
	significant float64
}

var trendMetrics = []trendMetric{
	{name: "cpu_total", significant: 5},
	{name: "mem_used", significant: 100},
}

// TrendDetection compares the first TrendWindow samples against the last
// TrendWindow samples. With fewer than TrendMinSamples rows it returns
// (nil, false, nil): insufficient data is an informational outcome, not an
// error, and no numeric comparison is performed.
func (a *Analyzer) TrendDetection() ([]TrendResult, bool, error) {
	if len(a.samples) < TrendMinSamples {
		return nil, false, nil
	}

	older := a.samples[:TrendWindow]
	recent := a.samples[len(a.samples)-TrendWindow:]

	results := make([]TrendResult, 0, len(trendMetrics))
	for _, tm := range trendMetrics {
		olderAvg, err := windowMean(older, tm.name)
		if err != nil {
			return nil, false, err
		}
		recentAvg, err := windowMean(recent, tm.name)
		if err != nil {
			return nil, false, err
		}

		delta := recentAvg - olderAvg
		class := TrendStable
		switch {
		case delta > tm.significant:
			class = TrendIncrease
		case delta < -tm.significant:
			class = TrendDecrease
		}

		results = append(results, TrendResult{
			Metric:    tm.name,
			OlderAvg:  olderAvg,
			RecentAvg: recentAvg,
			Delta:     delta,
			Class:     class,
		})
	}
	return results, true, nil
}

func windowMean(window []schema.Sample, metric string) (float64, error) {
	if len(window) == 0 {
		return 0, fmt.Errorf("empty trend window for %s", metric)
	}
	var sum float64
	for _, s := range window {
		v, err := s.MetricValue(metric)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum / float64(len(window)), nil
}
