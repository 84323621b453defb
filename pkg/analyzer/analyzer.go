// Package analyzer mines the full sample history for aggregate statistics,
// hourly usage patterns, growth trends, and threshold peaks. It is strictly
// read-only with respect to the store.
package analyzer

import (
	"errors"
	"fmt"

	"resource-sampler/pkg/logger"
	"resource-sampler/pkg/policy"
	"resource-sampler/pkg/schema"
	"resource-sampler/pkg/store"
)

// ErrNoData is returned when the store is missing or holds no data rows.
var ErrNoData = errors.New("store has no samples to analyze")

// SummaryMetrics are the metrics covered by the summary-statistics section.
var SummaryMetrics = []string{"cpu_total", "mem_used", "disk_util_pct"}

// Analyzer computes every report section from one in-memory pass over the
// store.
type Analyzer struct {
	store   *store.Store
	policy  policy.Policy
	log     *logger.Logger
	samples []schema.Sample
}

// New creates an analyzer over the given store.
func New(st *store.Store, pol policy.Policy) *Analyzer {
	return &Analyzer{
		store:  st,
		policy: pol,
		log:    logger.Default(),
	}
}

// Load reads the whole store into memory in stored (chronological) order and
// validates that there is something to analyze. Analysis without at least one
// data row is a fatal error, before any section is produced.
func (a *Analyzer) Load() error {
	if !a.store.Exists() {
		return fmt.Errorf("%w: %s does not exist", ErrNoData, a.store.Path())
	}

	samples, err := a.store.ReadAll()
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("%w: %s has a header but no rows", ErrNoData, a.store.Path())
	}

	a.samples = samples
	return nil
}

// SampleCount returns the number of loaded samples.
func (a *Analyzer) SampleCount() int {
	return len(a.samples)
}

// SummaryStat holds min/max/mean/count for one metric over the whole history.
type SummaryStat struct {
	Metric string
	Min    float64
	Max    float64
	Mean   float64
	Count  int
}

// Summary computes the summary statistics for every metric in SummaryMetrics.
func (a *Analyzer) Summary() ([]SummaryStat, error) {
	stats := make([]SummaryStat, 0, len(SummaryMetrics))
	for _, metric := range SummaryMetrics {
		stat, err := a.summarize(metric)
		if err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

func (a *Analyzer) summarize(metric string) (SummaryStat, error) {
	stat := SummaryStat{Metric: metric}
	for i, s := range a.samples {
		v, err := s.MetricValue(metric)
		if err != nil {
			return SummaryStat{}, err
		}
		if i == 0 {
			stat.Min, stat.Max = v, v
		} else {
			if v < stat.Min {
				stat.Min = v
			}
			if v > stat.Max {
				stat.Max = v
			}
		}
		stat.Mean += v
		stat.Count++
	}
	if stat.Count > 0 {
		stat.Mean /= float64(stat.Count)
	}
	return stat, nil
}

// HourBucket aggregates samples sharing an hour of day, across all calendar
// days. Discarding the date dimension is deliberate: the pattern of interest
// is "what does 09:00 look like", not "what did 09:00 look like on June 3rd".
type HourBucket struct {
	Hour          int
	Count         int
	AvgCPUTotal   float64
	AvgMemPercent float64
}

// HourlyPattern buckets every sample by hour of day (0-23) and averages
// CPU-total and memory-percent per bucket.
func (a *Analyzer) HourlyPattern() [24]HourBucket {
	var buckets [24]HourBucket
	for h := range buckets {
		buckets[h].Hour = h
	}

	for _, s := range a.samples {
		h := s.Timestamp.Hour()
		buckets[h].Count++
		buckets[h].AvgCPUTotal += s.CPUTotal()
		buckets[h].AvgMemPercent += s.MemPercent()
	}

	for h := range buckets {
		if buckets[h].Count > 0 {
			buckets[h].AvgCPUTotal /= float64(buckets[h].Count)
			buckets[h].AvgMemPercent /= float64(buckets[h].Count)
		}
	}
	return buckets
}
