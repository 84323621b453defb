package schema

import (
	"fmt"
	"strconv"
	"time"
)

// TimeLayout is the timestamp format used in the store.
const TimeLayout = "2006-01-02 15:04:05"

// PodUnavailable is the sentinel written when the orchestrator cannot be queried.
const PodUnavailable = "N/A"

// Columns is the ordered store header. It is the single source of truth for
// column order and must never change once a store has samples in it.
var Columns = []string{
	"timestamp",
	"cpu_user", "cpu_system",
	"mem_used", "mem_free",
	"disk_root_used", "disk_var_used", "disk_opt_used",
	"top_cpu_pod", "top_mem_pod",
	"total_pods", "running", "completed", "pending", "other",
	"reads_per_sec", "writes_per_sec", "avg_queue_size",
	"read_await_ms", "write_await_ms", "disk_util_pct",
}

// Sample is one observation of system and cluster state, immutable once written.
type Sample struct {
	Timestamp time.Time

	// Instantaneous CPU percentages derived from a two-point delta
	CPUUser   float64
	CPUSystem float64

	// Memory in megabytes
	MemUsed float64
	MemFree float64

	// Mount-point usage percentages, 0 if the path is absent
	DiskRootUsed float64
	DiskVarUsed  float64
	DiskOptUsed  float64

	// Top resource consumers, PodUnavailable if the metrics API is unreachable
	TopCPUPod string
	TopMemPod string

	// Pod phase counts
	TotalPods int
	Running   int
	Completed int
	Pending   int
	Other     int

	// Block-device rates over the sampling window, all zero if the device
	// could not be read
	ReadsPerSec  float64
	WritesPerSec float64
	AvgQueueSize float64
	ReadAwaitMs  float64
	WriteAwaitMs float64
	DiskUtilPct  float64
}

// CPUTotal returns the combined user+system CPU percentage.
func (s Sample) CPUTotal() float64 {
	return s.CPUUser + s.CPUSystem
}

// MemPercent returns memory utilization as a percentage of used+free.
// Defined as 0 when both are 0 to avoid division by zero.
func (s Sample) MemPercent() float64 {
	total := s.MemUsed + s.MemFree
	if total == 0 {
		return 0
	}
	return s.MemUsed / total * 100
}

// MetricValue resolves a metric name to its numeric value, covering both raw
// columns and compound derivations. Both the bottleneck checker and the peak
// detector go through this so the two can never drift apart.
func (s Sample) MetricValue(name string) (float64, error) {
	switch name {
	case "cpu_user":
		return s.CPUUser, nil
	case "cpu_system":
		return s.CPUSystem, nil
	case "cpu_total":
		return s.CPUTotal(), nil
	case "mem_used":
		return s.MemUsed, nil
	case "mem_free":
		return s.MemFree, nil
	case "mem_percent":
		return s.MemPercent(), nil
	case "disk_root_used":
		return s.DiskRootUsed, nil
	case "disk_var_used":
		return s.DiskVarUsed, nil
	case "disk_opt_used":
		return s.DiskOptUsed, nil
	case "total_pods":
		return float64(s.TotalPods), nil
	case "running":
		return float64(s.Running), nil
	case "completed":
		return float64(s.Completed), nil
	case "pending":
		return float64(s.Pending), nil
	case "other":
		return float64(s.Other), nil
	case "reads_per_sec":
		return s.ReadsPerSec, nil
	case "writes_per_sec":
		return s.WritesPerSec, nil
	case "avg_queue_size":
		return s.AvgQueueSize, nil
	case "read_await_ms":
		return s.ReadAwaitMs, nil
	case "write_await_ms":
		return s.WriteAwaitMs, nil
	case "disk_util_pct":
		return s.DiskUtilPct, nil
	}
	return 0, fmt.Errorf("unknown metric %q", name)
}

// MetricMap returns every numeric metric, raw and compound, keyed by name.
// Used as the evaluation environment for custom bottleneck rules.
func (s Sample) MetricMap() map[string]interface{} {
	return map[string]interface{}{
		"cpu_user":       s.CPUUser,
		"cpu_system":     s.CPUSystem,
		"cpu_total":      s.CPUTotal(),
		"mem_used":       s.MemUsed,
		"mem_free":       s.MemFree,
		"mem_percent":    s.MemPercent(),
		"disk_root_used": s.DiskRootUsed,
		"disk_var_used":  s.DiskVarUsed,
		"disk_opt_used":  s.DiskOptUsed,
		"total_pods":     float64(s.TotalPods),
		"running":        float64(s.Running),
		"completed":      float64(s.Completed),
		"pending":        float64(s.Pending),
		"other":          float64(s.Other),
		"reads_per_sec":  s.ReadsPerSec,
		"writes_per_sec": s.WritesPerSec,
		"avg_queue_size": s.AvgQueueSize,
		"read_await_ms":  s.ReadAwaitMs,
		"write_await_ms": s.WriteAwaitMs,
		"disk_util_pct":  s.DiskUtilPct,
	}
}

// MarshalRecord serializes the sample into one store row, in Columns order.
func (s Sample) MarshalRecord() []string {
	return []string{
		s.Timestamp.Format(TimeLayout),
		formatFloat(s.CPUUser),
		formatFloat(s.CPUSystem),
		formatFloat(s.MemUsed),
		formatFloat(s.MemFree),
		formatFloat(s.DiskRootUsed),
		formatFloat(s.DiskVarUsed),
		formatFloat(s.DiskOptUsed),
		s.TopCPUPod,
		s.TopMemPod,
		strconv.Itoa(s.TotalPods),
		strconv.Itoa(s.Running),
		strconv.Itoa(s.Completed),
		strconv.Itoa(s.Pending),
		strconv.Itoa(s.Other),
		formatFloat(s.ReadsPerSec),
		formatFloat(s.WritesPerSec),
		formatFloat(s.AvgQueueSize),
		formatFloat(s.ReadAwaitMs),
		formatFloat(s.WriteAwaitMs),
		formatFloat(s.DiskUtilPct),
	}
}

// UnmarshalRecord parses one store row back into a Sample.
func UnmarshalRecord(record []string) (Sample, error) {
	if len(record) != len(Columns) {
		return Sample{}, fmt.Errorf("expected %d fields, got %d", len(Columns), len(record))
	}

	ts, err := time.ParseInLocation(TimeLayout, record[0], time.Local)
	if err != nil {
		return Sample{}, fmt.Errorf("invalid timestamp %q: %w", record[0], err)
	}

	s := Sample{
		Timestamp: ts,
		TopCPUPod: record[8],
		TopMemPod: record[9],
	}

	floats := map[int]*float64{
		1: &s.CPUUser, 2: &s.CPUSystem,
		3: &s.MemUsed, 4: &s.MemFree,
		5: &s.DiskRootUsed, 6: &s.DiskVarUsed, 7: &s.DiskOptUsed,
		15: &s.ReadsPerSec, 16: &s.WritesPerSec, 17: &s.AvgQueueSize,
		18: &s.ReadAwaitMs, 19: &s.WriteAwaitMs, 20: &s.DiskUtilPct,
	}
	for idx, dst := range floats {
		v, err := strconv.ParseFloat(record[idx], 64)
		if err != nil {
			return Sample{}, fmt.Errorf("field %s: invalid value %q: %w", Columns[idx], record[idx], err)
		}
		*dst = v
	}

	ints := map[int]*int{
		10: &s.TotalPods, 11: &s.Running, 12: &s.Completed, 13: &s.Pending, 14: &s.Other,
	}
	for idx, dst := range ints {
		v, err := strconv.Atoi(record[idx])
		if err != nil {
			return Sample{}, fmt.Errorf("field %s: invalid value %q: %w", Columns[idx], record[idx], err)
		}
		*dst = v
	}

	return s, nil
}

// formatFloat uses the shortest representation that round-trips exactly, so a
// sample read back from the store always equals the one that was written.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
