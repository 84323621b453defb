package analyzer

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"resource-sampler/pkg/policy"
	"resource-sampler/pkg/schema"
	"resource-sampler/pkg/store"
)

func newLoadedAnalyzer(t *testing.T, samples []schema.Sample) *Analyzer {
	t.Helper()

	st := store.New(filepath.Join(t.TempDir(), "history.csv"))
	for _, s := range samples {
		if s.TopCPUPod == "" {
			s.TopCPUPod = schema.PodUnavailable
		}
		if s.TopMemPod == "" {
			s.TopMemPod = schema.PodUnavailable
		}
		if err := st.Append(s); err != nil {
			t.Fatalf("seeding store: %v", err)
		}
	}

	a := New(st, policy.Default())
	if err := a.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return a
}

// cpuSeries generates samples one minute apart with the given cpu_user values.
func cpuSeries(start time.Time, cpuUser ...float64) []schema.Sample {
	samples := make([]schema.Sample, len(cpuUser))
	for i, v := range cpuUser {
		samples[i] = schema.Sample{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			CPUUser:   v,
			MemUsed:   1000,
			MemFree:   1000,
		}
	}
	return samples
}

func TestLoad_MissingStoreIsFatal(t *testing.T) {
	a := New(store.New(filepath.Join(t.TempDir(), "absent.csv")), policy.Default())
	if err := a.Load(); err == nil {
		t.Error("expected error for missing store")
	}
}

func TestLoad_HeaderOnlyStoreIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	header := strings.Join(schema.Columns, ",") + "\n"
	if err := os.WriteFile(path, []byte(header), 0644); err != nil {
		t.Fatal(err)
	}

	a := New(store.New(path), policy.Default())
	if err := a.Load(); err == nil {
		t.Error("expected error for header-only store")
	}
}

func TestFindPeaks_SpecExample(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)
	samples := []schema.Sample{
		{Timestamp: start, CPUUser: 40, CPUSystem: 10},
		{Timestamp: start.Add(time.Minute), CPUUser: 50, CPUSystem: 40},
		{Timestamp: start.Add(2 * time.Minute), CPUUser: 10, CPUSystem: 5},
	}
	a := newLoadedAnalyzer(t, samples)

	peaks, err := a.FindPeaks("cpu_total", policy.Threshold{
		Metric: "cpu_total", Limit: 80, Direction: policy.DirectionAbove,
	})
	if err != nil {
		t.Fatalf("FindPeaks failed: %v", err)
	}

	if len(peaks) != 1 {
		t.Fatalf("got %d peaks, want 1", len(peaks))
	}
	if peaks[0].Value != 90 {
		t.Errorf("peak value = %v, want 90", peaks[0].Value)
	}
	if !peaks[0].First {
		t.Error("only peak must be marked first")
	}
}

func TestFindPeaks_IntervalsAreMinuteTruncated(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)
	samples := []schema.Sample{
		{Timestamp: start, CPUUser: 90},
		{Timestamp: start.Add(10 * time.Minute), CPUUser: 10},
		{Timestamp: start.Add(37*time.Minute + 45*time.Second), CPUUser: 95},
		{Timestamp: start.Add(40 * time.Minute), CPUUser: 91},
	}
	a := newLoadedAnalyzer(t, samples)

	peaks, err := a.FindPeaks("cpu_total", policy.Threshold{
		Metric: "cpu_total", Limit: 85, Direction: policy.DirectionAbove,
	})
	if err != nil {
		t.Fatalf("FindPeaks failed: %v", err)
	}

	if len(peaks) != 3 {
		t.Fatalf("got %d peaks, want 3", len(peaks))
	}
	if !peaks[0].First {
		t.Error("first peak should carry no interval")
	}
	if peaks[1].SinceMinutes != 37 {
		t.Errorf("second interval = %d min, want 37 (truncated)", peaks[1].SinceMinutes)
	}
	if peaks[2].SinceMinutes != 2 {
		t.Errorf("third interval = %d min, want 2", peaks[2].SinceMinutes)
	}
}

func TestFindPeaks_StrictComparison(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)
	a := newLoadedAnalyzer(t, cpuSeries(start, 85, 85.5))

	peaks, err := a.FindPeaks("cpu_total", policy.Threshold{
		Metric: "cpu_total", Limit: 85, Direction: policy.DirectionAbove,
	})
	if err != nil {
		t.Fatal(err)
	}

	// exactly-at-threshold must not flag; strictly greater must
	if len(peaks) != 1 || peaks[0].Value != 85.5 {
		t.Errorf("peaks = %+v, want only the 85.5 sample", peaks)
	}
}

func TestFindPeaks_DirectionBelow(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)
	a := newLoadedAnalyzer(t, cpuSeries(start, 50, 3, 60))

	peaks, err := a.FindPeaks("cpu_total", policy.Threshold{
		Metric: "cpu_total", Limit: 5, Direction: policy.DirectionBelow,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(peaks) != 1 || peaks[0].Value != 3 {
		t.Errorf("peaks = %+v, want only the idle sample", peaks)
	}
}

func TestTrendDetection_InsufficientData(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)
	values := make([]float64, TrendMinSamples-1)
	a := newLoadedAnalyzer(t, cpuSeries(start, values...))

	results, ok, err := a.TrendDetection()
	if err != nil {
		t.Fatalf("TrendDetection failed: %v", err)
	}
	if ok {
		t.Error("39 samples must report insufficient data")
	}
	if results != nil {
		t.Error("no numeric comparison may be performed on insufficient data")
	}
}

func TestTrendDetection_Classification(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)

	// first 20 samples at cpu 10, last 20 at cpu 50: +40 -> increase;
	// memory constant -> stable
	values := make([]float64, 40)
	for i := range values {
		if i < 20 {
			values[i] = 10
		} else {
			values[i] = 50
		}
	}
	a := newLoadedAnalyzer(t, cpuSeries(start, values...))

	results, ok, err := a.TrendDetection()
	if err != nil {
		t.Fatalf("TrendDetection failed: %v", err)
	}
	if !ok {
		t.Fatal("40 samples must be sufficient")
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	cpu := results[0]
	if cpu.Metric != "cpu_total" || cpu.Class != TrendIncrease {
		t.Errorf("cpu trend = %+v, want increase", cpu)
	}
	if math.Abs(cpu.Delta-40) > 1e-9 {
		t.Errorf("cpu delta = %v, want 40", cpu.Delta)
	}

	mem := results[1]
	if mem.Metric != "mem_used" || mem.Class != TrendStable {
		t.Errorf("mem trend = %+v, want stable", mem)
	}
}

func TestTrendDetection_SmallDeltaIsStable(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)

	values := make([]float64, 40)
	for i := range values {
		if i >= 20 {
			values[i] = 4 // delta 4 < significance 5
		}
	}
	a := newLoadedAnalyzer(t, cpuSeries(start, values...))

	results, ok, err := a.TrendDetection()
	if err != nil || !ok {
		t.Fatalf("TrendDetection = (%v, %v)", ok, err)
	}
	if results[0].Class != TrendStable {
		t.Errorf("cpu delta of 4 should be stable, got %s", results[0].Class)
	}
}

func TestHourlyPattern_SpecExample(t *testing.T) {
	day1 := time.Date(2025, 6, 1, 9, 15, 0, 0, time.Local)
	day2 := time.Date(2025, 6, 2, 9, 45, 0, 0, time.Local)

	// two samples at hour 09 on different days: cpu_total 20 and 40
	samples := []schema.Sample{
		{Timestamp: day1, CPUUser: 15, CPUSystem: 5, MemUsed: 600, MemFree: 400},
		{Timestamp: day2, CPUUser: 30, CPUSystem: 10, MemUsed: 200, MemFree: 800},
	}
	a := newLoadedAnalyzer(t, samples)

	buckets := a.HourlyPattern()

	nine := buckets[9]
	if nine.Count != 2 {
		t.Fatalf("hour 09 has %d samples, want 2 (days must merge)", nine.Count)
	}
	if math.Abs(nine.AvgCPUTotal-30) > 1e-9 {
		t.Errorf("hour 09 cpu avg = %v, want 30", nine.AvgCPUTotal)
	}
	if math.Abs(nine.AvgMemPercent-40) > 1e-9 {
		t.Errorf("hour 09 mem avg = %v, want 40", nine.AvgMemPercent)
	}

	for h, b := range buckets {
		if h != 9 && b.Count != 0 {
			t.Errorf("hour %02d unexpectedly has %d samples", h, b.Count)
		}
	}
}

func TestSummary_MinMaxMeanCount(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)
	a := newLoadedAnalyzer(t, cpuSeries(start, 10, 20, 60))

	stats, err := a.Summary()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if len(stats) != 3 {
		t.Fatalf("got %d summary rows, want 3", len(stats))
	}

	cpu := stats[0]
	if cpu.Metric != "cpu_total" {
		t.Fatalf("first summary metric = %s", cpu.Metric)
	}
	if cpu.Min != 10 || cpu.Max != 60 || cpu.Count != 3 {
		t.Errorf("cpu summary = %+v", cpu)
	}
	if math.Abs(cpu.Mean-30) > 1e-9 {
		t.Errorf("cpu mean = %v, want 30", cpu.Mean)
	}

	if stats[2].Metric != "disk_util_pct" {
		t.Errorf("last summary metric = %s, want disk_util_pct", stats[2].Metric)
	}
}
