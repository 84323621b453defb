package schema

import (
	"math"
	"testing"
	"time"
)

func testSample() Sample {
	return Sample{
		Timestamp:    time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local),
		CPUUser:      42.5,
		CPUSystem:    7.25,
		MemUsed:      12288,
		MemFree:      4096,
		DiskRootUsed: 63,
		DiskVarUsed:  81.5,
		DiskOptUsed:  0,
		TopCPUPod:    "ingest-7f9c4",
		TopMemPod:    "cache-0",
		TotalPods:    12,
		Running:      9,
		Completed:    2,
		Pending:      1,
		Other:        0,
		ReadsPerSec:  103.7,
		WritesPerSec: 55.1,
		AvgQueueSize: 1.42,
		ReadAwaitMs:  3.9,
		WriteAwaitMs: 8.05,
		DiskUtilPct:  47.3,
	}
}

func TestMarshalRecord_RoundTrip(t *testing.T) {
	orig := testSample()

	record := orig.MarshalRecord()
	if len(record) != len(Columns) {
		t.Fatalf("record has %d fields, header has %d", len(record), len(Columns))
	}

	decoded, err := UnmarshalRecord(record)
	if err != nil {
		t.Fatalf("UnmarshalRecord failed: %v", err)
	}

	if decoded != orig {
		t.Errorf("round-trip mismatch:\n got %+v\nwant %+v", decoded, orig)
	}
}

func TestUnmarshalRecord_WrongFieldCount(t *testing.T) {
	if _, err := UnmarshalRecord([]string{"2025-03-14 09:26:53", "1.0"}); err == nil {
		t.Error("expected error for truncated record")
	}
}

func TestCPUTotal(t *testing.T) {
	s := Sample{CPUUser: 40, CPUSystem: 10}
	if got := s.CPUTotal(); got != 50 {
		t.Errorf("CPUTotal = %v, want 50", got)
	}
}

func TestMemPercent(t *testing.T) {
	tests := []struct {
		name     string
		used     float64
		free     float64
		expected float64
	}{
		{"typical", 12288, 4096, 75},
		{"all used", 1024, 0, 100},
		{"all free", 0, 1024, 0},
		{"both zero", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Sample{MemUsed: tt.used, MemFree: tt.free}
			if got := s.MemPercent(); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("MemPercent(%v, %v) = %v, want %v", tt.used, tt.free, got, tt.expected)
			}
		})
	}
}

func TestMetricValue_CoversAllColumns(t *testing.T) {
	s := testSample()

	// every numeric column plus the two compound metrics must resolve
	names := []string{
		"cpu_user", "cpu_system", "cpu_total",
		"mem_used", "mem_free", "mem_percent",
		"disk_root_used", "disk_var_used", "disk_opt_used",
		"total_pods", "running", "completed", "pending", "other",
		"reads_per_sec", "writes_per_sec", "avg_queue_size",
		"read_await_ms", "write_await_ms", "disk_util_pct",
	}
	for _, name := range names {
		if _, err := s.MetricValue(name); err != nil {
			t.Errorf("MetricValue(%q) failed: %v", name, err)
		}
	}

	if _, err := s.MetricValue("nope"); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestMetricValue_CompoundMatchesMethods(t *testing.T) {
	s := testSample()

	cpu, _ := s.MetricValue("cpu_total")
	if cpu != s.CPUTotal() {
		t.Errorf("cpu_total via MetricValue = %v, via method = %v", cpu, s.CPUTotal())
	}

	mem, _ := s.MetricValue("mem_percent")
	if mem != s.MemPercent() {
		t.Errorf("mem_percent via MetricValue = %v, via method = %v", mem, s.MemPercent())
	}
}

func TestMetricMap_MatchesMetricValue(t *testing.T) {
	s := testSample()

	for name, v := range s.MetricMap() {
		want, err := s.MetricValue(name)
		if err != nil {
			t.Fatalf("MetricMap contains %q which MetricValue rejects", name)
		}
		if v.(float64) != want {
			t.Errorf("metric %q: map=%v value=%v", name, v, want)
		}
	}
}
