package sources

import (
	"math"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
)

func TestDeriveRates(t *testing.T) {
	before := disk.IOCountersStat{
		ReadCount:  1000,
		WriteCount: 500,
		ReadTime:   4000,
		WriteTime:  9000,
		IoTime:     50000,
		WeightedIO: 70000,
	}
	after := disk.IOCountersStat{
		ReadCount:  1100, // 100 reads over the window
		WriteCount: 550,  // 50 writes
		ReadTime:   4400, // 400ms spent reading -> 4ms await
		WriteTime:  9250, // 250ms spent writing -> 5ms await
		IoTime:     50450, // 450ms busy out of 1000ms -> 45% util
		WeightedIO: 72000, // 2000ms weighted -> queue of 2
	}

	rates := deriveRates(before, after, time.Second)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"reads/s", rates.ReadsPerSec, 100},
		{"writes/s", rates.WritesPerSec, 50},
		{"read await", rates.ReadAwaitMs, 4},
		{"write await", rates.WriteAwaitMs, 5},
		{"util", rates.UtilPct, 45},
		{"queue", rates.AvgQueueSize, 2},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestDeriveRates_IdleDevice(t *testing.T) {
	stat := disk.IOCountersStat{ReadCount: 1000, WriteCount: 500, ReadTime: 100, WriteTime: 100}

	rates := deriveRates(stat, stat, time.Second)

	if rates != (IORates{}) {
		t.Errorf("idle device should produce all-zero rates, got %+v", rates)
	}
}

func TestDeriveRates_ZeroInterval(t *testing.T) {
	stat := disk.IOCountersStat{ReadCount: 10}
	if rates := deriveRates(stat, stat, 0); rates != (IORates{}) {
		t.Errorf("zero interval should produce all-zero rates, got %+v", rates)
	}
}
